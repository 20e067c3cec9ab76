package server

import (
	"net/http"
	"strings"

	"auction-house/utils"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
)

// WithCORS wraps the router so browser clients from the given origins can call the API.
// An empty list allows every origin.
func WithCORS(next http.Handler, allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	})(next)
}

type brotliWriter struct {
	gin.ResponseWriter
	bw *brotli.Writer
}

func (w *brotliWriter) Write(b []byte) (int, error) {
	return w.bw.Write(b)
}

func (w *brotliWriter) WriteString(s string) (int, error) {
	return w.bw.Write([]byte(s))
}

// CompressionMiddleware brotli-encodes responses for clients that accept "br"
func CompressionMiddleware(c *gin.Context) {
	if !acceptsBrotli(c.GetHeader("Accept-Encoding")) {
		c.Next()
		return
	}

	h := c.Writer.Header()
	h.Set("Content-Encoding", "br")
	h.Add("Vary", "Accept-Encoding")
	h.Del("Content-Length")

	bw := brotli.NewWriterLevel(c.Writer, brotli.DefaultCompression)
	c.Writer = &brotliWriter{ResponseWriter: c.Writer, bw: bw}
	defer func() {
		if err := bw.Close(); err != nil {
			utils.Warn("CompressionMiddleware: failed to flush response", map[string]any{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
		}
	}()

	c.Next()
}

func acceptsBrotli(header string) bool {
	for _, part := range strings.Split(header, ",") {
		enc, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if !strings.EqualFold(strings.TrimSpace(enc), "br") {
			continue
		}
		return strings.ReplaceAll(strings.TrimSpace(params), " ", "") != "q=0"
	}
	return false
}
