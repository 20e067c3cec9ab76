package server

import (
	"net/http"
	"strings"
	"time"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/auth"
	"auction-house/internal/models"
	"auction-house/services/auction/helpers"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

// TokenParser verifies bearer tokens
type TokenParser interface {
	Parse(token string) (auth.Claims, error)
}

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	utils.Info("HTTP Request", map[string]any{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
	})
}

// AuthMiddleware requires a valid, unrevoked "Authorization: Bearer <token>"
// header and stores the caller and its session for the handlers
func AuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, token, found := strings.Cut(c.GetHeader("Authorization"), " ")
		if !found || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
			abortUnauthorized(c, "missing or malformed authorization header")
			return
		}

		claims, err := tokens.Parse(strings.TrimSpace(token))
		if err != nil {
			abortUnauthorized(c, err.Error())
			return
		}

		helpers.SetActor(c, claims.Actor())
		helpers.SetSession(c, claims.Session())
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, reason string) {
	utils.Warn("AuthMiddleware: request rejected", map[string]any{
		"path":   c.Request.URL.Path,
		"reason": reason,
	})
	utils.JSONError(c, http.StatusUnauthorized, auctionerrors.ErrUnauthorized, "unauthorized")
	c.Abort()
}

// RequireRole lets only the given roles through; it must run after AuthMiddleware
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := helpers.ActorFromContext(c)
		if !ok {
			abortUnauthorized(c, "no authenticated caller")
			return
		}
		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}

		utils.Warn("RequireRole: request forbidden", map[string]any{
			"path":    c.Request.URL.Path,
			"user_id": actor.UserID,
			"role":    actor.Role,
		})
		utils.JSONError(c, http.StatusForbidden, auctionerrors.ErrForbidden, "forbidden")
		c.Abort()
	}
}
