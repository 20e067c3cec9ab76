package metrics

import (
	"errors"
	"strconv"
	"time"

	"auction-house/internal/auctionerrors"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "auction"

// Metrics holds the collectors exported on /metrics
type Metrics struct {
	registry *prometheus.Registry

	bidsAccepted   prometheus.Counter
	bidsRejected   *prometheus.CounterVec
	auctionsClosed prometheus.Counter

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// New creates the collectors on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		bidsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bids_accepted_total",
			Help:      "Bids recorded by the ledger.",
		}),
		bidsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bids_rejected_total",
			Help:      "Bids refused by the ledger, by reason.",
		}, []string{"reason"}),
		auctionsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auctions_expired_total",
			Help:      "Auctions closed by deadline expiry.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		m.bidsAccepted,
		m.bidsRejected,
		m.auctionsClosed,
		m.requests,
		m.latency,
		prometheus.NewGoCollector(),
	)
	return m
}

// BidAccepted counts a recorded bid
func (m *Metrics) BidAccepted() {
	m.bidsAccepted.Inc()
}

// BidRejected counts a refused bid under the reason derived from err
func (m *Metrics) BidRejected(err error) {
	m.bidsRejected.WithLabelValues(rejectReason(err)).Inc()
}

// AuctionsClosed counts auctions closed by expiry
func (m *Metrics) AuctionsClosed(n int) {
	m.auctionsClosed.Add(float64(n))
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, auctionerrors.ErrBidTooLow):
		return "too_low"
	case errors.Is(err, auctionerrors.ErrAuctionClosed):
		return "closed"
	case errors.Is(err, auctionerrors.ErrItemNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// Middleware records request counts and latency per route template
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.latency.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
