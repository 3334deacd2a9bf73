package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for gateway operations.
var (
	upstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sportsgate_upstream_requests_total",
		Help: "Total upstream requests by resource class and status",
	}, []string{"class", "status"})

	upstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sportsgate_upstream_duration_seconds",
		Help:    "Upstream request duration in seconds by resource class",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"class"})

	gatewayErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sportsgate_gateway_errors_total",
		Help: "Total gateway failures by kind",
	}, []string{"kind"})

	rateLimitWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sportsgate_ratelimit_wait_seconds",
		Help:    "Time spent waiting for rate limit headroom",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60},
	})
)
