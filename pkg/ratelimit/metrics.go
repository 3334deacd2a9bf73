package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the dual-window limiter.
var (
	rateLimitRemaining = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sportsgate_ratelimit_remaining",
		Help: "Requests remaining in the current rate limit window",
	}, []string{"window"})

	rateLimitBlocksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sportsgate_ratelimit_blocks_total",
		Help: "Total number of reservations refused by window",
	}, []string{"window"})

	rateLimitResetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sportsgate_ratelimit_window_resets_total",
		Help: "Total number of window rollovers by window",
	}, []string{"window"})

	rateLimitSyncsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sportsgate_ratelimit_header_syncs_total",
		Help: "Total number of daily budget reconciliations from upstream headers",
	})
)
