package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks reads served from memory
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sportsgate_cache_hits_total",
			Help: "Total number of cache hits",
		},
	)

	// CacheMisses tracks reads that found no valid entry
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sportsgate_cache_misses_total",
			Help: "Total number of cache misses (absent or stale)",
		},
	)

	// CacheEntries tracks the number of stored entries, stale ones included
	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sportsgate_cache_entries",
			Help: "Current number of entries held by the cache store",
		},
	)

	// CacheEvictions tracks entries removed by the sweeper
	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sportsgate_cache_evictions_total",
			Help: "Total number of stale entries removed by the sweeper",
		},
	)
)
