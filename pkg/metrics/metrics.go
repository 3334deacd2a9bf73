// Package metrics exposes the Prometheus registry shared by the gateway
// packages. Each package registers its own metrics through promauto; this
// package serves them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer all sportsgate metrics are created in.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the matching gatherer read by Handler.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics by package:
//
// pkg/cache:
//   - sportsgate_cache_hits_total (Counter)
//   - sportsgate_cache_misses_total (Counter): absent or stale
//   - sportsgate_cache_entries (Gauge)
//   - sportsgate_cache_evictions_total (Counter): stale entries swept
//
// pkg/ratelimit:
//   - sportsgate_ratelimit_remaining{window} (Gauge)
//   - sportsgate_ratelimit_blocks_total{window} (Counter)
//   - sportsgate_ratelimit_window_resets_total{window} (Counter)
//   - sportsgate_ratelimit_header_syncs_total (Counter)
//
// pkg/gateway:
//   - sportsgate_upstream_requests_total{class, status} (Counter)
//   - sportsgate_upstream_duration_seconds{class} (Histogram)
//   - sportsgate_gateway_errors_total{kind} (Counter)
//   - sportsgate_ratelimit_wait_seconds (Histogram)
//
// pkg/quota:
//   - sportsgate_shared_quota_used (Gauge)
//   - sportsgate_shared_quota_denied_total (Counter)
//
// pkg/batch:
//   - sportsgate_batch_parents_total{outcome} (Counter)
//   - sportsgate_batch_duration_seconds (Histogram)
//
// pkg/usage:
//   - sportsgate_usage_alerts_total{type} (Counter)
//   - sportsgate_usage_monthly_requests (Gauge)
//   - sportsgate_usage_monthly_projected (Gauge)
//   - sportsgate_usage_monthly_limit (Gauge)
//
// Example queries:
//
//	# Cache hit rate
//	sum(rate(sportsgate_cache_hits_total[5m])) /
//	(sum(rate(sportsgate_cache_hits_total[5m])) + sum(rate(sportsgate_cache_misses_total[5m])))
//
//	# Month-end overrun
//	sportsgate_usage_monthly_projected > sportsgate_usage_monthly_limit
//
//	# P95 upstream latency by class
//	histogram_quantile(0.95, sum by (le, class) (rate(sportsgate_upstream_duration_seconds_bucket[5m])))
