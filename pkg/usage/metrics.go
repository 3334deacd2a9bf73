package usage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AlertsTotal tracks raised alerts by type
	AlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sportsgate_usage_alerts_total",
			Help: "Total number of usage alerts raised",
		},
		[]string{"type"},
	)

	// MonthlyRequests tracks upstream requests in the current month
	MonthlyRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sportsgate_usage_monthly_requests",
			Help: "Upstream requests counted in the current monthly period",
		},
	)

	// MonthlyProjected tracks the linear month-end projection
	MonthlyProjected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sportsgate_usage_monthly_projected",
			Help: "Projected upstream requests at the end of the monthly period",
		},
	)

	// MonthlyLimit exposes the configured monthly quota
	MonthlyLimit = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sportsgate_usage_monthly_limit",
			Help: "Configured monthly upstream quota",
		},
	)
)
