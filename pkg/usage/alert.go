package usage

import (
	"time"
)

// AlertType identifies what an alert is about.
type AlertType string

const (
	AlertQuotaWarning  AlertType = "quota-warning"
	AlertQuotaCritical AlertType = "quota-critical"
	AlertQuotaExceeded AlertType = "quota-exceeded"
	AlertQuotaAhead    AlertType = "quota-ahead"
	AlertDailyLimit    AlertType = "daily-limit"
	AlertTrafficSpike  AlertType = "traffic-spike"
)

// Severity grades an alert.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert is raised for operators when a consumption threshold is crossed.
type Alert struct {
	ID       string    `json:"id"`
	Type     AlertType `json:"type"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
	At       time.Time `json:"at"`

	// Percent is the monthly usage percent when the alert fired.
	Percent float64 `json:"percent"`

	// Requests is the counter that triggered the alert.
	Requests int `json:"requests"`
}
