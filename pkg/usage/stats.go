// Package usage observes gateway events and tracks upstream consumption:
// daily and monthly counters, per-resource statistics, an hourly traffic
// histogram with spike detection, quota alerts and linear projections.
//
// The monitor only observes. It never blocks, retries or rejects a request;
// its alerts are meant for operators.
package usage

import (
	"math"
	"time"
)

// DailyStats counts activity since the last daily reset.
type DailyStats struct {
	Requests    int       `json:"requests"`
	CacheHits   int       `json:"cache_hits"`
	CacheMisses int       `json:"cache_misses"`
	Errors      int       `json:"errors"`
	ResetAt     time.Time `json:"reset_at"`
}

// MonthlyStats tracks consumption against the hard monthly quota.
type MonthlyStats struct {
	Requests       int       `json:"requests"`
	Remaining      int       `json:"remaining"`
	Limit          int       `json:"limit"`
	PeriodStart    time.Time `json:"period_start"`
	ResetDate      time.Time `json:"reset_date"`
	ProjectedUsage int       `json:"projected_usage"`
}

// ResourceUsage holds per-resource statistics.
type ResourceUsage struct {
	Resource   string    `json:"resource"`
	Calls      int       `json:"calls"`
	CacheHits  int       `json:"cache_hits"`
	Errors     int       `json:"errors"`
	HitRate    float64   `json:"hit_rate"`
	LastCalled time.Time `json:"last_called,omitempty"`
}

// HourCount is one slot of the hourly histogram.
type HourCount struct {
	Hour     int `json:"hour"`
	Requests int `json:"requests"`
}

// DeadlinePeriod records an hour whose volume spiked.
type DeadlinePeriod struct {
	ID             string    `json:"id"`
	At             time.Time `json:"at"`
	Hour           int       `json:"hour"`
	Requests       int       `json:"requests"`
	EstimatedUsers int       `json:"estimated_users"`
}

// TrafficStats is the rolling 24-hour traffic view.
type TrafficStats struct {
	Hourly          [24]int          `json:"hourly"`
	PeakHours       []HourCount      `json:"peak_hours"`
	DeadlinePeriods []DeadlinePeriod `json:"deadline_periods"`
}

// UsageStats is a snapshot of everything the monitor tracks.
type UsageStats struct {
	Daily       DailyStats               `json:"daily"`
	Monthly     MonthlyStats             `json:"monthly"`
	PerResource map[string]ResourceUsage `json:"per_resource"`
	Traffic     TrafficStats             `json:"traffic"`
}

// Project linearly extrapolates used over a period:
// round(used / daysElapsed * totalDays).
func Project(used, daysElapsed, totalDays int) int {
	if daysElapsed <= 0 {
		daysElapsed = 1
	}
	return int(math.Round(float64(used) / float64(daysElapsed) * float64(totalDays)))
}

// IsSpike reports whether hourly[hour] is at least factor times the average
// of all non-zero slots.
func IsSpike(hourly []int, hour int, factor float64) bool {
	if hour < 0 || hour >= len(hourly) || hourly[hour] == 0 {
		return false
	}

	sum, nonZero := 0, 0
	for _, n := range hourly {
		if n > 0 {
			sum += n
			nonZero++
		}
	}
	avg := float64(sum) / float64(nonZero)

	return float64(hourly[hour]) >= factor*avg
}

// PeakHours returns the top n slots by request count; ties go to the
// earlier hour. Empty slots are never peaks.
func PeakHours(hourly [24]int, n int) []HourCount {
	peaks := make([]HourCount, 0, n)
	used := [24]bool{}

	for len(peaks) < n {
		best := -1
		for h, count := range hourly {
			if used[h] || count == 0 {
				continue
			}
			if best == -1 || count > hourly[best] {
				best = h
			}
		}
		if best == -1 {
			break
		}
		used[best] = true
		peaks = append(peaks, HourCount{Hour: best, Requests: hourly[best]})
	}

	return peaks
}

func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// startOfHour is the top of t's local hour. Truncate aligns to UTC, which
// differs in zones with half-hour offsets.
func startOfHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func hitRate(hits, calls int) float64 {
	if total := hits + calls; total > 0 {
		return float64(hits) / float64(total)
	}
	return 0
}
