// Package ratelimit implements the dual-window request budget that guards the
// upstream sports-data API: a short per-minute window against bursts and a
// calendar-day window protecting the overall allocation.
package ratelimit

import (
	"time"
)

// Upstream headers used for quota reconciliation.
const (
	HeaderRequestsRemaining = "x-ratelimit-requests-remaining"
	HeaderRequestsLimit     = "x-ratelimit-requests-limit"
)

// Window identifies one of the two budgets.
type Window string

const (
	// WindowMinute is the rolling 60-second window.
	WindowMinute Window = "minute"

	// WindowDay is the local calendar-day window.
	WindowDay Window = "day"
)

// State is a snapshot of the limiter's counters and windows.
type State struct {
	// RequestsThisMinute counts reservations in the current minute window.
	RequestsThisMinute int `json:"requests_this_minute"`

	// RequestsToday counts reservations since DayStart.
	RequestsToday int `json:"requests_today"`

	// MinuteWindowStart anchors the rolling 60-second window in effect.
	MinuteWindowStart time.Time `json:"minute_window_start"`

	// DayStart is midnight of the current calendar day.
	DayStart time.Time `json:"day_start"`

	MinuteLimit int `json:"minute_limit"`
	DailyLimit  int `json:"daily_limit"`

	// RemainingMinute is MinuteLimit - RequestsThisMinute, floored at 0.
	RemainingMinute int `json:"remaining_minute"`

	// RemainingDaily is DailyLimit - RequestsToday, floored at 0.
	RemainingDaily int `json:"remaining_daily"`

	NextMinuteReset time.Time `json:"next_minute_reset"`
	NextDayReset    time.Time `json:"next_day_reset"`

	// LastSync is when upstream headers last reconciled the daily budget.
	LastSync time.Time `json:"last_sync,omitempty"`
}

// CanProceed returns true when both windows have headroom.
func (s *State) CanProceed() bool {
	return s.RemainingMinute > 0 && s.RemainingDaily > 0
}

// MinuteExhausted returns true when the per-minute budget is used up.
func (s *State) MinuteExhausted() bool {
	return s.RemainingMinute <= 0
}

// DailyExhausted returns true when the per-day budget is used up.
func (s *State) DailyExhausted() bool {
	return s.RemainingDaily <= 0
}

// WaitTime returns how long until a blocked request could proceed at now.
// An exhausted daily budget dominates regardless of the minute budget.
// Returns 0 when both windows have headroom.
func (s *State) WaitTime(now time.Time) time.Duration {
	var wait time.Duration
	switch {
	case s.DailyExhausted():
		wait = s.NextDayReset.Sub(now)
	case s.MinuteExhausted():
		wait = s.NextMinuteReset.Sub(now)
	default:
		return 0
	}

	if wait < 0 {
		return 0
	}
	return wait
}

// startOfDay returns local midnight of t's calendar day.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func floorZero(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
