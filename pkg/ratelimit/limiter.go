package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Sternrassler/sportsdata-gateway/pkg/clock"
	"github.com/rs/zerolog"
)

// Config holds the two budgets.
type Config struct {
	// PerMinute bounds requests in any rolling 60-second window.
	PerMinute int

	// PerDay bounds requests per local calendar day.
	PerDay int
}

// DefaultConfig returns budgets sized for a constrained free tier.
func DefaultConfig() Config {
	return Config{
		PerMinute: 30,
		PerDay:    100,
	}
}

// Limiter tracks consumption against a per-minute and a per-day budget.
// Windows roll forward lazily on every check. It never returns errors from
// its advisory methods; callers decide whether to wait or reject.
type Limiter struct {
	mu sync.Mutex

	minuteLimit int
	dailyLimit  int

	requestsThisMinute int
	requestsToday      int
	minuteWindowStart  time.Time
	dayStart           time.Time
	lastSync           time.Time

	clock  clock.Clock
	logger zerolog.Logger
}

// New creates a limiter. A nil clock uses real time.
func New(cfg Config, clk clock.Clock, logger zerolog.Logger) (*Limiter, error) {
	if cfg.PerMinute <= 0 {
		return nil, fmt.Errorf("per-minute limit must be > 0 (got %d)", cfg.PerMinute)
	}
	if cfg.PerDay <= 0 {
		return nil, fmt.Errorf("per-day limit must be > 0 (got %d)", cfg.PerDay)
	}

	clk = clock.OrReal(clk)
	now := clk.Now()

	l := &Limiter{
		minuteLimit:       cfg.PerMinute,
		dailyLimit:        cfg.PerDay,
		minuteWindowStart: now,
		dayStart:          startOfDay(now),
		clock:             clk,
		logger:            logger,
	}
	l.publishLocked()

	return l, nil
}

// CanProceed reports whether both windows currently have headroom.
func (l *Limiter) CanProceed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rollLocked(l.clock.Now())
	return l.canProceedLocked()
}

// Reserve records one upstream request in both windows. Call it immediately
// before issuing the request.
func (l *Limiter) Reserve() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rollLocked(l.clock.Now())
	l.reserveLocked()
}

// TryReserve atomically checks both windows and reserves one request when
// allowed. When refused it returns the advised wait.
func (l *Limiter) TryReserve() (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	l.rollLocked(now)

	if !l.canProceedLocked() {
		state := l.stateLocked()
		window := WindowMinute
		if state.DailyExhausted() {
			window = WindowDay
		}
		rateLimitBlocksTotal.WithLabelValues(string(window)).Inc()

		wait := state.WaitTime(now)
		l.logger.Warn().
			Str("window", string(window)).
			Int("remaining_minute", state.RemainingMinute).
			Int("remaining_daily", state.RemainingDaily).
			Dur("wait", wait).
			Msg("Rate limit budget exhausted")
		return false, wait
	}

	l.reserveLocked()
	return true, 0
}

// Release gives back one reservation that never reached the upstream.
func (l *Limiter) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.requestsThisMinute > 0 {
		l.requestsThisMinute--
	}
	if l.requestsToday > 0 {
		l.requestsToday--
	}
	l.publishLocked()
}

// WaitTime returns how long until the nearer exhausted window frees capacity.
// Returns 0 when a request could proceed now.
func (l *Limiter) WaitTime() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	l.rollLocked(now)
	state := l.stateLocked()
	return state.WaitTime(now)
}

// SyncFromUpstream reconciles the daily budget with the upstream's
// authoritative values: afterwards the remaining daily budget equals
// remaining. A positive limit replaces the configured daily limit.
func (l *Limiter) SyncFromUpstream(remaining, limit int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rollLocked(l.clock.Now())

	remaining = floorZero(remaining)
	if limit <= 0 {
		limit = l.dailyLimit
	}
	if remaining > limit {
		limit = remaining
	}

	local := l.dailyLimit - l.requestsToday
	l.dailyLimit = limit
	l.requestsToday = limit - remaining
	l.lastSync = l.clock.Now()
	l.publishLocked()

	rateLimitSyncsTotal.Inc()
	if local != remaining {
		l.logger.Debug().
			Int("local_remaining", local).
			Int("upstream_remaining", remaining).
			Int("daily_limit", limit).
			Msg("Daily budget reconciled from upstream")
	}
}

// SyncFromHeaders parses the upstream rate limit headers and reconciles the
// daily budget. Missing headers are not an error.
func (l *Limiter) SyncFromHeaders(headers http.Header) error {
	remainStr := headers.Get(HeaderRequestsRemaining)
	if remainStr == "" {
		return nil
	}

	remaining, err := strconv.Atoi(remainStr)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderRequestsRemaining, err)
	}

	limit := 0
	if limitStr := headers.Get(HeaderRequestsLimit); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil {
			return fmt.Errorf("parse %s header: %w", HeaderRequestsLimit, err)
		}
	}

	l.SyncFromUpstream(remaining, limit)
	return nil
}

// Status returns a snapshot after rolling any elapsed windows.
func (l *Limiter) Status() State {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rollLocked(l.clock.Now())
	return l.stateLocked()
}

// StartWindowNudger rolls elapsed windows every interval until ctx is
// cancelled, keeping exported gauges current during idle periods.
func (l *Limiter) StartWindowNudger(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Status()
			}
		}
	}()
}

// rollLocked lazily advances both windows. Each boundary crossing resets its
// counter exactly once.
func (l *Limiter) rollLocked(now time.Time) {
	if now.Sub(l.minuteWindowStart) >= time.Minute {
		l.requestsThisMinute = 0
		l.minuteWindowStart = now
		rateLimitResetsTotal.WithLabelValues(string(WindowMinute)).Inc()
		l.logger.Debug().Time("window_start", now).Msg("Minute window rolled over")
	}

	if today := startOfDay(now); !today.Equal(l.dayStart) {
		l.requestsToday = 0
		l.dayStart = today
		rateLimitResetsTotal.WithLabelValues(string(WindowDay)).Inc()
		l.logger.Info().Time("day_start", today).Msg("Daily window rolled over")
	}

	l.publishLocked()
}

func (l *Limiter) canProceedLocked() bool {
	return l.requestsThisMinute < l.minuteLimit && l.requestsToday < l.dailyLimit
}

func (l *Limiter) reserveLocked() {
	l.requestsThisMinute++
	l.requestsToday++
	l.publishLocked()
}

func (l *Limiter) stateLocked() State {
	return State{
		RequestsThisMinute: l.requestsThisMinute,
		RequestsToday:      l.requestsToday,
		MinuteWindowStart:  l.minuteWindowStart,
		DayStart:           l.dayStart,
		MinuteLimit:        l.minuteLimit,
		DailyLimit:         l.dailyLimit,
		RemainingMinute:    floorZero(l.minuteLimit - l.requestsThisMinute),
		RemainingDaily:     floorZero(l.dailyLimit - l.requestsToday),
		NextMinuteReset:    l.minuteWindowStart.Add(time.Minute),
		NextDayReset:       l.dayStart.AddDate(0, 0, 1),
		LastSync:           l.lastSync,
	}
}

func (l *Limiter) publishLocked() {
	rateLimitRemaining.WithLabelValues(string(WindowMinute)).Set(float64(floorZero(l.minuteLimit - l.requestsThisMinute)))
	rateLimitRemaining.WithLabelValues(string(WindowDay)).Set(float64(floorZero(l.dailyLimit - l.requestsToday)))
}
