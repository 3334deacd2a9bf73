package usage

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/sportsdata-gateway/pkg/clock"
	"github.com/Sternrassler/sportsdata-gateway/pkg/gateway"
)

// Config holds monitor thresholds.
type Config struct {
	// MonthlyLimit is the hard monthly upstream quota.
	MonthlyLimit int

	// DailyAlertThreshold raises a daily-limit alert once the daily request
	// count exceeds it.
	DailyAlertThreshold int

	// RequestsPerUser converts request volume into an estimated user count.
	RequestsPerUser int

	WarningPercent  float64
	CriticalPercent float64

	// AheadMargin is how many percentage points usage may run ahead of the
	// prorated month before a quota-ahead alert fires.
	AheadMargin float64

	// SpikeFactor flags an hour whose count reaches this multiple of the
	// non-zero hourly average.
	SpikeFactor float64

	MaxAlerts int

	ReportInterval time.Duration
	HourlyInterval time.Duration
}

// DefaultConfig returns thresholds for the given monthly quota.
func DefaultConfig(monthlyLimit int) Config {
	return Config{
		MonthlyLimit:        monthlyLimit,
		DailyAlertThreshold: 12,
		RequestsPerUser:     4,
		WarningPercent:      75,
		CriticalPercent:     90,
		AheadMargin:         20,
		SpikeFactor:         3,
		MaxAlerts:           100,
		ReportInterval:      24 * time.Hour,
		HourlyInterval:      time.Hour,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig(c.MonthlyLimit)
	if c.DailyAlertThreshold <= 0 {
		c.DailyAlertThreshold = d.DailyAlertThreshold
	}
	if c.RequestsPerUser <= 0 {
		c.RequestsPerUser = d.RequestsPerUser
	}
	if c.WarningPercent <= 0 {
		c.WarningPercent = d.WarningPercent
	}
	if c.CriticalPercent <= 0 {
		c.CriticalPercent = d.CriticalPercent
	}
	if c.AheadMargin <= 0 {
		c.AheadMargin = d.AheadMargin
	}
	if c.SpikeFactor <= 0 {
		c.SpikeFactor = d.SpikeFactor
	}
	if c.MaxAlerts <= 0 {
		c.MaxAlerts = d.MaxAlerts
	}
	if c.ReportInterval <= 0 {
		c.ReportInterval = d.ReportInterval
	}
	if c.HourlyInterval <= 0 {
		c.HourlyInterval = d.HourlyInterval
	}
	return c
}

// Monitor implements gateway.Listener.
type Monitor struct {
	cfg    Config
	clock  clock.Clock
	logger zerolog.Logger

	mu          sync.Mutex
	daily       DailyStats
	monthly     MonthlyStats
	resources   map[string]*ResourceUsage
	hourly      [24]int
	hourStart   time.Time
	spikeHour   time.Time
	deadlines   []DeadlinePeriod
	alerts      []Alert
	monthFired  map[AlertType]bool
	dayFired    map[AlertType]bool
	subscribers []func(Alert)
}

var _ gateway.Listener = (*Monitor)(nil)

// New creates a monitor. The daily window starts now and the monthly
// period at the first of the current month.
func New(cfg Config, clk clock.Clock, logger zerolog.Logger) (*Monitor, error) {
	if cfg.MonthlyLimit <= 0 {
		return nil, fmt.Errorf("monthly limit must be > 0 (got %d)", cfg.MonthlyLimit)
	}
	cfg = cfg.withDefaults()
	clk = clock.OrReal(clk)
	now := clk.Now()

	m := &Monitor{
		cfg:        cfg,
		clock:      clk,
		logger:     logger,
		resources:  make(map[string]*ResourceUsage),
		hourStart:  startOfHour(now),
		monthFired: make(map[AlertType]bool),
		dayFired:   make(map[AlertType]bool),
	}
	m.daily.ResetAt = now
	m.resetMonthLocked(now)
	MonthlyLimit.Set(float64(cfg.MonthlyLimit))

	return m, nil
}

// OnAlert registers a callback invoked for every new alert. Callbacks run
// synchronously after the monitor releases its lock.
func (m *Monitor) OnAlert(fn func(Alert)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

// OnCacheHit records a request served from the cache.
func (m *Monitor) OnCacheHit(e gateway.CacheHit) {
	m.mu.Lock()
	now := m.eventTime(e.At)
	m.rollLocked(now)

	m.daily.CacheHits++
	r := m.resourceLocked(e.Resource)
	r.CacheHits++
	r.HitRate = hitRate(r.CacheHits, r.Calls)
	m.mu.Unlock()
}

// OnAPISuccess records a request that consumed upstream quota.
func (m *Monitor) OnAPISuccess(e gateway.APISuccess) {
	m.mu.Lock()
	now := m.eventTime(e.At)
	m.rollLocked(now)

	m.daily.CacheMisses++
	fired := m.recordRequestLocked(e.Resource, now)
	m.mu.Unlock()

	m.dispatch(fired)
}

// OnAPIError records a failed cache miss. Failures that reached the
// upstream still count against quota.
func (m *Monitor) OnAPIError(e gateway.APIError) {
	m.mu.Lock()
	now := m.eventTime(e.At)
	m.rollLocked(now)

	m.daily.CacheMisses++
	m.daily.Errors++
	m.resourceLocked(e.Resource).Errors++

	var fired []Alert
	if e.Upstream {
		fired = m.recordRequestLocked(e.Resource, now)
	}
	m.mu.Unlock()

	m.dispatch(fired)
}

func (m *Monitor) eventTime(at time.Time) time.Time {
	if at.IsZero() {
		return m.clock.Now()
	}
	return at
}

func (m *Monitor) resourceLocked(name string) *ResourceUsage {
	r, ok := m.resources[name]
	if !ok {
		r = &ResourceUsage{Resource: name}
		m.resources[name] = r
	}
	return r
}

func (m *Monitor) recordRequestLocked(resource string, now time.Time) []Alert {
	m.daily.Requests++
	m.monthly.Requests++
	m.monthly.Remaining = max(m.cfg.MonthlyLimit-m.monthly.Requests, 0)
	m.monthly.ProjectedUsage = Project(m.monthly.Requests, now.Day(), daysIn(now))

	r := m.resourceLocked(resource)
	r.Calls++
	r.LastCalled = now
	r.HitRate = hitRate(r.CacheHits, r.Calls)

	m.hourly[now.Hour()]++

	MonthlyRequests.Set(float64(m.monthly.Requests))
	MonthlyProjected.Set(float64(m.monthly.ProjectedUsage))

	var fired []Alert
	fired = append(fired, m.checkSpikeLocked(now)...)
	fired = append(fired, m.checkQuotaLocked(now)...)
	fired = append(fired, m.checkDailyLocked(now)...)
	return fired
}

// rollLocked applies any daily, hourly or monthly rollover due at now.
func (m *Monitor) rollLocked(now time.Time) {
	if now.Sub(m.daily.ResetAt) >= 24*time.Hour {
		m.logger.Info().
			Int("requests", m.daily.Requests).
			Int("cache_hits", m.daily.CacheHits).
			Int("errors", m.daily.Errors).
			Msg("Daily usage window reset")
		m.daily = DailyStats{ResetAt: now}
		m.dayFired = make(map[AlertType]bool)
	}

	// Slots hold data from 24h ago until overwritten, so clear each slot
	// the clock moves into.
	hour := startOfHour(now)
	for steps := 0; m.hourStart.Before(hour) && steps < 24; steps++ {
		m.hourStart = m.hourStart.Add(time.Hour)
		m.hourly[m.hourStart.Hour()] = 0
	}
	if m.hourStart.Before(hour) {
		m.hourStart = hour
	}

	if !startOfMonth(now).Equal(m.monthly.PeriodStart) {
		m.logger.Info().
			Int("requests", m.monthly.Requests).
			Time("period_start", m.monthly.PeriodStart).
			Msg("Monthly quota period reset")
		m.resetMonthLocked(now)
	}
}

func (m *Monitor) resetMonthLocked(now time.Time) {
	start := startOfMonth(now)
	m.monthly = MonthlyStats{
		Limit:       m.cfg.MonthlyLimit,
		Remaining:   m.cfg.MonthlyLimit,
		PeriodStart: start,
		ResetDate:   start.AddDate(0, 1, 0),
	}
	m.monthFired = make(map[AlertType]bool)
	MonthlyRequests.Set(0)
	MonthlyProjected.Set(0)
}

func (m *Monitor) checkSpikeLocked(now time.Time) []Alert {
	hour := startOfHour(now)
	if hour.Equal(m.spikeHour) || !IsSpike(m.hourly[:], now.Hour(), m.cfg.SpikeFactor) {
		return nil
	}
	m.spikeHour = hour

	count := m.hourly[now.Hour()]
	users := int(math.Ceil(float64(count) / float64(m.cfg.RequestsPerUser)))
	m.deadlines = append(m.deadlines, DeadlinePeriod{
		ID:             uuid.NewString(),
		At:             now,
		Hour:           now.Hour(),
		Requests:       count,
		EstimatedUsers: users,
	})

	return []Alert{m.raiseLocked(AlertTrafficSpike, SeverityWarning, now, count,
		fmt.Sprintf("Traffic spike at %02d:00: %d requests (~%d users)", now.Hour(), count, users))}
}

func (m *Monitor) checkQuotaLocked(now time.Time) []Alert {
	used := m.monthly.Requests
	percent := m.percentLocked()
	var fired []Alert

	switch {
	case percent > m.cfg.CriticalPercent && !m.monthFired[AlertQuotaCritical]:
		m.monthFired[AlertQuotaCritical] = true
		m.monthFired[AlertQuotaWarning] = true
		fired = append(fired, m.raiseLocked(AlertQuotaCritical, SeverityCritical, now, used,
			fmt.Sprintf("Monthly quota %.1f%% used (%d/%d)", percent, used, m.cfg.MonthlyLimit)))
	case percent > m.cfg.WarningPercent && !m.monthFired[AlertQuotaWarning]:
		m.monthFired[AlertQuotaWarning] = true
		fired = append(fired, m.raiseLocked(AlertQuotaWarning, SeverityWarning, now, used,
			fmt.Sprintf("Monthly quota %.1f%% used (%d/%d)", percent, used, m.cfg.MonthlyLimit)))
	}

	if used >= m.cfg.MonthlyLimit && !m.monthFired[AlertQuotaExceeded] {
		m.monthFired[AlertQuotaExceeded] = true
		fired = append(fired, m.raiseLocked(AlertQuotaExceeded, SeverityCritical, now, used,
			fmt.Sprintf("Monthly quota exhausted (%d/%d), upstream calls will fail until %s",
				used, m.cfg.MonthlyLimit, m.monthly.ResetDate.Format(time.DateOnly))))
	}

	expected := float64(now.Day()) / float64(daysIn(now)) * 100
	if percent > expected+m.cfg.AheadMargin && !m.dayFired[AlertQuotaAhead] {
		m.dayFired[AlertQuotaAhead] = true
		fired = append(fired, m.raiseLocked(AlertQuotaAhead, SeverityWarning, now, used,
			fmt.Sprintf("Usage %.1f%% is ahead of schedule (expected %.1f%% by day %d), projected %d",
				percent, expected, now.Day(), m.monthly.ProjectedUsage)))
	}

	return fired
}

func (m *Monitor) checkDailyLocked(now time.Time) []Alert {
	if m.daily.Requests <= m.cfg.DailyAlertThreshold || m.dayFired[AlertDailyLimit] {
		return nil
	}
	m.dayFired[AlertDailyLimit] = true
	return []Alert{m.raiseLocked(AlertDailyLimit, SeverityWarning, now, m.daily.Requests,
		fmt.Sprintf("Daily requests %d exceed the target of %d", m.daily.Requests, m.cfg.DailyAlertThreshold))}
}

func (m *Monitor) percentLocked() float64 {
	return float64(m.monthly.Requests) / float64(m.cfg.MonthlyLimit) * 100
}

func (m *Monitor) raiseLocked(typ AlertType, sev Severity, now time.Time, requests int, msg string) Alert {
	a := Alert{
		ID:       uuid.NewString(),
		Type:     typ,
		Severity: sev,
		Message:  msg,
		At:       now,
		Percent:  m.percentLocked(),
		Requests: requests,
	}

	m.alerts = append(m.alerts, a)
	if over := len(m.alerts) - m.cfg.MaxAlerts; over > 0 {
		m.alerts = append([]Alert(nil), m.alerts[over:]...)
	}
	AlertsTotal.WithLabelValues(string(typ)).Inc()

	event := m.logger.Warn()
	if sev == SeverityCritical {
		event = m.logger.Error()
	}
	event.Str("alert", string(typ)).
		Float64("percent", a.Percent).
		Int("requests", requests).
		Msg(msg)

	return a
}

func (m *Monitor) dispatch(fired []Alert) {
	if len(fired) == 0 {
		return
	}
	m.mu.Lock()
	subs := make([]func(Alert), len(m.subscribers))
	copy(subs, m.subscribers)
	m.mu.Unlock()

	for _, a := range fired {
		for _, fn := range subs {
			fn(a)
		}
	}
}

// Stats returns a snapshot of all counters.
func (m *Monitor) Stats() UsageStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollLocked(m.clock.Now())

	per := make(map[string]ResourceUsage, len(m.resources))
	for name, r := range m.resources {
		per[name] = *r
	}

	return UsageStats{
		Daily:       m.daily,
		Monthly:     m.monthly,
		PerResource: per,
		Traffic: TrafficStats{
			Hourly:          m.hourly,
			PeakHours:       PeakHours(m.hourly, 5),
			DeadlinePeriods: append([]DeadlinePeriod(nil), m.deadlines...),
		},
	}
}

// Alerts returns retained alerts, oldest first.
func (m *Monitor) Alerts() []Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Alert(nil), m.alerts...)
}

// TopResources returns up to n resources by upstream calls, ties broken by
// name.
func (m *Monitor) TopResources(n int) []ResourceUsage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.topResourcesLocked(n)
}

func (m *Monitor) topResourcesLocked(n int) []ResourceUsage {
	list := make([]ResourceUsage, 0, len(m.resources))
	for _, r := range m.resources {
		list = append(list, *r)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Calls != list[j].Calls {
			return list[i].Calls > list[j].Calls
		}
		return list[i].Resource < list[j].Resource
	})
	if len(list) > n {
		list = list[:n]
	}
	return list
}

// Start runs the periodic daily report and hourly summary until ctx is
// cancelled.
func (m *Monitor) Start(ctx context.Context) {
	go func() {
		report := time.NewTicker(m.cfg.ReportInterval)
		hourly := time.NewTicker(m.cfg.HourlyInterval)
		defer report.Stop()
		defer hourly.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-hourly.C:
				m.logHourly()
			case <-report.C:
				m.logReport()
			}
		}
	}()
}

func (m *Monitor) logHourly() {
	stats := m.Stats()
	now := m.clock.Now()
	m.logger.Info().
		Int("hour", now.Hour()).
		Int("hour_requests", stats.Traffic.Hourly[now.Hour()]).
		Int("daily_requests", stats.Daily.Requests).
		Int("monthly_requests", stats.Monthly.Requests).
		Int("projected", stats.Monthly.ProjectedUsage).
		Msg("Hourly usage")
}

func (m *Monitor) logReport() {
	r := m.DailyReport()
	m.logger.Info().
		Str("date", r.Date).
		Int("requests", r.Requests).
		Float64("cache_hit_rate", r.CacheHitRate).
		Int("errors", r.Errors).
		Str("quota_level", string(r.Quota.Level)).
		Int("projected", r.Quota.Projected).
		Strs("recommendations", r.Recommendations).
		Msg("Daily usage report")
}
