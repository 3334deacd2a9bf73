package usage

import (
	"fmt"
	"math"
	"time"
)

// Level grades monthly quota consumption.
type Level string

const (
	LevelOK       Level = "ok"
	LevelWarning  Level = "warning"
	LevelCritical Level = "critical"
	LevelExceeded Level = "exceeded"
)

// QuotaStatus summarises the monthly quota.
type QuotaStatus struct {
	Used          int       `json:"used"`
	Limit         int       `json:"limit"`
	Remaining     int       `json:"remaining"`
	Percent       float64   `json:"percent"`
	Projected     int       `json:"projected"`
	ResetDate     time.Time `json:"reset_date"`
	Level         Level     `json:"level"`
	DaysRemaining int       `json:"days_remaining"`

	// DailyBudget is the remaining quota spread evenly over the days left,
	// today included.
	DailyBudget int `json:"daily_budget"`
}

// QuotaStatus returns the current monthly quota status.
func (m *Monitor) QuotaStatus() QuotaStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock.Now()
	m.rollLocked(now)
	return m.quotaStatusLocked(now)
}

func (m *Monitor) quotaStatusLocked(now time.Time) QuotaStatus {
	used := m.monthly.Requests
	percent := m.percentLocked()
	daysLeft := daysIn(now) - now.Day() + 1

	return QuotaStatus{
		Used:          used,
		Limit:         m.cfg.MonthlyLimit,
		Remaining:     m.monthly.Remaining,
		Percent:       math.Round(percent*10) / 10,
		Projected:     Project(used, now.Day(), daysIn(now)),
		ResetDate:     m.monthly.ResetDate,
		Level:         m.levelFor(used, percent),
		DaysRemaining: daysLeft,
		DailyBudget:   m.monthly.Remaining / daysLeft,
	}
}

func (m *Monitor) levelFor(used int, percent float64) Level {
	switch {
	case used >= m.cfg.MonthlyLimit:
		return LevelExceeded
	case percent > m.cfg.CriticalPercent:
		return LevelCritical
	case percent > m.cfg.WarningPercent:
		return LevelWarning
	default:
		return LevelOK
	}
}

// Report is the daily operator summary.
type Report struct {
	Date            string          `json:"date"`
	Requests        int             `json:"requests"`
	CacheHits       int             `json:"cache_hits"`
	CacheMisses     int             `json:"cache_misses"`
	CacheHitRate    float64         `json:"cache_hit_rate"`
	Errors          int             `json:"errors"`
	Quota           QuotaStatus     `json:"quota"`
	TopResources    []ResourceUsage `json:"top_resources"`
	PeakHours       []HourCount     `json:"peak_hours"`
	Recommendations []string        `json:"recommendations"`
}

// DailyReport builds the summary for the current daily window.
func (m *Monitor) DailyReport() Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock.Now()
	m.rollLocked(now)

	d := m.daily
	r := Report{
		Date:         now.Format(time.DateOnly),
		Requests:     d.Requests,
		CacheHits:    d.CacheHits,
		CacheMisses:  d.CacheMisses,
		CacheHitRate: hitRate(d.CacheHits, d.CacheMisses),
		Errors:       d.Errors,
		Quota:        m.quotaStatusLocked(now),
		TopResources: m.topResourcesLocked(5),
		PeakHours:    PeakHours(m.hourly, 5),
	}

	if d.CacheHits+d.CacheMisses > 0 && r.CacheHitRate < 0.5 {
		r.Recommendations = append(r.Recommendations,
			fmt.Sprintf("Cache hit rate is %.0f%%; consider longer TTLs for static resources", r.CacheHitRate*100))
	}
	if d.Requests > m.cfg.DailyAlertThreshold {
		r.Recommendations = append(r.Recommendations,
			fmt.Sprintf("Daily requests %d exceed the target of %d", d.Requests, m.cfg.DailyAlertThreshold))
	}
	if r.Quota.Projected > r.Quota.Limit {
		r.Recommendations = append(r.Recommendations,
			fmt.Sprintf("Projected usage %d exceeds the monthly quota of %d", r.Quota.Projected, r.Quota.Limit))
	}
	switch r.Quota.Level {
	case LevelCritical, LevelExceeded:
		r.Recommendations = append(r.Recommendations, "Restrict upstream calls to live data until the quota resets")
	case LevelWarning:
		r.Recommendations = append(r.Recommendations, "Pre-cache fixtures and squads ahead of deadlines")
	}
	if len(m.deadlines) > 0 {
		r.Recommendations = append(r.Recommendations, "Warm the cache before recurring deadline periods")
	}

	return r
}

// Simulation is the result of a traffic surge what-if.
type Simulation struct {
	Users             int      `json:"users"`
	EstimatedRequests int      `json:"estimated_requests"`
	CurrentUsage      int      `json:"current_usage"`
	ProjectedTotal    int      `json:"projected_total"`
	Limit             int      `json:"limit"`
	WillExceedQuota   bool     `json:"will_exceed_quota"`
	Level             Level    `json:"level"`
	Recommendations   []string `json:"recommendations"`
}

// Simulate estimates the impact of users arriving at once, each costing
// perUser upstream requests, on top of used requests this month.
func Simulate(users, used, limit, perUser int) Simulation {
	estimated := users * perUser
	total := used + estimated

	s := Simulation{
		Users:             users,
		EstimatedRequests: estimated,
		CurrentUsage:      used,
		ProjectedTotal:    total,
		Limit:             limit,
		WillExceedQuota:   total > limit,
		Level:             LevelOK,
	}

	switch {
	case total > limit:
		s.Level = LevelCritical
		s.Recommendations = []string{
			"Pre-cache fixtures, teams and squads before the surge",
			"Serve player lists from cache only during the surge",
			fmt.Sprintf("Upgrade the upstream plan or shed %d requests", total-limit),
		}
	case float64(total) > float64(limit)*0.9:
		s.Level = LevelWarning
		s.Recommendations = []string{
			"Pre-cache fixtures, teams and squads before the surge",
			"Extend cache TTLs for static resources",
		}
	default:
		s.Recommendations = []string{"Current quota can absorb the surge"}
	}

	return s
}

// SimulateTrafficSurge runs Simulate against the current monthly usage.
func (m *Monitor) SimulateTrafficSurge(users int) Simulation {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollLocked(m.clock.Now())
	return Simulate(users, m.monthly.Requests, m.cfg.MonthlyLimit, m.cfg.RequestsPerUser)
}
