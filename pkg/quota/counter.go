// Package quota provides an optional daily request counter shared by every
// gateway process through Redis.
//
// Each process still enforces its own per-minute and per-day windows; the
// shared counter closes the gap where several instances would otherwise each
// spend the full upstream allocation.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/sportsdata-gateway/pkg/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var (
	sharedUsed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sportsgate_shared_quota_used",
		Help: "Requests counted today by the shared cross-process counter",
	})

	sharedDeniedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sportsgate_shared_quota_denied_total",
		Help: "Total number of reservations denied by the shared counter",
	})
)

// Counter reserves requests against a budget shared across processes.
type Counter interface {
	// Reserve counts one request. It returns false when the shared budget
	// is already spent; nothing is counted in that case.
	Reserve(ctx context.Context) (bool, error)

	// Release gives back one reservation that never reached the upstream.
	Release(ctx context.Context) error
}

// Config holds shared counter settings.
type Config struct {
	// KeyPrefix namespaces the per-day Redis keys.
	KeyPrefix string

	// DailyLimit is the shared per-day budget.
	DailyLimit int
}

// DefaultConfig returns the default shared counter configuration.
func DefaultConfig(dailyLimit int) Config {
	return Config{
		KeyPrefix:  "sportsgate:quota",
		DailyLimit: dailyLimit,
	}
}

// RedisCounter implements Counter with one INCR-ed key per calendar day.
type RedisCounter struct {
	redis  *redis.Client
	config Config
	clock  clock.Clock
	logger zerolog.Logger
}

// NewRedisCounter creates a shared counter backed by redisClient.
func NewRedisCounter(redisClient *redis.Client, cfg Config, clk clock.Clock, logger zerolog.Logger) (*RedisCounter, error) {
	if redisClient == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg.DailyLimit <= 0 {
		return nil, fmt.Errorf("daily limit must be > 0 (got %d)", cfg.DailyLimit)
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultConfig(cfg.DailyLimit).KeyPrefix
	}

	return &RedisCounter{
		redis:  redisClient,
		config: cfg,
		clock:  clock.OrReal(clk),
		logger: logger,
	}, nil
}

// Reserve increments today's shared counter.
func (c *RedisCounter) Reserve(ctx context.Context) (bool, error) {
	now := c.clock.Now()
	key := c.dayKey(now)

	pipe := c.redis.TxPipeline()
	incr := pipe.Incr(ctx, key)
	// keep the key a little past midnight so late readers still see it
	pipe.ExpireAt(ctx, key, nextMidnight(now).Add(time.Hour))
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("increment shared quota: %w", err)
	}

	used := incr.Val()
	if used > int64(c.config.DailyLimit) {
		if err := c.redis.Decr(ctx, key).Err(); err != nil {
			return false, fmt.Errorf("roll back shared quota: %w", err)
		}
		sharedDeniedTotal.Inc()
		c.logger.Warn().
			Int64("used", used-1).
			Int("limit", c.config.DailyLimit).
			Msg("Shared daily quota exhausted")
		return false, nil
	}

	sharedUsed.Set(float64(used))
	return true, nil
}

// Release decrements today's shared counter.
func (c *RedisCounter) Release(ctx context.Context) error {
	key := c.dayKey(c.clock.Now())

	used, err := c.redis.Decr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("release shared quota: %w", err)
	}
	if used < 0 {
		if err := c.redis.Set(ctx, key, 0, redis.KeepTTL).Err(); err != nil {
			return fmt.Errorf("clamp shared quota: %w", err)
		}
		used = 0
	}

	sharedUsed.Set(float64(used))
	return nil
}

// Used returns today's shared count.
func (c *RedisCounter) Used(ctx context.Context) (int, error) {
	used, err := c.redis.Get(ctx, c.dayKey(c.clock.Now())).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get shared quota: %w", err)
	}
	return used, nil
}

func (c *RedisCounter) dayKey(now time.Time) string {
	return c.config.KeyPrefix + ":" + now.Format("2006-01-02")
}

func nextMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}

var _ Counter = (*RedisCounter)(nil)
