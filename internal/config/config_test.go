package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/sportsdata-gateway/pkg/cache"
	"github.com/Sternrassler/sportsdata-gateway/pkg/logging"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://v3.football.api-sports.io", cfg.Upstream.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, 30, cfg.Limits.PerMinute)
	assert.Equal(t, 100, cfg.Limits.PerDay)
	assert.Equal(t, 3000, cfg.Limits.PerMonth)
	assert.Equal(t, 65*time.Second, cfg.Limits.MaxWait)
	assert.Equal(t, 5, cfg.Batch.Size)
	assert.Equal(t, 2*time.Second, cfg.Batch.Delay)
	assert.Equal(t, 12, cfg.Usage.DailyAlertThreshold)
	assert.Equal(t, 4, cfg.Usage.RequestsPerUser)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, time.Minute, cfg.Cache.TTL["live"])
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL["static"])

	// No API key in the defaults.
	assert.Error(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SPORTSGATE_UPSTREAM_API_KEY", "secret")
	t.Setenv("SPORTSGATE_LIMITS_PER_MINUTE", "10")
	t.Setenv("SPORTSGATE_LIMITS_MAX_WAIT", "5s")
	t.Setenv("SPORTSGATE_CACHE_TTL_LIVE", "30s")
	t.Setenv("SPORTSGATE_REDIS_ENABLED", "true")
	t.Setenv("SPORTSGATE_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "secret", cfg.Upstream.APIKey)
	assert.Equal(t, 10, cfg.Limits.PerMinute)
	assert.Equal(t, 5*time.Second, cfg.Limits.MaxWait)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL["live"])
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, logging.LevelDebug, cfg.LoggingConfig().Level)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sportsgate.yaml")
	yaml := `
upstream:
  api_key: from-file
  host: v3.football.api-sports.io
league:
  id: 140
  season: 2025
limits:
  per_day: 7500
  instances: 3
cache:
  ttl:
    standings: 3h
batch:
  size: 10
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("SPORTSGATE_BATCH_SIZE", "8")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "from-file", cfg.Upstream.APIKey)
	assert.Equal(t, 140, cfg.League.ID)
	assert.Equal(t, 7500, cfg.Limits.PerDay)
	assert.Equal(t, 30, cfg.Limits.PerMinute, "unset keys keep defaults")
	assert.Equal(t, 3*time.Hour, cfg.Cache.TTL["standings"])
	assert.Equal(t, 8, cfg.Batch.Size, "environment wins over the file")
	assert.True(t, cfg.SharedQuotaRecommended())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	t.Setenv("SPORTSGATE_UPSTREAM_API_KEY", "secret")
	cfg, err := Load("")
	require.NoError(t, err)
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "no api key", mutate: func(c *Config) { c.Upstream.APIKey = "" }, wantErr: "upstream.api_key"},
		{name: "zero timeout", mutate: func(c *Config) { c.Upstream.Timeout = 0 }, wantErr: "upstream.timeout"},
		{name: "zero per minute", mutate: func(c *Config) { c.Limits.PerMinute = 0 }, wantErr: "limits.per_minute"},
		{name: "negative per day", mutate: func(c *Config) { c.Limits.PerDay = -1 }, wantErr: "limits.per_day"},
		{name: "zero per month", mutate: func(c *Config) { c.Limits.PerMonth = 0 }, wantErr: "limits.per_month"},
		{name: "batch size", mutate: func(c *Config) { c.Batch.Size = 0 }, wantErr: "batch.size"},
		{name: "no league", mutate: func(c *Config) { c.League.ID = 0 }, wantErr: "league.id"},
		{name: "redis without addr", mutate: func(c *Config) { c.Redis.Enabled = true; c.Redis.Addr = "" }, wantErr: "redis.addr"},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: "log.level"},
		{name: "unknown ttl class", mutate: func(c *Config) { c.Cache.TTL["odds"] = time.Hour }, wantErr: "cache.ttl.odds"},
		{name: "zero ttl", mutate: func(c *Config) { c.Cache.TTL["live"] = 0 }, wantErr: "cache.ttl.live"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsAllErrors(t *testing.T) {
	cfg := validConfig(t)
	cfg.Upstream.APIKey = ""
	cfg.Limits.PerMinute = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream.api_key")
	assert.Contains(t, err.Error(), "limits.per_minute")
}

func TestConversions(t *testing.T) {
	cfg := validConfig(t)
	cfg.Upstream.Host = "v3.football.api-sports.io"
	cfg.Cache.TTL["live"] = 20 * time.Second
	cfg.Limits.PerMonth = 7500

	g := cfg.GatewayConfig(nil)
	assert.Equal(t, "secret", g.APIKey)
	assert.Equal(t, "x-apisports-key", g.APIKeyHeader)
	assert.Equal(t, "v3.football.api-sports.io", g.Host)
	assert.Equal(t, 30, g.Limits.PerMinute)
	assert.Equal(t, 100, g.Limits.PerDay)
	assert.Equal(t, 65*time.Second, g.MaxWait)
	assert.Equal(t, 20*time.Second, g.TTLs.For(cache.ClassLive))
	assert.Equal(t, 6*time.Hour, g.TTLs.For(cache.ClassStandings))
	assert.Nil(t, g.Shared)

	s := cfg.SportsDataConfig()
	assert.Equal(t, 39, s.League)
	assert.Equal(t, 5, s.Batch.Size)

	u := cfg.UsageConfig()
	assert.Equal(t, 7500, u.MonthlyLimit)
	assert.Equal(t, 12, u.DailyAlertThreshold)
	assert.Equal(t, 24*time.Hour, u.ReportInterval)

	q := cfg.QuotaConfig()
	assert.Equal(t, 100, q.DailyLimit)
	assert.Equal(t, "sportsgate:quota", q.KeyPrefix)

	assert.Equal(t, "localhost:6379", cfg.RedisOptions().Addr)
	assert.False(t, cfg.SharedQuotaRecommended())
}
