// Package config loads the gateway configuration from an optional YAML
// file and SPORTSGATE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"

	"github.com/Sternrassler/sportsdata-gateway/pkg/batch"
	"github.com/Sternrassler/sportsdata-gateway/pkg/cache"
	"github.com/Sternrassler/sportsdata-gateway/pkg/gateway"
	"github.com/Sternrassler/sportsdata-gateway/pkg/logging"
	"github.com/Sternrassler/sportsdata-gateway/pkg/quota"
	"github.com/Sternrassler/sportsdata-gateway/pkg/ratelimit"
	"github.com/Sternrassler/sportsdata-gateway/pkg/sportsdata"
	"github.com/Sternrassler/sportsdata-gateway/pkg/usage"
)

// EnvPrefix prefixes every environment override, e.g.
// SPORTSGATE_UPSTREAM_API_KEY for upstream.api_key.
const EnvPrefix = "SPORTSGATE"

// Config is the complete gateway configuration.
type Config struct {
	Upstream UpstreamConfig `mapstructure:"upstream"`
	League   LeagueConfig   `mapstructure:"league"`
	Limits   LimitsConfig   `mapstructure:"limits"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Batch    BatchConfig    `mapstructure:"batch"`
	Usage    UsageConfig    `mapstructure:"usage"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

type UpstreamConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	APIKeyHeader string        `mapstructure:"api_key_header"`
	Host         string        `mapstructure:"host"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type LeagueConfig struct {
	ID     int `mapstructure:"id"`
	Season int `mapstructure:"season"`
}

type LimitsConfig struct {
	PerMinute int           `mapstructure:"per_minute"`
	PerDay    int           `mapstructure:"per_day"`
	PerMonth  int           `mapstructure:"per_month"`
	MaxWait   time.Duration `mapstructure:"max_wait"`

	// Instances is the expected number of gateway processes sharing the
	// upstream key.
	Instances int `mapstructure:"instances"`
}

type CacheConfig struct {
	SweepInterval time.Duration `mapstructure:"sweep_interval"`

	// TTL overrides the built-in TTL per resource class.
	TTL map[string]time.Duration `mapstructure:"ttl"`
}

type BatchConfig struct {
	Size  int           `mapstructure:"size"`
	Delay time.Duration `mapstructure:"delay"`
}

type UsageConfig struct {
	DailyAlertThreshold int           `mapstructure:"daily_alert_threshold"`
	RequestsPerUser     int           `mapstructure:"requests_per_user"`
	ReportInterval      time.Duration `mapstructure:"report_interval"`
	HourlyInterval      time.Duration `mapstructure:"hourly_interval"`
}

type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Load reads configuration. With an empty path it looks for an optional
// sportsgate.yaml in the working directory and /etc/sportsgate; an
// explicit path must exist. Environment variables override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("sportsgate")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/sportsgate")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("upstream.api_key", "")
	v.SetDefault("upstream.base_url", "https://v3.football.api-sports.io")
	v.SetDefault("upstream.api_key_header", "x-apisports-key")
	v.SetDefault("upstream.host", "")
	v.SetDefault("upstream.timeout", "10s")

	v.SetDefault("league.id", 39)
	v.SetDefault("league.season", 2026)

	v.SetDefault("limits.per_minute", 30)
	v.SetDefault("limits.per_day", 100)
	v.SetDefault("limits.per_month", 3000)
	v.SetDefault("limits.max_wait", "65s")
	v.SetDefault("limits.instances", 1)

	v.SetDefault("cache.sweep_interval", "5m")
	for class, ttl := range cache.DefaultTTLs() {
		v.SetDefault("cache.ttl."+string(class), ttl.String())
	}

	v.SetDefault("batch.size", 5)
	v.SetDefault("batch.delay", "2s")

	v.SetDefault("usage.daily_alert_threshold", 12)
	v.SetDefault("usage.requests_per_user", 4)
	v.SetDefault("usage.report_interval", "24h")
	v.SetDefault("usage.hourly_interval", "1h")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "sportsgate:quota")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Upstream.APIKey == "" {
		errs = append(errs, fmt.Errorf("upstream.api_key is required"))
	}
	if c.Upstream.BaseURL == "" {
		errs = append(errs, fmt.Errorf("upstream.base_url is required"))
	}
	if c.Upstream.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("upstream.timeout must be > 0 (got %s)", c.Upstream.Timeout))
	}
	if c.League.ID <= 0 || c.League.Season <= 0 {
		errs = append(errs, fmt.Errorf("league.id and league.season must be > 0"))
	}
	if c.Limits.PerMinute <= 0 {
		errs = append(errs, fmt.Errorf("limits.per_minute must be > 0 (got %d)", c.Limits.PerMinute))
	}
	if c.Limits.PerDay <= 0 {
		errs = append(errs, fmt.Errorf("limits.per_day must be > 0 (got %d)", c.Limits.PerDay))
	}
	if c.Limits.PerMonth <= 0 {
		errs = append(errs, fmt.Errorf("limits.per_month must be > 0 (got %d)", c.Limits.PerMonth))
	}
	if c.Limits.MaxWait < 0 {
		errs = append(errs, fmt.Errorf("limits.max_wait must be >= 0 (got %s)", c.Limits.MaxWait))
	}
	if c.Batch.Size < 1 {
		errs = append(errs, fmt.Errorf("batch.size must be >= 1 (got %d)", c.Batch.Size))
	}
	if c.Batch.Delay < 0 {
		errs = append(errs, fmt.Errorf("batch.delay must be >= 0 (got %s)", c.Batch.Delay))
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, fmt.Errorf("redis.addr is required when redis is enabled"))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	known := cache.DefaultTTLs()
	classes := make([]string, 0, len(c.Cache.TTL))
	for class := range c.Cache.TTL {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	for _, class := range classes {
		if _, ok := known[cache.Class(class)]; !ok {
			errs = append(errs, fmt.Errorf("cache.ttl.%s: unknown resource class", class))
		} else if c.Cache.TTL[class] <= 0 {
			errs = append(errs, fmt.Errorf("cache.ttl.%s must be > 0", class))
		}
	}

	return errors.Join(errs...)
}

// SharedQuotaRecommended reports whether several instances are expected
// without a shared counter to split the upstream budget between them.
func (c *Config) SharedQuotaRecommended() bool {
	return c.Limits.Instances > 1 && !c.Redis.Enabled
}

// TTLs returns the built-in TTL table with configured overrides applied.
func (c *Config) TTLs() cache.TTLTable {
	overrides := make(map[cache.Class]time.Duration, len(c.Cache.TTL))
	for class, ttl := range c.Cache.TTL {
		overrides[cache.Class(class)] = ttl
	}
	return cache.DefaultTTLs().Merge(overrides)
}

// GatewayConfig builds the gateway configuration. shared may be nil.
func (c *Config) GatewayConfig(shared quota.Counter) gateway.Config {
	g := gateway.DefaultConfig(c.Upstream.BaseURL, c.Upstream.APIKey)
	if c.Upstream.APIKeyHeader != "" {
		g.APIKeyHeader = c.Upstream.APIKeyHeader
	}
	g.Host = c.Upstream.Host
	g.Timeout = c.Upstream.Timeout
	g.MaxWait = c.Limits.MaxWait
	g.Limits = ratelimit.Config{PerMinute: c.Limits.PerMinute, PerDay: c.Limits.PerDay}
	g.TTLs = c.TTLs()
	if c.Cache.SweepInterval > 0 {
		g.SweepInterval = c.Cache.SweepInterval
	}
	g.Shared = shared
	return g
}

// SportsDataConfig builds the typed client configuration.
func (c *Config) SportsDataConfig() sportsdata.Config {
	return sportsdata.Config{
		League: c.League.ID,
		Season: c.League.Season,
		Batch:  batch.Config{Size: c.Batch.Size, Delay: c.Batch.Delay},
	}
}

// UsageConfig builds the usage monitor configuration.
func (c *Config) UsageConfig() usage.Config {
	u := usage.DefaultConfig(c.Limits.PerMonth)
	u.DailyAlertThreshold = c.Usage.DailyAlertThreshold
	u.RequestsPerUser = c.Usage.RequestsPerUser
	u.ReportInterval = c.Usage.ReportInterval
	u.HourlyInterval = c.Usage.HourlyInterval
	return u
}

// QuotaConfig builds the shared counter configuration.
func (c *Config) QuotaConfig() quota.Config {
	q := quota.DefaultConfig(c.Limits.PerDay)
	if c.Redis.KeyPrefix != "" {
		q.KeyPrefix = c.Redis.KeyPrefix
	}
	return q
}

// RedisOptions returns client options for the shared counter store.
func (c *Config) RedisOptions() *redis.Options {
	return &redis.Options{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
	}
}

// LoggingConfig builds the logger configuration. Validate has already
// rejected unknown levels.
func (c *Config) LoggingConfig() logging.Config {
	level, _ := logging.ParseLevel(c.Log.Level)
	return logging.Config{
		Level:   level,
		Pretty:  c.Log.Pretty,
		Output:  os.Stderr,
		Service: "sportsgate",
	}
}
