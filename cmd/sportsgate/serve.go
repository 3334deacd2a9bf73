package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/sportsdata-gateway/internal/config"
	"github.com/Sternrassler/sportsdata-gateway/internal/server"
	"github.com/Sternrassler/sportsdata-gateway/pkg/gateway"
	"github.com/Sternrassler/sportsdata-gateway/pkg/logging"
	"github.com/Sternrassler/sportsdata-gateway/pkg/quota"
	"github.com/Sternrassler/sportsdata-gateway/pkg/sportsdata"
	"github.com/Sternrassler/sportsdata-gateway/pkg/usage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP gateway",
	Long: `Start the gateway HTTP server.

Configuration comes from sportsgate.yaml (or --config) and SPORTSGATE_*
environment variables, for example:
  SPORTSGATE_UPSTREAM_API_KEY    upstream API key (required)
  SPORTSGATE_LIMITS_PER_DAY      daily request budget (default 100)
  SPORTSGATE_LIMITS_PER_MONTH    monthly quota (default 3000)
  SPORTSGATE_REDIS_ENABLED       share the daily budget across instances
  SPORTSGATE_SERVER_ADDR         listen address (default :8080)

The server stops gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// app holds the wired components of one gateway process.
type app struct {
	cfg     *config.Config
	gateway *gateway.Gateway
	monitor *usage.Monitor
	handler http.Handler
	redis   *redis.Client
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger := logging.NewLogger("sportsgate")
	a := &app{cfg: cfg}

	var shared quota.Counter
	if cfg.Redis.Enabled {
		a.redis = redis.NewClient(cfg.RedisOptions())

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := a.redis.Ping(pingCtx).Err(); err != nil {
			a.redis.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}

		counter, err := quota.NewRedisCounter(a.redis, cfg.QuotaConfig(), nil, logging.NewLogger("quota"))
		if err != nil {
			a.redis.Close()
			return nil, fmt.Errorf("create shared quota counter: %w", err)
		}
		shared = counter
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("Shared daily quota enabled")
	} else if cfg.SharedQuotaRecommended() {
		logger.Warn().
			Int("instances", cfg.Limits.Instances).
			Int("per_day", cfg.Limits.PerDay).
			Msg("Several instances expected without a shared quota counter; each process spends the full daily budget")
	}

	gw, err := gateway.New(cfg.GatewayConfig(shared))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create gateway: %w", err)
	}

	monitor, err := usage.New(cfg.UsageConfig(), nil, logging.NewLogger("usage"))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create usage monitor: %w", err)
	}
	gw.Subscribe(monitor)

	data, err := sportsdata.New(gw, cfg.SportsDataConfig())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create sports data client: %w", err)
	}

	a.gateway = gw
	a.monitor = monitor
	a.handler = server.New(gw, data, monitor, logging.NewLogger("server")).Handler()
	return a, nil
}

// Start launches background maintenance until ctx is cancelled.
func (a *app) Start(ctx context.Context) {
	a.gateway.Start(ctx)
	a.monitor.Start(ctx)
}

func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	logging.Setup(cfg.LoggingConfig())
	logger := logging.NewLogger("sportsgate")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	a.Start(ctx)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      a.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info().
		Str("addr", cfg.Server.Addr).
		Int("per_minute", cfg.Limits.PerMinute).
		Int("per_day", cfg.Limits.PerDay).
		Int("per_month", cfg.Limits.PerMonth).
		Msg("Gateway listening")

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	report := a.monitor.DailyReport()
	logger.Info().
		Int("requests", report.Requests).
		Int("monthly_used", report.Quota.Used).
		Msg("Gateway stopped")
	return nil
}
