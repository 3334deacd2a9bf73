package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/sportsdata-gateway/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "sportsgate",
	Short: "Quota-aware caching gateway for a rate-limited sports data API",
	Long: `sportsgate sits between an application and a sports data API with a
hard monthly request quota. It caches payloads per resource class, enforces
per-minute and per-day windows, batches aggregate fetches and tracks usage
against the monthly quota.

Commands:
  sportsgate serve      # Start the HTTP gateway
  sportsgate simulate   # Estimate the quota impact of a traffic surge
  sportsgate status     # Show quota status of a running gateway`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: ./sportsgate.yaml if present)")
}

func loadConfig(validate bool) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if validate {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
	}
	return cfg, nil
}
