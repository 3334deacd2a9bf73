package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/sportsdata-gateway/pkg/usage"
)

var (
	simUsers int
	simUsed  int
	simJSON  bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Estimate the quota impact of a traffic surge",
	Long: `Estimate whether a surge of users would exceed the monthly quota.

Each user is assumed to cost usage.requests_per_user upstream requests on
top of --used requests already spent this month.

Examples:
  sportsgate simulate --users 500
  sportsgate simulate --users 500 --used 2100 --json`,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().IntVar(&simUsers, "users", 0, "number of concurrent users (required)")
	simulateCmd.Flags().IntVar(&simUsed, "used", 0, "requests already used this month")
	simulateCmd.Flags().BoolVar(&simJSON, "json", false, "print the result as JSON")
	_ = simulateCmd.MarkFlagRequired("users")
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	if simUsers <= 0 {
		return fmt.Errorf("--users must be > 0 (got %d)", simUsers)
	}
	if simUsed < 0 {
		return fmt.Errorf("--used must be >= 0 (got %d)", simUsed)
	}

	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	uc := cfg.UsageConfig()
	if uc.MonthlyLimit <= 0 {
		return fmt.Errorf("limits.per_month must be > 0 (got %d)", uc.MonthlyLimit)
	}
	perUser := uc.RequestsPerUser
	if perUser <= 0 {
		perUser = usage.DefaultConfig(uc.MonthlyLimit).RequestsPerUser
	}

	sim := usage.Simulate(simUsers, simUsed, uc.MonthlyLimit, perUser)

	out := cmd.OutOrStdout()
	if simJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(sim)
	}

	fmt.Fprintf(out, "Users:              %d\n", sim.Users)
	fmt.Fprintf(out, "Estimated requests: %d (%d per user)\n", sim.EstimatedRequests, perUser)
	fmt.Fprintf(out, "Projected total:    %d / %d\n", sim.ProjectedTotal, sim.Limit)
	fmt.Fprintf(out, "Exceeds quota:      %t\n", sim.WillExceedQuota)
	fmt.Fprintf(out, "Level:              %s\n", sim.Level)
	for _, r := range sim.Recommendations {
		fmt.Fprintf(out, "  - %s\n", r)
	}
	return nil
}
