package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	statusAddr  string
	statusTopic string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of a running gateway",
	Long: `Query the read-only status endpoints of a running gateway.

Topics: quota, usage, ratelimit, cache, alerts, report.

Examples:
  sportsgate status
  sportsgate status --topic ratelimit --addr http://gateway:8080`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&statusAddr, "addr", "http://localhost:8080", "gateway base URL")
	statusCmd.Flags().StringVar(&statusTopic, "topic", "quota", "status topic to show")
}

var statusTopics = map[string]bool{
	"quota": true, "usage": true, "ratelimit": true, "cache": true, "alerts": true, "report": true,
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if !statusTopics[statusTopic] {
		return fmt.Errorf("unknown topic %q", statusTopic)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	url := strings.TrimRight(statusAddr, "/") + "/status/" + statusTopic
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("query %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
