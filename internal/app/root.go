package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/wastewatch/internal/config"
)

var (
	dataPath  string
	backend   string
	configDir string
	debugLog  bool
	logFile   string

	// RootCmd is the root command for wastewatch
	RootCmd = &cobra.Command{
		Use:   "wastewatch",
		Short: "Food waste statistics, trends and reduction insights",
		Long: `wastewatch records discarded food, either typed in by hand or reported by
an upstream detector, and turns the record set into statistics, trends,
predictions and reduction recommendations.

Records live in a CSV file or a SQLite database (--backend). Tunables such
as the price per kilogram are read from wastewatch.env in the config
directory and can be overridden with WASTEWATCH_* environment variables.

Quick Start:
  1. wastewatch add rice 120
  2. wastewatch watch --detections ./detections.jsonl   # tail a detector log
  3. wastewatch stats --period week
  4. wastewatch recommend

Examples:
  # Summarise the last month
  wastewatch stats --period month

  # Plot the daily trend for one food
  wastewatch trend --food bread --days 14

  # Serve the JSON API
  wastewatch serve --listen :8080

  # Export everything for a spreadsheet
  wastewatch export --format csv --output waste.csv`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "wastewatch: food waste statistics and insights")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Run 'wastewatch add FOOD GRAMS' to record waste.")
			fmt.Fprintln(out, "Run 'wastewatch --help' for the full reference.")
			return nil
		},
	}
)

func init() {
	RootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "record store path (default: <config-dir>/waste.csv or waste.db)")
	RootCmd.PersistentFlags().StringVar(&backend, "backend", "", "storage backend: csv or sqlite (default from settings)")
	RootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "config directory (default: $XDG_CONFIG_HOME/wastewatch)")
	RootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "enable debug logging")
	RootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to a rotating file")

	RootCmd.SuggestionsMinimumDistance = 2
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// getConfigDir returns the config directory, using the flag value or default.
func getConfigDir() (string, error) {
	if configDir != "" {
		return configDir, nil
	}
	dir, err := config.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return dir, nil
}
