package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/wastewatch/internal/config"
)

var (
	configForce bool

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Show the effective settings",
		Long: `Print the settings wastewatch will use after applying wastewatch.env
and WASTEWATCH_* environment overrides.`,
		Args: cobra.NoArgs,
		RunE: runConfigShow,
	}

	configInitCmd = &cobra.Command{
		Use:   "init",
		Short: "Write a wastewatch.env with the default settings",
		Args:  cobra.NoArgs,
		RunE:  runConfigInit,
	}
)

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing settings file")

	configCmd.AddCommand(configInitCmd)
	RootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	dir, s, err := resolveSettings()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config dir:           %s\n", dir)
	fmt.Fprintf(out, "Backend:              %s\n", s.Backend)
	fmt.Fprintf(out, "Data path:            %s\n", s.DataPath)
	fmt.Fprintf(out, "Listen:               %s\n", s.Listen)
	fmt.Fprintf(out, "Price per kg:         %.2f\n", s.PricePerKg)
	fmt.Fprintf(out, "CO2 per kg:           %.2f kg\n", s.CO2PerKg)
	fmt.Fprintf(out, "Water per kg:         %.0f L\n", s.WaterPerKg)
	fmt.Fprintf(out, "Confidence threshold: %.2f\n", s.ConfidenceThreshold)
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	dir, err := getConfigDir()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, config.SettingsFile)
	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := config.WriteSettings(dir, config.DefaultSettings()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", path)
	return nil
}
