package app

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/wastewatch/internal/output"
	"github.com/blackwell-systems/wastewatch/internal/stats"
	"github.com/blackwell-systems/wastewatch/internal/waste"
)

var (
	statsPeriod   string
	statsPatterns bool
	statsJSON     bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show waste totals and breakdowns",
	Long: `Display total waste with per-food and per-meal breakdowns.

Periods are trailing windows ending now:
  - day: today
  - week: the last 7 days
  - month: the last 30 days
  - year: the last 365 days
  - all: every record (default), plus the week-over-week reduction

--patterns adds the average waste per record by weekday, month and meal.`,
	Example: `  # All-time summary
  wastewatch stats

  # The last week, as JSON
  wastewatch stats --period week --json

  # When does waste happen?
  wastewatch stats --patterns`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsPeriod, "period", "all", "all, day, week, month or year")
	statsCmd.Flags().BoolVar(&statsPatterns, "patterns", false, "show weekday, month and meal averages")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print the snapshot as JSON")

	RootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	period, err := stats.ParsePeriod(statsPeriod)
	if err != nil {
		return err
	}

	e, err := openEnv(envOptions{})
	if err != nil {
		return err
	}
	defer e.Close()

	snap := e.agg.Snapshot()
	if period != stats.AllTime {
		snap = e.agg.SnapshotFor(period)
	}

	out := cmd.OutOrStdout()
	if statsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}

	fmt.Fprint(out, output.RenderSnapshot(snap))
	if period != stats.AllTime || snap.TotalItems == 0 {
		return nil
	}

	fmt.Fprintf(out, "\nAverage per day: %s\n", output.FormatGrams(e.agg.AverageWastePerDay(stats.AllTime)))

	if statsPatterns {
		meals := make([]string, len(waste.MealPeriods))
		for i, m := range waste.MealPeriods {
			meals[i] = string(m)
		}
		fmt.Fprintln(out)
		fmt.Fprint(out, output.RenderPattern("Average per record by weekday:", e.agg.DayOfWeekPattern(), waste.WeekdayNames))
		fmt.Fprintln(out)
		fmt.Fprint(out, output.RenderPattern("Average per record by month:", e.agg.MonthlyPattern(), waste.MonthNames))
		fmt.Fprintln(out)
		fmt.Fprint(out, output.RenderPattern("Average per record by meal:", e.agg.MealPeriodPattern(), meals))
	}
	return nil
}
