package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/wastewatch/internal/analyzer"
	"github.com/blackwell-systems/wastewatch/internal/output"
	"github.com/blackwell-systems/wastewatch/internal/waste"
)

var (
	trendDays   int
	trendFood   string
	trendMeal   string
	trendSmooth int

	trendCmd = &cobra.Command{
		Use:   "trend",
		Short: "Show how waste changes day by day",
		Long: `Plot summed waste per day with the overall change from the first day
to the last.

Without filters the series covers every day in the window, including days
with no waste. With --food or --meal only days that have matching records
are shown.`,
		Example: `  # The last 30 days
  wastewatch trend

  # Bread over two weeks, smoothed over 3 days
  wastewatch trend --food bread --days 14 --smooth 3`,
		Args: cobra.NoArgs,
		RunE: runTrend,
	}

	predictDays int

	predictCmd = &cobra.Command{
		Use:   "predict",
		Short: "Forecast daily waste",
		Long: `Fit a straight line through the last 30 days of daily waste and
extrapolate it. The forecast is never negative.`,
		Example: `  # Daily waste one week from now
  wastewatch predict

  # Two weeks out
  wastewatch predict --days 14`,
		Args: cobra.NoArgs,
		RunE: runPredict,
	}
)

func init() {
	trendCmd.Flags().IntVar(&trendDays, "days", analyzer.DefaultTrendDays, "number of days to show")
	trendCmd.Flags().StringVar(&trendFood, "food", "", "only this food type")
	trendCmd.Flags().StringVar(&trendMeal, "meal", "", "only this meal period")
	trendCmd.Flags().IntVar(&trendSmooth, "smooth", 0, "moving-average window in days (0 = off)")

	predictCmd.Flags().IntVar(&predictDays, "days", 7, "days ahead to forecast")

	RootCmd.AddCommand(trendCmd)
	RootCmd.AddCommand(predictCmd)
}

func runTrend(cmd *cobra.Command, args []string) error {
	if trendDays <= 0 {
		return fmt.Errorf("invalid days: %d (must be positive)", trendDays)
	}
	if trendFood != "" && trendMeal != "" {
		return fmt.Errorf("--food and --meal cannot be combined")
	}

	e, err := openEnv(envOptions{})
	if err != nil {
		return err
	}
	defer e.Close()

	var series analyzer.TrendSeries
	title := fmt.Sprintf("Daily waste, last %d days", trendDays)
	switch {
	case trendFood != "":
		series = e.analyzer.FoodTypeTrend(trendFood, trendDays)
		title = fmt.Sprintf("Daily waste of %s", trendFood)
	case trendMeal != "":
		meal := waste.ParseMealPeriod(trendMeal)
		series = e.analyzer.MealPeriodTrend(meal, trendDays)
		title = fmt.Sprintf("Daily waste at %s", meal)
	default:
		series = e.analyzer.DailyTrend(trendDays)
	}

	if trendSmooth > 1 {
		series.Values = analyzer.MovingAverage(series.Values, trendSmooth)
		title += fmt.Sprintf(" (%d-day average)", trendSmooth)
	}

	fmt.Fprint(cmd.OutOrStdout(), output.RenderTrend(title, series))
	return nil
}

func runPredict(cmd *cobra.Command, args []string) error {
	if predictDays < 0 {
		return fmt.Errorf("invalid days: %d (must not be negative)", predictDays)
	}

	e, err := openEnv(envOptions{})
	if err != nil {
		return err
	}
	defer e.Close()

	grams := e.analyzer.PredictFutureWaste(predictDays)
	fmt.Fprint(cmd.OutOrStdout(), output.RenderPrediction(predictDays, grams, e.analyzer.Model()))
	return nil
}
