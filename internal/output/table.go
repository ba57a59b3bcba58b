// Package output renders wastewatch data for the terminal.
//
// Tables are plain fixed-width text. Color is only emitted when stdout is a
// TTY and NO_COLOR is unset. Weights are grams in, humanized strings out.
package output

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/wastewatch/internal/analyzer"
	"github.com/blackwell-systems/wastewatch/internal/stats"
	"github.com/blackwell-systems/wastewatch/internal/waste"
)

const (
	colorReset = "\033[0m"
	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorGray  = "\033[90m"
)

// barWidth is the widest bar drawn by RenderTrend and the breakdown tables.
const barWidth = 30

// IsColorEnabled returns true if ANSI color codes should be emitted.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// FormatGrams renders a weight, switching to kilograms from 1000 g.
func FormatGrams(g float64) string {
	if math.Abs(g) >= 1000 {
		return humanize.CommafWithDigits(math.Round(g/10)/100, 2) + " kg"
	}
	return humanize.CommafWithDigits(math.Round(g*10)/10, 1) + " g"
}

// RenderRecordTable renders records in the order given.
func RenderRecordTable(recs []waste.Record) string {
	if len(recs) == 0 {
		return "No waste records found.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-20s %-12s %-20s %-10s %s\n",
		"Food", "Weight", "Timestamp", "Meal", "Confidence"))
	sb.WriteString(strings.Repeat("─", 76))
	sb.WriteString("\n")

	for _, r := range recs {
		meal := string(r.MealPeriod)
		if meal == "" {
			meal = string(waste.Unknown)
		}
		sb.WriteString(fmt.Sprintf("%-20s %-12s %-20s %-10s %3.0f%%\n",
			truncate(r.FoodType, 20),
			FormatGrams(r.WeightGrams),
			truncate(r.Timestamp, 20),
			meal,
			r.Confidence*100))
	}

	sb.WriteString(fmt.Sprintf("\n%s records\n", humanize.Comma(int64(len(recs)))))
	return sb.String()
}

// RenderSnapshot renders the totals and the type and meal breakdowns of a
// snapshot. All-time snapshots also get the week-over-week reduction line.
func RenderSnapshot(snap stats.Snapshot) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Period:      %s\n", snap.Period))
	sb.WriteString(fmt.Sprintf("Total waste: %s across %s items\n",
		FormatGrams(snap.TotalWeight), humanize.Comma(int64(snap.TotalItems))))

	if snap.TotalItems == 0 {
		sb.WriteString("\nNo waste recorded for this period.\n")
		return sb.String()
	}

	if len(snap.TopWastedFoods) > 0 {
		sb.WriteString(fmt.Sprintf("Top foods:   %s\n", strings.Join(snap.TopWastedFoods, ", ")))
	}
	if snap.Period == stats.AllTime && snap.WasteSavedTotal > 0 {
		sb.WriteString(colorize(colorGreen, fmt.Sprintf("Saved:       %s (%.1f%%) vs. the previous week\n",
			FormatGrams(snap.WasteSavedTotal), snap.WasteSavedPercentage)))
	}

	sb.WriteString("\nBy food type:\n")
	sb.WriteString(renderBreakdown(snap.WeightByType, snap.TotalWeight, SortedByValue(snap.WeightByType)))

	meals := make([]string, 0, len(snap.WeightByMeal))
	for _, m := range waste.MealPeriods {
		if _, ok := snap.WeightByMeal[string(m)]; ok {
			meals = append(meals, string(m))
		}
	}
	sb.WriteString("\nBy meal period:\n")
	sb.WriteString(renderBreakdown(snap.WeightByMeal, snap.TotalWeight, meals))

	return sb.String()
}

// renderBreakdown renders one row per key in order with its share of total.
func renderBreakdown(m map[string]float64, total float64, order []string) string {
	var sb strings.Builder
	for _, k := range order {
		share := 0.0
		if total > 0 {
			share = m[k] / total * 100
		}
		sb.WriteString(fmt.Sprintf("  %-18s %12s %5.1f%%  %s\n",
			truncate(k, 18), FormatGrams(m[k]), share, bar(m[k], total)))
	}
	return sb.String()
}

// RenderTrend renders a labelled series as a bar chart followed by its
// overall direction.
func RenderTrend(title string, series analyzer.TrendSeries) string {
	var sb strings.Builder
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("─", 60))
	sb.WriteString("\n")

	if len(series.Values) == 0 {
		sb.WriteString("No data.\n")
		return sb.String()
	}

	peak := 0.0
	for _, v := range series.Values {
		peak = math.Max(peak, v)
	}
	for i, v := range series.Values {
		sb.WriteString(fmt.Sprintf("%-12s %12s  %s\n", series.Labels[i], FormatGrams(v), bar(v, peak)))
	}

	sb.WriteString("\n")
	sb.WriteString(FormatChange(series.ChangePercentage, series.Increasing))
	sb.WriteString("\n")
	return sb.String()
}

// FormatChange renders a percent change with a direction arrow. Rising waste
// is red and falling waste green.
func FormatChange(pct float64, increasing bool) string {
	switch {
	case increasing:
		return colorize(colorRed, fmt.Sprintf("↑ %+.1f%%", pct))
	case pct < 0:
		return colorize(colorGreen, fmt.Sprintf("↓ %+.1f%%", pct))
	default:
		return colorize(colorGray, "→ stable")
	}
}

// RenderPrediction renders a forecast and the fit it came from.
func RenderPrediction(daysAhead int, grams float64, model analyzer.RegressionModel) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Predicted daily waste in %d days: %s\n", daysAhead, FormatGrams(grams)))
	sb.WriteString(fmt.Sprintf("Model: %.2f g/day slope, %.2f g intercept, R² %.2f\n",
		model.Slope, model.Intercept, model.RSquared))
	return sb.String()
}

// RenderInsights renders one bullet per sentence.
func RenderInsights(insights []string) string {
	if len(insights) == 0 {
		return "No insights yet.\n"
	}
	var sb strings.Builder
	for _, s := range insights {
		sb.WriteString("• ")
		sb.WriteString(s)
		sb.WriteString("\n")
	}
	return sb.String()
}

// RenderRecommendations renders recommendations in the order given.
func RenderRecommendations(recs []analyzer.Recommendation) string {
	if len(recs) == 0 {
		return "No recommendations: record some waste first.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-3s %-18s %-10s %-12s %s\n", "#", "Food", "Meal", "Current", "Potential Savings"))
	sb.WriteString(strings.Repeat("─", 64))
	sb.WriteString("\n")
	for i, r := range recs {
		sb.WriteString(fmt.Sprintf("%-3d %-18s %-10s %-12s %s\n",
			i+1,
			truncate(r.FoodType, 18),
			r.MealPeriod,
			FormatGrams(r.CurrentWeightGrams),
			colorize(colorGreen, FormatGrams(r.PotentialSavingsGrams))))
	}

	sb.WriteString("\n")
	for _, r := range recs {
		sb.WriteString("• ")
		sb.WriteString(r.Message)
		sb.WriteString("\n")
	}
	return sb.String()
}

// RenderImpact renders an impact report.
func RenderImpact(r analyzer.ImpactReport) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total waste:       %s\n", FormatGrams(r.TotalWeightGrams)))
	sb.WriteString(fmt.Sprintf("Cost:              $%s\n", r.Cost.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("CO2 emissions:     %s kg\n", humanize.CommafWithDigits(r.CO2Kg, 2)))
	sb.WriteString(fmt.Sprintf("Water footprint:   %s L\n", humanize.CommafWithDigits(r.WaterLiters, 1)))
	sb.WriteString(fmt.Sprintf("Potential savings: %s over %d days\n",
		colorize(colorGreen, "$"+r.PotentialSavings.StringFixed(2)), r.SavingsDays))
	return sb.String()
}

// RenderPattern renders a name→average map in the given order, skipping
// names that are absent.
func RenderPattern(title string, pattern map[string]float64, order []string) string {
	var sb strings.Builder
	sb.WriteString(title)
	sb.WriteString("\n")

	peak := 0.0
	for _, v := range pattern {
		peak = math.Max(peak, v)
	}
	for _, k := range order {
		v, ok := pattern[k]
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("  %-10s %12s  %s\n", k, FormatGrams(v), bar(v, peak)))
	}
	return sb.String()
}

// SortedByValue returns the keys of m heaviest first, ties alphabetical.
func SortedByValue(m map[string]float64) []string {
	keys := stats.SortedKeys(m)
	sort.SliceStable(keys, func(i, j int) bool {
		return m[keys[i]] > m[keys[j]]
	})
	return keys
}

func bar(v, peak float64) string {
	if peak <= 0 || v <= 0 {
		return ""
	}
	n := int(math.Round(v / peak * barWidth))
	if n == 0 {
		n = 1
	}
	return strings.Repeat("█", n)
}

// truncate shortens s to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
