package analyzer

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/blackwell-systems/wastewatch/internal/waste"
)

// DefaultOutlierThreshold is the z-score used when Outliers gets a
// non-positive threshold.
const DefaultOutlierThreshold = 1.5

// Outliers returns the entries whose population z-score is strictly greater
// than threshold. A zero standard deviation yields no outliers.
func Outliers(values map[string]float64, threshold float64) map[string]float64 {
	out := map[string]float64{}
	if len(values) == 0 {
		return out
	}
	if threshold <= 0 {
		threshold = DefaultOutlierThreshold
	}

	mean, std := meanStdDev(values)
	if std == 0 {
		return out
	}

	for k, v := range values {
		if math.Abs(v-mean)/std > threshold {
			out[k] = v
		}
	}
	return out
}

func meanStdDev(values map[string]float64) (float64, float64) {
	xs := make([]float64, 0, len(values))
	for _, v := range values {
		xs = append(xs, v)
	}
	return stat.PopMeanStdDev(xs, nil)
}

// Correlations reports weekdays and meal periods whose average waste per
// record stands out from the rest.
func (a *Analyzer) Correlations() []string {
	var out []string

	days := a.agg.DayOfWeekPattern()
	out = append(out, describeOutliers(days, waste.WeekdayNames)...)

	meals := a.agg.MealPeriodPattern()
	order := make([]string, 0, len(waste.MealPeriods))
	for _, p := range waste.MealPeriods {
		order = append(order, string(p))
	}
	out = append(out, describeOutliers(meals, order)...)

	return out
}

// describeOutliers emits one sentence per outlier, keys in order first and
// any remaining keys alphabetically.
func describeOutliers(pattern map[string]float64, order []string) []string {
	found := Outliers(pattern, DefaultOutlierThreshold)
	if len(found) == 0 {
		return nil
	}
	mean, _ := meanStdDev(pattern)

	var keys []string
	seen := map[string]bool{}
	for _, k := range order {
		if _, ok := found[k]; ok {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	var rest []string
	for k := range found {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	keys = append(keys, rest...)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		v := found[k]
		direction := "higher"
		if v < mean {
			direction = "lower"
		}
		out = append(out, fmt.Sprintf("Correlation found: %s consistently has %s waste (%.1fg on average).", k, direction, v))
	}
	return out
}
