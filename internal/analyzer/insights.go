package analyzer

import (
	"fmt"
	"math"
	"sort"
)

// InsightTrendDays is the window of the trend sentence.
const InsightTrendDays = 7

// Insights returns human-readable observations about the recorded waste.
// The list is regenerated only when the store version changes.
func (a *Analyzer) Insights() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.ensureFreshLocked()
	if len(a.insights) == 0 || a.insightsVersion != a.refreshedVersion {
		a.insights = a.generateInsightsLocked()
		a.insightsVersion = a.refreshedVersion
	}

	out := make([]string, len(a.insights))
	copy(out, a.insights)
	return out
}

func (a *Analyzer) generateInsightsLocked() []string {
	snap := a.snapshot
	var out []string

	out = append(out, fmt.Sprintf("Total food waste recorded: %.1fg across %d items.",
		snap.TotalWeight, snap.TotalItems))

	if len(snap.TopWastedFoods) > 0 {
		top := snap.TopWastedFoods[0]
		out = append(out, fmt.Sprintf("The most wasted food is %s at %.1fg.", top, snap.WeightByType[top]))
	}

	trend := a.dailyTrend(InsightTrendDays)
	if len(trend.Values) > 1 {
		switch {
		case trend.ChangePercentage > 0:
			out = append(out, fmt.Sprintf("Waste is increasing by %.1f%% over the last %d days.",
				trend.ChangePercentage, len(trend.Values)))
		case trend.ChangePercentage < 0:
			out = append(out, fmt.Sprintf("Waste is decreasing by %.1f%% over the last %d days.",
				math.Abs(trend.ChangePercentage), len(trend.Values)))
		default:
			out = append(out, fmt.Sprintf("Waste is stable over the last %d days.", len(trend.Values)))
		}
	}

	if meal, w, ok := maxEntry(snap.WeightByMeal); ok {
		out = append(out, fmt.Sprintf("The meal period with highest waste is %s at %.1fg.", meal, w))
	}

	if day, w, ok := maxEntry(snap.WeightByDay); ok {
		out = append(out, fmt.Sprintf("The day with highest waste is %s at %.1fg.", day, w))
	}

	if snap.WasteSavedTotal > 0 {
		out = append(out, fmt.Sprintf("Waste has been reduced by %.1fg (%.1f%%) compared to the previous period.",
			snap.WasteSavedTotal, snap.WasteSavedPercentage))
	}

	// predictLocked may refresh, which clears a.insights; the caller stores
	// the returned slice afterwards.
	next := a.predictLocked(7)
	out = append(out, fmt.Sprintf("Predicted waste for next week: %.1fg.", next))

	return out
}

// maxEntry returns the key with the largest value. Ties go to the
// alphabetically first key.
func maxEntry(m map[string]float64) (string, float64, bool) {
	if len(m) == 0 {
		return "", 0, false
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best := keys[0]
	for _, k := range keys[1:] {
		if m[k] > m[best] {
			best = k
		}
	}
	return best, m[best], true
}
