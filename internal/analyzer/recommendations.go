package analyzer

import (
	"fmt"
	"sort"

	"github.com/blackwell-systems/wastewatch/internal/waste"
)

// ReducibleFraction is the share of observed waste assumed avoidable.
const ReducibleFraction = 0.3

// DefaultRecommendationLimit is used when Recommendations gets limit <= 0.
const DefaultRecommendationLimit = 3

// Recommendation targets one food type within one meal period.
type Recommendation struct {
	FoodType              string           `json:"foodType"`
	MealPeriod            waste.MealPeriod `json:"mealPeriod"`
	CurrentWeightGrams    float64          `json:"currentWeight"`
	PotentialSavingsGrams float64          `json:"potentialSavings"`
	Message               string           `json:"recommendation"`
}

// Recommendations returns up to limit (food, meal) combinations ranked by
// total weight, heaviest first.
func (a *Analyzer) Recommendations(limit int) []Recommendation {
	if limit <= 0 {
		limit = DefaultRecommendationLimit
	}

	recs, _ := a.agg.Records()

	type combo struct {
		food string
		meal waste.MealPeriod
	}
	totals := map[combo]float64{}
	for _, r := range recs {
		meal := r.MealPeriod
		if meal == "" {
			meal = waste.Unknown
		}
		totals[combo{r.FoodType, meal}] += r.WeightGrams
	}

	combos := make([]combo, 0, len(totals))
	for c := range totals {
		combos = append(combos, c)
	}
	sort.Slice(combos, func(i, j int) bool {
		wi, wj := totals[combos[i]], totals[combos[j]]
		if wi != wj {
			return wi > wj
		}
		if combos[i].food != combos[j].food {
			return combos[i].food < combos[j].food
		}
		return combos[i].meal < combos[j].meal
	})

	if len(combos) > limit {
		combos = combos[:limit]
	}

	out := make([]Recommendation, 0, len(combos))
	for _, c := range combos {
		weight := totals[c]
		savings := weight * ReducibleFraction
		out = append(out, Recommendation{
			FoodType:              c.food,
			MealPeriod:            c.meal,
			CurrentWeightGrams:    weight,
			PotentialSavingsGrams: savings,
			Message: fmt.Sprintf("Consider reducing portion sizes for %s during %s. "+
				"Current waste is approximately %.1fg, with potential savings of %.1fg.",
				c.food, c.meal, weight, savings),
		})
	}
	return out
}
