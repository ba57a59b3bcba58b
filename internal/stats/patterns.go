package stats

import (
	"time"

	"github.com/blackwell-systems/wastewatch/internal/waste"
)

// DayOfWeekPattern returns the average grams per record for each weekday.
// Every weekday is present; days without records are 0.
func (a *Aggregator) DayOfWeekPattern() map[string]float64 {
	recs, _ := a.src.RecordsAt()
	return averageBy(recs, waste.WeekdayNames, func(ts time.Time) string {
		return waste.WeekdayNames[ts.Weekday()]
	})
}

// MonthlyPattern returns the average grams per record for each calendar
// month. Every month is present; months without records are 0.
func (a *Aggregator) MonthlyPattern() map[string]float64 {
	recs, _ := a.src.RecordsAt()
	return averageBy(recs, waste.MonthNames, func(ts time.Time) string {
		return waste.MonthNames[ts.Month()-1]
	})
}

// MealPeriodPattern returns the average grams per record for each meal
// period that has at least one record.
func (a *Aggregator) MealPeriodPattern() map[string]float64 {
	recs, _ := a.src.RecordsAt()

	sums := map[string]float64{}
	counts := map[string]int{}
	for _, r := range recs {
		k := mealKey(r)
		sums[k] += r.WeightGrams
		counts[k]++
	}
	for k, n := range counts {
		sums[k] /= float64(n)
	}
	return sums
}

func averageBy(recs []waste.Record, names []string, key func(time.Time) string) map[string]float64 {
	pattern := make(map[string]float64, len(names))
	counts := make(map[string]int, len(names))
	for _, n := range names {
		pattern[n] = 0
	}

	for _, r := range recs {
		ts, err := waste.ParseTimestamp(r.Timestamp)
		if err != nil {
			continue
		}
		k := key(ts)
		pattern[k] += r.WeightGrams
		counts[k]++
	}

	for k, n := range counts {
		pattern[k] /= float64(n)
	}
	return pattern
}
