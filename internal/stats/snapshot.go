package stats

import (
	"sort"
	"time"

	"github.com/blackwell-systems/wastewatch/internal/waste"
)

// TopFoodsLimit caps Snapshot.TopWastedFoods.
const TopFoodsLimit = 5

// TrendDays is the length of Snapshot.DailyTrend.
const TrendDays = 30

// Snapshot is a point-in-time aggregate over a set of records.
//
// Period-bounded snapshots only fill the totals, the type, count and meal
// maps and TopWastedFoods. The calendar buckets, DailyTrend and the
// reduction figures belong to the all-time snapshot.
type Snapshot struct {
	Period  Period `json:"period"`
	Version uint64 `json:"version"`

	TotalWeight    float64            `json:"totalWeight"`
	TotalItems     int                `json:"totalItems"`
	WeightByType   map[string]float64 `json:"weightByType"`
	CountByType    map[string]int     `json:"countByType"`
	TopWastedFoods []string           `json:"topWastedFoods"`
	WeightByMeal   map[string]float64 `json:"weightByMeal"`

	WeightByDay       map[string]float64 `json:"weightByDay,omitempty"`
	WeightByMonth     map[string]float64 `json:"weightByMonth,omitempty"`
	WeightByWeek      map[string]float64 `json:"weightByWeek,omitempty"`
	WeightByYearMonth map[string]float64 `json:"weightByYearMonth,omitempty"`
	DailyTrend        []float64          `json:"dailyTrend,omitempty"`

	WasteSavedTotal      float64 `json:"wasteSavedTotal"`
	WasteSavedPercentage float64 `json:"wasteSavedPercentage"`
}

func newSnapshot(p Period) Snapshot {
	return Snapshot{
		Period:         p,
		WeightByType:   map[string]float64{},
		CountByType:    map[string]int{},
		TopWastedFoods: []string{},
		WeightByMeal:   map[string]float64{},
	}
}

// clone returns a deep copy so callers cannot mutate the cached snapshot.
func (s Snapshot) clone() Snapshot {
	out := s
	out.WeightByType = cloneFloats(s.WeightByType)
	out.WeightByMeal = cloneFloats(s.WeightByMeal)
	out.WeightByDay = cloneFloats(s.WeightByDay)
	out.WeightByMonth = cloneFloats(s.WeightByMonth)
	out.WeightByWeek = cloneFloats(s.WeightByWeek)
	out.WeightByYearMonth = cloneFloats(s.WeightByYearMonth)
	if s.CountByType != nil {
		out.CountByType = make(map[string]int, len(s.CountByType))
		for k, v := range s.CountByType {
			out.CountByType[k] = v
		}
	}
	out.TopWastedFoods = append([]string(nil), s.TopWastedFoods...)
	if s.DailyTrend != nil {
		out.DailyTrend = append([]float64(nil), s.DailyTrend...)
	}
	return out
}

func cloneFloats(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func mealKey(r waste.Record) string {
	if r.MealPeriod == "" {
		return string(waste.Unknown)
	}
	return string(r.MealPeriod)
}

// accumulateTotals fills the fields shared by every snapshot kind.
func accumulateTotals(snap *Snapshot, recs []waste.Record) {
	for _, r := range recs {
		snap.TotalWeight += r.WeightGrams
		snap.TotalItems++
		snap.WeightByType[r.FoodType] += r.WeightGrams
		snap.CountByType[r.FoodType]++
		snap.WeightByMeal[mealKey(r)] += r.WeightGrams
	}
	snap.TopWastedFoods = topKeys(snap.WeightByType, TopFoodsLimit)
}

// computeAllTime builds the full snapshot. Records whose timestamp does not
// parse count toward totals and the type and meal maps only.
func computeAllTime(recs []waste.Record, now time.Time) Snapshot {
	snap := newSnapshot(AllTime)
	snap.WeightByDay = map[string]float64{}
	snap.WeightByMonth = map[string]float64{}
	snap.WeightByWeek = map[string]float64{}
	snap.WeightByYearMonth = map[string]float64{}

	accumulateTotals(&snap, recs)

	byDate := map[string]float64{}
	lastStart := now.AddDate(0, 0, -7)
	prevStart := now.AddDate(0, 0, -14)
	var last, prev float64

	for _, r := range recs {
		ts, err := waste.ParseTimestamp(r.Timestamp)
		if err != nil {
			continue
		}
		snap.WeightByDay[waste.WeekdayNames[ts.Weekday()]] += r.WeightGrams
		snap.WeightByMonth[waste.MonthNames[ts.Month()-1]] += r.WeightGrams
		snap.WeightByWeek[waste.WeekLabel(ts)] += r.WeightGrams
		snap.WeightByYearMonth[ts.Format("2006-01")] += r.WeightGrams
		byDate[waste.FormatDate(ts)] += r.WeightGrams

		switch {
		case !ts.Before(lastStart) && ts.Before(now):
			last += r.WeightGrams
		case !ts.Before(prevStart) && ts.Before(lastStart):
			prev += r.WeightGrams
		}
	}

	snap.DailyTrend = make([]float64, TrendDays)
	for i := 0; i < TrendDays; i++ {
		day := now.AddDate(0, 0, -(TrendDays - 1 - i))
		snap.DailyTrend[i] = byDate[waste.FormatDate(day)]
	}

	if saved := prev - last; saved > 0 {
		snap.WasteSavedTotal = saved
		if prev > 0 {
			snap.WasteSavedPercentage = saved / prev * 100
		}
	}
	return snap
}

// topKeys returns up to limit keys ordered by value descending. Equal values
// keep alphabetical order.
func topKeys(m map[string]float64, limit int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	sort.SliceStable(keys, func(i, j int) bool {
		return m[keys[i]] > m[keys[j]]
	})
	if limit >= 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	return keys
}
