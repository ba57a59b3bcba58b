package stats

import (
	"math"
	"testing"
	"time"

	"github.com/blackwell-systems/wastewatch/internal/store"
	"github.com/blackwell-systems/wastewatch/internal/waste"
)

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.Local) // a Friday

func newTestAggregator(t *testing.T, recs ...waste.Record) (*store.Store, *Aggregator) {
	t.Helper()
	s := store.New()
	s.AppendAll(recs)
	return s, New(s, WithClock(func() time.Time { return fixedNow }))
}

func daysAgo(food string, grams float64, days int) waste.Record {
	ts := fixedNow.AddDate(0, 0, -days)
	return waste.Record{
		FoodType:    food,
		WeightGrams: grams,
		Timestamp:   waste.FormatTimestamp(ts),
		Confidence:  0.9,
		MealPeriod:  waste.Lunch,
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSnapshot_Empty(t *testing.T) {
	_, agg := newTestAggregator(t)
	snap := agg.Snapshot()

	if snap.TotalWeight != 0 || snap.TotalItems != 0 {
		t.Errorf("empty snapshot totals = %v/%d, want 0/0", snap.TotalWeight, snap.TotalItems)
	}
	if len(snap.TopWastedFoods) != 0 {
		t.Errorf("TopWastedFoods = %v, want empty", snap.TopWastedFoods)
	}
	if len(snap.DailyTrend) != TrendDays {
		t.Fatalf("len(DailyTrend) = %d, want %d", len(snap.DailyTrend), TrendDays)
	}
	for i, v := range snap.DailyTrend {
		if v != 0 {
			t.Errorf("DailyTrend[%d] = %v, want 0", i, v)
		}
	}
}

func TestSnapshot_Example(t *testing.T) {
	_, agg := newTestAggregator(t,
		daysAgo("apple", 100, 2),
		daysAgo("apple", 50, 1),
		daysAgo("banana", 30, 1),
	)
	snap := agg.Snapshot()

	if snap.TotalWeight != 180 {
		t.Errorf("TotalWeight = %v, want 180", snap.TotalWeight)
	}
	if snap.TotalItems != 3 {
		t.Errorf("TotalItems = %d, want 3", snap.TotalItems)
	}
	if snap.WeightByType["apple"] != 150 || snap.WeightByType["banana"] != 30 {
		t.Errorf("WeightByType = %v, want apple:150 banana:30", snap.WeightByType)
	}
	if snap.CountByType["apple"] != 2 {
		t.Errorf("CountByType[apple] = %d, want 2", snap.CountByType["apple"])
	}
	want := []string{"apple", "banana"}
	if len(snap.TopWastedFoods) != 2 || snap.TopWastedFoods[0] != want[0] || snap.TopWastedFoods[1] != want[1] {
		t.Errorf("TopWastedFoods = %v, want %v", snap.TopWastedFoods, want)
	}
	if snap.WeightByMeal["Lunch"] != 180 {
		t.Errorf("WeightByMeal[Lunch] = %v, want 180", snap.WeightByMeal["Lunch"])
	}
}

func TestSnapshot_SumInvariant(t *testing.T) {
	_, agg := newTestAggregator(t,
		daysAgo("apple", 12.3, 0),
		daysAgo("bread", 45.6, 3),
		daysAgo("rice", 78.9, 40),
		waste.Record{FoodType: "soup", WeightGrams: 11.1, Timestamp: "bad"},
	)
	snap := agg.Snapshot()

	var sum float64
	for _, w := range snap.WeightByType {
		sum += w
	}
	if math.Abs(sum-snap.TotalWeight) > 1e-6 {
		t.Errorf("sum(WeightByType) = %v, TotalWeight = %v", sum, snap.TotalWeight)
	}
}

func TestSnapshot_TopFoodsCappedAndOrdered(t *testing.T) {
	_, agg := newTestAggregator(t,
		daysAgo("a", 10, 1),
		daysAgo("b", 70, 1),
		daysAgo("c", 30, 1),
		daysAgo("d", 30, 1),
		daysAgo("e", 50, 1),
		daysAgo("f", 60, 1),
		daysAgo("g", 5, 1),
	)
	got := agg.Snapshot().TopWastedFoods
	want := []string{"b", "f", "e", "c", "d"}

	if len(got) != len(want) {
		t.Fatalf("TopWastedFoods = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("TopWastedFoods[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSnapshot_UnparsableTimestamp(t *testing.T) {
	_, agg := newTestAggregator(t,
		waste.Record{FoodType: "apple", WeightGrams: 40, Timestamp: "yesterday", MealPeriod: waste.Dinner},
	)
	snap := agg.Snapshot()

	if snap.TotalWeight != 40 || snap.WeightByType["apple"] != 40 || snap.WeightByMeal["Dinner"] != 40 {
		t.Errorf("unparsable record missing from totals: %+v", snap)
	}
	if len(snap.WeightByDay) != 0 || len(snap.WeightByMonth) != 0 {
		t.Errorf("unparsable record leaked into calendar buckets: day=%v month=%v", snap.WeightByDay, snap.WeightByMonth)
	}
	for _, v := range snap.DailyTrend {
		if v != 0 {
			t.Fatalf("unparsable record leaked into DailyTrend: %v", snap.DailyTrend)
		}
	}
}

func TestSnapshot_CalendarBuckets(t *testing.T) {
	_, agg := newTestAggregator(t,
		waste.Record{FoodType: "apple", WeightGrams: 10, Timestamp: "2024-03-11 08:00:00"}, // Monday
		waste.Record{FoodType: "apple", WeightGrams: 20, Timestamp: "2024-02-14 13:00:00"}, // Wednesday
	)
	snap := agg.Snapshot()

	if snap.WeightByDay["Monday"] != 10 || snap.WeightByDay["Wednesday"] != 20 {
		t.Errorf("WeightByDay = %v", snap.WeightByDay)
	}
	if snap.WeightByMonth["March"] != 10 || snap.WeightByMonth["February"] != 20 {
		t.Errorf("WeightByMonth = %v", snap.WeightByMonth)
	}
	if snap.WeightByYearMonth["2024-03"] != 10 || snap.WeightByYearMonth["2024-02"] != 20 {
		t.Errorf("WeightByYearMonth = %v", snap.WeightByYearMonth)
	}
	if snap.WeightByWeek["2024-W11"] != 10 || snap.WeightByWeek["2024-W07"] != 20 {
		t.Errorf("WeightByWeek = %v", snap.WeightByWeek)
	}
	if snap.WeightByMeal["Unknown"] != 30 {
		t.Errorf("WeightByMeal[Unknown] = %v, want 30 for records without a meal period", snap.WeightByMeal["Unknown"])
	}
}

func TestSnapshot_DailyTrend(t *testing.T) {
	_, agg := newTestAggregator(t,
		daysAgo("apple", 5, 0),
		daysAgo("apple", 7, 0),
		daysAgo("apple", 11, 29),
		daysAgo("apple", 13, 30),
	)
	trend := agg.Snapshot().DailyTrend

	if trend[TrendDays-1] != 12 {
		t.Errorf("DailyTrend[last] = %v, want 12", trend[TrendDays-1])
	}
	if trend[0] != 11 {
		t.Errorf("DailyTrend[0] = %v, want 11", trend[0])
	}
}

func TestSnapshot_WasteReduction(t *testing.T) {
	tests := []struct {
		name        string
		recs        []waste.Record
		wantSaved   float64
		wantPercent float64
	}{
		{
			name:        "reduced",
			recs:        []waste.Record{daysAgo("apple", 100, 10), daysAgo("apple", 40, 3)},
			wantSaved:   60,
			wantPercent: 60,
		},
		{
			name:        "increased clamps to zero",
			recs:        []waste.Record{daysAgo("apple", 40, 10), daysAgo("apple", 100, 3)},
			wantSaved:   0,
			wantPercent: 0,
		},
		{
			name:        "no previous week",
			recs:        []waste.Record{daysAgo("apple", 100, 3)},
			wantSaved:   0,
			wantPercent: 0,
		},
		{
			name:        "nothing this week",
			recs:        []waste.Record{daysAgo("apple", 80, 8)},
			wantSaved:   80,
			wantPercent: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, agg := newTestAggregator(t, tt.recs...)
			snap := agg.Snapshot()
			if !approx(snap.WasteSavedTotal, tt.wantSaved) {
				t.Errorf("WasteSavedTotal = %v, want %v", snap.WasteSavedTotal, tt.wantSaved)
			}
			if !approx(snap.WasteSavedPercentage, tt.wantPercent) {
				t.Errorf("WasteSavedPercentage = %v, want %v", snap.WasteSavedPercentage, tt.wantPercent)
			}
		})
	}
}

func TestSnapshot_CacheFollowsVersion(t *testing.T) {
	s, agg := newTestAggregator(t, daysAgo("apple", 100, 1))

	first := agg.Snapshot()
	if first.Version != 1 {
		t.Errorf("Version = %d, want 1", first.Version)
	}

	// Mutating a returned snapshot must not affect the cache.
	first.WeightByType["apple"] = 0
	if agg.Snapshot().WeightByType["apple"] != 100 {
		t.Error("cached snapshot was mutated through a returned copy")
	}

	s.Append(daysAgo("banana", 30, 1))
	second := agg.Snapshot()
	if second.Version != 2 {
		t.Errorf("Version after append = %d, want 2", second.Version)
	}
	if second.TotalWeight != 130 {
		t.Errorf("TotalWeight after append = %v, want 130", second.TotalWeight)
	}
}

func TestSnapshotFor_Week(t *testing.T) {
	_, agg := newTestAggregator(t,
		daysAgo("apple", 100, 3),
		daysAgo("banana", 30, 20),
		waste.Record{FoodType: "soup", WeightGrams: 5, Timestamp: "garbage"},
	)
	snap := agg.SnapshotFor(Week)

	if snap.Period != Week {
		t.Errorf("Period = %v, want week", snap.Period)
	}
	if snap.TotalWeight != 100 || snap.TotalItems != 1 {
		t.Errorf("week totals = %v/%d, want 100/1", snap.TotalWeight, snap.TotalItems)
	}
	if len(snap.TopWastedFoods) != 1 || snap.TopWastedFoods[0] != "apple" {
		t.Errorf("TopWastedFoods = %v, want [apple]", snap.TopWastedFoods)
	}
	if snap.WeightByDay != nil || snap.DailyTrend != nil {
		t.Error("period snapshot should not populate calendar buckets or daily trend")
	}
}

func TestSnapshotFor_AllTimeUsesCache(t *testing.T) {
	_, agg := newTestAggregator(t, daysAgo("apple", 100, 400))
	if got := agg.SnapshotFor(AllTime).TotalWeight; got != 100 {
		t.Errorf("SnapshotFor(AllTime).TotalWeight = %v, want 100", got)
	}
	if got := agg.TotalWeight(Year); got != 0 {
		t.Errorf("TotalWeight(Year) = %v, want 0", got)
	}
}

func TestTopWastedFoods_Limit(t *testing.T) {
	_, agg := newTestAggregator(t,
		daysAgo("a", 1, 1), daysAgo("b", 2, 1), daysAgo("c", 3, 1),
	)
	if got := agg.TopWastedFoods(2); len(got) != 2 || got[0] != "c" {
		t.Errorf("TopWastedFoods(2) = %v, want [c b]", got)
	}
	if got := agg.TopWastedFoods(0); len(got) != 3 {
		t.Errorf("TopWastedFoods(0) = %v, want all three", got)
	}
}

func TestWasteByTypeAndMeal(t *testing.T) {
	rec := daysAgo("apple", 25, 1)
	rec.MealPeriod = waste.Breakfast
	_, agg := newTestAggregator(t, rec, daysAgo("apple", 5, 60))

	if got := agg.WasteByType(Month)["apple"]; got != 25 {
		t.Errorf("WasteByType(Month)[apple] = %v, want 25", got)
	}
	if got := agg.WasteByMeal(AllTime)["Breakfast"]; got != 25 {
		t.Errorf("WasteByMeal(AllTime)[Breakfast] = %v, want 25", got)
	}
}

func TestAverageWastePerDay(t *testing.T) {
	_, agg := newTestAggregator(t,
		waste.Record{FoodType: "apple", WeightGrams: 60, Timestamp: "2024-01-01 10:00:00"},
		waste.Record{FoodType: "apple", WeightGrams: 40, Timestamp: "2024-01-10 10:00:00"},
		daysAgo("pear", 70, 2),
	)

	if got := agg.AverageWastePerDay(Week); !approx(got, 10) {
		t.Errorf("AverageWastePerDay(Week) = %v, want 10", got)
	}

	// Span 2024-01-01 .. 2024-03-13 inclusive.
	first := time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local)
	last := fixedNow.AddDate(0, 0, -2)
	days := int(last.Sub(first).Hours()/24) + 1
	want := 170 / float64(days)
	if got := agg.AverageWastePerDay(AllTime); !approx(got, want) {
		t.Errorf("AverageWastePerDay(AllTime) = %v, want %v", got, want)
	}
}

func TestAverageWastePerDay_Empty(t *testing.T) {
	_, agg := newTestAggregator(t)
	if got := agg.AverageWastePerDay(AllTime); got != 0 {
		t.Errorf("AverageWastePerDay(AllTime) = %v, want 0", got)
	}
}

func TestAverageWastePerDay_SingleDay(t *testing.T) {
	_, agg := newTestAggregator(t,
		waste.Record{FoodType: "apple", WeightGrams: 30, Timestamp: "2024-01-01 08:00:00"},
		waste.Record{FoodType: "apple", WeightGrams: 20, Timestamp: "2024-01-01 18:00:00"},
	)
	if got := agg.AverageWastePerDay(AllTime); got != 50 {
		t.Errorf("AverageWastePerDay(AllTime) = %v, want 50", got)
	}
}

func TestWasteTrend_Week(t *testing.T) {
	_, agg := newTestAggregator(t,
		daysAgo("apple", 10, 0),
		daysAgo("apple", 20, 6),
		daysAgo("apple", 40, 7),
	)
	trend := agg.WasteTrend(Week)

	if len(trend) != 7 {
		t.Fatalf("len(WasteTrend(Week)) = %d, want 7", len(trend))
	}
	keys := SortedKeys(trend)
	if keys[6] != "2024-03-15" || keys[0] != "2024-03-09" {
		t.Errorf("keys = %v, want 2024-03-09 .. 2024-03-15", keys)
	}
	if trend["2024-03-15"] != 10 || trend["2024-03-09"] != 20 {
		t.Errorf("trend = %v", trend)
	}
}

func TestWasteTrend_Lengths(t *testing.T) {
	_, agg := newTestAggregator(t)
	tests := []struct {
		period Period
		want   int
	}{
		{Day, 24},
		{Week, 7},
		{Month, 30},
		{Year, 365},
		{AllTime, 7},
	}
	for _, tt := range tests {
		if got := len(agg.WasteTrend(tt.period)); got != tt.want {
			t.Errorf("len(WasteTrend(%v)) = %d, want %d", tt.period, got, tt.want)
		}
	}
}

func TestWasteTrend_DayHourly(t *testing.T) {
	_, agg := newTestAggregator(t,
		waste.Record{FoodType: "apple", WeightGrams: 15, Timestamp: "2024-03-15 08:30:00"},
		waste.Record{FoodType: "apple", WeightGrams: 5, Timestamp: "2024-03-15 08:59:00"},
		waste.Record{FoodType: "apple", WeightGrams: 99, Timestamp: "2024-03-14 08:30:00"},
	)
	trend := agg.WasteTrend(Day)
	if trend["08:00"] != 20 {
		t.Errorf("trend[08:00] = %v, want 20", trend["08:00"])
	}
}

func TestDayOfWeekPattern(t *testing.T) {
	_, agg := newTestAggregator(t,
		waste.Record{FoodType: "apple", WeightGrams: 10, Timestamp: "2024-03-11 08:00:00"},
		waste.Record{FoodType: "apple", WeightGrams: 30, Timestamp: "2024-03-04 08:00:00"},
		waste.Record{FoodType: "apple", WeightGrams: 7, Timestamp: "2024-03-12 08:00:00"},
	)
	p := agg.DayOfWeekPattern()

	if len(p) != 7 {
		t.Fatalf("len(DayOfWeekPattern) = %d, want 7", len(p))
	}
	if p["Monday"] != 20 {
		t.Errorf("Monday = %v, want 20", p["Monday"])
	}
	if p["Tuesday"] != 7 {
		t.Errorf("Tuesday = %v, want 7", p["Tuesday"])
	}
	if p["Sunday"] != 0 {
		t.Errorf("Sunday = %v, want 0", p["Sunday"])
	}
}

func TestMonthlyPattern(t *testing.T) {
	_, agg := newTestAggregator(t,
		waste.Record{FoodType: "apple", WeightGrams: 10, Timestamp: "2024-03-11 08:00:00"},
		waste.Record{FoodType: "apple", WeightGrams: 20, Timestamp: "2023-03-11 08:00:00"},
	)
	p := agg.MonthlyPattern()
	if len(p) != 12 {
		t.Fatalf("len(MonthlyPattern) = %d, want 12", len(p))
	}
	if p["March"] != 15 {
		t.Errorf("March = %v, want 15", p["March"])
	}
}

func TestMealPeriodPattern(t *testing.T) {
	dinner := daysAgo("apple", 50, 1)
	dinner.MealPeriod = waste.Dinner
	_, agg := newTestAggregator(t, daysAgo("apple", 10, 1), daysAgo("apple", 30, 1), dinner)

	p := agg.MealPeriodPattern()
	if p["Lunch"] != 20 || p["Dinner"] != 50 {
		t.Errorf("MealPeriodPattern = %v, want Lunch:20 Dinner:50", p)
	}
	if _, ok := p["Breakfast"]; ok {
		t.Error("meal periods without records should be absent")
	}
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in      string
		want    Period
		wantErr bool
	}{
		{"", AllTime, false},
		{"all", AllTime, false},
		{"Day", Day, false},
		{"week", Week, false},
		{" month ", Month, false},
		{"year", Year, false},
		{"fortnight", AllTime, true},
	}
	for _, tt := range tests {
		got, err := ParsePeriod(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePeriod(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePeriod(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPeriod_TextRoundTrip(t *testing.T) {
	for _, p := range []Period{AllTime, Day, Week, Month, Year} {
		b, err := p.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v) error: %v", p, err)
		}
		var got Period
		if err := got.UnmarshalText(b); err != nil {
			t.Fatalf("UnmarshalText(%q) error: %v", b, err)
		}
		if got != p {
			t.Errorf("round trip of %v = %v", p, got)
		}
	}

	var p Period
	if err := p.UnmarshalText([]byte("fortnight")); err == nil {
		t.Error("UnmarshalText should reject unknown periods")
	}
}
