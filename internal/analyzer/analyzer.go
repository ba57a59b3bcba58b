// Package analyzer turns aggregated waste statistics into trends,
// predictions, insights and recommendations.
package analyzer

import (
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/blackwell-systems/wastewatch/internal/logging"
	"github.com/blackwell-systems/wastewatch/internal/stats"
	"github.com/blackwell-systems/wastewatch/internal/waste"
)

// DefaultTrendDays is the window of the daily trend behind the prediction
// model.
const DefaultTrendDays = 30

// poorFit is the |R²| below which a prediction refreshes the model first.
const poorFit = 0.1

type cachedTrend struct {
	version uint64
	days    int
	series  TrendSeries
}

// Analyzer computes trends and predictions over an Aggregator. Its caches
// are keyed by the store version they were built from.
type Analyzer struct {
	agg *stats.Aggregator
	log *zap.SugaredLogger

	mu               sync.Mutex
	refreshed        bool
	refreshedVersion uint64
	snapshot         stats.Snapshot
	daily            TrendSeries
	model            RegressionModel

	foodTrends map[string]cachedTrend
	mealTrends map[string]cachedTrend

	insights        []string
	insightsVersion uint64
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the analyzer logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(a *Analyzer) { a.log = l }
}

// New creates an Analyzer over agg.
func New(agg *stats.Aggregator, opts ...Option) *Analyzer {
	a := &Analyzer{
		agg:        agg,
		log:        logging.Nop(),
		foodTrends: map[string]cachedTrend{},
		mealTrends: map[string]cachedTrend{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Refresh rebuilds the snapshot, the 30-day daily trend and the regression
// model, and marks the insights stale.
func (a *Analyzer) Refresh() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.refreshLocked()
}

func (a *Analyzer) refreshLocked() {
	a.snapshot = a.agg.Snapshot()
	a.daily = a.dailyTrend(DefaultTrendDays)
	a.model = FitSeries(a.daily.Values)
	a.refreshed = true
	a.refreshedVersion = a.snapshot.Version
	a.insights = nil

	a.log.Debugw("analyzer refreshed",
		"version", a.refreshedVersion,
		"slope", a.model.Slope,
		"r_squared", a.model.RSquared,
	)
}

// ensureFreshLocked refreshes when nothing has been computed yet or the
// store has moved on.
func (a *Analyzer) ensureFreshLocked() {
	if !a.refreshed || a.refreshedVersion != a.agg.Version() {
		a.refreshLocked()
	}
}

// Model returns the current regression model of the daily trend.
func (a *Analyzer) Model() RegressionModel {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ensureFreshLocked()
	return a.model
}

// Snapshot returns the snapshot the current model was built from.
func (a *Analyzer) Snapshot() stats.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ensureFreshLocked()
	return a.snapshot
}

// DailyTrend returns summed weight per day over the most recent days.
// days <= 0 uses DefaultTrendDays.
func (a *Analyzer) DailyTrend(days int) TrendSeries {
	return a.dailyTrend(days)
}

func (a *Analyzer) dailyTrend(days int) TrendSeries {
	if days <= 0 {
		days = DefaultTrendDays
	}

	period := stats.Year
	switch {
	case days <= 7:
		period = stats.Week
	case days <= 30:
		period = stats.Month
	}

	buckets := a.agg.WasteTrend(period)
	labels := stats.SortedKeys(buckets)
	values := make([]float64, len(labels))
	for i, k := range labels {
		values[i] = buckets[k]
	}
	labels, values = lastN(labels, values, days)
	return newSeries(labels, values)
}

// FoodTypeTrend returns the per-day weight of one food type over the most
// recent days that have records for it.
func (a *Analyzer) FoodTypeTrend(foodType string, days int) TrendSeries {
	return a.keyedTrend(a.foodTrends, foodType, days, func(r waste.Record) bool {
		return r.FoodType == foodType
	})
}

// MealPeriodTrend returns the per-day weight of one meal period over the
// most recent days that have records for it.
func (a *Analyzer) MealPeriodTrend(meal waste.MealPeriod, days int) TrendSeries {
	return a.keyedTrend(a.mealTrends, string(meal), days, func(r waste.Record) bool {
		m := r.MealPeriod
		if m == "" {
			m = waste.Unknown
		}
		return m == meal
	})
}

// CachedFoodTypeTrend returns the last FoodTypeTrend result for foodType if
// it was computed at the current store version.
func (a *Analyzer) CachedFoodTypeTrend(foodType string) (TrendSeries, bool) {
	return a.cached(a.foodTrends, foodType)
}

// CachedMealPeriodTrend returns the last MealPeriodTrend result for meal if
// it was computed at the current store version.
func (a *Analyzer) CachedMealPeriodTrend(meal waste.MealPeriod) (TrendSeries, bool) {
	return a.cached(a.mealTrends, string(meal))
}

func (a *Analyzer) cached(cache map[string]cachedTrend, key string) (TrendSeries, bool) {
	version := a.agg.Version()

	a.mu.Lock()
	defer a.mu.Unlock()

	c, ok := cache[key]
	if !ok || c.version != version {
		return TrendSeries{}, false
	}
	return c.series, true
}

func (a *Analyzer) keyedTrend(cache map[string]cachedTrend, key string, days int, match func(waste.Record) bool) TrendSeries {
	if days <= 0 {
		days = DefaultTrendDays
	}

	recs, version := a.agg.Records()

	a.mu.Lock()
	defer a.mu.Unlock()

	if c, ok := cache[key]; ok && c.version == version && c.days == days {
		return c.series
	}

	byDate := map[string]float64{}
	for _, r := range recs {
		if !match(r) {
			continue
		}
		ts, err := waste.ParseTimestamp(r.Timestamp)
		if err != nil {
			continue
		}
		byDate[waste.FormatDate(ts)] += r.WeightGrams
	}

	labels := make([]string, 0, len(byDate))
	for d := range byDate {
		labels = append(labels, d)
	}
	sort.Strings(labels)
	values := make([]float64, len(labels))
	for i, d := range labels {
		values[i] = byDate[d]
	}
	labels, values = lastN(labels, values, days)

	series := newSeries(labels, values)
	cache[key] = cachedTrend{version: version, days: days, series: series}
	return series
}

// PredictFutureWaste forecasts the daily waste daysAhead days after the
// last day of the trend. Negative offsets return 0 and the result is never
// negative. A poorly fitting model is refreshed before use.
func (a *Analyzer) PredictFutureWaste(daysAhead int) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.predictLocked(daysAhead)
}

func (a *Analyzer) predictLocked(daysAhead int) float64 {
	if daysAhead < 0 {
		return 0
	}

	a.ensureFreshLocked()
	if math.Abs(a.model.RSquared) < poorFit {
		a.refreshLocked()
	}

	last := len(a.daily.Values) - 1
	if last < 0 {
		last = 0
	}
	return math.Max(0, a.model.At(float64(last+daysAhead)))
}
