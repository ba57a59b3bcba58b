// Package stats derives summary tables from the record store.
//
// The all-time Snapshot is cached against the store version and rebuilt
// only when the version moves. Period-bounded queries always recompute.
package stats

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/blackwell-systems/wastewatch/internal/logging"
	"github.com/blackwell-systems/wastewatch/internal/store"
	"github.com/blackwell-systems/wastewatch/internal/waste"
)

// Source is the read side of the record store.
type Source interface {
	RecordsAt() ([]waste.Record, uint64)
	Query(f store.Filter) []waste.Record
	Version() uint64
}

// Aggregator computes snapshots, trend buckets and patterns.
type Aggregator struct {
	src Source
	now func() time.Time
	log *zap.SugaredLogger

	mu            sync.Mutex
	cached        *Snapshot
	cachedVersion uint64
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithLogger sets the aggregator logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(a *Aggregator) { a.log = l }
}

// New creates an Aggregator reading from src.
func New(src Source, opts ...Option) *Aggregator {
	a := &Aggregator{
		src: src,
		now: time.Now,
		log: logging.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Now returns the aggregator clock's current time.
func (a *Aggregator) Now() time.Time {
	return a.now()
}

// Version returns the store version the source currently reports.
func (a *Aggregator) Version() uint64 {
	return a.src.Version()
}

// Records returns a copy of every record and the matching store version.
func (a *Aggregator) Records() ([]waste.Record, uint64) {
	return a.src.RecordsAt()
}

// Snapshot returns the all-time snapshot, rebuilding it if the store has
// changed since the last call.
func (a *Aggregator) Snapshot() Snapshot {
	recs, version := a.src.RecordsAt()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cached != nil && a.cachedVersion == version {
		return a.cached.clone()
	}

	snap := computeAllTime(recs, a.now())
	snap.Version = version
	a.cached = &snap
	a.cachedVersion = version
	a.log.Debugw("statistics recomputed", "version", version, "records", len(recs))
	return snap.clone()
}

// SnapshotFor returns the snapshot for a trailing period. AllTime is served
// from the cache.
func (a *Aggregator) SnapshotFor(p Period) Snapshot {
	if p == AllTime {
		return a.Snapshot()
	}

	now := a.now()
	filter := store.Filter{
		StartDate: waste.FormatDate(now.AddDate(0, 0, -p.Days())),
		EndDate:   waste.FormatDate(now),
	}
	version := a.src.Version()
	recs := a.src.Query(filter)

	snap := newSnapshot(p)
	snap.Version = version
	accumulateTotals(&snap, recs)
	return snap
}

// TopWastedFoods returns up to limit food types by all-time weight.
// limit <= 0 uses TopFoodsLimit.
func (a *Aggregator) TopWastedFoods(limit int) []string {
	if limit <= 0 {
		limit = TopFoodsLimit
	}
	return topKeys(a.Snapshot().WeightByType, limit)
}

// TotalWeight returns the grams wasted in the period.
func (a *Aggregator) TotalWeight(p Period) float64 {
	return a.SnapshotFor(p).TotalWeight
}

// WasteByType returns grams per food type in the period.
func (a *Aggregator) WasteByType(p Period) map[string]float64 {
	return a.SnapshotFor(p).WeightByType
}

// WasteByMeal returns grams per meal period in the period.
func (a *Aggregator) WasteByMeal(p Period) map[string]float64 {
	return a.SnapshotFor(p).WeightByMeal
}

// AverageWastePerDay divides the period total by its length in days.
// For AllTime the length is the span between the earliest and latest
// parseable timestamps, counted inclusively.
func (a *Aggregator) AverageWastePerDay(p Period) float64 {
	if days := p.Days(); days > 0 {
		return a.TotalWeight(p) / float64(days)
	}

	recs, _ := a.src.RecordsAt()
	if len(recs) == 0 {
		return 0
	}

	var first, last time.Time
	found := false
	for _, r := range recs {
		ts, err := waste.ParseTimestamp(r.Timestamp)
		if err != nil {
			continue
		}
		if !found || ts.Before(first) {
			first = ts
		}
		if !found || ts.After(last) {
			last = ts
		}
		found = true
	}
	if !found {
		return 0
	}

	days := int(last.Sub(first).Hours()/24) + 1
	if days <= 0 {
		days = 1
	}
	return a.TotalWeight(AllTime) / float64(days)
}

// WasteTrend returns zero-filled date buckets ("YYYY-MM-DD") covering the
// last 7, 30 or 365 days ending today. Day returns today's hourly buckets
// keyed "HH:00" instead. AllTime uses the weekly window.
func (a *Aggregator) WasteTrend(p Period) map[string]float64 {
	now := a.now()
	recs, _ := a.src.RecordsAt()

	if p == Day {
		return hourlyTrend(recs, now)
	}

	days := p.Days()
	if days == 0 {
		days = Week.Days()
	}

	trend := make(map[string]float64, days)
	for i := days - 1; i >= 0; i-- {
		trend[waste.FormatDate(now.AddDate(0, 0, -i))] = 0
	}
	for _, r := range recs {
		ts, err := waste.ParseTimestamp(r.Timestamp)
		if err != nil {
			continue
		}
		key := waste.FormatDate(ts)
		if _, ok := trend[key]; ok {
			trend[key] += r.WeightGrams
		}
	}
	return trend
}

func hourlyTrend(recs []waste.Record, now time.Time) map[string]float64 {
	trend := make(map[string]float64, 24)
	for h := 0; h < 24; h++ {
		trend[fmt.Sprintf("%02d:00", h)] = 0
	}
	today := waste.FormatDate(now)
	for _, r := range recs {
		ts, err := waste.ParseTimestamp(r.Timestamp)
		if err != nil || waste.FormatDate(ts) != today {
			continue
		}
		trend[fmt.Sprintf("%02d:00", ts.Hour())] += r.WeightGrams
	}
	return trend
}

// SortedKeys returns the keys of m in ascending order. Date and hour
// bucket keys sort chronologically.
func SortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
