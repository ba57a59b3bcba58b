package store

import (
	"time"

	"github.com/blackwell-systems/wastewatch/internal/waste"
)

// Filter narrows a Query. Empty fields do not filter.
type Filter struct {
	FoodType  string
	StartDate string // YYYY-MM-DD, inclusive
	EndDate   string // YYYY-MM-DD, inclusive through 23:59:59
}

// Query returns the records matching f in insertion order.
//
// Food type matching is exact. When either date is set, records whose
// timestamp does not parse are dropped; a date that itself does not parse
// places no bound.
func (s *Store) Query(f Filter) []waste.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []waste.Record
	for _, r := range s.records {
		if f.FoodType != "" && r.FoodType != f.FoodType {
			continue
		}
		out = append(out, r)
	}

	if f.StartDate == "" && f.EndDate == "" {
		return out
	}
	return filterByDate(out, f.StartDate, f.EndDate)
}

func filterByDate(recs []waste.Record, startDate, endDate string) []waste.Record {
	var start, end time.Time
	hasStart, hasEnd := false, false

	if startDate != "" {
		if t, err := waste.ParseDate(startDate); err == nil {
			start, hasStart = t, true
		}
	}
	if endDate != "" {
		if t, err := waste.ParseDate(endDate); err == nil {
			end, hasEnd = time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location()), true
		}
	}

	result := make([]waste.Record, 0, len(recs))
	for _, r := range recs {
		ts, err := waste.ParseTimestamp(r.Timestamp)
		if err != nil {
			continue
		}
		if hasStart && ts.Before(start) {
			continue
		}
		if hasEnd && ts.After(end) {
			continue
		}
		result = append(result, r)
	}
	return result
}
