package stats

import (
	"fmt"
	"strings"
)

// Period bounds a statistics query to a trailing window ending now.
type Period int

const (
	AllTime Period = iota
	Day
	Week
	Month
	Year
)

var periodNames = map[Period]string{
	AllTime: "all",
	Day:     "day",
	Week:    "week",
	Month:   "month",
	Year:    "year",
}

func (p Period) String() string {
	if s, ok := periodNames[p]; ok {
		return s
	}
	return fmt.Sprintf("Period(%d)", int(p))
}

// Days returns the window length in days, or 0 for AllTime.
func (p Period) Days() int {
	switch p {
	case Day:
		return 1
	case Week:
		return 7
	case Month:
		return 30
	case Year:
		return 365
	default:
		return 0
	}
}

// MarshalText renders the period as its lowercase name.
func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText accepts anything ParsePeriod does.
func (p *Period) UnmarshalText(b []byte) error {
	v, err := ParsePeriod(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// ParsePeriod accepts "all", "day", "week", "month" or "year". An empty
// string means AllTime.
func ParsePeriod(s string) (Period, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "all", "all-time", "alltime":
		return AllTime, nil
	case "day", "today":
		return Day, nil
	case "week":
		return Week, nil
	case "month":
		return Month, nil
	case "year":
		return Year, nil
	}
	return AllTime, fmt.Errorf("unknown period %q (want all, day, week, month or year)", s)
}
