package waste

import (
	"fmt"
	"time"
)

const (
	// TimestampLayout is the layout of Record.Timestamp.
	TimestampLayout = "2006-01-02 15:04:05"
	// DateLayout is the layout of date filters and trend labels.
	DateLayout = "2006-01-02"
)

// WeekdayNames lists weekday names Sunday first, matching time.Weekday.
var WeekdayNames = []string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

// MonthNames lists month names January first.
var MonthNames = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// ParseTimestamp parses a record timestamp in the local time zone.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.ParseInLocation(TimestampLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// ParseDate parses a YYYY-MM-DD date at local midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// FormatTimestamp formats t as a record timestamp.
func FormatTimestamp(t time.Time) string {
	return t.In(time.Local).Format(TimestampLayout)
}

// FormatDate formats t as a YYYY-MM-DD date.
func FormatDate(t time.Time) string {
	return t.In(time.Local).Format(DateLayout)
}

// WeekLabel returns the ISO year-week label of t, e.g. "2024-W07".
func WeekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}
