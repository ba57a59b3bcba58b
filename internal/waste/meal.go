package waste

import "time"

// MealWindow is an inclusive time-of-day range in minutes since midnight.
type MealWindow struct {
	Period MealPeriod
	Start  int
	End    int
}

// MealSchedule classifies a time of day into a meal period. Windows are
// checked in order; times outside every window fall back to Snack.
type MealSchedule struct {
	Windows []MealWindow
}

// DefaultMealSchedule returns the dining-hall schedule:
// breakfast 06:00-10:30, lunch 11:00-14:30, dinner 17:00-21:00,
// snack 21:00-23:59.
func DefaultMealSchedule() MealSchedule {
	return MealSchedule{Windows: []MealWindow{
		{Period: Breakfast, Start: 6 * 60, End: 10*60 + 30},
		{Period: Lunch, Start: 11 * 60, End: 14*60 + 30},
		{Period: Dinner, Start: 17 * 60, End: 21 * 60},
		{Period: Snack, Start: 21 * 60, End: 23*60 + 59},
	}}
}

// At returns the meal period covering the hour and minute of t.
func (s MealSchedule) At(t time.Time) MealPeriod {
	minutes := t.Hour()*60 + t.Minute()
	for _, w := range s.Windows {
		if minutes >= w.Start && minutes <= w.End {
			return w.Period
		}
	}
	return Snack
}

// Classify returns the meal period for a record timestamp, or Unknown when
// the timestamp does not parse.
func (s MealSchedule) Classify(timestamp string) MealPeriod {
	t, err := ParseTimestamp(timestamp)
	if err != nil {
		return Unknown
	}
	return s.At(t)
}
