// Package waste defines the food-waste domain types shared by the store,
// the statistics aggregator and the analyzer.
package waste

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidRecord is returned by Record.Validate.
var ErrInvalidRecord = errors.New("invalid waste record")

// MealPeriod is a coarse time-of-day bucket.
type MealPeriod string

const (
	Breakfast MealPeriod = "Breakfast"
	Lunch     MealPeriod = "Lunch"
	Dinner    MealPeriod = "Dinner"
	Snack     MealPeriod = "Snack"
	Unknown   MealPeriod = "Unknown"
)

// MealPeriods lists the known meal periods in display order.
var MealPeriods = []MealPeriod{Breakfast, Lunch, Dinner, Snack, Unknown}

// ParseMealPeriod matches s case-insensitively against the known periods.
// Anything unrecognised maps to Unknown.
func ParseMealPeriod(s string) MealPeriod {
	for _, p := range MealPeriods {
		if strings.EqualFold(strings.TrimSpace(s), string(p)) {
			return p
		}
	}
	return Unknown
}

// Record is one observed instance of discarded food.
type Record struct {
	FoodType    string     `json:"foodType"`
	WeightGrams float64    `json:"weight"`
	Timestamp   string     `json:"timestamp"` // "2006-01-02 15:04:05", local time
	Confidence  float64    `json:"confidence"`
	MealPeriod  MealPeriod `json:"mealPeriod"`
	ImageRef    string     `json:"imageFilename,omitempty"`
}

// Date returns the YYYY-MM-DD portion of the timestamp. Timestamps shorter
// than a date are returned unchanged.
func (r Record) Date() string {
	if len(r.Timestamp) < len(DateLayout) {
		return r.Timestamp
	}
	return r.Timestamp[:len(DateLayout)]
}

// Validate checks the invariants the ingest and CLI paths enforce before a
// record reaches the store.
func (r Record) Validate() error {
	if strings.TrimSpace(r.FoodType) == "" {
		return fmt.Errorf("%w: food type is required", ErrInvalidRecord)
	}
	if math.IsNaN(r.WeightGrams) || math.IsInf(r.WeightGrams, 0) {
		return fmt.Errorf("%w: weight is not a finite number", ErrInvalidRecord)
	}
	if math.IsNaN(r.Confidence) {
		return fmt.Errorf("%w: confidence is not a number", ErrInvalidRecord)
	}
	if r.WeightGrams < 0 {
		return fmt.Errorf("%w: weight %.1fg is negative", ErrInvalidRecord, r.WeightGrams)
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("%w: confidence %.2f outside [0,1]", ErrInvalidRecord, r.Confidence)
	}
	if _, err := ParseTimestamp(r.Timestamp); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return nil
}
