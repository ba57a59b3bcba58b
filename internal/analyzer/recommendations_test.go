package analyzer

import (
	"testing"

	"github.com/blackwell-systems/wastewatch/internal/waste"
)

func recommendationFixture() []waste.Record {
	return []waste.Record{
		daysAgo("apple", 100, 1, waste.Lunch),
		daysAgo("apple", 50, 2, waste.Lunch),
		daysAgo("banana", 200, 1, waste.Dinner),
		daysAgo("rice", 20, 3, waste.Breakfast),
		daysAgo("apple", 10, 1, waste.Dinner),
	}
}

func TestRecommendations_DefaultLimit(t *testing.T) {
	_, a := newTestAnalyzer(t, recommendationFixture()...)

	got := a.Recommendations(0)
	if len(got) != DefaultRecommendationLimit {
		t.Fatalf("Recommendations(0) returned %d, want %d", len(got), DefaultRecommendationLimit)
	}

	want := []struct {
		food   string
		meal   waste.MealPeriod
		weight float64
	}{
		{"banana", waste.Dinner, 200},
		{"apple", waste.Lunch, 150},
		{"rice", waste.Breakfast, 20},
	}
	for i, w := range want {
		r := got[i]
		if r.FoodType != w.food || r.MealPeriod != w.meal || r.CurrentWeightGrams != w.weight {
			t.Errorf("Recommendations()[%d] = %+v, want %s/%s %.0fg", i, r, w.food, w.meal, w.weight)
		}
		if !approxEqual(r.PotentialSavingsGrams, w.weight*ReducibleFraction) {
			t.Errorf("Recommendations()[%d].PotentialSavingsGrams = %v, want %v", i, r.PotentialSavingsGrams, w.weight*ReducibleFraction)
		}
	}

	msg := "Consider reducing portion sizes for banana during Dinner. " +
		"Current waste is approximately 200.0g, with potential savings of 60.0g."
	if got[0].Message != msg {
		t.Errorf("Message = %q, want %q", got[0].Message, msg)
	}
}

func TestRecommendations_LimitLargerThanData(t *testing.T) {
	_, a := newTestAnalyzer(t, recommendationFixture()...)
	if got := a.Recommendations(50); len(got) != 4 {
		t.Errorf("Recommendations(50) returned %d, want 4", len(got))
	}
}

func TestRecommendations_Empty(t *testing.T) {
	_, a := newTestAnalyzer(t)
	if got := a.Recommendations(3); len(got) != 0 {
		t.Errorf("Recommendations() = %+v, want empty", got)
	}
}

func TestRecommendations_MissingMealIsUnknown(t *testing.T) {
	_, a := newTestAnalyzer(t, daysAgo("soup", 40, 1, ""))
	got := a.Recommendations(1)
	if len(got) != 1 || got[0].MealPeriod != waste.Unknown {
		t.Errorf("Recommendations() = %+v, want one Unknown entry", got)
	}
}
