// Package ingest converts upstream detector output into waste records.
//
// The detector decides whether an item is waste; only detections flagged
// IsWaste reach the store. Class names are normalised through the alias
// table and meal periods are classified from the timestamp when the
// detector does not supply one.
package ingest

import "github.com/blackwell-systems/wastewatch/internal/waste"

// BoundingBox locates a detection in the source frame, in pixels.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Detection is one item reported by the detector.
type Detection struct {
	FoodType        string           `json:"foodType"`
	EstimatedWeight float64          `json:"estimatedWeight"`
	Confidence      float64          `json:"confidence"`
	Timestamp       string           `json:"timestamp,omitempty"`
	BoundingBox     BoundingBox      `json:"boundingBox"`
	IsWaste         bool             `json:"isWaste"`
	MealPeriod      waste.MealPeriod `json:"mealPeriod,omitempty"`
	ImageRef        string           `json:"imageFilename,omitempty"`
}
