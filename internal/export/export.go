// Package export writes the record set and its statistics for use outside
// wastewatch.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/blackwell-systems/wastewatch/internal/stats"
	"github.com/blackwell-systems/wastewatch/internal/waste"
)

// CSVHeader is the header row of the CSV export.
var CSVHeader = []string{"FoodType", "Weight", "Timestamp", "MealPeriod", "DayOfWeek", "Month"}

const unknownField = "Unknown"

// WriteCSV writes one row per record. DayOfWeek and Month are derived from
// the timestamp, or "Unknown" when it does not parse.
func WriteCSV(w io.Writer, recs []waste.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, r := range recs {
		day, month := unknownField, unknownField
		if ts, err := waste.ParseTimestamp(r.Timestamp); err == nil {
			day = waste.WeekdayNames[ts.Weekday()]
			month = waste.MonthNames[ts.Month()-1]
		}
		row := []string{
			r.FoodType,
			strconv.FormatFloat(r.WeightGrams, 'f', -1, 64),
			r.Timestamp,
			string(r.MealPeriod),
			day,
			month,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Metadata describes an export.
type Metadata struct {
	ExportID     string  `json:"exportId"`
	TotalEntries int     `json:"totalEntries"`
	TotalWeight  float64 `json:"totalWeight"`
	ExportDate   string  `json:"exportDate"`
}

// Reduction is the week-over-week saving.
type Reduction struct {
	SavedTotal      float64 `json:"savedTotal"`
	SavedPercentage float64 `json:"savedPercentage"`
}

// Statistics is the summary block of a JSON export.
type Statistics struct {
	TopWastedFoods []string           `json:"topWastedFoods"`
	WasteByType    map[string]float64 `json:"wasteByType"`
	WasteByMeal    map[string]float64 `json:"wasteByMeal"`
	WasteByDay     map[string]float64 `json:"wasteByDay"`
	WasteReduction Reduction          `json:"wasteReduction"`
}

// Document is the JSON export.
type Document struct {
	Metadata   Metadata       `json:"metadata"`
	Entries    []waste.Record `json:"entries"`
	Statistics Statistics     `json:"statistics"`
}

// NewDocument assembles an export from records and their all-time snapshot.
func NewDocument(recs []waste.Record, snap stats.Snapshot, exportedAt time.Time) Document {
	if recs == nil {
		recs = []waste.Record{}
	}
	byDay := snap.WeightByDay
	if byDay == nil {
		byDay = map[string]float64{}
	}
	return Document{
		Metadata: Metadata{
			ExportID:     uuid.NewString(),
			TotalEntries: len(recs),
			TotalWeight:  snap.TotalWeight,
			ExportDate:   waste.FormatTimestamp(exportedAt),
		},
		Entries: recs,
		Statistics: Statistics{
			TopWastedFoods: snap.TopWastedFoods,
			WasteByType:    snap.WeightByType,
			WasteByMeal:    snap.WeightByMeal,
			WasteByDay:     byDay,
			WasteReduction: Reduction{
				SavedTotal:      snap.WasteSavedTotal,
				SavedPercentage: snap.WasteSavedPercentage,
			},
		},
	}
}

// WriteJSON writes doc as indented JSON.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return nil
}

// Exporter writes exports of the aggregator's current records.
type Exporter struct {
	agg *stats.Aggregator
}

// New creates an Exporter.
func New(agg *stats.Aggregator) *Exporter {
	return &Exporter{agg: agg}
}

// ToCSV writes the CSV export to path.
func (e *Exporter) ToCSV(path string) (int, error) {
	recs, _ := e.agg.Records()
	err := writeFileAtomic(path, func(w io.Writer) error {
		return WriteCSV(w, recs)
	})
	return len(recs), err
}

// ToJSON writes the JSON export to path and returns its document.
func (e *Exporter) ToJSON(path string) (Document, error) {
	recs, _ := e.agg.Records()
	doc := NewDocument(recs, e.agg.Snapshot(), e.agg.Now())
	err := writeFileAtomic(path, func(w io.Writer) error {
		return WriteJSON(w, doc)
	})
	return doc, err
}

func writeFileAtomic(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to open export file for writing: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close export file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move export into place: %w", err)
	}
	return nil
}
