package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/blackwell-systems/wastewatch/internal/waste"
)

// Persister reads and writes the full record set.
type Persister interface {
	SaveRecords(recs []waste.Record) error
	LoadRecords() ([]waste.Record, error)
}

// CSVHeader is the header row of the flat-file store format.
var CSVHeader = []string{"FoodType", "Weight", "Timestamp", "Confidence", "MealPeriod", "ImageFilename"}

// CSVFile persists records to a delimited text file, one record per line.
// Fields containing commas or quotes are quoted.
type CSVFile struct {
	Path string
}

// SaveRecords overwrites the file with a header row and every record.
// The file is written to a temp path first and renamed into place.
func (c *CSVFile) SaveRecords(recs []waste.Record) error {
	if dir := filepath.Dir(c.Path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	tmpPath := c.Path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to open database file for writing: %w", err)
	}

	if err := writeRecords(f, recs); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close database file: %w", err)
	}
	if err := os.Rename(tmpPath, c.Path); err != nil {
		return fmt.Errorf("failed to replace database file: %w", err)
	}
	return nil
}

// LoadRecords parses the file. Any malformed numeric field fails the load.
func (c *CSVFile) LoadRecords() ([]waste.Record, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database file for reading: %w", err)
	}
	defer f.Close()

	return readRecords(f)
}

func writeRecords(w io.Writer, recs []waste.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range recs {
		row := []string{
			r.FoodType,
			strconv.FormatFloat(r.WeightGrams, 'f', -1, 64),
			r.Timestamp,
			strconv.FormatFloat(r.Confidence, 'f', -1, 64),
			string(r.MealPeriod),
			r.ImageRef,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush records: %w", err)
	}
	return nil
}

// readRecords parses the header and record rows. Short rows leave the
// missing trailing fields zero-valued.
func readRecords(r io.Reader) ([]waste.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	// Older flat files were written unquoted; accept bare quotes in fields.
	cr.LazyQuotes = true

	// Skip header.
	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return []waste.Record{}, nil
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	recs := []waste.Record{}
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		var rec waste.Record
		for i, field := range row {
			switch i {
			case 0:
				rec.FoodType = field
			case 1:
				w, err := strconv.ParseFloat(field, 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: invalid weight %q: %w", line, field, err)
				}
				rec.WeightGrams = w
			case 2:
				rec.Timestamp = field
			case 3:
				c, err := strconv.ParseFloat(field, 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: invalid confidence %q: %w", line, field, err)
				}
				rec.Confidence = c
			case 4:
				rec.MealPeriod = waste.MealPeriod(field)
			case 5:
				rec.ImageRef = field
			}
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
