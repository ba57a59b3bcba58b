package app

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/wastewatch/internal/ingest"
	"github.com/blackwell-systems/wastewatch/internal/output"
	"github.com/blackwell-systems/wastewatch/internal/store"
)

// importBatch is how many detections are ingested between progress updates.
const importBatch = 500

var (
	importFormat string

	importCmd = &cobra.Command{
		Use:   "import FILE",
		Short: "Import detections or another record file",
		Long: `Bulk-load waste from a file.

  - detections (default): JSON lines or a JSON array of detector output.
    Non-waste and low-confidence detections are skipped the same way the
    watcher skips them.
  - csv: a record file written by wastewatch's CSV backend. Rows that fail
    validation are skipped.

The records are appended to the configured store and saved.`,
		Example: `  # Backfill a detector log
  wastewatch import detections.jsonl

  # Move records from a CSV store into SQLite
  wastewatch --backend sqlite import --format csv old/waste.csv`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}
)

func init() {
	importCmd.Flags().StringVar(&importFormat, "format", "detections", "detections or csv")

	RootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	format := strings.ToLower(importFormat)
	if format != "detections" && format != "csv" {
		return fmt.Errorf("unknown format %q (want detections or csv)", importFormat)
	}

	e, err := openEnv(envOptions{})
	if err != nil {
		return err
	}
	defer e.Close()

	out := cmd.OutOrStdout()

	if format == "csv" {
		src := &store.CSVFile{Path: args[0]}
		recs, err := src.LoadRecords()
		if err != nil {
			return err
		}
		accepted, skipped := 0, 0
		for _, r := range recs {
			if err := r.Validate(); err != nil {
				e.log.Warnw("skipping invalid record", "error", err)
				skipped++
				continue
			}
			e.store.Append(r)
			accepted++
		}
		if err := e.save(); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Imported %d records (%d skipped)\n", accepted, skipped)
		return nil
	}

	ds, err := readDetectionsFile(args[0])
	if err != nil {
		return err
	}

	var total ingest.Result
	bar := output.NewProgress(cmd.ErrOrStderr(), len(ds), "detections")
	for start := 0; start < len(ds); start += importBatch {
		end := min(start+importBatch, len(ds))
		total.Add(e.ingester.AddDetections(ds[start:end]))
		bar.Add(end - start)
	}
	bar.Finish()

	if err := e.save(); err != nil {
		return err
	}

	fmt.Fprintf(out, "✓ Imported %d records\n", total.Accepted)
	fmt.Fprintf(out, "  Skipped: %d not waste, %d low confidence, %d invalid\n",
		total.NotWaste, total.LowConfidence, total.Invalid)
	return nil
}

// readDetectionsFile accepts a JSON array or one JSON object per line.
func readDetectionsFile(path string) ([]ingest.Detection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	first, err := peekNonSpace(r)
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	dec := json.NewDecoder(r)
	if first == '[' {
		var ds []ingest.Detection
		if err := dec.Decode(&ds); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return ds, nil
	}

	var ds []ingest.Detection
	for line := 1; ; line++ {
		var d ingest.Detection
		err := dec.Decode(&d)
		if errors.Is(err, io.EOF) {
			return ds, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s (detection %d): %w", path, line, err)
		}
		ds = append(ds, d)
	}
}

func peekNonSpace(r *bufio.Reader) (byte, error) {
	for {
		b, err := r.Peek(1)
		if err != nil {
			return 0, err
		}
		if len(bytes.TrimSpace(b)) > 0 {
			return b[0], nil
		}
		if _, err := r.ReadByte(); err != nil {
			return 0, err
		}
	}
}
