package watcher

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/blackwell-systems/wastewatch/internal/ingest"
	"github.com/blackwell-systems/wastewatch/internal/store"
)

func newTestProcessor(t *testing.T) (*store.Store, *Processor, string) {
	t.Helper()
	st := store.New()
	logPath := filepath.Join(t.TempDir(), "detections.log")
	return st, NewProcessor(logPath, ingest.New(st)), logPath
}

func detectionLine(t *testing.T, food string, grams float64, isWaste bool) string {
	t.Helper()
	data, err := json.Marshal(ingest.Detection{
		FoodType:        food,
		EstimatedWeight: grams,
		Confidence:      0.9,
		Timestamp:       "2024-03-15 12:30:00",
		IsWaste:         isWaste,
	})
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	return string(data) + "\n"
}

func appendLog(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write log: %v", err)
	}
}

func TestProcess_MissingLog(t *testing.T) {
	st, p, _ := newTestProcessor(t)
	res, err := p.Process()
	if err != nil {
		t.Fatalf("Process() error = %v, want nil for missing log", err)
	}
	if res.Accepted != 0 || st.Len() != 0 {
		t.Errorf("Process() = %+v, Len() = %d; want nothing ingested", res, st.Len())
	}
}

func TestProcess_IngestsAndAdvancesOffset(t *testing.T) {
	st, p, logPath := newTestProcessor(t)

	appendLog(t, logPath,
		detectionLine(t, "apple", 120, true)+
			detectionLine(t, "plate", 300, false)+
			"{not json}\n"+
			"\n"+
			detectionLine(t, "rice", 80, true))

	res, err := p.Process()
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	want := ingest.Result{Accepted: 2, NotWaste: 1, Invalid: 1}
	if res != want {
		t.Errorf("Process() = %+v, want %+v", res, want)
	}
	if st.Len() != 2 {
		t.Errorf("Len() = %d, want 2", st.Len())
	}

	info, _ := os.Stat(logPath)
	data, err := os.ReadFile(logPath + ".offset")
	if err != nil {
		t.Fatalf("offset file not written: %v", err)
	}
	if strings.TrimSpace(string(data)) != strconv.FormatInt(info.Size(), 10) {
		t.Errorf("offset = %s, want %d", data, info.Size())
	}

	// Nothing new: a second pass ingests nothing.
	res, err = p.Process()
	if err != nil {
		t.Fatalf("second Process() error: %v", err)
	}
	if res.Accepted != 0 || st.Len() != 2 {
		t.Errorf("second Process() = %+v, Len() = %d; want no new records", res, st.Len())
	}

	appendLog(t, logPath, detectionLine(t, "bread", 30, true))
	if _, err := p.Process(); err != nil {
		t.Fatalf("third Process() error: %v", err)
	}
	if st.Len() != 3 {
		t.Errorf("Len() after append = %d, want 3", st.Len())
	}
}

func TestProcess_LeavesPartialLine(t *testing.T) {
	st, p, logPath := newTestProcessor(t)

	full := detectionLine(t, "apple", 10, true)
	partial := detectionLine(t, "pear", 20, true)
	appendLog(t, logPath, full+partial[:len(partial)/2])

	if _, err := p.Process(); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if st.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 before the line is complete", st.Len())
	}

	appendLog(t, logPath, partial[len(partial)/2:])
	if _, err := p.Process(); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	recs := st.Records()
	if len(recs) != 2 || recs[1].FoodType != "pear" {
		t.Errorf("records = %+v, want apple then pear", recs)
	}
}

func TestProcess_TruncatedLogRestarts(t *testing.T) {
	st, p, logPath := newTestProcessor(t)

	appendLog(t, logPath, detectionLine(t, "apple", 10, true)+detectionLine(t, "apple", 10, true))
	if _, err := p.Process(); err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	// Rotate: replace with a shorter file.
	if err := os.WriteFile(logPath, []byte(detectionLine(t, "kiwi", 5, true)), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Process(); err != nil {
		t.Fatalf("Process() after rotation error: %v", err)
	}
	recs := st.Records()
	if len(recs) != 3 || recs[2].FoodType != "kiwi" {
		t.Errorf("records = %+v, want kiwi ingested after rotation", recs)
	}
}

func TestProcess_CustomOffsetPath(t *testing.T) {
	st := store.New()
	dir := t.TempDir()
	logPath := filepath.Join(dir, "detections.log")
	offsetPath := filepath.Join(dir, "state", "pos")
	if err := os.MkdirAll(filepath.Dir(offsetPath), 0755); err != nil {
		t.Fatal(err)
	}
	p := NewProcessor(logPath, ingest.New(st), WithOffsetPath(offsetPath))

	appendLog(t, logPath, detectionLine(t, "apple", 10, true))
	if _, err := p.Process(); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if _, err := os.Stat(offsetPath); err != nil {
		t.Errorf("offset file missing at custom path: %v", err)
	}
}

func TestReadOffset(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		want    int64
		wantErr bool
	}{
		{"empty", "", 0, false},
		{"value", "1234\n", 1234, false},
		{"garbage", "abc", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			got, err := readOffset(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("readOffset() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("readOffset() = %d, want %d", got, tt.want)
			}
		})
	}

	if got, err := readOffset(filepath.Join(dir, "missing")); err != nil || got != 0 {
		t.Errorf("readOffset(missing) = %d, %v; want 0, nil", got, err)
	}
}
