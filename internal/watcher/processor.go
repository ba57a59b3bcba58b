package watcher

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/blackwell-systems/wastewatch/internal/ingest"
	"github.com/blackwell-systems/wastewatch/internal/logging"
)

const maxLinesPerPass = 10_000

// Processor reads new detections from a JSON-lines log.
type Processor struct {
	logPath    string
	offsetPath string
	ingester   *ingest.Ingester
	log        *zap.SugaredLogger

	mu sync.Mutex
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithOffsetPath overrides the default "<log>.offset" location.
func WithOffsetPath(path string) ProcessorOption {
	return func(p *Processor) { p.offsetPath = path }
}

// WithProcessorLogger sets the processor logger.
func WithProcessorLogger(l *zap.SugaredLogger) ProcessorOption {
	return func(p *Processor) { p.log = l }
}

// NewProcessor creates a Processor for the log at logPath.
func NewProcessor(logPath string, in *ingest.Ingester, opts ...ProcessorOption) *Processor {
	p := &Processor{
		logPath:    filepath.Clean(logPath),
		offsetPath: filepath.Clean(logPath) + ".offset",
		ingester:   in,
		log:        logging.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// LogPath returns the detections log being read.
func (p *Processor) LogPath() string {
	return p.logPath
}

// Process ingests every complete line added since the last call, up to
// maxLinesPerPass, and commits the new offset. Malformed lines are skipped.
// A missing log is not an error.
func (p *Processor) Process() (ingest.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var res ingest.Result

	info, err := os.Stat(p.logPath)
	if errors.Is(err, os.ErrNotExist) {
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("processor: stat log: %w", err)
	}

	offset, err := readOffset(p.offsetPath)
	if err != nil {
		return res, fmt.Errorf("processor: read offset: %w", err)
	}
	if offset > info.Size() {
		p.log.Infow("detections log shrank, rereading from start", "offset", offset, "size", info.Size())
		offset = 0
	}

	f, err := os.Open(p.logPath)
	if err != nil {
		return res, fmt.Errorf("processor: open log: %w", err)
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return res, fmt.Errorf("processor: seek: %w", err)
	}

	var batch []ingest.Detection
	consumed := offset
	lines := 0
	r := bufio.NewReader(f)
	for lines < maxLinesPerPass {
		line, err := r.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			// An unterminated line is still being written.
			break
		}
		if err != nil {
			return res, fmt.Errorf("processor: read log: %w", err)
		}
		consumed += int64(len(line))
		lines++

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var d ingest.Detection
		if err := json.Unmarshal(line, &d); err != nil {
			p.log.Warnw("skipping malformed detection line", "error", err, "line", string(line))
			res.Invalid++
			continue
		}
		batch = append(batch, d)
	}

	if len(batch) > 0 {
		res.Add(p.ingester.AddDetections(batch))
	}

	if consumed != offset {
		if err := writeOffsetAtomic(p.offsetPath, consumed); err != nil {
			return res, fmt.Errorf("processor: %w", err)
		}
	}

	if lines > 0 {
		p.log.Infow("detections processed",
			"lines", lines,
			"accepted", res.Accepted,
			"not_waste", res.NotWaste,
			"low_confidence", res.LowConfidence,
			"invalid", res.Invalid,
		)
	}
	return res, nil
}

func readOffset(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	s := strings.TrimSpace(string(data))
	if s == "" {
		return 0, nil
	}
	offset, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse offset %q: %w", s, err)
	}
	return offset, nil
}

// writeOffsetAtomic writes the offset via a temp-file rename.
func writeOffsetAtomic(path string, offset int64) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(strconv.FormatInt(offset, 10)), 0600); err != nil {
		return fmt.Errorf("write temp offset file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename offset file: %w", err)
	}
	return nil
}
