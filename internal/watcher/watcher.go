package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/blackwell-systems/wastewatch/internal/ingest"
	"github.com/blackwell-systems/wastewatch/internal/logging"
)

// DefaultInterval is the fallback polling period.
const DefaultInterval = 30 * time.Second

// Watcher runs a Processor whenever the detections log changes and on a
// fixed interval.
type Watcher struct {
	proc      *Processor
	interval  time.Duration
	log       *zap.SugaredLogger
	onProcess func(ingest.Result)

	fsw      *fsnotify.Watcher
	ticker   *time.Ticker
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithInterval sets the polling period.
func WithInterval(d time.Duration) Option {
	return func(w *Watcher) { w.interval = d }
}

// WithLogger sets the watcher logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(w *Watcher) { w.log = l }
}

// WithOnProcessed registers fn to run after every pass that accepted at
// least one record.
func WithOnProcessed(fn func(ingest.Result)) Option {
	return func(w *Watcher) { w.onProcess = fn }
}

// New creates a Watcher for proc.
func New(proc *Processor, opts ...Option) (*Watcher, error) {
	if proc == nil {
		return nil, fmt.Errorf("processor cannot be nil")
	}
	w := &Watcher{
		proc:     proc,
		interval: DefaultInterval,
		log:      logging.Nop(),
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.interval <= 0 {
		w.interval = DefaultInterval
	}
	return w, nil
}

// Start processes any backlog immediately, then watches for changes in the
// background. If fsnotify is unavailable the watcher falls back to polling.
func (w *Watcher) Start() error {
	w.process("initial")

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.log.Warnw("file notifications unavailable, polling only", "error", err)
	} else if err := fsw.Add(filepath.Dir(w.proc.LogPath())); err != nil {
		w.log.Warnw("cannot watch log directory, polling only", "dir", filepath.Dir(w.proc.LogPath()), "error", err)
		fsw.Close()
	} else {
		w.fsw = fsw
	}

	w.ticker = time.NewTicker(w.interval)

	w.wg.Add(1)
	go w.run()

	w.log.Infow("watching detections log", "path", w.proc.LogPath(), "interval", w.interval)
	return nil
}

func (w *Watcher) run() {
	defer w.wg.Done()

	var events <-chan fsnotify.Event
	var errs <-chan error
	if w.fsw != nil {
		events = w.fsw.Events
		errs = w.fsw.Errors
	}

	for {
		select {
		case <-w.ticker.C:
			w.process("tick")
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(ev.Name) == w.proc.LogPath() && ev.Has(fsnotify.Write|fsnotify.Create) {
				w.process("notify")
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.log.Warnw("file watch error", "error", err)
		case <-w.stopCh:
			w.process("final")
			return
		}
	}
}

func (w *Watcher) process(trigger string) {
	res, err := w.proc.Process()
	if err != nil {
		w.log.Errorw("detections log processing failed", "trigger", trigger, "error", err)
	}
	if res.Accepted > 0 && w.onProcess != nil {
		w.onProcess(res)
	}
}

// Stop halts the watcher and flushes any remaining log entries.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if w.ticker != nil {
			w.ticker.Stop()
		}
		w.wg.Wait()
		if w.fsw != nil {
			err = w.fsw.Close()
		}
	})
	return err
}
