// Package store holds the in-memory waste record set.
//
// The Store is append-only: records are never updated or deleted. Every
// mutation runs under a single mutex and advances a version counter, which
// downstream caches compare against instead of tracking dirty flags.
// Change listeners are notified synchronously, after the lock is released,
// in registration order.
package store

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/blackwell-systems/wastewatch/internal/logging"
	"github.com/blackwell-systems/wastewatch/internal/waste"
)

// ErrNoPersister is returned by Save and Load when the store was built
// without a persister.
var ErrNoPersister = errors.New("store has no persister configured")

// ChangeEvent describes a single append.
type ChangeEvent struct {
	Record  waste.Record
	Version uint64
}

// Listener is called after each append. Listeners run on the appending
// goroutine and must not call back into the Store.
type Listener func(ChangeEvent)

// ListenerID identifies a registered listener.
type ListenerID uint64

type listenerEntry struct {
	id ListenerID
	fn Listener
}

// Store is a thread-safe, append-only collection of waste records.
type Store struct {
	mu        sync.Mutex
	records   []waste.Record
	version   uint64
	listeners []listenerEntry
	nextID    ListenerID

	persister Persister
	autoSave  bool
	log       *zap.SugaredLogger
}

// Option configures a Store.
type Option func(*Store)

// WithPersister sets the backend used by Save and Load.
func WithPersister(p Persister) Option {
	return func(s *Store) { s.persister = p }
}

// WithAutoSave persists the full record set after every append.
func WithAutoSave() Option {
	return func(s *Store) { s.autoSave = true }
}

// WithLogger sets the store logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Store) { s.log = l }
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{log: logging.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append adds a record. It always succeeds.
func (s *Store) Append(rec waste.Record) {
	s.mu.Lock()
	s.records = append(s.records, rec)
	s.version++
	ev := ChangeEvent{Record: rec, Version: s.version}
	listeners := make([]listenerEntry, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l.fn(ev)
	}

	if s.autoSave && s.persister != nil {
		if err := s.Save(); err != nil {
			s.log.Errorw("auto-save failed", "error", err)
		}
	}
}

// AppendAll appends each record in order.
func (s *Store) AppendAll(recs []waste.Record) {
	for _, r := range recs {
		s.Append(r)
	}
}

// AddListener registers fn for change notifications.
func (s *Store) AddListener(fn Listener) ListenerID {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	s.listeners = append(s.listeners, listenerEntry{id: s.nextID, fn: fn})
	return s.nextID
}

// RemoveListener unregisters a listener. Unknown ids are ignored.
func (s *Store) RemoveListener(id ListenerID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, l := range s.listeners {
		if l.id == id {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return
		}
	}
}

// Records returns a copy of all records in insertion order.
func (s *Store) Records() []waste.Record {
	recs, _ := s.RecordsAt()
	return recs
}

// RecordsAt returns a copy of all records together with the version they
// correspond to.
func (s *Store) RecordsAt() ([]waste.Record, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]waste.Record, len(s.records))
	copy(out, s.records)
	return out, s.version
}

// Version returns the current mutation counter.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Save writes every record through the persister, replacing its contents.
func (s *Store) Save() error {
	if s.persister == nil {
		return ErrNoPersister
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persister.SaveRecords(s.records); err != nil {
		return err
	}
	s.log.Debugw("store saved", "records", len(s.records))
	return nil
}

// Load replaces the record set with the persister's contents. On error the
// store is left unchanged.
func (s *Store) Load() error {
	if s.persister == nil {
		return ErrNoPersister
	}

	s.mu.Lock()
	recs, err := s.persister.LoadRecords()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.records = recs
	s.version++
	s.mu.Unlock()

	s.log.Infow("store loaded", "records", len(recs))
	return nil
}

// Close releases the persister, if it holds resources.
func (s *Store) Close() error {
	if c, ok := s.persister.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
