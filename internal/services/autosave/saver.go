// Package autosave persists watched collections after a debounce window.
// Only complete rows are upserted, and only when the collection actually
// changed since the last successful batch.
package autosave

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

const (
	DefaultDelay   = 2000 * time.Millisecond
	DefaultTimeout = 15 * time.Second
)

var ErrClosed = errors.New("autosave: saver is closed")

type State string

const (
	StateIdle    State = "idle"
	StatePending State = "pending"
	StateSaving  State = "saving"
)

// UpsertFunc writes one row keyed by its stable id.
type UpsertFunc[T any] func(ctx context.Context, item T) error

type Options struct {
	Delay   time.Duration
	Timeout time.Duration
	Clock   clock.Clock
	Logger  logrus.FieldLogger
}

func (o Options) withDefaults() Options {
	if o.Delay <= 0 {
		o.Delay = DefaultDelay
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Clock == nil {
		o.Clock = clock.New()
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	return o
}

// Saver debounces a single collection. Watch may be called on every edit;
// saves for one Saver never overlap.
type Saver[T any] struct {
	name   string
	opts   Options
	ready  func(T) bool
	key    func(T) string
	upsert UpsertFunc[T]
	log    logrus.FieldLogger

	saveMu sync.Mutex

	mu        sync.Mutex
	items     []T
	lastSeen  []byte
	lastSaved []byte
	saved     map[string][]byte
	timer     *clock.Timer
	gen       uint64
	saving    bool
	closed    bool
	lastErr   error
}

// New builds a saver. ready filters incomplete rows, key returns the upsert
// key of a row.
func New[T any](name string, ready func(T) bool, key func(T) string, upsert UpsertFunc[T], opts Options) *Saver[T] {
	opts = opts.withDefaults()
	return &Saver[T]{
		name:   name,
		opts:   opts,
		ready:  ready,
		key:    key,
		upsert: upsert,
		log:    opts.Logger.WithField("collection", name),
		saved:  map[string][]byte{},
	}
}

// Watch records the latest collection value and re-arms the debounce timer
// when it differs from the last one seen.
func (s *Saver[T]) Watch(items []T) {
	data, err := json.Marshal(items)
	if err != nil {
		s.log.WithError(err).Error("autosave: cannot serialize collection")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || bytes.Equal(data, s.lastSeen) {
		return
	}
	s.lastSeen = data
	s.items = append([]T(nil), items...)
	s.arm()
}

// Prime sets the baseline without scheduling a save, used after loading
// rows that are already persisted.
func (s *Saver[T]) Prime(items []T) {
	data, err := json.Marshal(items)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = data
	s.lastSaved = data
	s.items = append([]T(nil), items...)
	for _, it := range items {
		if s.ready(it) {
			if row, err := json.Marshal(it); err == nil {
				s.saved[s.key(it)] = row
			}
		}
	}
}

// arm must be called with mu held.
func (s *Saver[T]) arm() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.timer = s.opts.Clock.AfterFunc(s.opts.Delay, func() { s.fire(gen) })
}

func (s *Saver[T]) fire(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.Timeout)
	defer cancel()
	if err := s.save(ctx); err != nil {
		s.log.WithError(err).Warn("autosave: batch failed, will retry on next edit")
	}
}

// Flush cancels the pending timer and saves immediately.
func (s *Saver[T]) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
	s.mu.Unlock()
	return s.save(ctx)
}

func (s *Saver[T]) save(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if bytes.Equal(s.lastSeen, s.lastSaved) {
		s.mu.Unlock()
		return nil
	}
	items := s.items
	snapshot := s.lastSeen
	saved := make(map[string][]byte, len(s.saved))
	for k, v := range s.saved {
		saved[k] = v
	}
	s.saving = true
	s.mu.Unlock()

	written := map[string][]byte{}
	var result error
	attempted := 0
	for _, it := range items {
		if !s.ready(it) {
			continue
		}
		row, err := json.Marshal(it)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		id := s.key(it)
		if bytes.Equal(saved[id], row) {
			continue
		}
		attempted++
		if err := s.upsert(ctx, it); err != nil {
			s.log.WithError(err).WithField("id", id).Error("autosave: upsert failed")
			result = multierror.Append(result, fmt.Errorf("%s %s: %w", s.name, id, err))
			continue
		}
		written[id] = row
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saving = false
	s.lastErr = result
	if result != nil {
		return result
	}
	for id, row := range written {
		s.saved[id] = row
	}
	s.lastSaved = snapshot
	if attempted > 0 {
		s.log.WithField("rows", attempted).Debug("autosave: batch saved")
	}
	return nil
}

// Close cancels any pending timer. A save already running may finish.
func (s *Saver[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

func (s *Saver[T]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.timer != nil:
		return StatePending
	case s.saving:
		return StateSaving
	default:
		return StateIdle
	}
}

// Err returns the error of the last batch, nil when it succeeded.
func (s *Saver[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Dirty reports whether the latest watched value has not been saved yet.
func (s *Saver[T]) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !bytes.Equal(s.lastSeen, s.lastSaved)
}
