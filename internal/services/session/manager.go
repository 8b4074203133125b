// Package session holds one live onboarding form per open contract and runs
// every edit through the form controller, contact synchronizer, calculator
// and auto-save pipeline.
package session

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"paydesk/internal/domain/onboarding"
	apperrors "paydesk/internal/errors"
	"paydesk/internal/repositories"
	"paydesk/internal/services/autosave"
	"paydesk/internal/services/calculator"
	"paydesk/internal/services/linking"
	"paydesk/internal/services/registry"

	"github.com/facebookgo/clock"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

const DefaultIdleTimeout = 30 * time.Minute

// Store is the persistence a session reads and writes.
type Store interface {
	LoadRecord(ctx context.Context, contractID string) (*onboarding.Record, error)
	SaveRecord(ctx context.Context, rec *onboarding.Record) error
	autosave.PersonStore
}

type Linker interface {
	EnsureMerchant(ctx context.Context, contractID string) linking.Result
}

type RegistryLookup interface {
	Lookup(ctx context.Context, ico string) ([]registry.Person, error)
}

type DocumentStore interface {
	UploadDocument(ctx context.Context, contractID, personID, side, contentType string, body io.Reader, size int64) (string, error)
	DeleteDocument(ctx context.Context, fileURL string) error
}

// Deps are the collaborators of a Manager. Linker, Registry and Documents
// are optional.
type Deps struct {
	Store      Store
	Calculator *calculator.Calculator
	Linker     Linker
	Registry   RegistryLookup
	Documents  DocumentStore
}

type Options struct {
	AutosaveDelay time.Duration
	IdleTimeout   time.Duration
	Clock         clock.Clock
	Logger        logrus.FieldLogger
}

type Manager struct {
	deps  Deps
	opts  Options
	clock clock.Clock
	log   logrus.FieldLogger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(deps Deps, opts Options) *Manager {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	return &Manager{
		deps:     deps,
		opts:     opts,
		clock:    opts.Clock,
		log:      opts.Logger.WithField("component", "session"),
		sessions: map[string]*Session{},
	}
}

// Open loads the contract into a live session, creating an empty draft when
// the contract does not exist yet. Opening an open session returns it as is.
func (m *Manager) Open(ctx context.Context, contractID string) (*onboarding.Record, error) {
	if contractID == "" {
		return nil, invalid(onboarding.ErrContractIDRequired)
	}
	if s := m.lookup(contractID); s != nil {
		return s.snapshot(), nil
	}

	rec, err := m.deps.Store.LoadRecord(ctx, contractID)
	if repositories.IsNotFound(err) {
		rec = onboarding.NewRecord(contractID)
		err = m.deps.Store.SaveRecord(ctx, rec)
	}
	if err != nil {
		m.log.WithError(err).WithField("contract_id", contractID).Error("Failed to open onboarding session")
		return nil, err
	}

	s := newSession(m, rec)

	m.mu.Lock()
	if existing, ok := m.sessions[contractID]; ok {
		m.mu.Unlock()
		s.shutdown()
		return existing.snapshot(), nil
	}
	m.sessions[contractID] = s
	m.mu.Unlock()

	m.log.WithFields(logrus.Fields{
		"contract_id": contractID,
		"status":      rec.Status,
	}).Info("Onboarding session opened")
	return s.snapshot(), nil
}

// Get returns the current record of an open session.
func (m *Manager) Get(contractID string) (*onboarding.Record, error) {
	var rec *onboarding.Record
	err := m.with(contractID, func(s *Session) error {
		rec = s.form.Record()
		return nil
	})
	return rec, err
}

// Dirty reports whether the session has edits not yet saved with Save.
func (m *Manager) Dirty(contractID string) (bool, error) {
	var dirty bool
	err := m.with(contractID, func(s *Session) error {
		dirty = s.form.IsDirty()
		return nil
	})
	return dirty, err
}

// Close flushes pending auto-saves and tears the session down. No save
// fires after Close returns.
func (m *Manager) Close(ctx context.Context, contractID string) error {
	m.mu.Lock()
	s, ok := m.sessions[contractID]
	delete(m.sessions, contractID)
	m.mu.Unlock()
	if !ok {
		return ErrNotOpen
	}
	return s.close(ctx)
}

// CloseAll closes every open session. Used on shutdown.
func (m *Manager) CloseAll(ctx context.Context) error {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = map[string]*Session{}
	m.mu.Unlock()

	var errs error
	for _, id := range sortedIDs(sessions) {
		if err := sessions[id].close(ctx); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs
}

// OpenSessions reports the ids of all open sessions.
func (m *Manager) OpenSessions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedIDs(m.sessions)
}

// ReapIdle closes sessions untouched for longer than the idle timeout.
func (m *Manager) ReapIdle(ctx context.Context) int {
	cutoff := m.clock.Now().Add(-m.opts.IdleTimeout)

	// Session locks are taken without m.mu held, so a busy session never
	// stalls lookups of the others.
	m.mu.Lock()
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.Unlock()

	var idle []*Session
	for _, s := range open {
		if !s.idleSince().Before(cutoff) {
			continue
		}
		m.mu.Lock()
		if m.sessions[s.contractID] == s {
			delete(m.sessions, s.contractID)
			idle = append(idle, s)
		}
		m.mu.Unlock()
	}

	for _, s := range idle {
		if err := s.close(ctx); err != nil {
			m.log.WithError(err).WithField("contract_id", s.contractID).Warn("Idle session closed with unsaved rows")
		}
	}
	if len(idle) > 0 {
		m.log.WithField("count", len(idle)).Info("Idle onboarding sessions closed")
	}
	return len(idle)
}

// Run reaps idle sessions until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	ticker := m.clock.Ticker(m.opts.IdleTimeout / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.ReapIdle(ctx)
		}
	}
}

func (m *Manager) lookup(contractID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[contractID]
}

// with runs fn holding the session lock.
func (m *Manager) with(contractID string, fn func(s *Session) error) error {
	s := m.lookup(contractID)
	if s == nil {
		return ErrNotOpen
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrNotOpen
	}
	s.lastUsed = m.clock.Now()
	return fn(s)
}

// edit is with for mutating operations on editable records.
func (m *Manager) edit(contractID string, fn func(s *Session) error) error {
	return m.with(contractID, func(s *Session) error {
		if !s.form.Record().Editable() {
			return apperrors.ErrReadOnly
		}
		return fn(s)
	})
}

func sortedIDs(sessions map[string]*Session) []string {
	ids := make([]string, 0, len(sessions))
	for id := range sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
