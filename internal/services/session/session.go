package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"paydesk/internal/domain/onboarding"
	"paydesk/internal/services/autosave"
	"paydesk/internal/services/calculator"
	"paydesk/internal/services/contactsync"
	"paydesk/internal/services/formstate"
	"paydesk/internal/validation"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

// Session is one open onboarding form. Every operation holds mu, so edits
// to one contract are applied strictly one after another.
type Session struct {
	contractID string
	m          *Manager
	log        logrus.FieldLogger

	mu       sync.Mutex
	form     *formstate.Controller
	persons  *autosave.Saver[*onboarding.AuthorizedPerson]
	owners   *autosave.Saver[*onboarding.ActualOwner]
	linked   bool
	lastUsed time.Time
	closed   bool
}

func newSession(m *Manager, rec *onboarding.Record) *Session {
	normalize(rec)
	log := m.log.WithField("contract_id", rec.ContractID)
	saveOpts := autosave.Options{
		Delay:  m.opts.AutosaveDelay,
		Clock:  m.clock,
		Logger: log,
	}

	s := &Session{
		contractID: rec.ContractID,
		m:          m,
		log:        log,
		form:       formstate.New(rec),
		persons:    autosave.NewAuthorizedPersonSaver(rec.ContractID, m.deps.Store, saveOpts),
		owners:     autosave.NewActualOwnerSaver(rec.ContractID, m.deps.Store, saveOpts),
		linked:     rec.MerchantID != "",
		lastUsed:   m.clock.Now(),
	}

	// Loaded rows are already persisted.
	s.persons.Prime(rec.AuthorizedPersons)
	s.owners.Prime(rec.ActualOwners)

	s.form.Subscribe(func(prev, curr *onboarding.Record) {
		if curr == nil {
			return
		}
		if prev == nil || !sameSlice(prev.AuthorizedPersons, curr.AuthorizedPersons) {
			s.persons.Watch(curr.AuthorizedPersons)
		}
		if prev == nil || !sameSlice(prev.ActualOwners, curr.ActualOwners) {
			s.owners.Watch(curr.ActualOwners)
		}
	})
	return s
}

func normalize(rec *onboarding.Record) {
	if rec.Status == "" {
		rec.Status = onboarding.StatusDraft
	}
	if rec.BusinessLocations == nil {
		rec.BusinessLocations = []*onboarding.BusinessLocation{}
	}
	if rec.AuthorizedPersons == nil {
		rec.AuthorizedPersons = []*onboarding.AuthorizedPerson{}
	}
	if rec.ActualOwners == nil {
		rec.ActualOwners = []*onboarding.ActualOwner{}
	}
}

// sameSlice reports whether a and b are the same slice value, which under
// copy-on-write means the collection was not touched.
func sameSlice[T any](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return (a == nil) == (b == nil)
	}
	return &a[0] == &b[0]
}

func (s *Session) snapshot() *onboarding.Record {
	return s.form.Record()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// flush saves every pending person row now.
func (s *Session) flush(ctx context.Context) error {
	var errs error
	if err := s.persons.Flush(ctx); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := s.owners.Flush(ctx); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs
}

func (s *Session) close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	var err error
	if s.form.Record().Editable() {
		err = s.flush(ctx)
	}
	s.shutdown()
	s.log.Info("Onboarding session closed")
	return err
}

// shutdown cancels pending timers.
func (s *Session) shutdown() {
	s.closed = true
	s.persons.Close()
	s.owners.Close()
}

// apply runs one edit and everything derived from it: contact sync,
// location ids, calculator results and merchant linking.
func (s *Session) apply(ctx context.Context, edit func(c *formstate.Controller) error) error {
	before := s.form.Record()
	if err := edit(s.form); err != nil {
		return invalid(err)
	}

	curr := s.form.Record()
	if patch := contactsync.Sync(before, curr); !patch.Empty() {
		if err := patch.Apply(s.form); err != nil {
			return invalid(err)
		}
		s.log.Debug("Contact changes propagated to linked entries")
	}

	if err := s.ensureLocationIDs(); err != nil {
		return err
	}

	curr = s.form.Record()
	if calculatorInputsChanged(before, curr) {
		s.recalculate(curr)
	}

	s.linkMerchant(ctx)
	return nil
}

func calculatorInputsChanged(before, curr *onboarding.Record) bool {
	if curr.DeviceSelection == nil && curr.Fees == nil {
		return false
	}
	if before == nil {
		return true
	}
	return before.DeviceSelection != curr.DeviceSelection ||
		before.Fees != curr.Fees ||
		!sameSlice(before.BusinessLocations, curr.BusinessLocations)
}

func (s *Session) recalculate(rec *onboarding.Record) {
	if s.m.deps.Calculator == nil {
		return
	}
	results, err := s.m.deps.Calculator.Calculate(calculator.InputFromRecord(rec))
	if err != nil {
		s.log.WithError(err).Debug("Calculator input incomplete, keeping previous results")
		return
	}
	if err := s.form.UpdateField("fees.calculatorResults", results); err != nil {
		s.log.WithError(err).Error("Failed to store calculator results")
	}
}

// ensureLocationIDs gives every location a stable id before it is saved.
func (s *Session) ensureLocationIDs() error {
	rec := s.form.Record()
	var missing []int
	for i, l := range rec.BusinessLocations {
		if l != nil && l.ID == "" {
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	locations := append([]*onboarding.BusinessLocation(nil), rec.BusinessLocations...)
	for _, i := range missing {
		cp := *locations[i]
		cp.ID = onboarding.NewID()
		locations[i] = &cp
	}
	return s.form.UpdateField("businessLocations", locations)
}

// linkMerchant links the contract once company info is complete. A failed
// attempt is retried on the next edit.
func (s *Session) linkMerchant(ctx context.Context) {
	if s.linked || s.m.deps.Linker == nil {
		return
	}
	rec := s.form.Record()
	v := validation.New()
	v.Company(rec.CompanyInfo)
	if !v.Valid() {
		return
	}

	// The workflow reads the company from the store.
	if err := s.m.deps.Store.SaveRecord(ctx, rec); err != nil {
		s.log.WithError(err).Warn("Could not persist company info for merchant linking")
		return
	}
	res := s.m.deps.Linker.EnsureMerchant(ctx, s.contractID)
	if !res.Success {
		s.log.WithFields(logrus.Fields{
			"reason": res.Reason,
			"error":  res.Error,
		}).Warn("Merchant linking did not succeed")
		return
	}
	s.linked = true
	if err := s.form.UpdateField("merchantId", res.MerchantID); err != nil {
		s.log.WithError(err).Error("Failed to store merchant reference")
	}
}

// lockedField reports whether a client may not write path.
func lockedField(path string) bool {
	path = strings.TrimSpace(path)
	for _, p := range []string{"contractId", "merchantId", "status", "fees.calculatorResults"} {
		if path == p || strings.HasPrefix(path, p+".") {
			return true
		}
	}
	return false
}
