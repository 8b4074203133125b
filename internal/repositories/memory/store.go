// Package memory is an in-process Store used by tests and STORE_DRIVER=memory.
// Values are deep-copied on the way in and out so callers never share state
// with the store.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"paydesk/internal/domain/onboarding"
	apperrors "paydesk/internal/errors"
	"paydesk/internal/models"
	"paydesk/internal/repositories"

	"github.com/google/uuid"
)

var _ repositories.Store = (*Store)(nil)

type Store struct {
	mu        sync.Mutex
	records   map[string]*onboarding.Record
	order     []string
	persons   map[string][]*onboarding.AuthorizedPerson
	owners    map[string][]*onboarding.ActualOwner
	merchants map[string]*onboarding.Merchant
	items     map[string]*models.WarehouseItem
	users     map[uint]*models.User
	roles     map[uint]string
	nextUser  uint
	failures  map[string]error
	calls     map[string]int
}

func New() *Store {
	return &Store{
		records:   map[string]*onboarding.Record{},
		persons:   map[string][]*onboarding.AuthorizedPerson{},
		owners:    map[string][]*onboarding.ActualOwner{},
		merchants: map[string]*onboarding.Merchant{},
		items:     map[string]*models.WarehouseItem{},
		users:     map[uint]*models.User{},
		roles:     map[uint]string{},
		failures:  map[string]error{},
		calls:     map[string]int{},
	}
}

// FailOn makes every call of op return err until cleared with a nil err.
// op is the method name, optionally suffixed with ":<id>" to target one row.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// Calls returns how often op was invoked.
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// enter records the call and returns an injected failure; mu must be held.
func (s *Store) enter(op string, id string) error {
	s.calls[op]++
	if err, ok := s.failures[op+":"+id]; ok {
		return apperrors.Wrap(apperrors.ErrStoreFailure, err)
	}
	if err, ok := s.failures[op]; ok {
		return apperrors.Wrap(apperrors.ErrStoreFailure, err)
	}
	return nil
}

func clone[T any](v T) T {
	var out T
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("memory: clone: %v", err))
	}
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("memory: clone: %v", err))
	}
	return out
}

func notFound(what string) error {
	return apperrors.WithMessage(apperrors.ErrNotFound, what+" not found")
}

func (s *Store) LoadRecord(_ context.Context, contractID string) (*onboarding.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("LoadRecord", contractID); err != nil {
		return nil, err
	}
	rec, ok := s.records[contractID]
	if !ok {
		return nil, notFound("contract")
	}
	out := clone(rec)
	out.AuthorizedPersons = clone(s.persons[contractID])
	out.ActualOwners = clone(s.owners[contractID])
	if out.AuthorizedPersons == nil {
		out.AuthorizedPersons = []*onboarding.AuthorizedPerson{}
	}
	if out.ActualOwners == nil {
		out.ActualOwners = []*onboarding.ActualOwner{}
	}
	if out.BusinessLocations == nil {
		out.BusinessLocations = []*onboarding.BusinessLocation{}
	}
	return out, nil
}

func (s *Store) SaveRecord(_ context.Context, rec *onboarding.Record) error {
	if rec == nil || rec.ContractID == "" {
		return onboarding.ErrContractIDRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("SaveRecord", rec.ContractID); err != nil {
		return err
	}
	cp := clone(rec)
	cp.AuthorizedPersons = nil
	cp.ActualOwners = nil
	if cp.Status == "" {
		cp.Status = onboarding.StatusDraft
	}
	for i, l := range cp.BusinessLocations {
		if l != nil && l.ID == "" {
			cp.BusinessLocations[i].ID = uuid.NewString()
		}
	}
	if _, exists := s.records[rec.ContractID]; !exists {
		s.order = append(s.order, rec.ContractID)
	}
	s.records[rec.ContractID] = cp

	s.persons[rec.ContractID] = retain(s.persons[rec.ContractID], rec.AuthorizedPersons,
		func(p *onboarding.AuthorizedPerson) string { return p.ID })
	s.owners[rec.ContractID] = retain(s.owners[rec.ContractID], rec.ActualOwners,
		func(o *onboarding.ActualOwner) string { return o.ID })
	return nil
}

// retain keeps the stored rows whose id still appears in current.
func retain[T any](stored, current []*T, id func(*T) string) []*T {
	keep := make(map[string]bool, len(current))
	for _, c := range current {
		if c != nil {
			keep[id(c)] = true
		}
	}
	out := stored[:0]
	for _, r := range stored {
		if keep[id(r)] {
			out = append(out, r)
		}
	}
	return out
}

func (s *Store) ListContractIDs(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListContractIDs", ""); err != nil {
		return nil, err
	}
	return append([]string(nil), s.order...), nil
}

func (s *Store) SetContractMerchant(_ context.Context, contractID, merchantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("SetContractMerchant", contractID); err != nil {
		return err
	}
	rec, ok := s.records[contractID]
	if !ok {
		return notFound("contract")
	}
	rec.MerchantID = merchantID
	return nil
}

func (s *Store) UpsertAuthorizedPerson(_ context.Context, contractID string, p *onboarding.AuthorizedPerson) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpsertAuthorizedPerson", p.ID); err != nil {
		return err
	}
	rows := s.persons[contractID]
	for i, existing := range rows {
		if existing.ID == p.ID {
			rows[i] = clone(p)
			return nil
		}
	}
	s.persons[contractID] = append(rows, clone(p))
	return nil
}

func (s *Store) UpsertActualOwner(_ context.Context, contractID string, o *onboarding.ActualOwner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpsertActualOwner", o.ID); err != nil {
		return err
	}
	rows := s.owners[contractID]
	for i, existing := range rows {
		if existing.ID == o.ID {
			rows[i] = clone(o)
			return nil
		}
	}
	s.owners[contractID] = append(rows, clone(o))
	return nil
}

// AuthorizedPersons returns the persisted persons of a contract.
func (s *Store) AuthorizedPersons(contractID string) []*onboarding.AuthorizedPerson {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.persons[contractID])
}

// ActualOwners returns the persisted owners of a contract.
func (s *Store) ActualOwners(contractID string) []*onboarding.ActualOwner {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.owners[contractID])
}

func (s *Store) FindMerchantByIdentity(_ context.Context, companyName, ico string) (*onboarding.Merchant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("FindMerchantByIdentity", ico); err != nil {
		return nil, err
	}
	for _, m := range s.merchants {
		if m.CompanyName == companyName && m.ICO == ico {
			return clone(m), nil
		}
	}
	return nil, notFound("merchant")
}

func (s *Store) CreateMerchant(_ context.Context, m *onboarding.Merchant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CreateMerchant", m.ICO); err != nil {
		return err
	}
	for _, existing := range s.merchants {
		if existing.CompanyName == m.CompanyName && existing.ICO == m.ICO {
			return repositories.ErrMerchantConflict
		}
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = time.Now()
	s.merchants[m.ID] = clone(m)
	return nil
}

// Merchants returns every stored merchant.
func (s *Store) Merchants() []*onboarding.Merchant {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*onboarding.Merchant, 0, len(s.merchants))
	for _, m := range s.merchants {
		out = append(out, clone(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PutWarehouseItem seeds a warehouse row.
func (s *Store) PutWarehouseItem(item *models.WarehouseItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	s.items[item.ID] = clone(item)
}

func (s *Store) GetRole(_ context.Context, userID uint) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetRole", fmt.Sprint(userID)); err != nil {
		return "", err
	}
	role, ok := s.roles[userID]
	if !ok {
		return "", notFound("user role")
	}
	return role, nil
}

func (s *Store) CreateUser(_ context.Context, user *models.User, role string) error {
	if user == nil || user.Email == "" || !models.ValidRole(role) {
		return repositories.ErrInvalidUserData
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CreateUser", user.Email); err != nil {
		return err
	}
	for _, u := range s.users {
		if u.Email == user.Email {
			return repositories.ErrEmailTaken
		}
	}
	s.nextUser++
	user.ID = s.nextUser
	user.CreatedAt = time.Now()
	cp := *user
	s.users[user.ID] = &cp
	s.roles[user.ID] = role
	return nil
}

func (s *Store) DeleteUser(_ context.Context, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("DeleteUser", fmt.Sprint(userID)); err != nil {
		return err
	}
	if _, ok := s.users[userID]; !ok {
		return notFound("user")
	}
	delete(s.users, userID)
	delete(s.roles, userID)
	return nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetUserByEmail", email); err != nil {
		return nil, err
	}
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, notFound("user")
}
