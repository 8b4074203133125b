package session

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"paydesk/internal/domain/onboarding"
	apperrors "paydesk/internal/errors"
	"paydesk/internal/logging"
	"paydesk/internal/repositories/memory"
	"paydesk/internal/services/calculator"
	"paydesk/internal/services/linking"
	"paydesk/internal/services/registry"

	"github.com/facebookgo/clock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistry struct {
	persons []registry.Person
	calls   int
}

func (f *fakeRegistry) Lookup(_ context.Context, ico string) ([]registry.Person, error) {
	f.calls++
	return f.persons, nil
}

type fakeDocuments struct {
	keys    []string
	deleted []string
}

func (f *fakeDocuments) DeleteDocument(_ context.Context, fileURL string) error {
	f.deleted = append(f.deleted, fileURL)
	return nil
}

func (f *fakeDocuments) UploadDocument(_ context.Context, contractID, personID, side, contentType string, body io.Reader, size int64) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if int64(len(data)) != size {
		return "", io.ErrUnexpectedEOF
	}
	key := contractID + "/" + personID + "/" + side + "." + strings.TrimPrefix(contentType, "image/")
	f.keys = append(f.keys, key)
	return "https://cdn.example.com/" + key, nil
}

type fixture struct {
	store   *memory.Store
	clock   *clock.Mock
	manager *Manager
}

func newFixture(t *testing.T, deps Deps) *fixture {
	t.Helper()
	store := memory.New()
	mock := clock.NewMock()
	deps.Store = store
	if deps.Calculator == nil {
		deps.Calculator = calculator.New(calculator.DefaultFeeModel())
	}
	m := NewManager(deps, Options{Clock: mock, Logger: logging.Discard()})
	t.Cleanup(func() { _ = m.CloseAll(context.Background()) })
	return &fixture{store: store, clock: mock, manager: m}
}

func (f *fixture) savedPersons(contractID string) func() []*onboarding.AuthorizedPerson {
	return func() []*onboarding.AuthorizedPerson { return f.store.AuthorizedPersons(contractID) }
}

func TestOnboardingFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Deps{})
	f.manager.deps.Linker = linking.NewService(f.store, logging.Discard())
	m := f.manager

	rec, err := m.Open(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, onboarding.StatusDraft, rec.Status)
	ids, _ := f.store.ListContractIDs(ctx)
	assert.Equal(t, []string{"c-1"}, ids)

	_, err = m.UpdateSection(ctx, "c-1", "contactInfo", map[string]any{
		"salutation": "Mr",
		"firstName":  "Ján",
		"lastName":   "Novák",
		"email":      "jan@example.sk",
		"phone":      "900111222",
	})
	require.NoError(t, err)

	person, err := m.UseContactAsAuthorizedPerson(ctx, "c-1", onboarding.SourceContactInfo)
	require.NoError(t, err)
	assert.Equal(t, "Mr", person.Salutation)
	_, err = m.UseContactAsAuthorizedPerson(ctx, "c-1", onboarding.SourceContactInfo)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	// Auto-save after the debounce window.
	f.clock.Add(autosaveWindow)
	assert.Eventually(t, func() bool { return len(f.savedPersons("c-1")()) == 1 }, time.Second, 5*time.Millisecond)

	// Contact edits flow into the linked person and are saved again.
	rec, err = m.UpdateField(ctx, "c-1", "contactInfo.firstName", "Peter")
	require.NoError(t, err)
	assert.Equal(t, "Peter", rec.AuthorizedPersons[0].FirstName)
	f.clock.Add(autosaveWindow)
	assert.Eventually(t, func() bool {
		saved := f.savedPersons("c-1")()
		return len(saved) == 1 && saved[0].FirstName == "Peter"
	}, time.Second, 5*time.Millisecond)

	// Complete company info links the merchant.
	rec, err = m.UpdateSection(ctx, "c-1", "companyInfo", map[string]any{
		"companyName": "Novák s.r.o.",
		"ico":         "12345678",
		"address":     map[string]any{"street": "Hlavná", "number": "1", "city": "Nitra", "zipCode": "94901"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, rec.MerchantID)
	merchants := f.store.Merchants()
	require.Len(t, merchants, 1)
	assert.Equal(t, rec.MerchantID, merchants[0].ID)
	assert.Equal(t, "Peter", merchants[0].ContactFirstName)

	// Device changes recompute the calculator snapshot.
	rec, err = m.UpdateField(ctx, "c-1", "deviceSelection.dynamicCards", []any{
		map[string]any{"id": "d1", "name": "A920", "count": 2, "monthlyFee": "10", "companyCost": "4"},
	})
	require.NoError(t, err)
	require.NotNil(t, rec.Fees)
	require.NotNil(t, rec.Fees.CalculatorResults)
	assert.True(t, rec.Fees.CalculatorResults.TotalCustomerPayments.Equal(decimal.NewFromInt(20)))
	assert.True(t, rec.Fees.CalculatorResults.ServiceMargin.Equal(decimal.NewFromInt(12)))

	loc, err := m.CreateLocationFromContact(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, "Novák s.r.o.", loc.Name)
	assert.Equal(t, "Peter Novák", loc.ContactPerson.Name)
	assert.Equal(t, "Nitra", loc.Address.City)
	_, err = m.CreateLocationFromContact(ctx, "c-1")
	assert.ErrorIs(t, err, onboarding.ErrLocationFromContact)

	// Location turnover changes recompute as well.
	rec, err = m.UpdateField(ctx, "c-1", "businessLocations.0.monthlyTurnover", "1000")
	require.NoError(t, err)
	assert.True(t, rec.Fees.CalculatorResults.MonthlyTurnover.Equal(decimal.NewFromInt(1000)))

	dirty, err := m.Dirty("c-1")
	require.NoError(t, err)
	assert.True(t, dirty)

	rec, err = m.Save(ctx, "c-1")
	require.NoError(t, err)
	dirty, err = m.Dirty("c-1")
	require.NoError(t, err)
	assert.False(t, dirty)
	stored, err := f.store.LoadRecord(ctx, "c-1")
	require.NoError(t, err)
	require.Len(t, stored.BusinessLocations, 1)
	assert.Equal(t, loc.ID, stored.BusinessLocations[0].ID)
	assert.Equal(t, rec.MerchantID, stored.MerchantID)

	// Incomplete records cannot be submitted.
	_, err = m.Submit(ctx, "c-1")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = m.UpdateField(ctx, "c-1", "businessLocations.0.iban", "SK3112000000198742637541")
	require.NoError(t, err)
	_, err = m.UpdateSection(ctx, "c-1", "consents", map[string]any{"gdprConsent": true, "termsConsent": true})
	require.NoError(t, err)

	rec, err = m.Submit(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, onboarding.StatusSubmitted, rec.Status)
	stored, err = f.store.LoadRecord(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, onboarding.StatusSubmitted, stored.Status)

	_, err = m.UpdateField(ctx, "c-1", "contactInfo.firstName", "Jozef")
	assert.ErrorIs(t, err, apperrors.ErrReadOnly)
	_, err = m.Save(ctx, "c-1")
	assert.ErrorIs(t, err, apperrors.ErrReadOnly)
}

// autosaveWindow is past the default debounce delay.
const autosaveWindow = 2100 * time.Millisecond

func TestOpenPrimesPersistedPersons(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Deps{})
	rec := onboarding.NewRecord("c-1")
	require.NoError(t, f.store.SaveRecord(ctx, rec))
	require.NoError(t, f.store.UpsertAuthorizedPerson(ctx, "c-1", &onboarding.AuthorizedPerson{
		ID: "p1", FirstName: "Ján", LastName: "Novák", Email: "jan@example.sk",
	}))

	opened, err := f.manager.Open(ctx, "c-1")
	require.NoError(t, err)
	require.Len(t, opened.AuthorizedPersons, 1)

	f.clock.Add(autosaveWindow)
	assert.Equal(t, 1, f.store.Calls("UpsertAuthorizedPerson"))

	_, err = f.manager.UpdateField(ctx, "c-1", "authorizedPersons.0.email", "novak@example.sk")
	require.NoError(t, err)
	f.clock.Add(autosaveWindow)
	assert.Eventually(t, func() bool { return f.store.Calls("UpsertAuthorizedPerson") == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "novak@example.sk", f.store.AuthorizedPersons("c-1")[0].Email)

	// Reopening returns the live session.
	again, err := f.manager.Open(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, "novak@example.sk", again.AuthorizedPersons[0].Email)
}

func TestRemovedPersonIsDeletedOnSave(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Deps{})
	m := f.manager

	_, err := m.Open(ctx, "c-1")
	require.NoError(t, err)
	_, err = m.UpdateField(ctx, "c-1", "authorizedPersons", []any{
		map[string]any{"id": "p1", "firstName": "Ján", "lastName": "Novák", "email": "jan@example.sk"},
	})
	require.NoError(t, err)
	_, err = m.UpdateField(ctx, "c-1", "actualOwners", []any{
		map[string]any{"id": "o1", "firstName": "Eva", "lastName": "Nováková"},
	})
	require.NoError(t, err)
	_, err = m.Save(ctx, "c-1")
	require.NoError(t, err)
	require.Len(t, f.store.AuthorizedPersons("c-1"), 1)
	require.Len(t, f.store.ActualOwners("c-1"), 1)

	_, err = m.UpdateField(ctx, "c-1", "authorizedPersons", []any{})
	require.NoError(t, err)
	_, err = m.UpdateField(ctx, "c-1", "actualOwners", []any{})
	require.NoError(t, err)
	_, err = m.Save(ctx, "c-1")
	require.NoError(t, err)
	require.NoError(t, m.Close(ctx, "c-1"))

	reopened, err := m.Open(ctx, "c-1")
	require.NoError(t, err)
	assert.Empty(t, reopened.AuthorizedPersons)
	assert.Empty(t, reopened.ActualOwners)
}

func TestCloseFlushesAndStopsTimers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Deps{})
	m := f.manager

	_, err := m.Open(ctx, "c-1")
	require.NoError(t, err)
	_, err = m.UpdateField(ctx, "c-1", "actualOwners", []any{
		map[string]any{"id": "o1", "firstName": "Eva", "lastName": "Nováková"},
		map[string]any{"id": "o2", "firstName": "Incomplete"},
	})
	require.NoError(t, err)

	require.NoError(t, m.Close(ctx, "c-1"))
	assert.Len(t, f.store.ActualOwners("c-1"), 1)
	calls := f.store.Calls("UpsertActualOwner")

	f.clock.Add(10 * time.Second)
	assert.Equal(t, calls, f.store.Calls("UpsertActualOwner"))

	_, err = m.Get("c-1")
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.ErrorIs(t, m.Close(ctx, "c-1"), ErrNotOpen)
}

func TestReapIdle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Deps{})
	m := f.manager

	_, err := m.Open(ctx, "c-1")
	require.NoError(t, err)
	_, err = m.Open(ctx, "c-2")
	require.NoError(t, err)

	f.clock.Add(20 * time.Minute)
	_, err = m.Get("c-2")
	require.NoError(t, err)
	f.clock.Add(15 * time.Minute)

	assert.Equal(t, 1, m.ReapIdle(ctx))
	assert.Equal(t, []string{"c-2"}, m.OpenSessions())
}

func TestReapIdleDoesNotBlockOnBusySession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Deps{})
	m := f.manager

	_, err := m.Open(ctx, "c-1")
	require.NoError(t, err)
	_, err = m.Open(ctx, "c-2")
	require.NoError(t, err)
	f.clock.Add(40 * time.Minute)
	_, err = m.Get("c-2")
	require.NoError(t, err)

	busy := m.lookup("c-1")
	busy.mu.Lock()

	reaped := make(chan int, 1)
	go func() { reaped <- m.ReapIdle(ctx) }()

	done := make(chan []string, 1)
	go func() {
		_, _ = m.Get("c-2")
		done <- m.OpenSessions()
	}()
	select {
	case open := <-done:
		assert.Contains(t, open, "c-2")
	case <-time.After(time.Second):
		t.Fatal("session lookups blocked while another session was busy")
	}

	busy.mu.Unlock()
	select {
	case n := <-reaped:
		assert.Equal(t, 1, n)
	case <-time.After(time.Second):
		t.Fatal("idle session was never reaped")
	}
	assert.Equal(t, []string{"c-2"}, m.OpenSessions())
}

func TestLockedFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Deps{})
	m := f.manager
	_, err := m.Open(ctx, "c-1")
	require.NoError(t, err)

	for _, path := range []string{"status", "merchantId", "fees.calculatorResults"} {
		_, err = m.UpdateField(ctx, "c-1", path, "x")
		assert.ErrorIs(t, err, apperrors.ErrValidation, path)
		assert.ErrorIs(t, err, ErrFieldReadOnly, path)
	}
	_, err = m.UpdateSection(ctx, "c-1", "fees", map[string]any{"calculatorResults": nil})
	assert.ErrorIs(t, err, ErrFieldReadOnly)

	_, err = m.UpdateField(ctx, "c-1", "companyInfo.nope", "x")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = m.UpdateField(ctx, "c-2", "contactInfo.firstName", "x")
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestContactSourcesRequireData(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Deps{})
	m := f.manager
	_, err := m.Open(ctx, "c-1")
	require.NoError(t, err)

	_, err = m.UseContactAsActualOwner(ctx, "c-1", onboarding.SourceCompanyContact)
	assert.ErrorIs(t, err, onboarding.ErrMissingContactInfo)
	_, err = m.CreateLocationFromContact(ctx, "c-1")
	assert.ErrorIs(t, err, onboarding.ErrMissingContactInfo)
	_, err = m.UseContactAsActualOwner(ctx, "c-1", "elsewhere")
	assert.ErrorIs(t, err, ErrUnknownSource)

	_, err = m.UpdateSection(ctx, "c-1", "companyInfo.contactPerson", map[string]any{"firstName": "Eva", "lastName": "Nováková"})
	require.NoError(t, err)
	owner, err := m.UseContactAsActualOwner(ctx, "c-1", onboarding.SourceCompanyContact)
	require.NoError(t, err)
	assert.Equal(t, "Eva", owner.FirstName)

	added, err := m.AddLocation(ctx, "c-1", &onboarding.BusinessLocation{ID: "ignored", Name: "Kiosk", CreatedFromContact: true})
	require.NoError(t, err)
	assert.NotEqual(t, "ignored", added.ID)
	assert.False(t, added.CreatedFromContact)
}

func TestImportRegistryPersons(t *testing.T) {
	ctx := context.Background()
	reg := &fakeRegistry{persons: []registry.Person{
		{FirstName: "Ján", LastName: "Novák", Role: registry.RoleStatutory, Position: "konateľ"},
		{FirstName: "Eva", LastName: "Nováková", Role: registry.RoleOwner},
		{FirstName: "JÁN", LastName: "novák", Role: registry.RoleStatutory},
		{FirstName: "X", LastName: "Y", Role: "auditor"},
	}}
	f := newFixture(t, Deps{Registry: reg})
	m := f.manager
	_, err := m.Open(ctx, "c-1")
	require.NoError(t, err)

	_, err = m.ImportRegistryPersons(ctx, "c-1")
	assert.ErrorIs(t, err, onboarding.ErrIncompleteCompanyInfo)

	_, err = m.UpdateField(ctx, "c-1", "companyInfo.ico", "12345678")
	require.NoError(t, err)

	report, err := m.ImportRegistryPersons(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, ImportReport{AuthorizedPersons: 1, ActualOwners: 1, Skipped: 2}, report)

	rec, err := m.Get("c-1")
	require.NoError(t, err)
	require.Len(t, rec.AuthorizedPersons, 1)
	assert.Equal(t, "konateľ", rec.AuthorizedPersons[0].Position)
	assert.NotEmpty(t, rec.AuthorizedPersons[0].ID)
	require.Len(t, rec.ActualOwners, 1)

	// A second import finds everyone already on the form.
	report, err = m.ImportRegistryPersons(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, 0, report.AuthorizedPersons+report.ActualOwners)
}

func TestUploadDocument(t *testing.T) {
	ctx := context.Background()
	docs := &fakeDocuments{}
	f := newFixture(t, Deps{Documents: docs})
	m := f.manager
	_, err := m.Open(ctx, "c-1")
	require.NoError(t, err)
	_, err = m.UpdateField(ctx, "c-1", "authorizedPersons.0", map[string]any{"id": "p1", "firstName": "Ján"})
	require.NoError(t, err)

	url, err := m.UploadDocument(ctx, "c-1", "p1", onboarding.DocumentBack, "image/png", strings.NewReader("scan"), 4)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/c-1/p1/back.png", url)

	rec, err := m.Get("c-1")
	require.NoError(t, err)
	assert.Equal(t, url, rec.AuthorizedPersons[0].DocumentBackURL)
	assert.Empty(t, rec.AuthorizedPersons[0].DocumentFrontURL)

	_, err = m.UploadDocument(ctx, "c-1", "p1", "left", "image/png", strings.NewReader("scan"), 4)
	assert.ErrorIs(t, err, onboarding.ErrInvalidDocumentSide)
	_, err = m.UploadDocument(ctx, "c-1", "p9", onboarding.DocumentFront, "image/png", strings.NewReader("scan"), 4)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Len(t, docs.keys, 1)
	assert.Empty(t, docs.deleted)

	// Same key overwrites in place, a new type removes the old object.
	_, err = m.UploadDocument(ctx, "c-1", "p1", onboarding.DocumentBack, "image/png", strings.NewReader("scan"), 4)
	require.NoError(t, err)
	assert.Empty(t, docs.deleted)
	replaced, err := m.UploadDocument(ctx, "c-1", "p1", onboarding.DocumentBack, "image/jpeg", strings.NewReader("scan"), 4)
	require.NoError(t, err)
	assert.Equal(t, []string{url}, docs.deleted)

	rec, err = m.Get("c-1")
	require.NoError(t, err)
	assert.Equal(t, replaced, rec.AuthorizedPersons[0].DocumentBackURL)
}

func TestOptionalIntegrationsUnavailable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Deps{})
	m := f.manager
	_, err := m.Open(ctx, "c-1")
	require.NoError(t, err)
	_, err = m.UpdateField(ctx, "c-1", "authorizedPersons.0", map[string]any{"id": "p1"})
	require.NoError(t, err)

	_, err = m.ImportRegistryPersons(ctx, "c-1")
	assert.ErrorIs(t, err, apperrors.ErrUnavailable)

	_, err = m.UploadDocument(ctx, "c-1", "p1", onboarding.DocumentFront, "image/png", strings.NewReader("scan"), 4)
	assert.ErrorIs(t, err, apperrors.ErrUnavailable)
}
