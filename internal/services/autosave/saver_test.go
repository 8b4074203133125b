package autosave

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"paydesk/internal/domain/onboarding"

	"github.com/facebookgo/clock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type recordingStore struct {
	mu      sync.Mutex
	persons []onboarding.AuthorizedPerson
	owners  []onboarding.ActualOwner
}

func (s *recordingStore) UpsertAuthorizedPerson(_ context.Context, _ string, p *onboarding.AuthorizedPerson) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persons = append(s.persons, *p)
	return nil
}

func (s *recordingStore) UpsertActualOwner(_ context.Context, _ string, o *onboarding.ActualOwner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owners = append(s.owners, *o)
	return nil
}

func (s *recordingStore) personCalls() []onboarding.AuthorizedPerson {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]onboarding.AuthorizedPerson(nil), s.persons...)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) UpsertAuthorizedPerson(ctx context.Context, contractID string, p *onboarding.AuthorizedPerson) error {
	args := m.Called(ctx, contractID, p.ID)
	return args.Error(0)
}

func (m *mockStore) UpsertActualOwner(ctx context.Context, contractID string, o *onboarding.ActualOwner) error {
	args := m.Called(ctx, contractID, o.ID)
	return args.Error(0)
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testOptions(clk clock.Clock) Options {
	return Options{Delay: 2 * time.Second, Clock: clk, Logger: quietLogger()}
}

func person(id, first, last, email string) *onboarding.AuthorizedPerson {
	return &onboarding.AuthorizedPerson{ID: id, FirstName: first, LastName: last, Email: email}
}

func TestSaver_CompletenessFilter(t *testing.T) {
	clk := clock.NewMock()
	store := &recordingStore{}
	s := NewAuthorizedPersonSaver("c-1", store, testOptions(clk))
	defer s.Close()

	s.Watch([]*onboarding.AuthorizedPerson{person("p1", "Ján", "Novák", "")})
	clk.Add(2 * time.Second)

	assert.Empty(t, store.personCalls())
	assert.NoError(t, s.Err())

	s.Watch([]*onboarding.AuthorizedPerson{person("p1", "Ján", "Novák", "jan@x.sk")})
	clk.Add(2 * time.Second)

	assert.Eventually(t, func() bool { return len(store.personCalls()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "jan@x.sk", store.personCalls()[0].Email)
}

func TestSaver_DebounceCollapses(t *testing.T) {
	clk := clock.NewMock()
	store := &recordingStore{}
	s := NewAuthorizedPersonSaver("c-1", store, testOptions(clk))
	defer s.Close()

	for _, first := range []string{"J", "Já", "Ján", "Jána", "Ján"} {
		s.Watch([]*onboarding.AuthorizedPerson{person("p1", first, "Novák", "jan@x.sk")})
		assert.Equal(t, StatePending, s.State())
		clk.Add(500 * time.Millisecond)
	}
	assert.Empty(t, store.personCalls())

	clk.Add(2 * time.Second)
	assert.Eventually(t, func() bool { return s.State() == StateIdle && len(store.personCalls()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "Ján", store.personCalls()[0].FirstName)

	clk.Add(10 * time.Second)
	assert.Len(t, store.personCalls(), 1)
}

func TestSaver_UnchangedWatchDoesNotRearm(t *testing.T) {
	clk := clock.NewMock()
	store := &recordingStore{}
	s := NewAuthorizedPersonSaver("c-1", store, testOptions(clk))
	defer s.Close()

	items := []*onboarding.AuthorizedPerson{person("p1", "Ján", "Novák", "jan@x.sk")}
	s.Watch(items)
	clk.Add(2 * time.Second)
	require.Eventually(t, func() bool { return len(store.personCalls()) == 1 }, time.Second, 5*time.Millisecond)

	// An equal copy serializes identically.
	s.Watch([]*onboarding.AuthorizedPerson{person("p1", "Ján", "Novák", "jan@x.sk")})
	assert.Equal(t, StateIdle, s.State())
	assert.False(t, s.Dirty())
}

func TestSaver_CloseCancelsPendingTimer(t *testing.T) {
	clk := clock.NewMock()
	store := &recordingStore{}
	s := NewAuthorizedPersonSaver("c-1", store, testOptions(clk))

	s.Watch([]*onboarding.AuthorizedPerson{person("p1", "Ján", "Novák", "jan@x.sk")})
	s.Close()
	clk.Add(5 * time.Second)

	assert.Empty(t, store.personCalls())
	assert.Equal(t, StateIdle, s.State())

	s.Watch([]*onboarding.AuthorizedPerson{person("p1", "Peter", "Novák", "jan@x.sk")})
	clk.Add(5 * time.Second)
	assert.Empty(t, store.personCalls())
}

func TestSaver_PartialFailure(t *testing.T) {
	clk := clock.NewMock()
	store := &mockStore{}
	store.On("UpsertAuthorizedPerson", mock.Anything, "c-1", "p1").Return(errors.New("connection reset")).Once()
	store.On("UpsertAuthorizedPerson", mock.Anything, "c-1", "p1").Return(nil)
	store.On("UpsertAuthorizedPerson", mock.Anything, "c-1", "p2").Return(nil)

	s := NewAuthorizedPersonSaver("c-1", store, testOptions(clk))
	defer s.Close()

	s.Watch([]*onboarding.AuthorizedPerson{
		person("p1", "Ján", "Novák", "jan@x.sk"),
		person("p2", "Eva", "Malá", "eva@x.sk"),
	})
	clk.Add(2 * time.Second)

	require.Eventually(t, func() bool { return s.Err() != nil }, time.Second, 5*time.Millisecond)
	store.AssertNumberOfCalls(t, "UpsertAuthorizedPerson", 2)
	assert.Contains(t, s.Err().Error(), "connection reset")
	assert.True(t, s.Dirty())

	// The next edit re-sends the whole batch since the marker did not move.
	s.Watch([]*onboarding.AuthorizedPerson{
		person("p1", "Ján", "Novák", "jan@x.sk"),
		person("p2", "Eva", "Malá", "eva@novak.sk"),
	})
	clk.Add(2 * time.Second)

	require.Eventually(t, func() bool { return !s.Dirty() }, time.Second, 5*time.Millisecond)
	assert.NoError(t, s.Err())
	store.AssertNumberOfCalls(t, "UpsertAuthorizedPerson", 4)
}

func TestSaver_OnlyChangedRowsAreUpserted(t *testing.T) {
	clk := clock.NewMock()
	store := &recordingStore{}
	s := NewAuthorizedPersonSaver("c-1", store, testOptions(clk))
	defer s.Close()

	p1 := person("p1", "Ján", "Novák", "jan@x.sk")
	s.Watch([]*onboarding.AuthorizedPerson{p1, person("p2", "Eva", "Malá", "eva@x.sk")})
	clk.Add(2 * time.Second)
	require.Eventually(t, func() bool { return len(store.personCalls()) == 2 }, time.Second, 5*time.Millisecond)

	s.Watch([]*onboarding.AuthorizedPerson{p1, person("p2", "Eva", "Veľká", "eva@x.sk")})
	clk.Add(2 * time.Second)
	require.Eventually(t, func() bool { return len(store.personCalls()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "p2", store.personCalls()[2].ID)
}

func TestSaver_FlushSavesImmediately(t *testing.T) {
	clk := clock.NewMock()
	store := &recordingStore{}
	s := NewActualOwnerSaver("c-1", store, testOptions(clk))
	defer s.Close()

	s.Watch([]*onboarding.ActualOwner{
		{ID: "o1", FirstName: "Ján", LastName: "Novák"},
		{ID: "o2", FirstName: "Eva"},
	})
	require.NoError(t, s.Flush(context.Background()))

	store.mu.Lock()
	owners := append([]onboarding.ActualOwner(nil), store.owners...)
	store.mu.Unlock()
	require.Len(t, owners, 1)
	assert.Equal(t, "o1", owners[0].ID)
	assert.Equal(t, StateIdle, s.State())

	// The cancelled timer never fires a second batch.
	clk.Add(5 * time.Second)
	store.mu.Lock()
	assert.Len(t, store.owners, 1)
	store.mu.Unlock()
}

func TestSaver_PrimeSetsBaseline(t *testing.T) {
	clk := clock.NewMock()
	store := &recordingStore{}
	s := NewAuthorizedPersonSaver("c-1", store, testOptions(clk))
	defer s.Close()

	loaded := []*onboarding.AuthorizedPerson{person("p1", "Ján", "Novák", "jan@x.sk")}
	s.Prime(loaded)
	s.Watch(loaded)
	assert.Equal(t, StateIdle, s.State())

	require.NoError(t, s.Flush(context.Background()))
	assert.Empty(t, store.personCalls())
}

type blockingStore struct {
	mu        sync.Mutex
	active    int
	maxActive int
	persons   []onboarding.AuthorizedPerson
	started   chan struct{}
	release   chan struct{}
}

func newBlockingStore() *blockingStore {
	return &blockingStore{started: make(chan struct{}, 4), release: make(chan struct{})}
}

func (s *blockingStore) UpsertAuthorizedPerson(_ context.Context, _ string, p *onboarding.AuthorizedPerson) error {
	s.mu.Lock()
	s.active++
	if s.active > s.maxActive {
		s.maxActive = s.active
	}
	s.persons = append(s.persons, *p)
	s.mu.Unlock()

	s.started <- struct{}{}
	<-s.release

	s.mu.Lock()
	s.active--
	s.mu.Unlock()
	return nil
}

func (s *blockingStore) UpsertActualOwner(context.Context, string, *onboarding.ActualOwner) error {
	return nil
}

func (s *blockingStore) calls() ([]onboarding.AuthorizedPerson, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]onboarding.AuthorizedPerson(nil), s.persons...), s.maxActive
}

func TestSaver_WatchDuringSaveStaysPending(t *testing.T) {
	clk := clock.NewMock()
	store := newBlockingStore()
	s := NewAuthorizedPersonSaver("c-1", store, testOptions(clk))
	defer s.Close()

	s.Watch([]*onboarding.AuthorizedPerson{person("p1", "Ján", "Novák", "jan@x.sk")})

	// The mock clock runs the save on the caller's goroutine.
	fired := make(chan struct{})
	go func() {
		clk.Add(2 * time.Second)
		close(fired)
	}()
	select {
	case <-store.started:
	case <-time.After(time.Second):
		t.Fatal("save did not start")
	}
	assert.Equal(t, StateSaving, s.State())

	s.Watch([]*onboarding.AuthorizedPerson{person("p1", "Peter", "Novák", "jan@x.sk")})
	assert.Equal(t, StatePending, s.State())

	flushed := make(chan error, 1)
	go func() { flushed <- s.Flush(context.Background()) }()

	close(store.release)
	<-fired
	select {
	case err := <-flushed:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("flush did not finish")
	}

	persons, maxActive := store.calls()
	require.Len(t, persons, 2)
	assert.Equal(t, "Ján", persons[0].FirstName)
	assert.Equal(t, "Peter", persons[1].FirstName)
	assert.Equal(t, 1, maxActive)
	assert.False(t, s.Dirty())
	assert.Equal(t, StateIdle, s.State())
}
