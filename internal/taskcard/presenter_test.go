package taskcard

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Joseda-hg/lazyteam/internal/members"
	"github.com/Joseda-hg/lazyteam/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMembers struct {
	mu        sync.Mutex
	resolved  map[string]model.Member
	requested []string
	observers []func(string)
}

func newFakeMembers(resolved ...model.Member) *fakeMembers {
	f := &fakeMembers{resolved: make(map[string]model.Member)}
	for _, m := range resolved {
		f.resolved[m.ID] = m
	}
	return f
}

func (f *fakeMembers) Get(id string) (model.Member, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.resolved[id]
	return m, ok
}

func (f *fakeMembers) Request(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requested = append(f.requested, id)
}

func (f *fakeMembers) Subscribe(fn func(string)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observers = append(f.observers, fn)
	index := len(f.observers) - 1
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.observers[index] = nil
	}
}

func (f *fakeMembers) resolve(m model.Member) {
	f.mu.Lock()
	f.resolved[m.ID] = m
	observers := append([]func(string){}, f.observers...)
	f.mu.Unlock()
	for _, fn := range observers {
		if fn != nil {
			fn(m.ID)
		}
	}
}

var (
	ada   = model.Member{ID: "1", FirstName: "Ada", LastName: "Lovelace", DOB: "1815-12-10"}
	grace = model.Member{ID: "2", FirstName: "Grace", LastName: "Hopper", DOB: "1906-12-09"}
	alan  = model.Member{ID: "3", FirstName: "Alan", LastName: "Turing", DOB: "1912-06-23"}
)

func sampleTask(status string, ids ...string) model.Task {
	return model.Task{ID: "t1", Name: "Quarterly report", DateCreated: "2024-01-22", Status: status, EmployeeIDs: ids}
}

func TestMountRequestsOnlyUnresolvedMembers(t *testing.T) {
	source := newFakeMembers(ada)
	p := New(sampleTask(model.StatusInProgress, "1", "2", "3"), source, nil)
	p.Mount()

	assert.Equal(t, []string{"2", "3"}, source.requested)
}

func TestCardShowsTwoAvatarsAndMoreIndicator(t *testing.T) {
	source := newFakeMembers(ada, grace)
	p := New(sampleTask(model.StatusInReview, "1", "2", "3"), source, nil)
	p.Mount()

	card := p.Card()
	assert.Equal(t, "Quarterly report", card.Name)
	assert.Equal(t, "January 22nd, 2024", card.Date)
	assert.Equal(t, "#ff9800", card.StatusColor)
	assert.Equal(t, []Avatar{{MemberID: "1", Initial: "A"}, {MemberID: "2", Initial: "G"}}, card.Avatars)
	assert.Equal(t, 1, card.More)
	assert.False(t, card.CanDelete)
}

func TestCardSkipsUnresolvedInlineAvatars(t *testing.T) {
	source := newFakeMembers(grace, alan)
	p := New(sampleTask(model.StatusNotStarted, "1", "2", "3", "4"), source, nil)

	card := p.Card()
	assert.Equal(t, []Avatar{{MemberID: "2", Initial: "G"}}, card.Avatars)
	assert.Equal(t, 2, card.More)
	assert.Equal(t, "#f44336", card.StatusColor)
}

func TestCardWithoutEmployees(t *testing.T) {
	p := New(model.Task{ID: "t2", Name: "Solo", DateCreated: "bad", Status: "Archived"}, newFakeMembers(), nil)

	card := p.Card()
	assert.Empty(t, card.Avatars)
	assert.Zero(t, card.More)
	assert.Equal(t, "bad", card.Date)
	assert.Equal(t, "grey", card.StatusColor)
}

func TestDeleteAffordanceRequiresCompletedAndCallback(t *testing.T) {
	noop := func(context.Context, string) error { return nil }
	cases := []struct {
		name     string
		status   string
		onDelete DeleteFunc
		want     bool
	}{
		{"completed with callback", model.StatusCompleted, noop, true},
		{"completed without callback", model.StatusCompleted, nil, false},
		{"in progress with callback", model.StatusInProgress, noop, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := New(sampleTask(tc.status), newFakeMembers(), tc.onDelete)
			assert.Equal(t, tc.want, p.Card().CanDelete)
			assert.Equal(t, tc.want, p.RequestDelete())
			assert.Equal(t, tc.want, p.Dialogs().ConfirmOpen)
		})
	}
}

func TestConfirmDeleteInvokesCallbackOnceAndCloses(t *testing.T) {
	var calls []string
	p := New(sampleTask(model.StatusCompleted), newFakeMembers(), func(ctx context.Context, id string) error {
		calls = append(calls, id)
		return nil
	})

	require.NoError(t, p.ConfirmDelete(context.Background()))
	assert.Empty(t, calls, "confirm without an open dialog must not delete")

	require.True(t, p.RequestDelete())
	assert.Empty(t, calls, "opening the dialog must not delete")
	assert.Equal(t, `Are you sure you want to delete task "Quarterly report"?`, p.ConfirmTitle())

	require.NoError(t, p.ConfirmDelete(context.Background()))
	assert.Equal(t, []string{"t1"}, calls)
	assert.False(t, p.Dialogs().ConfirmOpen)

	require.NoError(t, p.ConfirmDelete(context.Background()))
	assert.Len(t, calls, 1)
}

func TestConfirmDeleteClosesOnFailure(t *testing.T) {
	p := New(sampleTask(model.StatusCompleted), newFakeMembers(), func(context.Context, string) error {
		return errors.New("server said no")
	})

	require.True(t, p.RequestDelete())
	err := p.ConfirmDelete(context.Background())
	assert.EqualError(t, err, "server said no")
	assert.False(t, p.Dialogs().ConfirmOpen)
}

func TestCancelDeleteDoesNotInvoke(t *testing.T) {
	called := false
	p := New(sampleTask(model.StatusCompleted), newFakeMembers(), func(context.Context, string) error {
		called = true
		return nil
	})
	p.RequestDelete()
	p.CancelDelete()
	assert.False(t, p.Dialogs().ConfirmOpen)
	assert.False(t, called)
}

func TestDetailShowsPlaceholderUntilResolved(t *testing.T) {
	source := newFakeMembers()
	p := New(sampleTask(model.StatusInProgress, "1"), source, nil)
	changes := 0
	p.OnChange(func() { changes++ })
	p.Mount()

	p.OpenDetail("1")
	detail := p.Detail()
	assert.True(t, detail.Open)
	assert.True(t, detail.Loading)

	source.resolve(ada)
	detail = p.Detail()
	assert.False(t, detail.Loading)
	assert.Equal(t, ada, detail.Member)
	assert.Equal(t, 2, changes)

	source.resolve(model.Member{ID: "99"})
	assert.Equal(t, 2, changes, "unrelated members must not trigger a re-render")

	p.CloseDetail()
	assert.Equal(t, Detail{}, p.Detail())
}

func TestRosterSelectionOpensDetailAndClosesRoster(t *testing.T) {
	source := newFakeMembers(ada, alan)
	p := New(sampleTask(model.StatusInProgress, "1", "2", "3"), source, nil)

	p.OpenRoster()
	assert.True(t, p.Dialogs().RosterOpen)
	assert.Equal(t, []model.Member{ada, alan}, p.Roster())

	p.SelectFromRoster("3")
	dialogs := p.Dialogs()
	assert.False(t, dialogs.RosterOpen)
	assert.True(t, dialogs.DetailOpen)
	assert.Equal(t, alan, p.Detail().Member)
}

func TestSetTaskResolvesOnlyWhenIDsChange(t *testing.T) {
	source := newFakeMembers()
	p := New(sampleTask(model.StatusInProgress, "1"), source, nil)
	p.Mount()
	require.Equal(t, []string{"1"}, source.requested)

	task := sampleTask(model.StatusCompleted, "1")
	p.SetTask(task)
	assert.Equal(t, []string{"1"}, source.requested)

	task.EmployeeIDs = model.IDList{"1", "2"}
	p.SetTask(task)
	assert.Equal(t, []string{"1", "1", "2"}, source.requested)
}

func TestUnmountResetsDialogsAndUnsubscribes(t *testing.T) {
	source := newFakeMembers(ada)
	p := New(sampleTask(model.StatusCompleted, "1"), source, func(context.Context, string) error { return nil })
	changes := 0
	p.OnChange(func() { changes++ })
	p.Mount()
	p.OpenRoster()
	p.OpenDetail("1")
	p.RequestDelete()

	p.Unmount()
	assert.Equal(t, Dialogs{}, p.Dialogs())

	before := changes
	source.resolve(ada)
	assert.Equal(t, before, changes)
}

func TestPresenterWithMemberStore(t *testing.T) {
	store := members.NewStore(nil)
	store.Put("1", ada)
	store.Put("2", grace)
	store.Put("3", alan)

	p := New(sampleTask(model.StatusCompleted, "1", "2", "3"), store, nil)
	p.Mount()
	defer p.Unmount()

	card := p.Card()
	assert.Len(t, card.Avatars, 2)
	assert.Equal(t, 1, card.More)
	assert.Len(t, p.Roster(), 3)
}
