package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Joseda-hg/lazyteam/internal/api"
	"github.com/Joseda-hg/lazyteam/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFunc func(ctx context.Context, employeeID, password string) (model.User, error)

func (f authFunc) Login(ctx context.Context, employeeID, password string) (model.User, error) {
	return f(ctx, employeeID, password)
}

type profileRecorder struct {
	mu  sync.Mutex
	ids []string
}

func (p *profileRecorder) Request(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids = append(p.ids, id)
}

func (p *profileRecorder) requested() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.ids...)
}

func TestInitialState(t *testing.T) {
	m := NewManager(nil, nil)
	assert.Equal(t, State{Status: StatusIdle}, m.State())
	assert.False(t, m.State().LoggedIn())
}

func TestLoginSuccess(t *testing.T) {
	profiles := &profileRecorder{}
	var sawLoading bool
	m := NewManager(authFunc(func(ctx context.Context, id, pw string) (model.User, error) {
		assert.Equal(t, "42", id)
		assert.Equal(t, "secret", pw)
		return model.User{ID: "42"}, nil
	}), profiles)

	var events []Event
	m.Subscribe(func(e Event) {
		events = append(events, e)
		if e.Kind == EventStateChanged && e.State.Status == StatusLoading {
			sawLoading = true
			assert.Empty(t, e.State.Error)
		}
	})

	user, err := m.Login(context.Background(), " 42 ", "secret")
	require.NoError(t, err)
	assert.Equal(t, "42", user.ID)
	assert.True(t, sawLoading)

	state := m.State()
	assert.Equal(t, StatusIdle, state.Status)
	require.NotNil(t, state.CurrentUser)
	assert.Equal(t, "42", state.CurrentUser.ID)
	assert.Empty(t, state.Error)
	assert.Equal(t, []string{"42"}, profiles.requested())

	require.Len(t, events, 3)
	assert.Equal(t, EventProfileRequested, events[1].Kind)
	assert.Equal(t, "42", events[1].UserID)
	assert.Equal(t, EventStateChanged, events[2].Kind)
}

func TestLoginUnauthorized(t *testing.T) {
	profiles := &profileRecorder{}
	m := NewManager(authFunc(func(ctx context.Context, id, pw string) (model.User, error) {
		return model.User{}, api.ErrUnauthorized
	}), profiles)

	_, err := m.Login(context.Background(), "42", "wrong")
	assert.ErrorIs(t, err, api.ErrUnauthorized)

	state := m.State()
	assert.Equal(t, StatusError, state.Status)
	assert.Equal(t, "Incorrect employee ID or password", state.Error)
	assert.Nil(t, state.CurrentUser)
	assert.Empty(t, profiles.requested())
}

func TestLoginTransportFailure(t *testing.T) {
	m := NewManager(authFunc(func(ctx context.Context, id, pw string) (model.User, error) {
		return model.User{}, &api.StatusError{StatusCode: 500, Message: "Network Error"}
	}), nil)

	_, err := m.Login(context.Background(), "42", "pw")
	require.Error(t, err)
	assert.Equal(t, State{Status: StatusError, Error: "Network Error"}, m.State())
}

func TestLoginAfterErrorClearsError(t *testing.T) {
	fail := true
	m := NewManager(authFunc(func(ctx context.Context, id, pw string) (model.User, error) {
		if fail {
			return model.User{}, errors.New("boom")
		}
		return model.User{ID: id}, nil
	}), nil)

	_, _ = m.Login(context.Background(), "1", "pw")
	require.Equal(t, StatusError, m.State().Status)

	fail = false
	_, err := m.Login(context.Background(), "1", "pw")
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, m.State().Status)
	assert.Empty(t, m.State().Error)
}

func TestLoginRejectsEmptyEmployeeID(t *testing.T) {
	called := false
	m := NewManager(authFunc(func(ctx context.Context, id, pw string) (model.User, error) {
		called = true
		return model.User{}, nil
	}), nil)

	_, err := m.Login(context.Background(), "   ", "pw")
	assert.ErrorIs(t, err, ErrEmptyEmployeeID)
	assert.False(t, called)
	assert.Equal(t, State{Status: StatusIdle}, m.State())
}

func TestLogoutKeepsStatusAndError(t *testing.T) {
	calls := 0
	m := NewManager(authFunc(func(ctx context.Context, id, pw string) (model.User, error) {
		calls++
		if calls == 1 {
			return model.User{ID: id}, nil
		}
		return model.User{}, api.ErrUnauthorized
	}), nil)

	_, err := m.Login(context.Background(), "7", "pw")
	require.NoError(t, err)
	_, _ = m.Login(context.Background(), "7", "bad")

	m.Logout()
	state := m.State()
	assert.Nil(t, state.CurrentUser)
	assert.Equal(t, StatusError, state.Status)
	assert.Equal(t, IncorrectCredentialsMessage, state.Error)
}

func TestNewerLoginSupersedesOlder(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	m := NewManager(authFunc(func(ctx context.Context, id, pw string) (model.User, error) {
		if id == "slow" {
			close(started)
			<-release
			return model.User{ID: "slow"}, nil
		}
		return model.User{ID: id}, nil
	}), nil)

	type result struct {
		user model.User
		err  error
	}
	slow := make(chan result, 1)
	go func() {
		user, err := m.Login(context.Background(), "slow", "pw")
		slow <- result{user, err}
	}()
	<-started

	user, err := m.Login(context.Background(), "fast", "pw")
	require.NoError(t, err)
	assert.Equal(t, "fast", user.ID)

	close(release)
	res := <-slow
	assert.ErrorIs(t, res.err, ErrSuperseded)

	state := m.State()
	require.NotNil(t, state.CurrentUser)
	assert.Equal(t, "fast", state.CurrentUser.ID)
	assert.Equal(t, StatusIdle, state.Status)
}

func TestNewerLoginCancelsOlderRequest(t *testing.T) {
	started := make(chan struct{})
	m := NewManager(authFunc(func(ctx context.Context, id, pw string) (model.User, error) {
		if id == "slow" {
			close(started)
			<-ctx.Done()
			return model.User{}, ctx.Err()
		}
		return model.User{ID: id}, nil
	}), nil)

	done := make(chan error, 1)
	go func() {
		_, err := m.Login(context.Background(), "slow", "pw")
		done <- err
	}()
	<-started

	_, err := m.Login(context.Background(), "fast", "pw")
	require.NoError(t, err)
	assert.ErrorIs(t, <-done, ErrSuperseded)
	assert.Equal(t, StatusIdle, m.State().Status)
}

func TestUnsubscribeAndClose(t *testing.T) {
	m := NewManager(authFunc(func(ctx context.Context, id, pw string) (model.User, error) {
		return model.User{ID: id}, nil
	}), nil)

	count := 0
	unsubscribe := m.Subscribe(func(Event) { count++ })
	m.Logout()
	unsubscribe()
	m.Logout()
	assert.Equal(t, 1, count)

	m.Close()
	_, err := m.Login(context.Background(), "1", "pw")
	assert.ErrorIs(t, err, ErrClosed)
}
