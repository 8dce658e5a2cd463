// Package session tracks who is logged in and how the last login attempt went.
package session

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/Joseda-hg/lazyteam/internal/api"
	"github.com/Joseda-hg/lazyteam/internal/model"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusError   Status = "error"
)

const IncorrectCredentialsMessage = "Incorrect employee ID or password"

var (
	ErrEmptyEmployeeID = errors.New("employee id is required")
	ErrSuperseded      = errors.New("login superseded by a newer attempt")
	ErrClosed          = errors.New("session manager closed")
)

type State struct {
	CurrentUser *model.User
	Status      Status
	Error       string
}

func (s State) LoggedIn() bool {
	return s.CurrentUser != nil
}

func (s State) clone() State {
	if s.CurrentUser != nil {
		user := *s.CurrentUser
		s.CurrentUser = &user
	}
	return s
}

type EventKind int

const (
	EventStateChanged EventKind = iota
	// EventProfileRequested fires once a login succeeds and the profile fetch
	// for UserID has been handed to the profile store.
	EventProfileRequested
)

type Event struct {
	Kind   EventKind
	State  State
	UserID string
}

type Authenticator interface {
	Login(ctx context.Context, employeeID, password string) (model.User, error)
}

type ProfileRequester interface {
	Request(id string)
}

type Manager struct {
	auth     Authenticator
	profiles ProfileRequester

	mu           sync.Mutex
	state        State
	generation   uint64
	cancel       context.CancelFunc
	observers    map[int]func(Event)
	nextObserver int
	closed       bool
}

func NewManager(auth Authenticator, profiles ProfileRequester) *Manager {
	return &Manager{
		auth:      auth,
		profiles:  profiles,
		state:     State{Status: StatusIdle},
		observers: make(map[int]func(Event)),
	}
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

func (m *Manager) Subscribe(fn func(Event)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextObserver
	m.nextObserver++
	if m.observers != nil {
		m.observers[id] = fn
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.observers, id)
	}
}

// Login authenticates employeeID. Starting a new login cancels the one in
// flight; an attempt that settles after a newer one started leaves the state
// alone and returns ErrSuperseded.
func (m *Manager) Login(ctx context.Context, employeeID, password string) (model.User, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return model.User{}, ErrEmptyEmployeeID
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return model.User{}, ErrClosed
	}
	if m.cancel != nil {
		m.cancel()
	}
	m.generation++
	generation := m.generation
	m.cancel = cancel
	m.state.Status = StatusLoading
	m.state.Error = ""
	loading := m.state.clone()
	m.mu.Unlock()
	m.notify(Event{Kind: EventStateChanged, State: loading})

	user, err := m.auth.Login(ctx, employeeID, password)

	m.mu.Lock()
	if generation != m.generation {
		m.mu.Unlock()
		return model.User{}, ErrSuperseded
	}
	m.cancel = nil

	if err != nil {
		m.state.Status = StatusError
		m.state.Error = failureMessage(err)
		failed := m.state.clone()
		m.mu.Unlock()
		log.Printf("login %s failed: %v", employeeID, err)
		m.notify(Event{Kind: EventStateChanged, State: failed})
		return model.User{}, err
	}

	if m.profiles != nil {
		m.profiles.Request(user.ID)
	}
	m.state.Status = StatusIdle
	m.state.CurrentUser = &model.User{ID: user.ID}
	done := m.state.clone()
	m.mu.Unlock()

	m.notify(Event{Kind: EventProfileRequested, State: done, UserID: user.ID})
	m.notify(Event{Kind: EventStateChanged, State: done})
	return user, nil
}

// Logout forgets the current user. Status and Error keep whatever the last
// login left behind.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.state.CurrentUser = nil
	snapshot := m.state.clone()
	m.mu.Unlock()
	m.notify(Event{Kind: EventStateChanged, State: snapshot})
}

func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.generation++
	m.observers = nil
	m.closed = true
}

func (m *Manager) notify(event Event) {
	m.mu.Lock()
	observers := make([]func(Event), 0, len(m.observers))
	for _, fn := range m.observers {
		observers = append(observers, fn)
	}
	m.mu.Unlock()

	for _, fn := range observers {
		fn(event)
	}
}

func failureMessage(err error) string {
	if errors.Is(err, api.ErrUnauthorized) {
		return IncorrectCredentialsMessage
	}
	return err.Error()
}
