package profile

import (
	"context"
	"log"
	"sync"

	"github.com/Joseda-hg/lazyteam/internal/model"
	"golang.org/x/sync/singleflight"
)

type Fetcher interface {
	Profile(ctx context.Context, id string) (model.Profile, error)
}

// Store holds the logged-in employee's profile. Request is fire-and-forget;
// nothing outside the store observes a failed fetch except the log.
type Store struct {
	fetcher Fetcher
	group   singleflight.Group

	mu           sync.RWMutex
	current      *model.Profile
	observers    map[int]func(model.Profile)
	nextObserver int
	wg           sync.WaitGroup
}

func NewStore(fetcher Fetcher) *Store {
	return &Store{fetcher: fetcher, observers: make(map[int]func(model.Profile))}
}

func (s *Store) Request(id string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if _, err := s.Fetch(context.Background(), id); err != nil {
			log.Printf("fetch profile %s: %v", id, err)
		}
	}()
}

func (s *Store) Fetch(ctx context.Context, id string) (model.Profile, error) {
	value, err, _ := s.group.Do(id, func() (any, error) {
		return s.fetcher.Profile(ctx, id)
	})
	if err != nil {
		return model.Profile{}, err
	}

	profile := value.(model.Profile)
	s.mu.Lock()
	s.current = &profile
	observers := make([]func(model.Profile), 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.mu.Unlock()

	for _, fn := range observers {
		fn(profile)
	}
	return profile, nil
}

func (s *Store) Current() (model.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return model.Profile{}, false
	}
	return *s.current, true
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

func (s *Store) Subscribe(fn func(model.Profile)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.nextObserver
	s.nextObserver++
	s.observers[key] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, key)
	}
}

// Wait blocks until every Request issued so far has settled.
func (s *Store) Wait() {
	s.wg.Wait()
}
