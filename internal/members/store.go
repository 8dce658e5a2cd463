// Package members resolves employee ids to member records and shares the
// results with every task card that asks.
package members

import (
	"context"
	"log"
	"sync"

	"github.com/Joseda-hg/lazyteam/internal/model"
	"golang.org/x/sync/singleflight"
)

type Fetcher interface {
	Member(ctx context.Context, id string) (model.Member, error)
}

type Store struct {
	fetcher Fetcher
	group   singleflight.Group

	mu           sync.RWMutex
	members      map[string]model.Member
	observers    map[int]func(id string)
	nextObserver int
}

func NewStore(fetcher Fetcher) *Store {
	return &Store{
		fetcher:   fetcher,
		members:   make(map[string]model.Member),
		observers: make(map[int]func(string)),
	}
}

func (s *Store) Get(id string) (model.Member, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	member, ok := s.members[id]
	return member, ok
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.members)
}

// Fetch returns the member for id, loading it at most once no matter how
// many callers ask concurrently.
func (s *Store) Fetch(ctx context.Context, id string) (model.Member, error) {
	if member, ok := s.Get(id); ok {
		return member, nil
	}

	value, err, _ := s.group.Do(id, func() (any, error) {
		if member, ok := s.Get(id); ok {
			return member, nil
		}
		member, err := s.fetcher.Member(ctx, id)
		if err != nil {
			return nil, err
		}
		s.Put(id, member)
		return member, nil
	})
	if err != nil {
		return model.Member{}, err
	}
	return value.(model.Member), nil
}

// Request starts a background fetch for id unless it is already resolved.
// Failures are logged and the id stays unresolved.
func (s *Store) Request(id string) {
	if _, ok := s.Get(id); ok {
		return
	}
	go func() {
		if _, err := s.Fetch(context.Background(), id); err != nil {
			log.Printf("fetch member %s: %v", id, err)
		}
	}()
}

func (s *Store) Put(id string, member model.Member) {
	s.mu.Lock()
	s.members[id] = member
	observers := make([]func(string), 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.mu.Unlock()

	for _, fn := range observers {
		fn(id)
	}
}

// Subscribe registers fn to be called with each id as it resolves.
func (s *Store) Subscribe(fn func(id string)) func() {
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
