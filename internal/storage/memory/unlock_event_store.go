package memory

import (
	"context"
	"sort"
	"sync"

	"token-unlock-lab/internal/domain"
	"token-unlock-lab/internal/storage"
)

// UnlockEventStore is an in-memory implementation of storage.UnlockEventStore.
// Events are kept in insertion order; there is no uniqueness constraint.
type UnlockEventStore struct {
	mu     sync.RWMutex
	events []*domain.UnlockEvent
}

// NewUnlockEventStore creates a new in-memory unlock event store.
func NewUnlockEventStore() *UnlockEventStore {
	return &UnlockEventStore{}
}

// InsertBulk appends multiple events.
func (s *UnlockEventStore) InsertBulk(_ context.Context, events []*domain.UnlockEvent) error {
	if len(events) == 0 {
		return nil
	}

	for _, e := range events {
		if e == nil || e.Token == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range events {
		eventCopy := *e
		s.events = append(s.events, &eventCopy)
	}

	return nil
}

// GetByToken retrieves all events for a token in insertion order.
func (s *UnlockEventStore) GetByToken(_ context.Context, token string) ([]*domain.UnlockEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.UnlockEvent
	for _, e := range s.events {
		if e.Token == token {
			eventCopy := *e
			result = append(result, &eventCopy)
		}
	}

	return result, nil
}

// GetAll retrieves every stored event in insertion order.
func (s *UnlockEventStore) GetAll(_ context.Context) ([]*domain.UnlockEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.UnlockEvent, 0, len(s.events))
	for _, e := range s.events {
		eventCopy := *e
		result = append(result, &eventCopy)
	}

	return result, nil
}

// GetShortableTokens returns distinct tokens having at least one shortable
// event, sorted ascending.
func (s *UnlockEventStore) GetShortableTokens(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, e := range s.events {
		if e.Shortable {
			seen[e.Token] = struct{}{}
		}
	}

	tokens := make([]string, 0, len(seen))
	for t := range seen {
		tokens = append(tokens, t)
	}
	sort.Strings(tokens)

	return tokens, nil
}

var _ storage.UnlockEventStore = (*UnlockEventStore)(nil)
