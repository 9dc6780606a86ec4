package memory

import (
	"context"
	"sort"
	"sync"

	"token-unlock-lab/internal/domain"
	"token-unlock-lab/internal/storage"
)

// PriceSeriesStore is an in-memory implementation of storage.PriceSeriesStore.
//
// Points are kept per token in insertion order. Reads sort ascending by
// timestamp with a stable sort, so samples sharing a timestamp keep their
// insertion order and the later one wins during as-of lookup.
type PriceSeriesStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.PricePoint // keyed by token symbol
}

// NewPriceSeriesStore creates a new in-memory price series store.
func NewPriceSeriesStore() *PriceSeriesStore {
	return &PriceSeriesStore{
		data: make(map[string][]*domain.PricePoint),
	}
}

// InsertBulk adds multiple points. Duplicate timestamps are allowed.
func (s *PriceSeriesStore) InsertBulk(_ context.Context, points []*domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	for _, p := range points {
		if p == nil || p.Token == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range points {
		pointCopy := *p
		s.data[p.Token] = append(s.data[p.Token], &pointCopy)
	}

	return nil
}

// GetByToken retrieves all points for a token, ordered by timestamp ASC.
func (s *PriceSeriesStore) GetByToken(_ context.Context, token string) ([]*domain.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PricePoint
	for _, p := range s.data[token] {
		pointCopy := *p
		result = append(result, &pointCopy)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})

	return result, nil
}

// GetByTimeRange retrieves points for a token within [start, end] (inclusive).
func (s *PriceSeriesStore) GetByTimeRange(_ context.Context, token string, start, end int64) ([]*domain.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PricePoint
	for _, p := range s.data[token] {
		if p.TimestampMs >= start && p.TimestampMs <= end {
			pointCopy := *p
			result = append(result, &pointCopy)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})

	return result, nil
}

var _ storage.PriceSeriesStore = (*PriceSeriesStore)(nil)
