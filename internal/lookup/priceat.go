package lookup

import (
	"context"
	"errors"

	"token-unlock-lab/internal/domain"
	"token-unlock-lab/internal/storage"
)

// ErrNoPriceData is returned when no sample exists at or before the target.
var ErrNoPriceData = errors.New("no price data available")

// PriceAt returns the price at or before the target timestamp: an as-of
// join, never interpolation. It scans forward, tracking the last sample
// with timestamp <= target, and stops at the first sample past the target.
// Samples sharing a timestamp resolve to the later one in scan order.
//
// The slice must be sorted ascending by timestamp. An unsorted slice does
// not fail; the early exit may silently skip later qualifying samples.
//
// Returns ErrNoPriceData if the slice is empty or the target precedes the
// first sample.
func PriceAt(target int64, prices []*domain.PricePoint) (float64, error) {
	found := false
	var price float64

	for _, p := range prices {
		if p.TimestampMs > target {
			break
		}
		price = p.Price
		found = true
	}

	if !found {
		return 0, ErrNoPriceData
	}
	return price, nil
}

// Service answers as-of price queries against a PriceSeriesStore.
type Service struct {
	prices storage.PriceSeriesStore
}

// NewService creates a lookup service over the given store.
func NewService(prices storage.PriceSeriesStore) *Service {
	return &Service{prices: prices}
}

// PriceAt loads the token's series and resolves the as-of price.
// Returns ErrNoPriceData for unknown tokens.
func (s *Service) PriceAt(ctx context.Context, token string, target int64) (float64, error) {
	series, err := s.prices.GetByToken(ctx, token)
	if err != nil {
		return 0, err
	}
	return PriceAt(target, series)
}
