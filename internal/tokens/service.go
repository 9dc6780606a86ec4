// Package tokens provides read-only derived views over the unlock event
// and price series stores.
package tokens

import (
	"context"
	"fmt"

	"token-unlock-lab/internal/domain"
	"token-unlock-lab/internal/storage"
)

// Service answers token-level queries.
type Service struct {
	unlocks storage.UnlockEventStore
	prices  storage.PriceSeriesStore
}

// NewService creates a token view service over the given stores.
func NewService(unlocks storage.UnlockEventStore, prices storage.PriceSeriesStore) *Service {
	return &Service{unlocks: unlocks, prices: prices}
}

// Shortable returns the distinct tokens with at least one shortable unlock.
func (s *Service) Shortable(ctx context.Context) ([]string, error) {
	return s.unlocks.GetShortableTokens(ctx)
}

// Detail assembles everything known about one token: its events, the OR of
// their shortable flags, and the full price series (empty if none).
// Returns storage.ErrNotFound when the token has neither events nor prices.
func (s *Service) Detail(ctx context.Context, token string) (*domain.TokenDetail, error) {
	events, err := s.unlocks.GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("load unlock events: %w", err)
	}

	prices, err := s.prices.GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("load price series: %w", err)
	}

	if len(events) == 0 && len(prices) == 0 {
		return nil, storage.ErrNotFound
	}

	shortable := false
	for _, e := range events {
		if e.Shortable {
			shortable = true
			break
		}
	}

	if events == nil {
		events = []*domain.UnlockEvent{}
	}
	if prices == nil {
		prices = []*domain.PricePoint{}
	}

	return &domain.TokenDetail{
		Token:     token,
		Shortable: shortable,
		Events:    events,
		Prices:    prices,
	}, nil
}
