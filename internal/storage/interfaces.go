package storage

import (
	"context"

	"token-unlock-lab/internal/domain"
)

// PriceSeriesStore provides access to price_series storage.
type PriceSeriesStore interface {
	// InsertBulk adds multiple points. Duplicate timestamps for a token are
	// allowed; stored order for equal timestamps follows insertion order.
	InsertBulk(ctx context.Context, points []*domain.PricePoint) error

	// GetByToken retrieves all points for a token, ordered by timestamp ASC.
	GetByToken(ctx context.Context, token string) ([]*domain.PricePoint, error)

	// GetByTimeRange retrieves points for a token within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, token string, start, end int64) ([]*domain.PricePoint, error)
}

// UnlockEventStore provides access to unlock_events storage.
type UnlockEventStore interface {
	// InsertBulk adds multiple events. Events are not unique-keyed: the
	// same token may unlock many times.
	InsertBulk(ctx context.Context, events []*domain.UnlockEvent) error

	// GetByToken retrieves all events for a token in insertion order.
	GetByToken(ctx context.Context, token string) ([]*domain.UnlockEvent, error)

	// GetAll retrieves every stored event.
	GetAll(ctx context.Context) ([]*domain.UnlockEvent, error)

	// GetShortableTokens returns distinct tokens having at least one event
	// with Shortable set, sorted ascending.
	GetShortableTokens(ctx context.Context) ([]string, error)
}
