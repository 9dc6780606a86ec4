package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"token-unlock-lab/internal/domain"
	"token-unlock-lab/internal/storage"
)

// UnlockEventStore implements storage.UnlockEventStore using PostgreSQL.
//
// The unlock_events table carries a serial id so insertion order survives
// round trips; there is no uniqueness constraint on (token, timestamp).
type UnlockEventStore struct {
	pool *Pool
}

// NewUnlockEventStore creates a new UnlockEventStore.
func NewUnlockEventStore(pool *Pool) *UnlockEventStore {
	return &UnlockEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.UnlockEventStore = (*UnlockEventStore)(nil)

// InsertBulk adds multiple events atomically.
func (s *UnlockEventStore) InsertBulk(ctx context.Context, events []*domain.UnlockEvent) error {
	if len(events) == 0 {
		return nil
	}

	for _, e := range events {
		if e == nil || e.Token == "" {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO unlock_events (token, timestamp_ms, amount_usd, shortable)
		VALUES ($1, $2, $3, $4)
	`

	for _, e := range events {
		_, err := tx.Exec(ctx, query, e.Token, e.TimestampMs, e.AmountUSD, e.Shortable)
		if err != nil {
			return fmt.Errorf("insert unlock event in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByToken retrieves all events for a token in insertion order.
func (s *UnlockEventStore) GetByToken(ctx context.Context, token string) ([]*domain.UnlockEvent, error) {
	query := `
		SELECT token, timestamp_ms, amount_usd, shortable
		FROM unlock_events
		WHERE token = $1
		ORDER BY id ASC
	`

	rows, err := s.pool.Query(ctx, query, token)
	if err != nil {
		return nil, fmt.Errorf("get unlock events by token: %w", err)
	}
	defer rows.Close()

	return scanUnlockEvents(rows)
}

// GetAll retrieves every stored event in insertion order.
func (s *UnlockEventStore) GetAll(ctx context.Context) ([]*domain.UnlockEvent, error) {
	query := `
		SELECT token, timestamp_ms, amount_usd, shortable
		FROM unlock_events
		ORDER BY id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all unlock events: %w", err)
	}
	defer rows.Close()

	return scanUnlockEvents(rows)
}

// GetShortableTokens returns distinct tokens with at least one shortable event.
func (s *UnlockEventStore) GetShortableTokens(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT token
		FROM unlock_events
		WHERE shortable
		ORDER BY token ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get shortable tokens: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token rows: %w", err)
	}

	return tokens, nil
}

// scanUnlockEvents scans multiple rows into a slice of UnlockEvent.
func scanUnlockEvents(rows pgx.Rows) ([]*domain.UnlockEvent, error) {
	var events []*domain.UnlockEvent

	for rows.Next() {
		var e domain.UnlockEvent

		err := rows.Scan(&e.Token, &e.TimestampMs, &e.AmountUSD, &e.Shortable)
		if err != nil {
			return nil, fmt.Errorf("scan unlock event row: %w", err)
		}

		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unlock event rows: %w", err)
	}

	return events, nil
}
