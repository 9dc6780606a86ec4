package clickhouse

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"token-unlock-lab/internal/domain"
	"token-unlock-lab/internal/storage"
)

// PriceSeriesStore implements storage.PriceSeriesStore using ClickHouse.
//
// MergeTree does not preserve insert order for rows sharing a sort key, so
// each point carries a per-process sequence number. Reads order by
// (timestamp_ms, seq), which keeps the "later insertion wins" rule for
// samples at the same instant. The series is loaded once per process, so a
// process-local counter is sufficient.
type PriceSeriesStore struct {
	conn *Conn
	seq  atomic.Uint64
}

// NewPriceSeriesStore creates a new PriceSeriesStore.
func NewPriceSeriesStore(conn *Conn) *PriceSeriesStore {
	return &PriceSeriesStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceSeriesStore = (*PriceSeriesStore)(nil)

// InsertBulk adds multiple points. Duplicate timestamps are allowed.
func (s *PriceSeriesStore) InsertBulk(ctx context.Context, points []*domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	for _, p := range points {
		if p == nil || p.Token == "" {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO price_series (token, timestamp_ms, seq, price)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		err = batch.Append(p.Token, uint64(p.TimestampMs), s.seq.Add(1), p.Price)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByToken retrieves all points for a token, ordered by timestamp ASC.
func (s *PriceSeriesStore) GetByToken(ctx context.Context, token string) ([]*domain.PricePoint, error) {
	query := `
		SELECT token, timestamp_ms, price
		FROM price_series
		WHERE token = ?
		ORDER BY timestamp_ms ASC, seq ASC
	`

	rows, err := s.conn.Query(ctx, query, token)
	if err != nil {
		return nil, fmt.Errorf("query by token: %w", err)
	}
	defer rows.Close()

	return scanPricePoints(rows)
}

// GetByTimeRange retrieves points for a token within [start, end] (inclusive).
func (s *PriceSeriesStore) GetByTimeRange(ctx context.Context, token string, start, end int64) ([]*domain.PricePoint, error) {
	query := `
		SELECT token, timestamp_ms, price
		FROM price_series
		WHERE token = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC, seq ASC
	`

	rows, err := s.conn.Query(ctx, query, token, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanPricePoints(rows)
}

// scanPricePoints scans rows into a slice of PricePoint.
func scanPricePoints(rows driver.Rows) ([]*domain.PricePoint, error) {
	var points []*domain.PricePoint

	for rows.Next() {
		var (
			p           domain.PricePoint
			timestampMs uint64
		)

		if err := rows.Scan(&p.Token, &timestampMs, &p.Price); err != nil {
			return nil, fmt.Errorf("scan price point row: %w", err)
		}
		p.TimestampMs = int64(timestampMs)

		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price point rows: %w", err)
	}

	return points, nil
}
