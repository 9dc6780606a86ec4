// Package fixtures loads the static historical dataset into the stores at
// process start. Data is loaded once and never mutated afterwards.
package fixtures

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"token-unlock-lab/internal/domain"
	"token-unlock-lab/internal/storage"
)

// File names expected inside a fixture directory.
const (
	PricesFile  = "prices.json"
	UnlocksFile = "unlocks.json"
)

// pricePointFixture is the on-disk shape of one price sample.
type pricePointFixture struct {
	TimestampMs int64   `json:"timestampMs"`
	Price       float64 `json:"price"`
}

// unlockFixture is the on-disk shape of one unlock event.
type unlockFixture struct {
	Token       string  `json:"token"`
	TimestampMs int64   `json:"timestampMs"`
	AmountUSD   float64 `json:"amountUsd"`
	Shortable   bool    `json:"shortable"`
}

// LoadDir reads prices.json (token -> ordered samples) and unlocks.json
// from dir and inserts them into the stores. Series are assumed sorted
// ascending by timestamp; this is not re-validated.
func LoadDir(ctx context.Context, dir string, prices storage.PriceSeriesStore, unlocks storage.UnlockEventStore) error {
	if err := loadPrices(ctx, filepath.Join(dir, PricesFile), prices); err != nil {
		return err
	}
	return loadUnlocks(ctx, filepath.Join(dir, UnlocksFile), unlocks)
}

func loadPrices(ctx context.Context, path string, store storage.PriceSeriesStore) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read price fixtures: %w", err)
	}

	var series map[string][]pricePointFixture
	if err := json.Unmarshal(data, &series); err != nil {
		return fmt.Errorf("parse price fixtures: %w", err)
	}

	var points []*domain.PricePoint
	for token, samples := range series {
		for _, s := range samples {
			points = append(points, &domain.PricePoint{
				Token:       token,
				TimestampMs: s.TimestampMs,
				Price:       s.Price,
			})
		}
	}

	if err := store.InsertBulk(ctx, points); err != nil {
		return fmt.Errorf("insert price fixtures: %w", err)
	}
	return nil
}

func loadUnlocks(ctx context.Context, path string, store storage.UnlockEventStore) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read unlock fixtures: %w", err)
	}

	var records []unlockFixture
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parse unlock fixtures: %w", err)
	}

	events := make([]*domain.UnlockEvent, 0, len(records))
	for _, r := range records {
		events = append(events, &domain.UnlockEvent{
			Token:       r.Token,
			TimestampMs: r.TimestampMs,
			AmountUSD:   r.AmountUSD,
			Shortable:   r.Shortable,
		})
	}

	if err := store.InsertBulk(ctx, events); err != nil {
		return fmt.Errorf("insert unlock fixtures: %w", err)
	}
	return nil
}

// LoadSample populates the stores with a small built-in dataset, used when
// no fixture directory is configured.
func LoadSample(ctx context.Context, prices storage.PriceSeriesStore, unlocks storage.UnlockEventStore) error {
	const (
		jan1 = int64(1704067200000) // 2024-01-01 00:00:00 UTC
		hour = int64(3600000)
	)

	points := []*domain.PricePoint{
		{Token: "ARB", TimestampMs: jan1, Price: 1.52},
		{Token: "ARB", TimestampMs: jan1 + 6*hour, Price: 1.48},
		{Token: "ARB", TimestampMs: jan1 + 12*hour, Price: 1.44},
		{Token: "ARB", TimestampMs: jan1 + 24*hour, Price: 1.39},
		{Token: "ARB", TimestampMs: jan1 + 36*hour, Price: 1.46},
		{Token: "OP", TimestampMs: jan1, Price: 3.01},
		{Token: "OP", TimestampMs: jan1 + 12*hour, Price: 3.12},
		{Token: "OP", TimestampMs: jan1 + 24*hour, Price: 2.95},
		{Token: "OP", TimestampMs: jan1 + 36*hour, Price: 3.05},
		{Token: "APT", TimestampMs: jan1, Price: 9.40},
		{Token: "APT", TimestampMs: jan1 + 24*hour, Price: 8.90},
	}

	events := []*domain.UnlockEvent{
		{Token: "ARB", TimestampMs: jan1 + 24*hour, AmountUSD: 92_000_000, Shortable: true},
		{Token: "OP", TimestampMs: jan1 + 24*hour, AmountUSD: 24_000_000, Shortable: true},
		{Token: "APT", TimestampMs: jan1 + 24*hour, AmountUSD: 50_000_000, Shortable: false},
	}

	if err := prices.InsertBulk(ctx, points); err != nil {
		return fmt.Errorf("insert sample prices: %w", err)
	}
	if err := unlocks.InsertBulk(ctx, events); err != nil {
		return fmt.Errorf("insert sample unlocks: %w", err)
	}
	return nil
}
