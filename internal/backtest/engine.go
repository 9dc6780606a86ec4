// Package backtest replays unlock events against historical prices to
// estimate whether buying before an unlock and selling after it paid off.
package backtest

import (
	"context"
	"errors"
	"fmt"

	"token-unlock-lab/internal/domain"
	"token-unlock-lab/internal/lookup"
	"token-unlock-lab/internal/storage"
)

const msPerHour = 3600_000

// ErrMissingToken is returned when params carry no token symbol.
var ErrMissingToken = errors.New("token is required")

// Engine runs backtests over the local unlock event collection and the
// price series store. It is deterministic and has no side effects.
type Engine struct {
	unlocks storage.UnlockEventStore
	prices  storage.PriceSeriesStore
}

// NewEngine creates a backtest engine over the given stores.
func NewEngine(unlocks storage.UnlockEventStore, prices storage.PriceSeriesStore) *Engine {
	return &Engine{unlocks: unlocks, prices: prices}
}

// Run replays every unlock event for params.Token: buy HoursBefore hours
// before the unlock, sell HoursAfter hours after it, both resolved with
// as-of lookups. Events with a missing buy or sell price are skipped, not
// counted as losses. A zero buy price is treated the same as a missing one
// so the ROI division is always defined. ROI of exactly 0 is not a win.
func (e *Engine) Run(ctx context.Context, params domain.BacktestParams) (*domain.BacktestResult, error) {
	if params.Token == "" {
		return nil, ErrMissingToken
	}

	events, err := e.unlocks.GetByToken(ctx, params.Token)
	if err != nil {
		return nil, fmt.Errorf("load unlock events: %w", err)
	}

	// One series load per run; each event resolves against the same slice.
	series, err := e.prices.GetByToken(ctx, params.Token)
	if err != nil {
		return nil, fmt.Errorf("load price series: %w", err)
	}

	result := &domain.BacktestResult{}
	var totalROI float64

	for _, event := range events {
		buyTs := event.TimestampMs - int64(params.HoursBefore*msPerHour)
		sellTs := event.TimestampMs + int64(params.HoursAfter*msPerHour)

		buyPrice, err := lookup.PriceAt(buyTs, series)
		if err != nil {
			result.Skipped++
			continue
		}
		sellPrice, err := lookup.PriceAt(sellTs, series)
		if err != nil {
			result.Skipped++
			continue
		}
		if buyPrice == 0 {
			result.Skipped++
			continue
		}

		roi := (sellPrice - buyPrice) / buyPrice

		result.Trades++
		totalROI += roi
		if roi > 0 {
			result.Wins++
		}
		result.Outcomes = append(result.Outcomes, &domain.TradeOutcome{
			EventTimestampMs: event.TimestampMs,
			BuyTimestampMs:   buyTs,
			SellTimestampMs:  sellTs,
			BuyPrice:         buyPrice,
			SellPrice:        sellPrice,
			ROI:              roi,
		})
	}

	if result.Trades > 0 {
		result.WinRate = float64(result.Wins) / float64(result.Trades)
		result.AvgROI = totalROI / float64(result.Trades)
	}

	return result, nil
}
