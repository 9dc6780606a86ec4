package backtest

import (
	"context"
	"math"
	"testing"

	"token-unlock-lab/internal/domain"
	"token-unlock-lab/internal/storage/memory"
)

const hourMs = 3600_000

// t0 is an arbitrary fixed origin for test series.
const t0 = int64(1704067200000) // 2024-01-01 00:00:00 UTC

func newTestEngine(t *testing.T, points []*domain.PricePoint, events []*domain.UnlockEvent) *Engine {
	t.Helper()

	ctx := context.Background()
	prices := memory.NewPriceSeriesStore()
	unlocks := memory.NewUnlockEventStore()

	if err := prices.InsertBulk(ctx, points); err != nil {
		t.Fatalf("insert prices: %v", err)
	}
	if err := unlocks.InsertBulk(ctx, events); err != nil {
		t.Fatalf("insert unlocks: %v", err)
	}

	return NewEngine(unlocks, prices)
}

func TestRun_MissingToken(t *testing.T) {
	engine := newTestEngine(t, nil, nil)

	_, err := engine.Run(context.Background(), domain.BacktestParams{})
	if err != ErrMissingToken {
		t.Errorf("expected ErrMissingToken, got %v", err)
	}
}

func TestRun_NoEvents(t *testing.T) {
	engine := newTestEngine(t,
		[]*domain.PricePoint{{Token: "AAA", TimestampMs: t0, Price: 10.0}},
		nil,
	)

	result, err := engine.Run(context.Background(), domain.BacktestParams{Token: "AAA", HoursBefore: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Trades != 0 || result.WinRate != 0 || result.AvgROI != 0 {
		t.Errorf("expected zero result, got %+v", result)
	}
}

func TestRun_SingleWinningTrade(t *testing.T) {
	// Series: (t0, 10.0), (t0+1h, 12.0); one unlock at t0+1h.
	// buy 1h before -> t0 (10.0); sell at the unlock -> 12.0; roi = 0.2.
	engine := newTestEngine(t,
		[]*domain.PricePoint{
			{Token: "AAA", TimestampMs: t0, Price: 10.0},
			{Token: "AAA", TimestampMs: t0 + hourMs, Price: 12.0},
		},
		[]*domain.UnlockEvent{{Token: "AAA", TimestampMs: t0 + hourMs}},
	)

	result, err := engine.Run(context.Background(), domain.BacktestParams{
		Token: "AAA", HoursBefore: 1, HoursAfter: 0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Trades != 1 {
		t.Fatalf("expected 1 trade, got %d", result.Trades)
	}
	if result.WinRate != 1.0 {
		t.Errorf("expected win rate 1.0, got %f", result.WinRate)
	}
	if math.Abs(result.AvgROI-0.2) > 1e-9 {
		t.Errorf("expected avg roi 0.2, got %f", result.AvgROI)
	}
}

func TestRun_BuyBeforeSeriesSkipsEvent(t *testing.T) {
	// Same series, but buying 2h before the unlock lands before the first
	// sample: absent buy price, event skipped entirely.
	engine := newTestEngine(t,
		[]*domain.PricePoint{
			{Token: "AAA", TimestampMs: t0, Price: 10.0},
			{Token: "AAA", TimestampMs: t0 + hourMs, Price: 12.0},
		},
		[]*domain.UnlockEvent{{Token: "AAA", TimestampMs: t0 + hourMs}},
	)

	result, err := engine.Run(context.Background(), domain.BacktestParams{
		Token: "AAA", HoursBefore: 2, HoursAfter: 0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Trades != 0 || result.WinRate != 0 || result.AvgROI != 0 {
		t.Errorf("expected zero result, got %+v", result)
	}
	if result.Skipped != 1 {
		t.Errorf("expected 1 skipped event, got %d", result.Skipped)
	}
}

func TestRun_AllEventsMissingCoverage(t *testing.T) {
	// Token has events but no price series at all.
	engine := newTestEngine(t,
		nil,
		[]*domain.UnlockEvent{
			{Token: "AAA", TimestampMs: t0},
			{Token: "AAA", TimestampMs: t0 + hourMs},
		},
	)

	result, err := engine.Run(context.Background(), domain.BacktestParams{Token: "AAA"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Trades != 0 || result.WinRate != 0 || result.AvgROI != 0 {
		t.Errorf("expected zero result, got %+v", result)
	}
	if result.Skipped != 2 {
		t.Errorf("expected 2 skipped events, got %d", result.Skipped)
	}
}

func TestRun_ZeroBuyPriceSkipped(t *testing.T) {
	// A zero buy price would divide by zero; the event is treated as
	// missing data instead.
	engine := newTestEngine(t,
		[]*domain.PricePoint{
			{Token: "AAA", TimestampMs: t0, Price: 0.0},
			{Token: "AAA", TimestampMs: t0 + hourMs, Price: 12.0},
		},
		[]*domain.UnlockEvent{{Token: "AAA", TimestampMs: t0 + hourMs}},
	)

	result, err := engine.Run(context.Background(), domain.BacktestParams{
		Token: "AAA", HoursBefore: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Trades != 0 {
		t.Errorf("expected no trades, got %d", result.Trades)
	}
	if result.Skipped != 1 {
		t.Errorf("expected 1 skipped event, got %d", result.Skipped)
	}
}

func TestRun_ZeroROIIsNotAWin(t *testing.T) {
	engine := newTestEngine(t,
		[]*domain.PricePoint{
			{Token: "AAA", TimestampMs: t0, Price: 10.0},
			{Token: "AAA", TimestampMs: t0 + hourMs, Price: 10.0},
		},
		[]*domain.UnlockEvent{{Token: "AAA", TimestampMs: t0 + hourMs}},
	)

	result, err := engine.Run(context.Background(), domain.BacktestParams{
		Token: "AAA", HoursBefore: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Trades != 1 {
		t.Fatalf("expected 1 trade, got %d", result.Trades)
	}
	if result.Wins != 0 || result.WinRate != 0 {
		t.Errorf("roi of exactly 0 must not count as a win, got %+v", result)
	}
}

func TestRun_AggregatesAcrossEvents(t *testing.T) {
	// Two unlocks: one +20%, one -10%.
	engine := newTestEngine(t,
		[]*domain.PricePoint{
			{Token: "AAA", TimestampMs: t0, Price: 10.0},
			{Token: "AAA", TimestampMs: t0 + hourMs, Price: 12.0},
			{Token: "AAA", TimestampMs: t0 + 2*hourMs, Price: 20.0},
			{Token: "AAA", TimestampMs: t0 + 3*hourMs, Price: 18.0},
		},
		[]*domain.UnlockEvent{
			{Token: "AAA", TimestampMs: t0 + hourMs},
			{Token: "AAA", TimestampMs: t0 + 3*hourMs},
		},
	)

	result, err := engine.Run(context.Background(), domain.BacktestParams{
		Token: "AAA", HoursBefore: 1, HoursAfter: 0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Trades != 2 {
		t.Fatalf("expected 2 trades, got %d", result.Trades)
	}
	if result.Wins != 1 {
		t.Errorf("expected 1 win, got %d", result.Wins)
	}
	if result.WinRate != 0.5 {
		t.Errorf("expected win rate 0.5, got %f", result.WinRate)
	}
	// roi1 = 0.2, roi2 = (18-20)/20 = -0.1, avg = 0.05
	if math.Abs(result.AvgROI-0.05) > 1e-9 {
		t.Errorf("expected avg roi 0.05, got %f", result.AvgROI)
	}
	if len(result.Outcomes) != 2 {
		t.Errorf("expected 2 outcomes, got %d", len(result.Outcomes))
	}
}

func TestRun_FractionalHours(t *testing.T) {
	// 0.5 hours before the unlock still resolves as-of to the t0 sample.
	engine := newTestEngine(t,
		[]*domain.PricePoint{
			{Token: "AAA", TimestampMs: t0, Price: 10.0},
			{Token: "AAA", TimestampMs: t0 + hourMs, Price: 11.0},
		},
		[]*domain.UnlockEvent{{Token: "AAA", TimestampMs: t0 + hourMs}},
	)

	result, err := engine.Run(context.Background(), domain.BacktestParams{
		Token: "AAA", HoursBefore: 0.5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Trades != 1 {
		t.Fatalf("expected 1 trade, got %d", result.Trades)
	}
	if math.Abs(result.AvgROI-0.1) > 1e-9 {
		t.Errorf("expected avg roi 0.1, got %f", result.AvgROI)
	}
}

func TestRun_Deterministic(t *testing.T) {
	engine := newTestEngine(t,
		[]*domain.PricePoint{
			{Token: "AAA", TimestampMs: t0, Price: 10.0},
			{Token: "AAA", TimestampMs: t0 + hourMs, Price: 12.0},
		},
		[]*domain.UnlockEvent{{Token: "AAA", TimestampMs: t0 + hourMs}},
	)

	params := domain.BacktestParams{Token: "AAA", HoursBefore: 1}

	first, err := engine.Run(context.Background(), params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := engine.Run(context.Background(), params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.Trades != second.Trades || first.WinRate != second.WinRate || first.AvgROI != second.AvgROI {
		t.Errorf("expected identical results, got %+v then %+v", first, second)
	}
}
