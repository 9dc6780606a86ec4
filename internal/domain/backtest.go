package domain

// BacktestParams parameterizes one backtest run: buy HoursBefore hours
// before each unlock of Token, sell HoursAfter hours after it.
type BacktestParams struct {
	Token       string
	HoursBefore float64
	HoursAfter  float64
}

// TradeOutcome is the result of replaying a single unlock event.
type TradeOutcome struct {
	EventTimestampMs int64
	BuyTimestampMs   int64
	SellTimestampMs  int64
	BuyPrice         float64
	SellPrice        float64
	ROI              float64 // (sell - buy) / buy
}

// BacktestResult holds aggregate statistics over all replayed events.
// WinRate and AvgROI are 0 when Trades is 0.
type BacktestResult struct {
	Trades   int     // events with both prices available
	Wins     int     // trades with ROI strictly greater than 0
	Skipped  int     // events dropped for missing price coverage
	WinRate  float64 // Wins / Trades, in [0, 1]
	AvgROI   float64 // mean ROI across trades
	Outcomes []*TradeOutcome
}
