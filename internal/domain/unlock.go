package domain

// UnlockEvent is a scheduled release of previously locked token supply.
// Corresponds to unlock_events table in PostgreSQL. The collection has no
// uniqueness constraint: one unlock occurrence is one event, and the same
// token may appear many times.
type UnlockEvent struct {
	Token       string  // token symbol
	TimestampMs int64   // Unix timestamp in milliseconds
	AmountUSD   float64 // unlocked supply valued in USD, 0 if unknown
	Shortable   bool    // token is believed borrowable ahead of the unlock
}

// TokenDetail aggregates everything known about one token.
type TokenDetail struct {
	Token     string
	Shortable bool // OR over the token's events
	Events    []*UnlockEvent
	Prices    []*PricePoint // full series, empty if none
}
