package domain

// PricePoint is one sample in a token's price history.
// Corresponds to price_series table in ClickHouse.
type PricePoint struct {
	Token       string  // token symbol
	TimestampMs int64   // Unix timestamp in milliseconds
	Price       float64 // price at this point, in USD
}
