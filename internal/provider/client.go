// Package provider fetches scheduled unlock events from the external
// unlock-data API and normalizes them into the canonical event shape.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"token-unlock-lab/internal/domain"
)

// Default configuration values.
const (
	DefaultTimeout   = 10 * time.Second
	DefaultRateBurst = 5
)

// DefaultRateLimit allows one provider call per second on average.
var DefaultRateLimit = rate.Every(time.Second)

// ErrNotConfigured is returned when no API credential is set. It marks the
// "did not attempt" outcome, distinct from a failed or empty fetch.
var ErrNotConfigured = errors.New("unlock provider credential not configured")

// Client calls the external unlock-data provider.
type Client struct {
	baseURL string
	apiKey  string
	http    *resty.Client
	limiter *rate.Limiter
}

// Option configures Client.
type Option func(*Client)

// WithTimeout sets the HTTP timeout for provider calls.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.SetTimeout(d)
	}
}

// WithRateLimit sets the provider call rate limit.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// NewClient creates a provider client. An empty apiKey produces a client
// whose fetches resolve to ErrNotConfigured without any network activity.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	httpClient := resty.New()
	httpClient.SetTimeout(DefaultTimeout)

	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    httpClient,
		limiter: rate.NewLimiter(DefaultRateLimit, DefaultRateBurst),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether a credential is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// unlockRecord is the provider's wire shape for one unlock.
type unlockRecord struct {
	Coin   string   `json:"coin"`
	Date   string   `json:"date"`
	Amount *float64 `json:"amount"`
}

// unlockResponse is the provider's wire envelope.
type unlockResponse struct {
	Data []unlockRecord `json:"data"`
}

// FetchUnlocks performs a single fetch against the provider and maps the
// response into unlock events. No retries: a failed fetch is attempted at
// most once per caller request. The context bounds the call alongside the
// client timeout.
func (c *Client) FetchUnlocks(ctx context.Context) ([]*domain.UnlockEvent, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetHeader("Accept", "application/json").
		Get(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("fetch unlocks: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("fetch unlocks: unexpected status %d", resp.StatusCode())
	}

	var body unlockResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("decode unlocks response: %w", err)
	}

	events := make([]*domain.UnlockEvent, 0, len(body.Data))
	for _, rec := range body.Data {
		e, err := normalizeRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("normalize unlock record: %w", err)
		}
		events = append(events, e)
	}

	return events, nil
}

// normalizeRecord maps one provider record into a canonical UnlockEvent:
// token from the coin identifier, timestamp at midnight UTC of the record's
// date, amount defaulting to 0, shortable always false (the provider
// carries no such signal).
func normalizeRecord(rec unlockRecord) (*domain.UnlockEvent, error) {
	day, err := parseDay(rec.Date)
	if err != nil {
		return nil, err
	}

	var amount float64
	if rec.Amount != nil {
		amount = *rec.Amount
	}

	return &domain.UnlockEvent{
		Token:       rec.Coin,
		TimestampMs: day.UnixMilli(),
		AmountUSD:   amount,
		Shortable:   false,
	}, nil
}

// parseDay parses a provider date and truncates it to midnight UTC.
func parseDay(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}
