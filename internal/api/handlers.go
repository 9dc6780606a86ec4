package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"token-unlock-lab/internal/backtest"
	"token-unlock-lab/internal/domain"
	"token-unlock-lab/internal/observability"
	"token-unlock-lab/internal/storage"
)

// unlockEventBody is the wire shape of one unlock event.
type unlockEventBody struct {
	Token       string  `json:"token"`
	TimestampMs int64   `json:"timestampMs"`
	AmountUSD   float64 `json:"amountUsd"`
	Shortable   bool    `json:"shortable"`
}

func toUnlockBodies(events []*domain.UnlockEvent) []unlockEventBody {
	out := make([]unlockEventBody, 0, len(events))
	for _, e := range events {
		out = append(out, unlockEventBody{
			Token:       e.Token,
			TimestampMs: e.TimestampMs,
			AmountUSD:   e.AmountUSD,
			Shortable:   e.Shortable,
		})
	}
	return out
}

// handleListUnlocks serves the unlock listing. When a provider credential
// is configured it attempts one remote fetch; a failed or empty fetch
// falls back to the local store. Remote data replaces local data for this
// response only, it is never merged or cached.
func (s *Server) handleListUnlocks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.fetcher != nil && s.fetcher.Configured() {
		start := time.Now()
		remote, err := s.fetcher.FetchUnlocks(ctx)
		elapsed := time.Since(start).Seconds()

		switch {
		case err != nil:
			s.logger.Printf("provider fetch failed, serving local data: %v", err)
			observability.RecordProviderFetch(observability.FetchOutcomeFailed, elapsed)
		case len(remote) == 0:
			s.logger.Print("provider returned no unlocks, serving local data")
			observability.RecordProviderFetch(observability.FetchOutcomeEmpty, elapsed)
		default:
			observability.RecordProviderFetch(observability.FetchOutcomeOK, elapsed)
			s.writeJSON(w, http.StatusOK, toUnlockBodies(remote))
			return
		}
	} else {
		observability.RecordProviderFetch(observability.FetchOutcomeSkipped, 0)
	}

	local, err := s.unlocks.GetAll(ctx)
	if err != nil {
		s.logger.Printf("load unlock events: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load unlock events")
		return
	}
	s.writeJSON(w, http.StatusOK, toUnlockBodies(local))
}

// handleShortableTokens serves the distinct shortable token symbols.
func (s *Server) handleShortableTokens(w http.ResponseWriter, r *http.Request) {
	tokens, err := s.views.Shortable(r.Context())
	if err != nil {
		s.logger.Printf("load shortable tokens: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load shortable tokens")
		return
	}
	if tokens == nil {
		tokens = []string{}
	}
	s.writeJSON(w, http.StatusOK, tokens)
}

// tokenDetailBody is the wire shape of the token detail view.
type tokenDetailBody struct {
	Token     string            `json:"token"`
	Shortable bool              `json:"shortable"`
	Events    []unlockEventBody `json:"events"`
	Prices    []pricePointBody  `json:"prices"`
}

type pricePointBody struct {
	TimestampMs int64   `json:"timestampMs"`
	Price       float64 `json:"price"`
}

func (s *Server) handleTokenDetail(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")

	detail, err := s.views.Detail(r.Context(), symbol)
	if errors.Is(err, storage.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "unknown token")
		return
	}
	if err != nil {
		s.logger.Printf("load token detail: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load token detail")
		return
	}

	prices := make([]pricePointBody, 0, len(detail.Prices))
	for _, p := range detail.Prices {
		prices = append(prices, pricePointBody{TimestampMs: p.TimestampMs, Price: p.Price})
	}

	s.writeJSON(w, http.StatusOK, tokenDetailBody{
		Token:     detail.Token,
		Shortable: detail.Shortable,
		Events:    toUnlockBodies(detail.Events),
		Prices:    prices,
	})
}

// backtestRequest tolerates non-numeric offsets: they coerce to 0 rather
// than rejecting the request.
type backtestRequest struct {
	Token       string          `json:"token"`
	HoursBefore json.RawMessage `json:"hoursBefore"`
	HoursAfter  json.RawMessage `json:"hoursAfter"`
}

// coerceHours parses a raw JSON value as a non-negative float, defaulting
// to 0 for absent, non-numeric, or negative values.
func coerceHours(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
		f, err = strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
	}

	if f < 0 {
		return 0
	}
	return f
}

// backtestResponse is the wire shape of a backtest result.
type backtestResponse struct {
	Trades  int     `json:"trades"`
	Wins    int     `json:"wins"`
	Skipped int     `json:"skipped"`
	WinRate float64 `json:"winRate"`
	AvgROI  float64 `json:"avgRoi"`
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	var req backtestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	params := domain.BacktestParams{
		Token:       req.Token,
		HoursBefore: coerceHours(req.HoursBefore),
		HoursAfter:  coerceHours(req.HoursAfter),
	}

	start := time.Now()
	result, err := s.engine.Run(r.Context(), params)
	if errors.Is(err, backtest.ErrMissingToken) {
		s.writeError(w, http.StatusBadRequest, "token is required")
		return
	}
	if err != nil {
		s.logger.Printf("backtest failed: %v", err)
		s.writeError(w, http.StatusInternalServerError, "backtest failed")
		return
	}

	observability.RecordBacktest(result.Trades, result.Skipped, time.Since(start).Seconds())

	s.writeJSON(w, http.StatusOK, backtestResponse{
		Trades:  result.Trades,
		Wins:    result.Wins,
		Skipped: result.Skipped,
		WinRate: result.WinRate,
		AvgROI:  result.AvgROI,
	})
}
