// Package api exposes the analytical engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"token-unlock-lab/internal/backtest"
	"token-unlock-lab/internal/domain"
	"token-unlock-lab/internal/observability"
	"token-unlock-lab/internal/storage"
	"token-unlock-lab/internal/tokens"
)

// UnlockFetcher fetches remote unlock events. *provider.Client implements it.
type UnlockFetcher interface {
	Configured() bool
	FetchUnlocks(ctx context.Context) ([]*domain.UnlockEvent, error)
}

// Options configures Server.
type Options struct {
	UnlockStore storage.UnlockEventStore
	PriceStore  storage.PriceSeriesStore
	Fetcher     UnlockFetcher // nil when no provider is configured
	StaticDir   string        // empty disables static asset serving
	Logger      *log.Logger
}

// Server holds the HTTP handlers and their collaborators. All stores are
// read-only once the server starts; no synchronization is needed beyond
// what the stores provide.
type Server struct {
	unlocks storage.UnlockEventStore
	views   *tokens.Service
	engine  *backtest.Engine
	fetcher UnlockFetcher
	logger  *log.Logger
	mux     *http.ServeMux
}

// NewServer creates the API server and registers all routes.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "[api] ", log.LstdFlags)
	}

	s := &Server{
		unlocks: opts.UnlockStore,
		views:   tokens.NewService(opts.UnlockStore, opts.PriceStore),
		engine:  backtest.NewEngine(opts.UnlockStore, opts.PriceStore),
		fetcher: opts.Fetcher,
		logger:  logger,
		mux:     http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /api/unlocks", s.instrument("unlocks", s.handleListUnlocks))
	s.mux.HandleFunc("GET /api/tokens/shortable", s.instrument("shortable", s.handleShortableTokens))
	s.mux.HandleFunc("GET /api/tokens/{symbol}", s.instrument("token_detail", s.handleTokenDetail))
	s.mux.HandleFunc("POST /api/backtest", s.instrument("backtest", s.handleBacktest))

	s.mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	s.mux.Handle("GET /metrics", observability.Handler())

	if opts.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(opts.StaticDir)))
	}

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument wraps a handler with request metrics.
func (s *Server) instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		observability.RecordRequest(route, strconv.Itoa(rec.status), time.Since(start).Seconds())
	}
}

// errorResponse is the structured error body for all failures.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v as the response body.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Printf("encode response: %v", err)
	}
}

// writeError sends a structured error object with message text.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}
