// Package main runs the unlock analytics HTTP server: storage, fixture
// loading, the optional remote unlock provider, and the JSON API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"token-unlock-lab/internal/api"
	"token-unlock-lab/internal/fixtures"
	"token-unlock-lab/internal/provider"
	"token-unlock-lab/internal/storage"
	chstore "token-unlock-lab/internal/storage/clickhouse"
	"token-unlock-lab/internal/storage/memory"
	"token-unlock-lab/internal/storage/migrations"
	pgstore "token-unlock-lab/internal/storage/postgres"
)

// stores holds the two storage backends the server needs.
type stores struct {
	unlocks storage.UnlockEventStore
	prices  storage.PriceSeriesStore
}

func main() {
	// Load .env if present; system env vars take precedence.
	_ = godotenv.Load()

	addr := flag.String("addr", envOr("SERVER_ADDR", ":8080"), "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	fixturesDir := flag.String("fixtures", os.Getenv("FIXTURES_DIR"), "Directory with prices.json and unlocks.json (empty loads built-in sample data)")
	staticDir := flag.String("static", envOr("STATIC_DIR", "web"), "Directory with static assets (empty disables)")
	providerURL := flag.String("provider-url", os.Getenv("UNLOCKS_API_URL"), "Remote unlock provider base URL")
	providerTimeout := flag.Duration("provider-timeout", 10*time.Second, "Remote unlock provider request timeout")

	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	if err := seedFixtures(ctx, *useMemory, *fixturesDir, st, logger); err != nil {
		logger.Fatalf("Failed to load fixtures: %v", err)
	}

	var fetcher api.UnlockFetcher
	if apiKey := os.Getenv("UNLOCKS_API_KEY"); apiKey != "" && *providerURL != "" {
		fetcher = provider.NewClient(*providerURL, apiKey, provider.WithTimeout(*providerTimeout))
		logger.Printf("Remote unlock provider enabled: %s", *providerURL)
	} else {
		logger.Println("Remote unlock provider not configured, serving local data only")
	}

	server := api.NewServer(api.Options{
		UnlockStore: st.unlocks,
		PriceStore:  st.prices,
		Fetcher:     fetcher,
		StaticDir:   *staticDir,
		Logger:      logger,
	})

	httpServer := &http.Server{
		Addr:         *addr,
		Handler:      server.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Shutdown error: %v", err)
		}
		cancel()
	}()

	logger.Printf("Listening on %s", *addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// envOr returns the env var value or a default when unset.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// createStores creates the storage backends and runs migrations.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*stores, func(), error) {
	if useMemory {
		st := &stores{
			unlocks: memory.NewUnlockEventStore(),
			prices:  memory.NewPriceSeriesStore(),
		}
		return st, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	conn, err := chstore.NewConn(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
		conn.Close()
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	st := &stores{
		unlocks: pgstore.NewUnlockEventStore(pool),
		prices:  chstore.NewPriceSeriesStore(conn),
	}

	cleanup := func() {
		conn.Close()
		pool.Close()
	}

	return st, cleanup, nil
}

// seedFixtures seeds in-memory stores from a fixture directory, or with
// the built-in sample set when no directory is given. Persistent backends
// keep their data across restarts; the stores are append-only, so seeding
// them on every start would duplicate every event. They are left untouched.
func seedFixtures(ctx context.Context, useMemory bool, dir string, st *stores, logger *log.Logger) error {
	if !useMemory {
		logger.Println("Persistent storage in use, skipping fixture seeding")
		return nil
	}
	if dir == "" {
		logger.Println("Loading built-in sample fixtures")
		return fixtures.LoadSample(ctx, st.prices, st.unlocks)
	}
	logger.Printf("Loading fixtures from %s", dir)
	return fixtures.LoadDir(ctx, dir, st.prices, st.unlocks)
}
