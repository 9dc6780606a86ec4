// Package main runs a single backtest from fixture data and prints the
// result as text, JSON, or CSV.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"token-unlock-lab/internal/backtest"
	"token-unlock-lab/internal/domain"
	"token-unlock-lab/internal/fixtures"
	"token-unlock-lab/internal/reporting"
	"token-unlock-lab/internal/storage/memory"
)

func main() {
	token := flag.String("token", "", "Token symbol to backtest (required)")
	hoursBefore := flag.Float64("hours-before", 1, "Hours before each unlock to buy")
	hoursAfter := flag.Float64("hours-after", 1, "Hours after each unlock to sell")
	fixturesDir := flag.String("fixtures", "", "Directory with prices.json and unlocks.json (empty uses built-in sample data)")
	asJSON := flag.Bool("json", false, "Print the result as JSON")
	asCSV := flag.Bool("csv", false, "Print per-trade rows as CSV")
	flag.Parse()

	if *token == "" {
		fmt.Fprintln(os.Stderr, "Error: --token is required")
		flag.Usage()
		os.Exit(1)
	}

	ctx := context.Background()

	prices := memory.NewPriceSeriesStore()
	unlocks := memory.NewUnlockEventStore()

	var err error
	if *fixturesDir == "" {
		err = fixtures.LoadSample(ctx, prices, unlocks)
	} else {
		err = fixtures.LoadDir(ctx, *fixturesDir, prices, unlocks)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading fixtures: %v\n", err)
		os.Exit(1)
	}

	engine := backtest.NewEngine(unlocks, prices)
	result, err := engine.Run(ctx, domain.BacktestParams{
		Token:       *token,
		HoursBefore: *hoursBefore,
		HoursAfter:  *hoursAfter,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running backtest: %v\n", err)
		os.Exit(1)
	}

	switch {
	case *asJSON:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding result: %v\n", err)
			os.Exit(1)
		}
	case *asCSV:
		fmt.Print(reporting.RenderCSV(*token, result))
	default:
		printSummary(*token, result)
	}
}

func printSummary(token string, result *domain.BacktestResult) {
	fmt.Printf("Backtest: %s\n", token)
	fmt.Printf("  Trades:   %d\n", result.Trades)
	fmt.Printf("  Wins:     %d\n", result.Wins)
	fmt.Printf("  Skipped:  %d\n", result.Skipped)
	fmt.Printf("  Win rate: %.4f\n", result.WinRate)
	fmt.Printf("  Avg ROI:  %.4f\n", result.AvgROI)
	for _, o := range result.Outcomes {
		fmt.Printf("  event=%d buy=%.6f sell=%.6f roi=%.4f\n",
			o.EventTimestampMs, o.BuyPrice, o.SellPrice, o.ROI)
	}
}
