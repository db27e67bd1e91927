// Package main renders persisted backtest results as CSV or JSON,
// without re-running any strategy.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/reporting"
	pgstore "backtest-lab/internal/storage/postgres"
)

func main() {
	postgresDSN := flag.String("postgres-dsn", "", "Postgres DSN (required)")
	seriesName := flag.String("series", "", "Restrict the report to one series")
	outputJSON := flag.Bool("json", false, "Output raw run results as JSON")
	csvOut := flag.String("csv-out", "", "Write per-strategy CSV to file instead of stdout")

	flag.Parse()

	logger := log.New(os.Stderr, "[report] ", log.LstdFlags)

	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}

	ctx := context.Background()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()

	store := pgstore.NewRunResultStore(pool)

	var results []*domain.RunResult
	if *seriesName != "" {
		results, err = store.GetBySeries(ctx, *seriesName)
	} else {
		results, err = store.GetAll(ctx)
	}
	if err != nil {
		logger.Fatalf("load run results: %v", err)
	}
	if len(results) == 0 {
		logger.Fatal("no run results found")
	}

	if *outputJSON {
		out, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			logger.Fatalf("marshal results: %v", err)
		}
		fmt.Println(string(out))
		return
	}

	rows := make([]reporting.StatementRow, 0, len(results))
	for _, r := range results {
		rows = append(rows, reporting.StatementRow{
			StrategyName:    r.StrategyName,
			SeriesName:      r.SeriesName,
			Positions:       r.PositionCount,
			Wins:            r.Wins,
			Losses:          r.Losses,
			BreakEvens:      r.BreakEvens,
			TotalProfitLoss: r.TotalProfitLoss,
		})
	}
	csv := reporting.RenderCSV(rows)

	if *csvOut != "" {
		if err := os.WriteFile(*csvOut, []byte(csv), 0o644); err != nil {
			logger.Fatalf("write csv: %v", err)
		}
		logger.Printf("wrote %d rows to %s", len(rows), *csvOut)
		return
	}
	fmt.Print(csv)
}
