// Package main loads bar series from CSV files into bar storage, so
// later backtest runs can read them back without the source files.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"backtest-lab/internal/marketdata"
	"backtest-lab/internal/storage"
	chstore "backtest-lab/internal/storage/clickhouse"
	"backtest-lab/internal/storage/memory"
	"backtest-lab/internal/storage/migrations"
)

func main() {
	csvPath := flag.String("csv", "", "Path to bar CSV file (required)")
	seriesName := flag.String("series", "", "Series name to store bars under (required)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse DSN; empty runs a dry-run against an in-memory store")

	flag.Parse()

	logger := log.New(os.Stderr, "[ingest] ", log.LstdFlags)

	if *csvPath == "" || *seriesName == "" {
		logger.Fatal("--csv and --series are required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	f, err := os.Open(*csvPath)
	if err != nil {
		logger.Fatalf("open csv: %v", err)
	}
	bars, err := marketdata.ReadBars(f)
	f.Close()
	if err != nil {
		logger.Fatalf("read bars: %v", err)
	}
	if len(bars) == 0 {
		logger.Fatal("csv contains no bars")
	}

	var barStore storage.BarStore = memory.NewBarStore()
	if *clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("run clickhouse migrations: %v", err)
		}
		defer conn.Close()
		barStore = chstore.NewBarStore(conn)
	} else {
		logger.Printf("no --clickhouse-dsn given, dry run against in-memory store")
	}

	if err := barStore.InsertBulk(ctx, *seriesName, bars); err != nil {
		logger.Fatalf("insert bars: %v", err)
	}

	logger.Printf("stored %d bars for series %q (%d..%d)",
		len(bars), *seriesName, bars[0].OpenTimeMs, bars[len(bars)-1].OpenTimeMs)
}
