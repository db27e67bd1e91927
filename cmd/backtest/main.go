package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"backtest-lab/internal/backtest"
	"backtest-lab/internal/config"
	"backtest-lab/internal/domain"
	"backtest-lab/internal/marketdata"
	"backtest-lab/internal/orchestrator"
	"backtest-lab/internal/reporting"
	"backtest-lab/internal/storage"
	chstore "backtest-lab/internal/storage/clickhouse"
	"backtest-lab/internal/storage/memory"
	"backtest-lab/internal/storage/migrations"
	pgstore "backtest-lab/internal/storage/postgres"
	"backtest-lab/internal/strategy"
)

func main() {
	configPath := flag.String("config", "", "Path to run config YAML (required)")
	outputJSON := flag.Bool("json", false, "Output aggregate report as JSON")
	csvOut := flag.String("csv-out", "", "Write per-strategy results CSV to file")
	persistResults := flag.Bool("persist", false, "Persist run results to storage")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

	if *configPath == "" {
		logger.Fatal("--config is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	// Create stores
	var runResultStore storage.RunResultStore = memory.NewRunResultStore()
	var tradeLogStore storage.TradeLogStore = memory.NewTradeLogStore()
	var barStore storage.BarStore = memory.NewBarStore()

	if cfg.Storage.Backend == "postgres" {
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("run postgres migrations: %v", err)
		}
		runResultStore = pgstore.NewRunResultStore(pool)
		tradeLogStore = pgstore.NewTradeLogStore(pool)
	}
	if cfg.Storage.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			logger.Fatalf("connect to clickhouse: %v", err)
		}
		defer conn.Close()

		barStore = chstore.NewBarStore(conn)
	}

	// Load series: CSV file when configured, stored bars otherwise
	var series *domain.BaseBarSeries
	if cfg.Series.CSVFile != "" {
		series, err = marketdata.LoadCSV(cfg.Series.Name, cfg.Series.CSVFile)
	} else {
		series, err = marketdata.LoadFromStore(ctx, barStore, cfg.Series.Name)
	}
	if err != nil {
		logger.Fatalf("load series: %v", err)
	}

	// Build strategies
	strategies := make([]strategy.Strategy, 0, len(cfg.Strategies))
	for i, sc := range cfg.Strategies {
		s, err := strategy.FromConfig(sc, series)
		if err != nil {
			logger.Fatalf("strategy %d: %v", i, err)
		}
		strategies = append(strategies, s)
	}

	transactionCost, err := cfg.TransactionCostModel()
	if err != nil {
		logger.Fatalf("transaction cost: %v", err)
	}
	holdingCost, err := cfg.HoldingCostModel()
	if err != nil {
		logger.Fatalf("holding cost: %v", err)
	}

	executor, err := backtest.NewExecutor(backtest.ExecutorOptions{
		Series:          series,
		NewModel:        cfg.NewExecutionModel,
		TransactionCost: transactionCost,
		HoldingCost:     holdingCost,
		StartingSide:    domain.Side(cfg.Run.StartingSide),
		Amount:          cfg.Run.Amount,
		MaxParallel:     cfg.Run.MaxParallel,
		Verbose:         cfg.Run.Verbose,
	})
	if err != nil {
		logger.Fatalf("create executor: %v", err)
	}

	opts := orchestrator.Options{
		Series:     series,
		Executor:   executor,
		StartIndex: cfg.Run.StartIndex,
		EndIndex:   cfg.Run.EndIndex,
		Verbose:    cfg.Run.Verbose,
	}
	if *persistResults {
		opts.RunResultStore = runResultStore
		opts.TradeLogStore = tradeLogStore
	}

	logger.Printf("Running backtest: series=%s strategies=%d model=%s",
		cfg.Series.Name, len(strategies), cfg.Execution.Model)

	result, err := orchestrator.New(opts).Run(ctx, strategies)
	if err != nil {
		logger.Fatalf("backtest failed: %v", err)
	}
	for _, msg := range result.Errors {
		logger.Printf("warning: %s", msg)
	}

	// Output result
	if *outputJSON {
		output, _ := json.MarshalIndent(result.Aggregate, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Print(reporting.RenderMarkdown(result.Aggregate))
	}
	if *csvOut != "" {
		if err := os.WriteFile(*csvOut, []byte(reporting.RenderCSV(result.Aggregate.Rows)), 0o644); err != nil {
			logger.Fatalf("write csv: %v", err)
		}
		logger.Printf("Wrote %s", *csvOut)
	}
}
