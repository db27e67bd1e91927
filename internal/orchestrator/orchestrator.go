// Package orchestrator coordinates a full backtest pipeline:
// series loading → parallel execution → persistence → aggregation.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"time"

	"backtest-lab/internal/backtest"
	"backtest-lab/internal/domain"
	"backtest-lab/internal/reporting"
	"backtest-lab/internal/storage"
	"backtest-lab/internal/strategy"
)

// Orchestrator runs strategies over a series and persists the results.
type Orchestrator struct {
	series     domain.BarSeries
	executor   *backtest.Executor
	startIndex *int
	endIndex   *int

	// Stores are optional; nil skips persistence.
	runResultStore storage.RunResultStore
	tradeLogStore  storage.TradeLogStore

	verbose bool
	now     func() time.Time
}

// Options for creating an Orchestrator.
type Options struct {
	Series   domain.BarSeries
	Executor *backtest.Executor

	// Optional persistence
	RunResultStore storage.RunResultStore
	TradeLogStore  storage.TradeLogStore

	// Optional run range; nil means the series bounds.
	StartIndex *int
	EndIndex   *int

	Verbose bool
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	return &Orchestrator{
		series:         opts.Series,
		executor:       opts.Executor,
		startIndex:     opts.StartIndex,
		endIndex:       opts.EndIndex,
		runResultStore: opts.RunResultStore,
		tradeLogStore:  opts.TradeLogStore,
		verbose:        opts.Verbose,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock, used for created_at timestamps.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// Result contains the outcome of one orchestrator execution.
type Result struct {
	Report    *backtest.Report
	Aggregate *reporting.AggregateReport
	RunsSaved int
	Errors    []string
}

// Run executes all strategies, persists results and aggregates them.
// Phases:
//  1. Execute strategies in parallel
//  2. Persist run results and trade logs
//  3. Aggregate statements
//
// A persistence failure for one run is collected, not fatal; the
// aggregate is still produced from all successful runs.
func (o *Orchestrator) Run(ctx context.Context, strategies []strategy.Strategy) (*Result, error) {
	result := &Result{}

	startIndex := o.series.BeginIndex()
	if o.startIndex != nil {
		startIndex = *o.startIndex
	}
	endIndex := o.series.EndIndex()
	if o.endIndex != nil {
		endIndex = *o.endIndex
	}

	o.log("Phase 1: Running %d strategies over %q [%d, %d]...",
		len(strategies), o.series.Name(), startIndex, endIndex)
	report, err := o.executor.RunRange(ctx, strategies, startIndex, endIndex)
	if err != nil {
		return nil, fmt.Errorf("phase 1 (execution) failed: %w", err)
	}
	result.Report = report
	o.log("  Finished %d runs in %s", len(report.Runs), report.Runtime.Total)

	o.log("Phase 2: Persisting results...")
	saved, persistErrors := o.persist(ctx, report)
	result.RunsSaved = saved
	result.Errors = append(result.Errors, persistErrors...)
	o.log("  Saved %d runs (%d errors)", saved, len(persistErrors))

	o.log("Phase 3: Aggregating statements...")
	aggregator := reporting.NewAggregator().WithClock(o.now)
	result.Aggregate = aggregator.Aggregate(report.Statements())
	o.log("  Aggregated %d positions across %d strategies",
		result.Aggregate.TotalPositions, result.Aggregate.StrategyCount)

	return result, nil
}

func (o *Orchestrator) persist(ctx context.Context, report *backtest.Report) (int, []string) {
	if o.runResultStore == nil {
		return 0, nil
	}

	saved := 0
	var errs []string
	createdAt := o.now().UnixMilli()

	for i := range report.Runs {
		run := &report.Runs[i]
		if run.Err != nil {
			continue
		}

		if err := o.runResultStore.Insert(ctx, runResultFrom(run, o.series, createdAt)); err != nil {
			errs = append(errs, fmt.Sprintf("run %s: insert run result: %v", run.RunID, err))
			continue
		}
		if o.tradeLogStore != nil {
			if err := o.tradeLogStore.InsertBulk(ctx, tradeLogsFrom(run)); err != nil {
				errs = append(errs, fmt.Sprintf("run %s: insert trade logs: %v", run.RunID, err))
				continue
			}
		}
		saved++
	}

	return saved, errs
}

// runResultFrom flattens a strategy run into its persisted shape.
func runResultFrom(run *backtest.StrategyRun, series domain.BarSeries, createdAtMs int64) *domain.RunResult {
	record := run.Record
	statement := run.Statement
	return &domain.RunResult{
		RunID:           run.RunID,
		SeriesName:      series.Name(),
		StrategyName:    run.StrategyName,
		StartingSide:    record.StartingSide(),
		StartIndex:      record.StartIndex(),
		EndIndex:        record.EndIndex(),
		TradeCount:      len(record.Trades()),
		PositionCount:   len(record.Positions()),
		RejectedOrders:  len(run.Rejections),
		TotalProfitLoss: statement.Performance.TotalProfitLoss,
		Wins:            statement.PositionStats.ProfitCount,
		Losses:          statement.PositionStats.LossCount,
		BreakEvens:      statement.PositionStats.BreakEvenCount,
		DurationMs:      run.Duration.Milliseconds(),
		CreatedAtMs:     createdAtMs,
	}
}

// tradeLogsFrom flattens the record's trades, in recording order.
func tradeLogsFrom(run *backtest.StrategyRun) []*domain.TradeLog {
	trades := run.Record.Trades()
	logs := make([]*domain.TradeLog, 0, len(trades))
	for seq, t := range trades {
		logs = append(logs, &domain.TradeLog{
			RunID:    run.RunID,
			Seq:      seq,
			Side:     t.Side,
			BarIndex: t.Index,
			Price:    t.Price,
			Amount:   t.Amount,
			Cost:     t.Cost,
			NetPrice: t.NetPrice,
		})
	}
	return logs
}

func (o *Orchestrator) log(format string, args ...any) {
	if o.verbose {
		log.Printf("[orchestrator] "+format, args...)
	}
}
