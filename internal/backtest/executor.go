package backtest

import (
	"context"
	"log"
	"runtime"
	"time"

	"github.com/google/uuid"

	"backtest-lab/internal/cost"
	"backtest-lab/internal/domain"
	"backtest-lab/internal/execution"
	"backtest-lab/internal/idhash"
	"backtest-lab/internal/ledger"
	"backtest-lab/internal/observability"
	"backtest-lab/internal/reporting"
	"backtest-lab/internal/strategy"
)

// ModelFactory builds a fresh execution model for one strategy run.
// Stateful models (stop-limit) must not be shared between parallel
// runs, so the executor calls the factory once per run.
type ModelFactory func() (execution.Model, error)

// StrategyRun is the outcome of one strategy over the series.
type StrategyRun struct {
	// RunID is deterministic for a (series, strategy, range) triple.
	RunID        string
	StrategyName string
	Record       *ledger.TradingRecord
	Statement    *reporting.Statement
	Rejections   []execution.RejectedOrder
	Duration     time.Duration
	Err          error
}

// Report is the outcome of one executor invocation.
type Report struct {
	// ExecutionID identifies this invocation, not its inputs.
	ExecutionID string
	Runs        []StrategyRun
	Runtime     RuntimeStats
}

// Executor runs many strategies over one series in parallel, one
// trading record per strategy. Results come back in input order
// regardless of completion order.
type Executor struct {
	series          domain.BarSeries
	newModel        ModelFactory
	generator       *reporting.Generator
	transactionCost cost.Model
	holdingCost     cost.Model
	startingSide    domain.Side
	amount          float64
	maxParallel     int
	verbose         bool
}

// ExecutorOptions contains configuration for creating an Executor.
type ExecutorOptions struct {
	Series   domain.BarSeries
	NewModel ModelFactory

	// Cost models for every run's trading record. Nil means zero cost.
	TransactionCost cost.Model
	HoldingCost     cost.Model

	// StartingSide is the entry side of every run. Default SideBuy.
	StartingSide domain.Side

	// Amount is the trade amount handed to the execution model on
	// each signal. Default 1.
	Amount float64

	// MaxParallel caps concurrent strategy runs. Default NumCPU.
	MaxParallel int

	Verbose bool
}

// NewExecutor creates an executor.
func NewExecutor(opts ExecutorOptions) (*Executor, error) {
	if opts.Series == nil {
		return nil, ErrNilSeries
	}
	if opts.NewModel == nil {
		return nil, ErrNilModel
	}
	startingSide := opts.StartingSide
	if startingSide == "" {
		startingSide = domain.SideBuy
	}
	amount := opts.Amount
	if amount <= 0 {
		amount = 1
	}
	maxParallel := opts.MaxParallel
	if maxParallel <= 0 {
		maxParallel = runtime.NumCPU()
	}
	return &Executor{
		series:          opts.Series,
		newModel:        opts.NewModel,
		generator:       reporting.NewGenerator(),
		transactionCost: opts.TransactionCost,
		holdingCost:     opts.HoldingCost,
		startingSide:    startingSide,
		amount:          amount,
		maxParallel:     maxParallel,
		verbose:         opts.Verbose,
	}, nil
}

// Run executes all strategies over the full series.
func (e *Executor) Run(ctx context.Context, strategies []strategy.Strategy) (*Report, error) {
	return e.RunRange(ctx, strategies, e.series.BeginIndex(), e.series.EndIndex())
}

// RunRange executes all strategies over [startIndex, endIndex].
//
// Each strategy gets its own trading record and its own execution
// model instance, so runs never observe each other's state. A failed
// run is captured in its StrategyRun and does not stop the others.
func (e *Executor) RunRange(ctx context.Context, strategies []strategy.Strategy, startIndex, endIndex int) (*Report, error) {
	report := &Report{
		ExecutionID: uuid.NewString(),
		Runs:        make([]StrategyRun, len(strategies)),
	}
	observability.RecordExecution()
	e.log("execution %s: %d strategies over %q [%d, %d]",
		report.ExecutionID, len(strategies), e.series.Name(), startIndex, endIndex)

	sem := make(chan struct{}, e.maxParallel)
	done := make(chan int, len(strategies))

	for i, strat := range strategies {
		report.Runs[i] = StrategyRun{
			RunID:        idhash.ComputeRunID(e.series.Name(), strat.Name(), string(e.startingSide), startIndex, endIndex),
			StrategyName: strat.Name(),
		}

		go func(i int, strat strategy.Strategy) {
			defer func() { done <- i }()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				report.Runs[i].Err = ctx.Err()
				return
			}

			started := time.Now()
			record, rejections, err := e.runOne(strat, startIndex, endIndex)
			duration := time.Since(started)
			report.Runs[i].Duration = duration
			observability.RecordStrategyRun(err != nil, duration.Seconds())
			if err != nil {
				report.Runs[i].Err = err
				return
			}
			report.Runs[i].Record = record
			report.Runs[i].Rejections = rejections
			report.Runs[i].Statement = e.generator.Generate(strat.Name(), record, e.series)
			observability.RecordLedger(len(record.Trades()), len(record.Positions()))
			for _, t := range record.Trades() {
				if len(t.Fills) > 1 {
					for range t.Fills {
						observability.RecordPartialFill()
					}
				}
			}
			for _, r := range rejections {
				observability.RecordOrderRejected(r.Reason)
			}
		}(i, strat)
	}

	for range strategies {
		<-done
	}

	var durations []time.Duration
	for i := range report.Runs {
		run := &report.Runs[i]
		if run.Err != nil {
			e.log("run %s (%s) failed: %v", run.RunID, run.StrategyName, run.Err)
			continue
		}
		durations = append(durations, run.Duration)
	}
	report.Runtime = computeRuntimeStats(durations)
	e.log("execution %s finished: total=%s mean=%s median=%s",
		report.ExecutionID, report.Runtime.Total, report.Runtime.Mean, report.Runtime.Median)

	return report, ctx.Err()
}

// Statements collects the statements of the successful runs, in
// input order.
func (r *Report) Statements() []*reporting.Statement {
	statements := make([]*reporting.Statement, 0, len(r.Runs))
	for i := range r.Runs {
		if r.Runs[i].Statement != nil {
			statements = append(statements, r.Runs[i].Statement)
		}
	}
	return statements
}

func (e *Executor) runOne(strat strategy.Strategy, startIndex, endIndex int) (*ledger.TradingRecord, []execution.RejectedOrder, error) {
	model, err := e.newModel()
	if err != nil {
		return nil, nil, err
	}
	manager, err := NewSeriesManager(SeriesManagerOptions{
		Series:          e.series,
		Model:           model,
		TransactionCost: e.transactionCost,
		HoldingCost:     e.holdingCost,
	})
	if err != nil {
		return nil, nil, err
	}
	record, err := manager.Run(strat, e.startingSide, startIndex, endIndex, e.amount)
	if err != nil {
		return nil, nil, err
	}

	var rejections []execution.RejectedOrder
	if reporter, ok := model.(execution.RejectionReporter); ok {
		rejections = reporter.RejectedOrders(record)
	}
	return record, rejections, nil
}

func (e *Executor) log(format string, args ...any) {
	if e.verbose {
		log.Printf("[backtest] "+format, args...)
	}
}
