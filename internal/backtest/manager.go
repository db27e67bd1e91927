package backtest

import (
	"errors"

	"backtest-lab/internal/cost"
	"backtest-lab/internal/domain"
	"backtest-lab/internal/execution"
	"backtest-lab/internal/ledger"
	"backtest-lab/internal/strategy"
)

// Manager errors
var (
	ErrNilSeries = errors.New("series is required")
	ErrNilModel  = errors.New("execution model is required")
)

// SeriesManager runs one strategy over one bar series with one
// execution model, producing a trading record.
type SeriesManager struct {
	series          domain.BarSeries
	model           execution.Model
	transactionCost cost.Model
	holdingCost     cost.Model
}

// SeriesManagerOptions contains configuration for creating a SeriesManager.
type SeriesManagerOptions struct {
	Series domain.BarSeries
	Model  execution.Model

	// Cost models applied to the produced trading record.
	// Nil means zero cost.
	TransactionCost cost.Model
	HoldingCost     cost.Model
}

// NewSeriesManager creates a series manager.
func NewSeriesManager(opts SeriesManagerOptions) (*SeriesManager, error) {
	if opts.Series == nil {
		return nil, ErrNilSeries
	}
	if opts.Model == nil {
		return nil, ErrNilModel
	}
	return &SeriesManager{
		series:          opts.Series,
		model:           opts.Model,
		transactionCost: opts.TransactionCost,
		holdingCost:     opts.HoldingCost,
	}, nil
}

// Run replays the series through the strategy over [startIndex, endIndex],
// both clamped to the series bounds.
//
// Every bar in range first advances the execution model, then consults
// the strategy; an affirmative signal is handed to the model with the
// trade amount. A position still open after the range is walked past
// the range end, bar by bar, until the strategy closes it or the series
// runs out. The open position is left open in the record when the
// series ends first.
func (m *SeriesManager) Run(strat strategy.Strategy, startingSide domain.Side, startIndex, endIndex int, amount float64) (*ledger.TradingRecord, error) {
	runStart := max(startIndex, m.series.BeginIndex())
	runEnd := min(endIndex, m.series.EndIndex())

	record := ledger.NewBounded(startingSide, runStart, runEnd, m.transactionCost, m.holdingCost)
	if m.series.BarCount() == 0 || runStart > runEnd {
		return record, nil
	}

	for i := runStart; i <= runEnd; i++ {
		if err := m.model.OnBar(i, record, m.series); err != nil {
			return nil, err
		}
		if strategy.ShouldOperate(strat, i, record) {
			if err := m.model.Execute(i, record, m.series, amount); err != nil {
				return nil, err
			}
		}
	}

	if record.CurrentPosition().IsOpened() {
		// Walk past the run range to give the open position a
		// chance to close on later bars.
		for i := runEnd + 1; i <= m.series.EndIndex(); i++ {
			if err := m.model.OnBar(i, record, m.series); err != nil {
				return nil, err
			}
			if record.IsClosed() {
				break
			}
			if strategy.ShouldOperate(strat, i, record) {
				if err := m.model.Execute(i, record, m.series, amount); err != nil {
					return nil, err
				}
			}
			if record.IsClosed() {
				break
			}
		}
	}

	return record, nil
}
