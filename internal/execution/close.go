package execution

import (
	"backtest-lab/internal/domain"
	"backtest-lab/internal/ledger"
)

// CloseModel fills at the signal bar's close price, at the signal index.
// It carries no state.
type CloseModel struct{}

// OnBar is a no-op.
func (CloseModel) OnBar(int, *ledger.TradingRecord, domain.BarSeries) error { return nil }

// Execute fills the full amount at the current bar's close price.
func (CloseModel) Execute(index int, record *ledger.TradingRecord, series domain.BarSeries, amount float64) error {
	return record.Operate(index, series.Bar(index).Close, amount)
}

var _ Model = CloseModel{}
