package execution

import (
	"backtest-lab/internal/domain"
	"backtest-lab/internal/ledger"
)

// NextOpenModel fills at the next bar's open price. A signal on the last
// bar of the series does not fill: running out of data is a normal
// outcome, not a failure, so no rejection is recorded.
type NextOpenModel struct{}

// OnBar is a no-op.
func (NextOpenModel) OnBar(int, *ledger.TradingRecord, domain.BarSeries) error { return nil }

// Execute fills the full amount at the open of bar index+1, or does
// nothing when no next bar exists.
func (NextOpenModel) Execute(index int, record *ledger.TradingRecord, series domain.BarSeries, amount float64) error {
	next := index + 1
	if next > series.EndIndex() {
		return nil
	}
	return record.Operate(next, series.Bar(next).Open, amount)
}

var _ Model = NextOpenModel{}
