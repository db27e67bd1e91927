// Package execution provides the pluggable trade execution models that
// turn a strategy signal into concrete fills on a trading record.
package execution

import (
	"backtest-lab/internal/domain"
	"backtest-lab/internal/ledger"
)

// Model decides at what price, time and quantity a strategy signal
// becomes a fill.
//
// OnBar is called once for every bar of a replay, before the strategy is
// consulted, so stateful models can progress pending work even without a
// fresh signal. Stateless models implement it as a no-op.
//
// Execute is called only on bars where the strategy signals. Unfillable
// signals are recorded (or silently dropped, per model rules) and never
// returned as errors; a returned error is an invariant violation that must
// abort the run.
type Model interface {
	OnBar(index int, record *ledger.TradingRecord, series domain.BarSeries) error
	Execute(index int, record *ledger.TradingRecord, series domain.BarSeries, amount float64) error
}

// RejectionReporter is implemented by models that keep a rejection
// history per trading record. Callers that care about rejected orders
// type-assert against it after a run.
type RejectionReporter interface {
	RejectedOrders(record *ledger.TradingRecord) []RejectedOrder
}

// nextSide returns the side the record's next trade will have: the
// starting side when no position is open, otherwise the complement of the
// open entry.
func nextSide(record *ledger.TradingRecord) domain.Side {
	if record.IsClosed() {
		return record.StartingSide()
	}
	return record.CurrentPosition().Entry().Side.Complement()
}
