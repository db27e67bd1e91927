package strategy

import (
	"backtest-lab/internal/ledger"
)

// Strategy produces entry and exit signals, one bar at a time.
//
// A strategy never mutates the record it is given; the record is the
// current ledger state the strategy may inspect (open position, last
// trade) to decide its signal.
type Strategy interface {
	// Name returns the strategy identifier (includes parameters).
	Name() string

	// ShouldEnter reports whether the strategy wants to open a
	// position at the given bar.
	ShouldEnter(index int, record *ledger.TradingRecord) bool

	// ShouldExit reports whether the strategy wants to close the
	// open position at the given bar.
	ShouldExit(index int, record *ledger.TradingRecord) bool
}

// ShouldOperate consults the side of the record's current position:
// a new position asks for an entry signal, an open one for an exit
// signal. A closed current position never occurs between operations.
func ShouldOperate(s Strategy, index int, record *ledger.TradingRecord) bool {
	position := record.CurrentPosition()
	if position.IsNew() {
		return s.ShouldEnter(index, record)
	}
	if position.IsOpened() {
		return s.ShouldExit(index, record)
	}
	return false
}
