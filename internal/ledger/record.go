// Package ledger implements the append-only trading record: the complete
// audit trail of trades and positions for one simulated strategy run.
package ledger

import (
	"errors"
	"fmt"

	"backtest-lab/internal/cost"
	"backtest-lab/internal/domain"
)

// Ledger errors.
var (
	// ErrCurrentPositionClosed signals that the record's current position
	// was found closed during operate. This must never happen: a position
	// is archived and replaced the moment it closes. Treat as an
	// assertion failure, not a recoverable condition.
	ErrCurrentPositionClosed = errors.New("current position should never be closed")

	// ErrNoTrades is returned when constructing a record from an empty
	// trade sequence.
	ErrNoTrades = errors.New("trade sequence must not be empty")
)

// TradingRecord is the ledger of all trades and positions for one run.
//
// Invariants maintained:
//   - at most one non-closed position exists at any time (currentPosition);
//   - within a position, entry and exit sides are complementary;
//   - trade indices are non-decreasing across the record.
//
// A TradingRecord is exclusively owned by one run and is not safe for
// concurrent use.
type TradingRecord struct {
	startingSide domain.Side
	startIndex   int
	endIndex     int

	trades      []*domain.Trade
	buyTrades   []*domain.Trade
	sellTrades  []*domain.Trade
	entryTrades []*domain.Trade
	exitTrades  []*domain.Trade

	positions []*domain.Position
	current   *domain.Position

	transactionCost cost.Model
	holdingCost     cost.Model
}

// New creates an empty trading record whose positions enter with the
// given side. Nil cost models default to zero cost.
func New(startingSide domain.Side, transactionCost, holdingCost cost.Model) *TradingRecord {
	return NewBounded(startingSide, 0, -1, transactionCost, holdingCost)
}

// NewBounded creates an empty trading record bounded by [startIndex,
// endIndex] (both included). The bounds are informational; they record the
// replay range the ledger was produced over.
func NewBounded(startingSide domain.Side, startIndex, endIndex int, transactionCost, holdingCost cost.Model) *TradingRecord {
	if transactionCost == nil {
		transactionCost = cost.ZeroCost{}
	}
	if holdingCost == nil {
		holdingCost = cost.ZeroCost{}
	}
	return &TradingRecord{
		startingSide:    startingSide,
		startIndex:      startIndex,
		endIndex:        endIndex,
		transactionCost: transactionCost,
		holdingCost:     holdingCost,
		current:         domain.NewPosition(startingSide, transactionCost, holdingCost),
	}
}

// FromTrades reconstructs a record from an explicit trade sequence. The
// starting side is taken from the first trade. When a new position would
// open with a side opposite to the starting side (a sequence like
// BUY/SELL, SELL/BUY), the fresh position is re-allocated with that
// opposite side instead. This special case is preserved exactly as
// documented; do not generalize it further.
func FromTrades(transactionCost, holdingCost cost.Model, trades ...*domain.Trade) (*TradingRecord, error) {
	if len(trades) == 0 {
		return nil, ErrNoTrades
	}

	r := New(trades[0].Side, transactionCost, holdingCost)
	for _, t := range trades {
		isEntry := r.current.IsNew()
		if isEntry && t.Side != r.startingSide {
			r.current = domain.NewPosition(t.Side, r.transactionCost, r.holdingCost)
		}
		if err := r.current.Apply(t); err != nil {
			return nil, fmt.Errorf("apply trade at index %d: %w", t.Index, err)
		}
		r.recordTrade(t, isEntry)
	}
	return r, nil
}

// Operate records a trade at the given index/price/amount: an entry when
// the current position is NEW, an exit when it is OPENED. A closed current
// position is an invariant violation and aborts the run.
func (r *TradingRecord) Operate(index int, price, amount float64) error {
	if r.current.IsClosed() {
		return ErrCurrentPositionClosed
	}
	isEntry := r.current.IsNew()
	trade, err := r.current.Operate(index, price, amount)
	if err != nil {
		return err
	}
	r.recordTrade(trade, isEntry)
	return nil
}

// OperateTrade records a pre-built trade (e.g. one aggregated from partial
// fills by an execution model) against the current position.
func (r *TradingRecord) OperateTrade(trade *domain.Trade) error {
	if r.current.IsClosed() {
		return ErrCurrentPositionClosed
	}
	isEntry := r.current.IsNew()
	if err := r.current.Apply(trade); err != nil {
		return err
	}
	r.recordTrade(trade, isEntry)
	return nil
}

// Enter records an entry trade if the current position is NEW; otherwise
// it is a no-op returning false.
func (r *TradingRecord) Enter(index int, price, amount float64) bool {
	if !r.current.IsNew() {
		return false
	}
	// Operate cannot fail here: the position is NEW.
	if err := r.Operate(index, price, amount); err != nil {
		return false
	}
	return true
}

// Exit records an exit trade if the current position is OPENED; otherwise
// it is a no-op returning false.
func (r *TradingRecord) Exit(index int, price, amount float64) bool {
	if !r.current.IsOpened() {
		return false
	}
	if err := r.Operate(index, price, amount); err != nil {
		return false
	}
	return true
}

// recordTrade appends the trade to the flat and per-side/per-kind views
// and, if the current position just closed, archives it and allocates a
// fresh NEW position with the original starting side.
func (r *TradingRecord) recordTrade(trade *domain.Trade, isEntry bool) {
	if isEntry {
		r.entryTrades = append(r.entryTrades, trade)
	} else {
		r.exitTrades = append(r.exitTrades, trade)
	}

	r.trades = append(r.trades, trade)
	if trade.Side == domain.SideBuy {
		r.buyTrades = append(r.buyTrades, trade)
	} else {
		r.sellTrades = append(r.sellTrades, trade)
	}

	if r.current.IsClosed() {
		r.positions = append(r.positions, r.current)
		r.current = domain.NewPosition(r.startingSide, r.transactionCost, r.holdingCost)
	}
}

// IsEmpty reports whether no trade has ever been recorded.
func (r *TradingRecord) IsEmpty() bool { return len(r.trades) == 0 }

// IsClosed reports whether there is no open position. An empty record is
// closed.
func (r *TradingRecord) IsClosed() bool { return !r.current.IsOpened() }

// CurrentPosition returns the current non-closed position. There is
// always exactly one.
func (r *TradingRecord) CurrentPosition() *domain.Position { return r.current }

// Positions returns the archived (closed) positions in close order.
func (r *TradingRecord) Positions() []*domain.Position { return r.positions }

// Trades returns all recorded trades in execution order.
func (r *TradingRecord) Trades() []*domain.Trade { return r.trades }

// LastTrade returns the most recent trade, or nil if the record is empty.
func (r *TradingRecord) LastTrade() *domain.Trade { return last(r.trades) }

// LastTradeOfSide returns the most recent trade with the given side, or
// nil if none exists.
func (r *TradingRecord) LastTradeOfSide(side domain.Side) *domain.Trade {
	if side == domain.SideBuy {
		return last(r.buyTrades)
	}
	return last(r.sellTrades)
}

// LastEntry returns the most recent entry trade, or nil.
func (r *TradingRecord) LastEntry() *domain.Trade { return last(r.entryTrades) }

// LastExit returns the most recent exit trade, or nil.
func (r *TradingRecord) LastExit() *domain.Trade { return last(r.exitTrades) }

// StartingSide returns the side positions enter with.
func (r *TradingRecord) StartingSide() domain.Side { return r.startingSide }

// StartIndex returns the first index of the replay range.
func (r *TradingRecord) StartIndex() int { return r.startIndex }

// EndIndex returns the last index of the replay range.
func (r *TradingRecord) EndIndex() int { return r.endIndex }

// TransactionCostModel returns the transaction cost model.
func (r *TradingRecord) TransactionCostModel() cost.Model { return r.transactionCost }

// HoldingCostModel returns the holding cost model.
func (r *TradingRecord) HoldingCostModel() cost.Model { return r.holdingCost }

func last(trades []*domain.Trade) *domain.Trade {
	if len(trades) == 0 {
		return nil
	}
	return trades[len(trades)-1]
}
