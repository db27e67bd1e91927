package domain

import (
	"errors"
	"fmt"

	"backtest-lab/internal/cost"
)

// Position errors.
var (
	// ErrPositionClosed signals an operate call on a closed position.
	// This is a programming error in the caller: positions move
	// NEW -> OPENED -> CLOSED exactly once and a closed position is
	// immutable.
	ErrPositionClosed = errors.New("position already closed")

	// ErrSideMismatch signals an applied trade whose side does not match
	// the side expected by the position state.
	ErrSideMismatch = errors.New("trade side does not match position state")
)

// Position is the unit of P&L: one entry trade plus at most one matching
// exit trade. The exit side is always the complement of the entry side.
type Position struct {
	entrySide Side
	entry     *Trade
	exit      *Trade

	transactionCost cost.Model
	holdingCost     cost.Model
}

// NewPosition creates an empty (NEW) position that will enter with the
// given side. Nil cost models default to zero cost.
func NewPosition(entrySide Side, transactionCost, holdingCost cost.Model) *Position {
	if transactionCost == nil {
		transactionCost = cost.ZeroCost{}
	}
	if holdingCost == nil {
		holdingCost = cost.ZeroCost{}
	}
	return &Position{
		entrySide:       entrySide,
		transactionCost: transactionCost,
		holdingCost:     holdingCost,
	}
}

// Operate advances the position: the first call creates the entry trade
// with the position's entry side, the second the exit trade with the
// complementary side. Calling on a closed position returns
// ErrPositionClosed.
func (p *Position) Operate(index int, price, amount float64) (*Trade, error) {
	if p.IsClosed() {
		return nil, ErrPositionClosed
	}

	side := p.entrySide
	if p.IsOpened() {
		side = p.entrySide.Complement()
	}

	trade, err := NewTrade(side, index, price, amount, p.transactionCost)
	if err != nil {
		return nil, err
	}
	p.record(trade)
	return trade, nil
}

// Apply advances the position with a pre-built trade (e.g. aggregated from
// partial fills). The trade's side must match the side the position
// expects next.
func (p *Position) Apply(trade *Trade) error {
	if p.IsClosed() {
		return ErrPositionClosed
	}

	expected := p.entrySide
	if p.IsOpened() {
		expected = p.entrySide.Complement()
	}
	if trade.Side != expected {
		return fmt.Errorf("%w: got %s, want %s", ErrSideMismatch, trade.Side, expected)
	}
	p.record(trade)
	return nil
}

func (p *Position) record(trade *Trade) {
	if p.entry == nil {
		p.entry = trade
	} else {
		p.exit = trade
	}
}

// IsNew reports whether the position has no entry yet.
func (p *Position) IsNew() bool { return p.entry == nil }

// IsOpened reports whether the position has an entry but no exit.
func (p *Position) IsOpened() bool { return p.entry != nil && p.exit == nil }

// IsClosed reports whether the position has both entry and exit.
func (p *Position) IsClosed() bool { return p.entry != nil && p.exit != nil }

// Entry returns the entry trade, or nil for a NEW position.
func (p *Position) Entry() *Trade { return p.entry }

// Exit returns the exit trade, or nil unless the position is closed.
func (p *Position) Exit() *Trade { return p.exit }

// EntrySide returns the side this position enters with.
func (p *Position) EntrySide() Side { return p.entrySide }

// HoldingCost returns the cost of holding the position over its lifetime:
// the holding model's per-bar cost times the number of bars between entry
// and exit. Zero for positions that are not closed.
func (p *Position) HoldingCost() float64 {
	if !p.IsClosed() {
		return 0
	}
	bars := float64(p.exit.Index - p.entry.Index)
	return p.holdingCost.Cost(p.entry.Price, p.entry.Amount) * bars
}

// Profit returns the net profit of a closed position using net prices
// (transaction costs included) minus the holding cost. Zero for positions
// that are not closed.
func (p *Position) Profit() float64 {
	if !p.IsClosed() {
		return 0
	}
	gross := (p.exit.NetPrice - p.entry.NetPrice) * p.entry.Amount
	if p.entrySide == SideSell {
		gross = -gross
	}
	return gross - p.HoldingCost()
}

// GrossProfit returns the profit before any transaction or holding cost.
func (p *Position) GrossProfit() float64 {
	if !p.IsClosed() {
		return 0
	}
	gross := (p.exit.Price - p.entry.Price) * p.entry.Amount
	if p.entrySide == SideSell {
		gross = -gross
	}
	return gross
}
