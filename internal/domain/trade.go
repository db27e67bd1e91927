package domain

import (
	"errors"
	"fmt"

	"backtest-lab/internal/cost"
)

// Fill is one partial execution event: an amount traded at a price on a
// given bar. Immutable once created.
type Fill struct {
	Index  int
	Price  float64
	Amount float64
}

// Trade represents one executed transaction. It is immutable once created:
// the transaction cost and net price are computed exactly once, in the
// constructor, and never recomputed.
//
// NetPrice is the effective per-unit price after cost: a buyer pays
// price + cost/amount, a seller receives price - cost/amount.
type Trade struct {
	Side     Side
	Index    int
	Price    float64
	Amount   float64
	Cost     float64
	NetPrice float64

	// Fills holds the partial executions this trade was aggregated from.
	// Single-fill trades carry exactly one entry.
	Fills []Fill
}

// Trade construction errors.
var (
	ErrInvalidSide   = errors.New("trade side must be BUY or SELL")
	ErrInvalidAmount = errors.New("trade amount must be positive")
	ErrNoFills       = errors.New("aggregated trade requires at least one fill")
)

// NewTrade creates a trade from a single fill, applying the transaction
// cost model once.
func NewTrade(side Side, index int, price, amount float64, model cost.Model) (*Trade, error) {
	if !side.Valid() {
		return nil, ErrInvalidSide
	}
	if !(amount > 0) {
		return nil, ErrInvalidAmount
	}
	if model == nil {
		model = cost.ZeroCost{}
	}
	c := model.Cost(price, amount)
	return &Trade{
		Side:     side,
		Index:    index,
		Price:    price,
		Amount:   amount,
		Cost:     c,
		NetPrice: netPrice(side, price, c, amount),
		Fills:    []Fill{{Index: index, Price: price, Amount: amount}},
	}, nil
}

// AggregateTrade creates a trade from a sequence of partial fills. The
// trade price is the volume-weighted average fill price, the index is the
// index of the last fill, and the cost model is applied once to the
// aggregate, never per fill.
func AggregateTrade(side Side, fills []Fill, model cost.Model) (*Trade, error) {
	if !side.Valid() {
		return nil, ErrInvalidSide
	}
	if len(fills) == 0 {
		return nil, ErrNoFills
	}
	if model == nil {
		model = cost.ZeroCost{}
	}

	var totalAmount, totalValue float64
	for _, f := range fills {
		if !(f.Amount > 0) {
			return nil, fmt.Errorf("%w: fill at index %d", ErrInvalidAmount, f.Index)
		}
		totalAmount += f.Amount
		totalValue += f.Price * f.Amount
	}

	price := totalValue / totalAmount
	c := model.Cost(price, totalAmount)

	owned := make([]Fill, len(fills))
	copy(owned, fills)

	return &Trade{
		Side:     side,
		Index:    fills[len(fills)-1].Index,
		Price:    price,
		Amount:   totalAmount,
		Cost:     c,
		NetPrice: netPrice(side, price, c, totalAmount),
		Fills:    owned,
	}, nil
}

// netPrice applies the per-unit cost to the raw price. Buys pay more,
// sells receive less.
func netPrice(side Side, price, tradeCost, amount float64) float64 {
	perUnit := tradeCost / amount
	if side == SideBuy {
		return price + perUnit
	}
	return price - perUnit
}
