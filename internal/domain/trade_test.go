package domain

import (
	"errors"
	"math"
	"testing"

	"backtest-lab/internal/cost"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNewTrade_BuyNetPrice(t *testing.T) {
	trade, err := NewTrade(SideBuy, 0, 100, 2, cost.FixedCost{Fee: 1})
	if err != nil {
		t.Fatalf("NewTrade failed: %v", err)
	}

	if trade.Cost != 1 {
		t.Errorf("expected cost 1, got %v", trade.Cost)
	}
	// A buyer effectively pays the cost on top of the price.
	if !almostEqual(trade.NetPrice, 100.5) {
		t.Errorf("expected net price 100.5, got %v", trade.NetPrice)
	}
}

func TestNewTrade_SellNetPrice(t *testing.T) {
	trade, err := NewTrade(SideSell, 1, 105, 1, cost.FixedCost{Fee: 1})
	if err != nil {
		t.Fatalf("NewTrade failed: %v", err)
	}

	// A seller effectively receives the price minus the cost.
	if !almostEqual(trade.NetPrice, 104) {
		t.Errorf("expected net price 104, got %v", trade.NetPrice)
	}
}

func TestNewTrade_ZeroCostKeepsRawPrice(t *testing.T) {
	trade, err := NewTrade(SideBuy, 0, 100, 1, nil)
	if err != nil {
		t.Fatalf("NewTrade failed: %v", err)
	}
	if trade.Cost != 0 || trade.NetPrice != 100 {
		t.Errorf("expected zero cost and net price 100, got cost=%v net=%v", trade.Cost, trade.NetPrice)
	}
}

func TestNewTrade_Validation(t *testing.T) {
	tests := []struct {
		name    string
		side    Side
		amount  float64
		wantErr error
	}{
		{"invalid side", Side("HOLD"), 1, ErrInvalidSide},
		{"zero amount", SideBuy, 0, ErrInvalidAmount},
		{"negative amount", SideBuy, -1, ErrInvalidAmount},
		{"nan amount", SideBuy, math.NaN(), ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTrade(tt.side, 0, 100, tt.amount, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestAggregateTrade_VolumeWeightedPrice(t *testing.T) {
	fills := []Fill{
		{Index: 3, Price: 100, Amount: 1},
		{Index: 5, Price: 110, Amount: 3},
	}

	trade, err := AggregateTrade(SideBuy, fills, nil)
	if err != nil {
		t.Fatalf("AggregateTrade failed: %v", err)
	}

	if trade.Amount != 4 {
		t.Errorf("expected amount 4, got %v", trade.Amount)
	}
	// (100*1 + 110*3) / 4 = 107.5
	if !almostEqual(trade.Price, 107.5) {
		t.Errorf("expected price 107.5, got %v", trade.Price)
	}
	// The trade's index is where it completed.
	if trade.Index != 5 {
		t.Errorf("expected index 5, got %d", trade.Index)
	}
	if len(trade.Fills) != 2 {
		t.Errorf("expected 2 fills, got %d", len(trade.Fills))
	}
}

func TestAggregateTrade_CostAppliedOnce(t *testing.T) {
	fills := []Fill{
		{Index: 0, Price: 100, Amount: 1},
		{Index: 1, Price: 100, Amount: 1},
	}

	trade, err := AggregateTrade(SideBuy, fills, cost.FixedCost{Fee: 1})
	if err != nil {
		t.Fatalf("AggregateTrade failed: %v", err)
	}

	// One fee for the aggregate, not one per fill.
	if trade.Cost != 1 {
		t.Errorf("expected cost 1, got %v", trade.Cost)
	}
	if !almostEqual(trade.NetPrice, 100.5) {
		t.Errorf("expected net price 100.5, got %v", trade.NetPrice)
	}
}

func TestAggregateTrade_NoFills(t *testing.T) {
	_, err := AggregateTrade(SideBuy, nil, nil)
	if !errors.Is(err, ErrNoFills) {
		t.Errorf("expected ErrNoFills, got %v", err)
	}
}

func TestSide_Complement(t *testing.T) {
	if SideBuy.Complement() != SideSell {
		t.Error("complement of BUY should be SELL")
	}
	if SideSell.Complement() != SideBuy {
		t.Error("complement of SELL should be BUY")
	}
}
