package ledger

import (
	"errors"
	"testing"

	"backtest-lab/internal/cost"
	"backtest-lab/internal/domain"
)

func TestTradingRecord_EnterExitCycle(t *testing.T) {
	r := New(domain.SideBuy, nil, nil)

	if !r.IsEmpty() || !r.IsClosed() {
		t.Fatal("fresh record should be empty and closed")
	}

	if !r.Enter(0, 100, 1) {
		t.Fatal("first Enter should succeed")
	}
	if r.IsClosed() {
		t.Error("record should be open after entry")
	}
	// Entering twice in a row is a no-op.
	if r.Enter(1, 101, 1) {
		t.Error("second Enter should report false")
	}

	if !r.Exit(2, 110, 1) {
		t.Fatal("Exit should succeed on an open record")
	}
	if !r.IsClosed() {
		t.Error("record should be closed after exit")
	}
	// Exiting a flat record is a no-op.
	if r.Exit(3, 120, 1) {
		t.Error("Exit on a flat record should report false")
	}

	if len(r.Positions()) != 1 {
		t.Fatalf("expected 1 closed position, got %d", len(r.Positions()))
	}
	if len(r.Trades()) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(r.Trades()))
	}
	if !r.CurrentPosition().IsNew() {
		t.Error("current position should be fresh after a close")
	}
	if r.CurrentPosition().EntrySide() != domain.SideBuy {
		t.Error("fresh current position should keep the starting side")
	}
}

func TestTradingRecord_OperateAlternatesSides(t *testing.T) {
	r := New(domain.SideSell, nil, nil)

	if err := r.Operate(0, 100, 1); err != nil {
		t.Fatalf("entry failed: %v", err)
	}
	if got := r.LastTrade().Side; got != domain.SideSell {
		t.Errorf("expected SELL entry, got %s", got)
	}

	if err := r.Operate(1, 95, 1); err != nil {
		t.Fatalf("exit failed: %v", err)
	}
	if got := r.LastTrade().Side; got != domain.SideBuy {
		t.Errorf("expected BUY exit, got %s", got)
	}
}

func TestTradingRecord_TradeViews(t *testing.T) {
	r := New(domain.SideBuy, nil, nil)

	r.Enter(0, 100, 1)
	r.Exit(1, 105, 1)
	r.Enter(5, 90, 2)

	if got := r.LastEntry(); got == nil || got.Index != 5 {
		t.Errorf("unexpected last entry: %+v", got)
	}
	if got := r.LastExit(); got == nil || got.Index != 1 {
		t.Errorf("unexpected last exit: %+v", got)
	}
	if got := r.LastTradeOfSide(domain.SideSell); got == nil || got.Index != 1 {
		t.Errorf("unexpected last SELL trade: %+v", got)
	}
	if got := r.LastTradeOfSide(domain.SideBuy); got == nil || got.Index != 5 {
		t.Errorf("unexpected last BUY trade: %+v", got)
	}
}

func TestTradingRecord_OperateTradeAggregate(t *testing.T) {
	r := New(domain.SideBuy, cost.FixedCost{Fee: 1}, nil)

	entry, err := domain.AggregateTrade(domain.SideBuy, []domain.Fill{
		{Index: 2, Price: 100, Amount: 0.4},
		{Index: 3, Price: 100, Amount: 0.6},
	}, r.TransactionCostModel())
	if err != nil {
		t.Fatalf("AggregateTrade failed: %v", err)
	}

	if err := r.OperateTrade(entry); err != nil {
		t.Fatalf("OperateTrade failed: %v", err)
	}
	if r.IsClosed() {
		t.Error("record should be open after aggregated entry")
	}
	if got := r.CurrentPosition().Entry().Amount; got != 1 {
		t.Errorf("expected open amount 1, got %v", got)
	}
}

func TestFromTrades_ClosedPair(t *testing.T) {
	entry, _ := domain.NewTrade(domain.SideBuy, 0, 100, 1, nil)
	exit, _ := domain.NewTrade(domain.SideSell, 2, 110, 1, nil)

	r, err := FromTrades(nil, nil, entry, exit)
	if err != nil {
		t.Fatalf("FromTrades failed: %v", err)
	}

	if len(r.Positions()) != 1 {
		t.Fatalf("expected 1 position, got %d", len(r.Positions()))
	}
	if !r.IsClosed() {
		t.Error("record should be closed")
	}
	if r.StartingSide() != domain.SideBuy {
		t.Errorf("starting side should come from the first trade, got %s", r.StartingSide())
	}
}

// A first trade on the off side re-bases the record: SELL-first against a
// BUY default makes the record short-first.
func TestFromTrades_OffSideFirstTrade(t *testing.T) {
	entry, _ := domain.NewTrade(domain.SideSell, 0, 100, 1, nil)
	exit, _ := domain.NewTrade(domain.SideBuy, 1, 90, 1, nil)

	r, err := FromTrades(nil, nil, entry, exit)
	if err != nil {
		t.Fatalf("FromTrades failed: %v", err)
	}

	if r.StartingSide() != domain.SideSell {
		t.Errorf("expected starting side SELL, got %s", r.StartingSide())
	}
	positions := r.Positions()
	if len(positions) != 1 {
		t.Fatalf("expected 1 position, got %d", len(positions))
	}
	if positions[0].EntrySide() != domain.SideSell {
		t.Errorf("expected SELL entry side, got %s", positions[0].EntrySide())
	}
}

func TestFromTrades_Empty(t *testing.T) {
	if _, err := FromTrades(nil, nil); !errors.Is(err, ErrNoTrades) {
		t.Errorf("expected ErrNoTrades, got %v", err)
	}
}

func TestNewBounded_KeepsRange(t *testing.T) {
	r := NewBounded(domain.SideBuy, 3, 9, nil, nil)
	if r.StartIndex() != 3 || r.EndIndex() != 9 {
		t.Errorf("unexpected range [%d, %d]", r.StartIndex(), r.EndIndex())
	}
}

func TestTradingRecord_CostModelsFlowIntoTrades(t *testing.T) {
	r := New(domain.SideBuy, cost.FixedCost{Fee: 1}, cost.LinearCost{Rate: 0.01})

	r.Enter(0, 100, 1)
	r.Exit(1, 105, 1)

	p := r.Positions()[0]
	if p.Entry().Cost != 1 || p.Exit().Cost != 1 {
		t.Errorf("transaction cost not applied: entry=%v exit=%v", p.Entry().Cost, p.Exit().Cost)
	}
	// profit = (104 - 101) - holding 0.01*100*1*1bar = 2
	if got := p.Profit(); got < 1.999 || got > 2.001 {
		t.Errorf("expected profit 2, got %v", got)
	}
}
