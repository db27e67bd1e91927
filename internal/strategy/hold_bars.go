package strategy

import (
	"fmt"

	"backtest-lab/internal/ledger"
)

// HoldBarsStrategy wraps another strategy and forces an exit once the
// open position has been held for a fixed number of bars. The inner
// strategy keeps its entry signals and may still exit earlier.
type HoldBarsStrategy struct {
	inner    Strategy
	holdBars int
}

// NewHoldBarsStrategy creates a HoldBarsStrategy around inner.
func NewHoldBarsStrategy(inner Strategy, holdBars int) *HoldBarsStrategy {
	return &HoldBarsStrategy{inner: inner, holdBars: holdBars}
}

// Name returns the strategy identifier including parameters.
func (s *HoldBarsStrategy) Name() string {
	return fmt.Sprintf("%s_HOLD_%d", s.inner.Name(), s.holdBars)
}

// ShouldEnter delegates to the inner strategy.
func (s *HoldBarsStrategy) ShouldEnter(index int, record *ledger.TradingRecord) bool {
	return s.inner.ShouldEnter(index, record)
}

// ShouldExit reports true once the position age reaches the hold
// limit, or when the inner strategy wants out.
func (s *HoldBarsStrategy) ShouldExit(index int, record *ledger.TradingRecord) bool {
	position := record.CurrentPosition()
	if position.IsOpened() && index-position.Entry().Index >= s.holdBars {
		return true
	}
	return s.inner.ShouldExit(index, record)
}

var _ Strategy = (*HoldBarsStrategy)(nil)
