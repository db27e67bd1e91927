package strategy

import (
	"fmt"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/ledger"
)

// ThresholdStrategy enters when the bar close drops to or below the
// entry threshold and exits when it rises to or above the exit
// threshold. A simple mean-reversion rule over close prices.
type ThresholdStrategy struct {
	series         domain.BarSeries
	entryThreshold float64
	exitThreshold  float64
}

// NewThresholdStrategy creates a ThresholdStrategy bound to a series.
func NewThresholdStrategy(series domain.BarSeries, entryThreshold, exitThreshold float64) *ThresholdStrategy {
	return &ThresholdStrategy{
		series:         series,
		entryThreshold: entryThreshold,
		exitThreshold:  exitThreshold,
	}
}

// Name returns the strategy identifier including parameters.
func (s *ThresholdStrategy) Name() string {
	return fmt.Sprintf("THRESHOLD_%g_%g", s.entryThreshold, s.exitThreshold)
}

// ShouldEnter reports whether the close at index is at or below the
// entry threshold.
func (s *ThresholdStrategy) ShouldEnter(index int, _ *ledger.TradingRecord) bool {
	return s.series.Bar(index).Close <= s.entryThreshold
}

// ShouldExit reports whether the close at index is at or above the
// exit threshold.
func (s *ThresholdStrategy) ShouldExit(index int, _ *ledger.TradingRecord) bool {
	return s.series.Bar(index).Close >= s.exitThreshold
}

var _ Strategy = (*ThresholdStrategy)(nil)
