package strategy

import (
	"fmt"

	"backtest-lab/internal/ledger"
)

// AtIndexesStrategy enters and exits at fixed, pre-chosen bar indexes.
// Deterministic by construction, which makes it the reference strategy
// for execution-model comparisons.
type AtIndexesStrategy struct {
	name         string
	entryIndexes map[int]bool
	exitIndexes  map[int]bool
}

// NewAtIndexesStrategy creates an AtIndexesStrategy from explicit
// entry and exit bar indexes.
func NewAtIndexesStrategy(entries, exits []int) *AtIndexesStrategy {
	s := &AtIndexesStrategy{
		name:         fmt.Sprintf("AT_INDEXES_%dx%d", len(entries), len(exits)),
		entryIndexes: make(map[int]bool, len(entries)),
		exitIndexes:  make(map[int]bool, len(exits)),
	}
	for _, i := range entries {
		s.entryIndexes[i] = true
	}
	for _, i := range exits {
		s.exitIndexes[i] = true
	}
	return s
}

// Name returns the strategy identifier.
func (s *AtIndexesStrategy) Name() string { return s.name }

// ShouldEnter reports whether index is a configured entry index.
func (s *AtIndexesStrategy) ShouldEnter(index int, _ *ledger.TradingRecord) bool {
	return s.entryIndexes[index]
}

// ShouldExit reports whether index is a configured exit index.
func (s *AtIndexesStrategy) ShouldExit(index int, _ *ledger.TradingRecord) bool {
	return s.exitIndexes[index]
}

var _ Strategy = (*AtIndexesStrategy)(nil)
