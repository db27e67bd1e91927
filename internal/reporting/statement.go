package reporting

import (
	"backtest-lab/internal/domain"
	"backtest-lab/internal/ledger"
)

// PerformanceReport summarizes profit and loss over the closed
// positions of a trading record.
type PerformanceReport struct {
	// TotalProfitLoss is the net result across all closed positions,
	// holding costs included.
	TotalProfitLoss float64

	// TotalProfitLossPct relates the net result to the total entry
	// notional, in percent. Zero when no position closed.
	TotalProfitLossPct float64

	// TotalProfit sums only the winning positions.
	TotalProfit float64

	// TotalLoss sums only the losing positions (negative or zero).
	TotalLoss float64
}

// PositionStatsReport counts closed positions by outcome.
type PositionStatsReport struct {
	ProfitCount    int
	LossCount      int
	BreakEvenCount int
}

// Statement couples a trading record with its derived reports.
type Statement struct {
	StrategyName  string
	SeriesName    string
	Record        *ledger.TradingRecord
	Performance   PerformanceReport
	PositionStats PositionStatsReport
}

// Generator builds statements from finished trading records.
type Generator struct{}

// NewGenerator creates a statement generator.
func NewGenerator() *Generator { return &Generator{} }

// Generate derives performance and position statistics from the
// record's closed positions. Open or new current positions contribute
// nothing.
func (g *Generator) Generate(strategyName string, record *ledger.TradingRecord, series domain.BarSeries) *Statement {
	performance := PerformanceReport{}
	stats := PositionStatsReport{}
	entryNotional := 0.0

	for _, position := range record.Positions() {
		profit := position.Profit()
		performance.TotalProfitLoss += profit
		entryNotional += position.Entry().NetPrice * position.Entry().Amount

		switch {
		case profit > 0:
			performance.TotalProfit += profit
			stats.ProfitCount++
		case profit < 0:
			performance.TotalLoss += profit
			stats.LossCount++
		default:
			stats.BreakEvenCount++
		}
	}

	if entryNotional > 0 {
		performance.TotalProfitLossPct = performance.TotalProfitLoss / entryNotional * 100
	}

	return &Statement{
		StrategyName:  strategyName,
		SeriesName:    series.Name(),
		Record:        record,
		Performance:   performance,
		PositionStats: stats,
	}
}
