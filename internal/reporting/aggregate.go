package reporting

import (
	"math"
	"sort"
	"time"
)

// StatementRow is the per-strategy slice of an aggregate report.
type StatementRow struct {
	StrategyName    string
	SeriesName      string
	Positions       int
	Wins            int
	Losses          int
	BreakEvens      int
	TotalProfitLoss float64
}

// AggregateReport summarizes a set of statements across strategies.
// Order-dependent figures (drawdown, loss streak) follow the input
// statement order and, within a statement, position order.
type AggregateReport struct {
	GeneratedAt time.Time

	StrategyCount  int
	TotalPositions int
	Wins           int
	Losses         int
	BreakEvens     int
	WinRate        float64

	ProfitMean   float64
	ProfitMedian float64
	ProfitStddev float64
	ProfitP10    float64
	ProfitP90    float64
	ProfitMin    float64
	ProfitMax    float64

	MaxDrawdown          float64
	MaxConsecutiveLosses int

	Rows []StatementRow
}

// Aggregator folds statements into an AggregateReport.
type Aggregator struct {
	now func() time.Time // Injectable clock for deterministic output
}

// NewAggregator creates an aggregator with a UTC wall clock.
func NewAggregator() *Aggregator {
	return &Aggregator{now: func() time.Time { return time.Now().UTC() }}
}

// WithClock sets a custom clock function for deterministic output.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// Aggregate computes the cross-strategy report. Statements keep their
// given order so order-dependent metrics are reproducible.
func (a *Aggregator) Aggregate(statements []*Statement) *AggregateReport {
	report := &AggregateReport{
		GeneratedAt:   a.now(),
		StrategyCount: len(statements),
	}

	var profits []float64
	for _, s := range statements {
		row := StatementRow{
			StrategyName:    s.StrategyName,
			SeriesName:      s.SeriesName,
			Positions:       len(s.Record.Positions()),
			Wins:            s.PositionStats.ProfitCount,
			Losses:          s.PositionStats.LossCount,
			BreakEvens:      s.PositionStats.BreakEvenCount,
			TotalProfitLoss: s.Performance.TotalProfitLoss,
		}
		report.Rows = append(report.Rows, row)
		report.TotalPositions += row.Positions
		report.Wins += row.Wins
		report.Losses += row.Losses
		report.BreakEvens += row.BreakEvens

		for _, position := range s.Record.Positions() {
			profits = append(profits, position.Profit())
		}
	}

	if len(profits) == 0 {
		return report
	}

	report.WinRate = float64(report.Wins) / float64(report.TotalPositions)

	sorted := make([]float64, len(profits))
	copy(sorted, profits)
	sort.Float64s(sorted)

	mean := computeMean(profits)
	report.ProfitMean = mean
	report.ProfitMedian = computePercentile(sorted, 0.50)
	report.ProfitStddev = computeStddev(profits, mean)
	report.ProfitP10 = computePercentile(sorted, 0.10)
	report.ProfitP90 = computePercentile(sorted, 0.90)
	report.ProfitMin = sorted[0]
	report.ProfitMax = sorted[len(sorted)-1]
	report.MaxDrawdown = computeMaxDrawdown(profits)
	report.MaxConsecutiveLosses = computeMaxConsecutiveLosses(profits)

	return report
}

// computeMean calculates arithmetic mean of values.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// computeStddev calculates sample standard deviation (n-1 denominator).
func computeStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// computePercentile uses linear interpolation.
// sorted must be pre-sorted ASC. p is percentile (0.10 = 10th).
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// computeMaxDrawdown calculates worst peak-to-trough on cumulative
// profits. Profits must be in chronological order.
func computeMaxDrawdown(profits []float64) float64 {
	if len(profits) == 0 {
		return 0
	}

	cumulative := 0.0
	peak := 0.0
	maxDrawdown := 0.0

	for _, p := range profits {
		cumulative += p
		if cumulative > peak {
			peak = cumulative
		}
		drawdown := peak - cumulative
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	return maxDrawdown
}

// computeMaxConsecutiveLosses finds the longest streak of profit < 0.
func computeMaxConsecutiveLosses(profits []float64) int {
	maxStreak := 0
	currentStreak := 0

	for _, p := range profits {
		if p < 0 {
			currentStreak++
			if currentStreak > maxStreak {
				maxStreak = currentStreak
			}
		} else {
			currentStreak = 0
		}
	}
	return maxStreak
}
