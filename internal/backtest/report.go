package backtest

import (
	"sort"
	"time"
)

// RuntimeStats describes how long the individual strategy runs took.
type RuntimeStats struct {
	Total  time.Duration
	Min    time.Duration
	Max    time.Duration
	Mean   time.Duration
	Median time.Duration
}

// computeRuntimeStats folds run durations into summary statistics.
// Median of an even count is the average of the two middle values.
func computeRuntimeStats(durations []time.Duration) RuntimeStats {
	n := len(durations)
	if n == 0 {
		return RuntimeStats{}
	}

	sorted := make([]time.Duration, n)
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, d := range sorted {
		total += d
	}

	var median time.Duration
	if n%2 == 1 {
		median = sorted[n/2]
	} else {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	return RuntimeStats{
		Total:  total,
		Min:    sorted[0],
		Max:    sorted[n-1],
		Mean:   total / time.Duration(n),
		Median: median,
	}
}
