package marketdata

import (
	"context"
	"fmt"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/storage"
)

// LoadFromStore builds a bar series from stored bars.
func LoadFromStore(ctx context.Context, store storage.BarStore, seriesName string) (*domain.BaseBarSeries, error) {
	bars, err := store.GetBySeries(ctx, seriesName)
	if err != nil {
		return nil, fmt.Errorf("load bars for %s: %w", seriesName, err)
	}
	return domain.NewBaseBarSeries(seriesName, bars)
}

// LoadRangeFromStore builds a bar series from stored bars within
// [start, end] open times (inclusive).
func LoadRangeFromStore(ctx context.Context, store storage.BarStore, seriesName string, start, end int64) (*domain.BaseBarSeries, error) {
	bars, err := store.GetByTimeRange(ctx, seriesName, start, end)
	if err != nil {
		return nil, fmt.Errorf("load bars for %s: %w", seriesName, err)
	}
	return domain.NewBaseBarSeries(seriesName, bars)
}
