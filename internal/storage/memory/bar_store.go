package memory

import (
	"context"
	"sort"
	"sync"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/storage"
)

// BarStore is an in-memory implementation of storage.BarStore.
type BarStore struct {
	mu   sync.RWMutex
	data map[string]map[int64]domain.Bar // series_name -> open_time_ms -> bar
}

// NewBarStore creates a new in-memory bar store.
func NewBarStore() *BarStore {
	return &BarStore{
		data: make(map[string]map[int64]domain.Bar),
	}
}

// InsertBulk adds multiple bars for a series. Fails entire batch on
// duplicate (series_name, open_time_ms).
func (s *BarStore) InsertBulk(_ context.Context, seriesName string, bars []domain.Bar) error {
	if seriesName == "" {
		return storage.ErrInvalidInput
	}
	if len(bars) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	series := s.data[seriesName]

	// First pass: check for duplicates (existing + intra-batch)
	batchKeys := make(map[int64]struct{}, len(bars))
	for _, b := range bars {
		if _, exists := series[b.OpenTimeMs]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[b.OpenTimeMs]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[b.OpenTimeMs] = struct{}{}
	}

	// Second pass: insert all
	if series == nil {
		series = make(map[int64]domain.Bar, len(bars))
		s.data[seriesName] = series
	}
	for _, b := range bars {
		series[b.OpenTimeMs] = b
	}

	return nil
}

// GetBySeries retrieves all bars of a series, ordered by open_time_ms ASC.
func (s *BarStore) GetBySeries(_ context.Context, seriesName string) ([]domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series := s.data[seriesName]
	result := make([]domain.Bar, 0, len(series))
	for _, b := range series {
		result = append(result, b)
	}

	sortBars(result)
	return result, nil
}

// GetByTimeRange retrieves bars of a series within [start, end] (inclusive).
func (s *BarStore) GetByTimeRange(_ context.Context, seriesName string, start, end int64) ([]domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Bar
	for _, b := range s.data[seriesName] {
		if b.OpenTimeMs >= start && b.OpenTimeMs <= end {
			result = append(result, b)
		}
	}

	sortBars(result)
	return result, nil
}

func sortBars(bars []domain.Bar) {
	sort.Slice(bars, func(i, j int) bool {
		return bars[i].OpenTimeMs < bars[j].OpenTimeMs
	})
}

var _ storage.BarStore = (*BarStore)(nil)
