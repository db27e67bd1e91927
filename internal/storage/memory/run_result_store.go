package memory

import (
	"context"
	"sort"
	"sync"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/storage"
)

// RunResultStore is an in-memory implementation of storage.RunResultStore.
type RunResultStore struct {
	mu   sync.RWMutex
	data map[string]*domain.RunResult // keyed by run_id
}

// NewRunResultStore creates a new in-memory run result store.
func NewRunResultStore() *RunResultStore {
	return &RunResultStore{
		data: make(map[string]*domain.RunResult),
	}
}

// Insert adds a new run result. Returns ErrDuplicateKey if run_id exists.
func (s *RunResultStore) Insert(_ context.Context, r *domain.RunResult) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *r
	s.data[r.RunID] = &copy
	return nil
}

// GetByID retrieves a run result by its ID. Returns ErrNotFound if not exists.
func (s *RunResultStore) GetByID(_ context.Context, runID string) (*domain.RunResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *r
	return &copy, nil
}

// GetBySeries retrieves all run results for a series, ordered by created_at_ms ASC.
func (s *RunResultStore) GetBySeries(_ context.Context, seriesName string) ([]*domain.RunResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RunResult
	for _, r := range s.data {
		if r.SeriesName == seriesName {
			copy := *r
			result = append(result, &copy)
		}
	}

	sortRunResults(result)
	return result, nil
}

// GetAll retrieves all run results, ordered by created_at_ms ASC.
func (s *RunResultStore) GetAll(_ context.Context) ([]*domain.RunResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.RunResult, 0, len(s.data))
	for _, r := range s.data {
		copy := *r
		result = append(result, &copy)
	}

	sortRunResults(result)
	return result, nil
}

// sortRunResults orders by created_at_ms ASC, run_id ASC for determinism.
func sortRunResults(results []*domain.RunResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].CreatedAtMs != results[j].CreatedAtMs {
			return results[i].CreatedAtMs < results[j].CreatedAtMs
		}
		return results[i].RunID < results[j].RunID
	})
}

var _ storage.RunResultStore = (*RunResultStore)(nil)
