package memory

import (
	"context"
	"sort"
	"sync"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/storage"
)

type tradeLogKey struct {
	runID string
	seq   int
}

// TradeLogStore is an in-memory implementation of storage.TradeLogStore.
type TradeLogStore struct {
	mu   sync.RWMutex
	data map[tradeLogKey]*domain.TradeLog
}

// NewTradeLogStore creates a new in-memory trade log store.
func NewTradeLogStore() *TradeLogStore {
	return &TradeLogStore{
		data: make(map[tradeLogKey]*domain.TradeLog),
	}
}

// Insert adds a new trade log. Returns ErrDuplicateKey if (run_id, seq) exists.
func (s *TradeLogStore) Insert(_ context.Context, t *domain.TradeLog) error {
	if t == nil || t.RunID == "" || t.Seq < 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := tradeLogKey{t.RunID, t.Seq}
	if _, exists := s.data[k]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *t
	s.data[k] = &copy
	return nil
}

// InsertBulk adds multiple trade logs atomically. Fails entire batch on any duplicate.
func (s *TradeLogStore) InsertBulk(_ context.Context, logs []*domain.TradeLog) error {
	if len(logs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[tradeLogKey]struct{}, len(logs))

	// First pass: check for duplicates (existing + intra-batch)
	for _, t := range logs {
		if t == nil || t.RunID == "" || t.Seq < 0 {
			return storage.ErrInvalidInput
		}

		k := tradeLogKey{t.RunID, t.Seq}
		if _, exists := s.data[k]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[k]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[k] = struct{}{}
	}

	// Second pass: insert all
	for _, t := range logs {
		copy := *t
		s.data[tradeLogKey{t.RunID, t.Seq}] = &copy
	}

	return nil
}

// GetByRunID retrieves all trade logs for a run, ordered by seq ASC.
func (s *TradeLogStore) GetByRunID(_ context.Context, runID string) ([]*domain.TradeLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TradeLog
	for _, t := range s.data {
		if t.RunID == runID {
			copy := *t
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Seq < result[j].Seq
	})

	return result, nil
}

var _ storage.TradeLogStore = (*TradeLogStore)(nil)
