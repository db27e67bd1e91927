package storage

import (
	"context"

	"backtest-lab/internal/domain"
)

// RunResultStore provides access to run_results storage.
type RunResultStore interface {
	// Insert adds a new run result. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.RunResult) error

	// GetByID retrieves a run result by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.RunResult, error)

	// GetBySeries retrieves all run results for a series, ordered by created_at_ms ASC.
	GetBySeries(ctx context.Context, seriesName string) ([]*domain.RunResult, error)

	// GetAll retrieves all run results, ordered by created_at_ms ASC.
	GetAll(ctx context.Context) ([]*domain.RunResult, error)
}

// TradeLogStore provides access to trade_logs storage.
type TradeLogStore interface {
	// Insert adds a new trade log. Returns ErrDuplicateKey if (run_id, seq) exists.
	Insert(ctx context.Context, t *domain.TradeLog) error

	// InsertBulk adds multiple trade logs atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, logs []*domain.TradeLog) error

	// GetByRunID retrieves all trade logs for a run, ordered by seq ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.TradeLog, error)
}

// BarStore provides access to bar time series storage.
type BarStore interface {
	// InsertBulk adds multiple bars for a series. Fails entire batch on
	// duplicate (series_name, open_time_ms).
	InsertBulk(ctx context.Context, seriesName string, bars []domain.Bar) error

	// GetBySeries retrieves all bars of a series, ordered by open_time_ms ASC.
	GetBySeries(ctx context.Context, seriesName string) ([]domain.Bar, error)

	// GetByTimeRange retrieves bars of a series within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, seriesName string, start, end int64) ([]domain.Bar, error)
}
