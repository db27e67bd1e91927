package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/storage"
)

// RunResultStore implements storage.RunResultStore using PostgreSQL.
type RunResultStore struct {
	pool *Pool
}

// NewRunResultStore creates a new RunResultStore.
func NewRunResultStore(pool *Pool) *RunResultStore {
	return &RunResultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunResultStore = (*RunResultStore)(nil)

const runResultColumns = `
	run_id, series_name, strategy_name, starting_side,
	start_index, end_index,
	trade_count, position_count, rejected_orders,
	total_profit_loss, wins, losses, break_evens,
	duration_ms, created_at_ms
`

// Insert adds a new run result. Returns ErrDuplicateKey if run_id exists.
func (s *RunResultStore) Insert(ctx context.Context, r *domain.RunResult) (err error) {
	defer observeQuery("insert_run_result", time.Now(), &err)

	query := `
		INSERT INTO run_results (` + runResultColumns + `
		) VALUES (
			$1, $2, $3, $4,
			$5, $6,
			$7, $8, $9,
			$10, $11, $12, $13,
			$14, $15
		)
	`

	_, err = s.pool.Exec(ctx, query,
		r.RunID, r.SeriesName, r.StrategyName, r.StartingSide,
		r.StartIndex, r.EndIndex,
		r.TradeCount, r.PositionCount, r.RejectedOrders,
		r.TotalProfitLoss, r.Wins, r.Losses, r.BreakEvens,
		r.DurationMs, r.CreatedAtMs,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run result: %w", err)
	}
	return nil
}

// GetByID retrieves a run result by its ID. Returns ErrNotFound if not exists.
func (s *RunResultStore) GetByID(ctx context.Context, runID string) (result *domain.RunResult, err error) {
	defer observeQuery("get_run_result_by_id", time.Now(), &err)

	query := `
		SELECT ` + runResultColumns + `
		FROM run_results
		WHERE run_id = $1
	`

	row := s.pool.QueryRow(ctx, query, runID)
	r, err := scanRunResult(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run result by id: %w", err)
	}
	return r, nil
}

// GetBySeries retrieves all run results for a series, ordered by created_at_ms ASC.
func (s *RunResultStore) GetBySeries(ctx context.Context, seriesName string) (results []*domain.RunResult, err error) {
	defer observeQuery("get_run_results_by_series", time.Now(), &err)

	query := `
		SELECT ` + runResultColumns + `
		FROM run_results
		WHERE series_name = $1
		ORDER BY created_at_ms ASC, run_id ASC
	`

	rows, err := s.pool.Query(ctx, query, seriesName)
	if err != nil {
		return nil, fmt.Errorf("query run results by series: %w", err)
	}
	defer rows.Close()

	return scanRunResults(rows)
}

// GetAll retrieves all run results, ordered by created_at_ms ASC.
func (s *RunResultStore) GetAll(ctx context.Context) (results []*domain.RunResult, err error) {
	defer observeQuery("get_all_run_results", time.Now(), &err)

	query := `
		SELECT ` + runResultColumns + `
		FROM run_results
		ORDER BY created_at_ms ASC, run_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query all run results: %w", err)
	}
	defer rows.Close()

	return scanRunResults(rows)
}

func scanRunResult(row pgx.Row) (*domain.RunResult, error) {
	var r domain.RunResult
	err := row.Scan(
		&r.RunID, &r.SeriesName, &r.StrategyName, &r.StartingSide,
		&r.StartIndex, &r.EndIndex,
		&r.TradeCount, &r.PositionCount, &r.RejectedOrders,
		&r.TotalProfitLoss, &r.Wins, &r.Losses, &r.BreakEvens,
		&r.DurationMs, &r.CreatedAtMs,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func scanRunResults(rows pgx.Rows) ([]*domain.RunResult, error) {
	var result []*domain.RunResult
	for rows.Next() {
		r, err := scanRunResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run result: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run results: %w", err)
	}
	return result, nil
}
