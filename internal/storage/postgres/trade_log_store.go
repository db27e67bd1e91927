package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/storage"
)

// TradeLogStore implements storage.TradeLogStore using PostgreSQL.
type TradeLogStore struct {
	pool *Pool
}

// NewTradeLogStore creates a new TradeLogStore.
func NewTradeLogStore(pool *Pool) *TradeLogStore {
	return &TradeLogStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeLogStore = (*TradeLogStore)(nil)

const tradeLogInsert = `
	INSERT INTO trade_logs (
		run_id, seq, side, bar_index, price, amount, cost, net_price
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8
	)
`

// Insert adds a new trade log. Returns ErrDuplicateKey if (run_id, seq) exists.
func (s *TradeLogStore) Insert(ctx context.Context, t *domain.TradeLog) (err error) {
	defer observeQuery("insert_trade_log", time.Now(), &err)

	_, err = s.pool.Exec(ctx, tradeLogInsert,
		t.RunID, t.Seq, t.Side, t.BarIndex, t.Price, t.Amount, t.Cost, t.NetPrice,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade log: %w", err)
	}
	return nil
}

// InsertBulk adds multiple trade logs atomically. Fails entire batch on any duplicate.
func (s *TradeLogStore) InsertBulk(ctx context.Context, logs []*domain.TradeLog) (err error) {
	if len(logs) == 0 {
		return nil
	}
	defer observeQuery("insert_trade_logs_bulk", time.Now(), &err)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range logs {
		_, err := tx.Exec(ctx, tradeLogInsert,
			t.RunID, t.Seq, t.Side, t.BarIndex, t.Price, t.Amount, t.Cost, t.NetPrice,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade log in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByRunID retrieves all trade logs for a run, ordered by seq ASC.
func (s *TradeLogStore) GetByRunID(ctx context.Context, runID string) (logs []*domain.TradeLog, err error) {
	defer observeQuery("get_trade_logs_by_run_id", time.Now(), &err)

	query := `
		SELECT run_id, seq, side, bar_index, price, amount, cost, net_price
		FROM trade_logs
		WHERE run_id = $1
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query trade logs by run id: %w", err)
	}
	defer rows.Close()

	return scanTradeLogs(rows)
}

func scanTradeLogs(rows pgx.Rows) ([]*domain.TradeLog, error) {
	var result []*domain.TradeLog
	for rows.Next() {
		var t domain.TradeLog
		err := rows.Scan(
			&t.RunID, &t.Seq, &t.Side, &t.BarIndex, &t.Price, &t.Amount, &t.Cost, &t.NetPrice,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade log: %w", err)
		}
		result = append(result, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade logs: %w", err)
	}
	return result, nil
}
