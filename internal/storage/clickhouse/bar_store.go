package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/storage"
)

// BarStore implements storage.BarStore using ClickHouse.
type BarStore struct {
	conn *Conn
}

// NewBarStore creates a new BarStore.
func NewBarStore(conn *Conn) *BarStore {
	return &BarStore{conn: conn}
}

// Compile-time interface check.
var _ storage.BarStore = (*BarStore)(nil)

// InsertBulk adds multiple bars for a series. Fails entire batch on
// duplicate (series_name, open_time_ms).
func (s *BarStore) InsertBulk(ctx context.Context, seriesName string, bars []domain.Bar) (err error) {
	if seriesName == "" {
		return storage.ErrInvalidInput
	}
	if len(bars) == 0 {
		return nil
	}
	defer observeQuery("insert_bars_bulk", time.Now(), &err)

	// Check for intra-batch duplicates
	seen := make(map[int64]struct{}, len(bars))
	for _, b := range bars {
		if _, exists := seen[b.OpenTimeMs]; exists {
			return storage.ErrDuplicateKey
		}
		seen[b.OpenTimeMs] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	// MergeTree does not enforce uniqueness at insert time
	for _, b := range bars {
		exists, err := s.exists(ctx, seriesName, b.OpenTimeMs)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO bars (
			series_name, open_time_ms, open, high, low, close, volume
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, b := range bars {
		err = batch.Append(
			seriesName, uint64(b.OpenTimeMs),
			b.Open, b.High, b.Low, b.Close, b.Volume,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetBySeries retrieves all bars of a series, ordered by open_time_ms ASC.
func (s *BarStore) GetBySeries(ctx context.Context, seriesName string) (bars []domain.Bar, err error) {
	defer observeQuery("get_bars_by_series", time.Now(), &err)

	query := `
		SELECT open_time_ms, open, high, low, close, volume
		FROM bars
		WHERE series_name = ?
		ORDER BY open_time_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, seriesName)
	if err != nil {
		return nil, fmt.Errorf("query bars by series: %w", err)
	}
	defer rows.Close()

	return scanBars(rows)
}

// GetByTimeRange retrieves bars of a series within [start, end] (inclusive).
func (s *BarStore) GetByTimeRange(ctx context.Context, seriesName string, start, end int64) (bars []domain.Bar, err error) {
	defer observeQuery("get_bars_by_time_range", time.Now(), &err)

	query := `
		SELECT open_time_ms, open, high, low, close, volume
		FROM bars
		WHERE series_name = ? AND open_time_ms >= ? AND open_time_ms <= ?
		ORDER BY open_time_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, seriesName, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query bars by time range: %w", err)
	}
	defer rows.Close()

	return scanBars(rows)
}

func (s *BarStore) exists(ctx context.Context, seriesName string, openTimeMs int64) (bool, error) {
	query := `
		SELECT count() FROM bars
		WHERE series_name = ? AND open_time_ms = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, seriesName, uint64(openTimeMs)).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func scanBars(rows driver.Rows) ([]domain.Bar, error) {
	var result []domain.Bar
	for rows.Next() {
		var openTimeMs uint64
		var b domain.Bar
		if err := rows.Scan(&openTimeMs, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		b.OpenTimeMs = int64(openTimeMs)
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bars: %w", err)
	}
	return result, nil
}
