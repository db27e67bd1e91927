package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/storage"
)

func sampleBars(times ...int64) []domain.Bar {
	bars := make([]domain.Bar, len(times))
	for i, ts := range times {
		bars[i] = domain.Bar{
			OpenTimeMs: ts,
			Open:       100,
			High:       101,
			Low:        99,
			Close:      100.5,
			Volume:     1000,
		}
	}
	return bars
}

func TestBarStore_InsertBulkAndGetBySeries(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewBarStore(conn)
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, "BTCUSDT", sampleBars(3000, 1000, 2000)))

	bars, err := store.GetBySeries(ctx, "BTCUSDT")
	require.NoError(t, err)
	require.Len(t, bars, 3)

	for i, want := range []int64{1000, 2000, 3000} {
		assert.Equal(t, want, bars[i].OpenTimeMs)
	}
	assert.Equal(t, 100.5, bars[0].Close)
	assert.Equal(t, 1000.0, bars[0].Volume)
}

func TestBarStore_DuplicateOpenTime(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewBarStore(conn)
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, "BTCUSDT", sampleBars(1000)))

	// MergeTree does not enforce uniqueness; the store pre-checks.
	err := store.InsertBulk(ctx, "BTCUSDT", sampleBars(2000, 1000))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	bars, err := store.GetBySeries(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.Len(t, bars, 1)
}

func TestBarStore_IntraBatchDuplicate(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewBarStore(conn)

	err := store.InsertBulk(context.Background(), "BTCUSDT", sampleBars(1000, 1000))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestBarStore_GetByTimeRange(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewBarStore(conn)
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, "BTCUSDT", sampleBars(1000, 2000, 3000, 4000)))

	bars, err := store.GetByTimeRange(ctx, "BTCUSDT", 2000, 3000)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, int64(2000), bars[0].OpenTimeMs)
	assert.Equal(t, int64(3000), bars[1].OpenTimeMs)
}

func TestBarStore_SeriesAreIsolated(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewBarStore(conn)
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, "BTCUSDT", sampleBars(1000)))
	require.NoError(t, store.InsertBulk(ctx, "ETHUSDT", sampleBars(1000)))

	bars, err := store.GetBySeries(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.Len(t, bars, 1)
}
