package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-trade-lab/internal/domain"
	"news-trade-lab/internal/storage"
)

func testSummary(symbol, month, strategyID string) *domain.RunSummary {
	return &domain.RunSummary{
		Symbol:          symbol,
		Month:           month,
		StrategyID:      strategyID,
		TotalTrades:     10,
		PositiveTrades:  6,
		NegativeTrades:  4,
		TotalTradeScore: 0.12,
		BestOutcomePct:  0.45,
		WorstOutcomePct: -0.2,
	}
}

func TestRunSummaryStore_InsertAndGetByKey(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRunSummaryStore(conn)

	require.NoError(t, store.Insert(ctx, testSummary("BTCUSDT", "2021-08", "tp_sl")))

	got, err := store.GetByKey(ctx, "BTCUSDT", "2021-08", "tp_sl")
	require.NoError(t, err)
	assert.Equal(t, 10, got.TotalTrades)
	assert.Equal(t, 6, got.PositiveTrades)
	assert.InDelta(t, 0.12, got.TotalTradeScore, 1e-12)
}

func TestRunSummaryStore_DuplicateInsert(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRunSummaryStore(conn)

	require.NoError(t, store.Insert(ctx, testSummary("BTCUSDT", "2021-08", "tp_sl")))

	err := store.Insert(ctx, testSummary("BTCUSDT", "2021-08", "tp_sl"))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestRunSummaryStore_GetByKeyNotFound(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunSummaryStore(conn)

	_, err := store.GetByKey(context.Background(), "BTCUSDT", "2021-08", "absent")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRunSummaryStore_GetBySymbolAndGetAll(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRunSummaryStore(conn)

	require.NoError(t, store.Insert(ctx, testSummary("BTCUSDT", "2021-09", "tp_sl")))
	require.NoError(t, store.Insert(ctx, testSummary("BTCUSDT", "2021-08", "flow_ratio")))
	require.NoError(t, store.Insert(ctx, testSummary("ETHUSDT", "2021-08", "tp_sl")))

	bySymbol, err := store.GetBySymbol(ctx, "BTCUSDT")
	require.NoError(t, err)
	require.Len(t, bySymbol, 2)
	assert.Equal(t, "2021-08", bySymbol[0].Month)

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
