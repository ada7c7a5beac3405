package metrics

import (
	"context"
	"errors"
	"testing"

	"news-trade-lab/internal/domain"
	"news-trade-lab/internal/storage/memory"
)

func TestAggregator_ComputeStats(t *testing.T) {
	store := memory.NewTradeRecordStore()
	ctx := context.Background()

	trades := []*domain.TradeRecord{
		{TradeID: "t1", Symbol: "BTCUSDT", StrategyID: "TP_SL_0.01_0.005", EntryTime: 1000, TradeScore: 0.04},
		{TradeID: "t2", Symbol: "BTCUSDT", StrategyID: "TP_SL_0.01_0.005", EntryTime: 2000, TradeScore: -0.01},
		{TradeID: "t3", Symbol: "BTCUSDT", StrategyID: "TP_SL_0.01_0.005", EntryTime: 3000, TradeScore: 0.02},
		// Different strategy, must be excluded.
		{TradeID: "t4", Symbol: "BTCUSDT", StrategyID: "TP_SL_0.02_0.01", EntryTime: 1000, TradeScore: -0.5},
	}
	if err := store.InsertBulk(ctx, trades); err != nil {
		t.Fatalf("InsertBulk: %v", err)
	}

	agg := NewAggregator(store)
	stats, err := agg.ComputeStats(ctx, "BTCUSDT", "TP_SL_0.01_0.005")
	if err != nil {
		t.Fatalf("ComputeStats: %v", err)
	}

	if stats.Symbol != "BTCUSDT" || stats.StrategyID != "TP_SL_0.01_0.005" {
		t.Errorf("identity = %s/%s", stats.Symbol, stats.StrategyID)
	}
	if stats.TotalTrades != 3 || stats.PositiveTrades != 2 || stats.NegativeTrades != 1 {
		t.Errorf("counts = %d/%d/%d", stats.TotalTrades, stats.PositiveTrades, stats.NegativeTrades)
	}
	if stats.ScoreMin != -0.01 || stats.ScoreMax != 0.04 {
		t.Errorf("min/max = %f/%f", stats.ScoreMin, stats.ScoreMax)
	}
}

func TestAggregator_ComputeStats_NoTrades(t *testing.T) {
	agg := NewAggregator(memory.NewTradeRecordStore())

	_, err := agg.ComputeStats(context.Background(), "BTCUSDT", "TP_SL_0.01_0.005")
	if !errors.Is(err, ErrNoTrades) {
		t.Errorf("err = %v, want ErrNoTrades", err)
	}
}
