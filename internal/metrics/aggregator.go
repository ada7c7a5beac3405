package metrics

import (
	"context"
	"errors"

	"news-trade-lab/internal/storage"
)

// ErrNoTrades is returned when no trades are available for aggregation.
var ErrNoTrades = errors.New("no trades available for aggregation")

// Aggregator computes score statistics from persisted trade records.
type Aggregator struct {
	tradeRecordStore storage.TradeRecordStore
}

// NewAggregator creates a new metrics aggregator.
func NewAggregator(tradeStore storage.TradeRecordStore) *Aggregator {
	return &Aggregator{tradeRecordStore: tradeStore}
}

// ComputeStats loads all trades for a (symbol, strategy) combination and
// computes the score distribution. Returns ErrNoTrades when none match.
func (a *Aggregator) ComputeStats(ctx context.Context, symbol, strategyID string) (*ScoreStats, error) {
	trades, err := a.tradeRecordStore.GetByStrategy(ctx, symbol, strategyID)
	if err != nil {
		return nil, err
	}
	if len(trades) == 0 {
		return nil, ErrNoTrades
	}

	stats := computeFromTrades(trades)
	stats.Symbol = symbol
	stats.StrategyID = strategyID
	return stats, nil
}
