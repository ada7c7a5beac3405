// Package pipeline orchestrates the retrieve-or-build flow for trading
// datasets: dataset store lookup, raw-trade reduction, feature compilation
// and write-back.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"news-trade-lab/internal/dataset"
	"news-trade-lab/internal/domain"
	"news-trade-lab/internal/feature"
	"news-trade-lab/internal/observability"
	"news-trade-lab/internal/reduce"
	"news-trade-lab/internal/storage"
)

// TradeSource supplies one calendar month of raw aggregated trades for one
// symbol. Implementations retry transient failures internally; an error
// returned here is final.
type TradeSource interface {
	Fetch(ctx context.Context, symbol, month string) ([]domain.AggTrade, error)
}

// ErrDataUnavailable means the requested symbol/month cannot be produced:
// the raw source has nothing for it, or a cached read failed for good.
// Batch callers skip the unit and continue.
var ErrDataUnavailable = errors.New("dataset unavailable")

// Builder materializes trading datasets, reusing the dataset store wherever
// the cached copy is complete for the request.
type Builder struct {
	source TradeSource
	store  storage.DatasetStore
	news   feature.NewsProvider
	logger zerolog.Logger
}

// NewBuilder creates a dataset builder. news may be nil when no spec passed
// to it contains a news_signal feature.
func NewBuilder(source TradeSource, store storage.DatasetStore, news feature.NewsProvider, logger zerolog.Logger) *Builder {
	return &Builder{
		source: source,
		store:  store,
		news:   news,
		logger: logger,
	}
}

// Request names one trading dataset to build or retrieve.
type Request struct {
	Symbol string
	Month  string // "2021-08"
	Spec   *feature.Spec

	// Recompile skips the compiled-dataset cache lookup. The reduced
	// table is still reused; raw reduction is deterministic.
	Recompile bool
}

// ReducedTable returns the per-second bar table for symbol/month, building
// it from the raw source on a cache miss. A successful build is persisted
// before it is returned; a failed write is an error, not a warning, so no
// run proceeds on data the next run cannot see.
func (b *Builder) ReducedTable(ctx context.Context, symbol, month string) (*dataset.Table, error) {
	key := storage.DatasetKey{Kind: storage.KindReduced, Symbol: symbol, Month: month}

	cached, err := b.store.Get(ctx, key)
	switch {
	case err == nil:
		observability.RecordDatasetLookup("hit")
		return cached, nil
	case errors.Is(err, storage.ErrNotFound):
		observability.RecordDatasetLookup("miss")
	default:
		return nil, fmt.Errorf("%w: read %s: %v", ErrDataUnavailable, key, err)
	}

	start := time.Now()
	trades, err := b.source.Fetch(ctx, symbol, month)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s %s: %v", ErrDataUnavailable, symbol, month, err)
	}

	table, err := reduce.ReduceToTable(trades)
	if err != nil {
		if errors.Is(err, reduce.ErrNoData) {
			return nil, fmt.Errorf("%w: %s %s: %v", ErrDataUnavailable, symbol, month, err)
		}
		return nil, fmt.Errorf("reduce %s %s: %w", symbol, month, err)
	}

	if err := b.store.Put(ctx, key, table); err != nil {
		return nil, fmt.Errorf("store reduced dataset %s: %w", key, err)
	}

	b.logger.Info().
		Str("key", key.String()).
		Int("rows", table.Len()).
		Dur("elapsed", time.Since(start)).
		Msg("reduced dataset built")
	observability.RecordPipelineRun("reduce", "ok", time.Since(start).Seconds())

	return table, nil
}

// TradingDataset returns the feature-compiled table for the request along
// with the spec ID that keys it. A cached table is reused only when it
// holds every column the spec produces; anything less is rebuilt from the
// reduced table and written back.
func (b *Builder) TradingDataset(ctx context.Context, req Request) (*dataset.Table, string, error) {
	specID, err := req.Spec.ID()
	if err != nil {
		return nil, "", fmt.Errorf("spec id: %w", err)
	}
	key := storage.DatasetKey{Kind: storage.KindCompiled, Symbol: req.Symbol, Month: req.Month, SpecID: specID}

	if !req.Recompile {
		cached, err := b.store.Get(ctx, key)
		switch {
		case err == nil:
			if hasColumns(cached, req.Spec.OutputColumns()) {
				observability.RecordDatasetLookup("hit")
				return cached, specID, nil
			}
			observability.RecordDatasetLookup("partial")
			b.logger.Debug().Str("key", key.String()).Msg("cached dataset incomplete, recompiling")
		case errors.Is(err, storage.ErrNotFound):
			observability.RecordDatasetLookup("miss")
		default:
			return nil, "", fmt.Errorf("%w: read %s: %v", ErrDataUnavailable, key, err)
		}
	}

	reduced, err := b.ReducedTable(ctx, req.Symbol, req.Month)
	if err != nil {
		return nil, "", err
	}

	start := time.Now()
	compiled, err := feature.New(req.Symbol, b.news).Apply(ctx, reduced, req.Spec)
	if err != nil {
		observability.RecordPipelineRun("compile", "error", time.Since(start).Seconds())
		return nil, "", fmt.Errorf("compile %s %s: %w", req.Symbol, req.Month, err)
	}

	if err := b.store.Put(ctx, key, compiled); err != nil {
		return nil, "", fmt.Errorf("store compiled dataset %s: %w", key, err)
	}

	b.logger.Info().
		Str("key", key.String()).
		Int("rows", compiled.Len()).
		Int("columns", len(compiled.Columns())).
		Dur("elapsed", time.Since(start)).
		Msg("trading dataset compiled")
	observability.RecordPipelineRun("compile", "ok", time.Since(start).Seconds())

	return compiled, specID, nil
}

func hasColumns(t *dataset.Table, names []string) bool {
	for _, n := range names {
		if !t.HasColumn(n) {
			return false
		}
	}
	return true
}
