package storage

import (
	"context"

	"news-trade-lab/internal/dataset"
	"news-trade-lab/internal/domain"
)

// DatasetStore caches materialized dataset tables keyed by DatasetKey.
type DatasetStore interface {
	// Get retrieves the table stored under key. Returns ErrNotFound if
	// nothing has been stored for it.
	Get(ctx context.Context, key DatasetKey) (*dataset.Table, error)

	// Put stores the table under key, replacing any previous version.
	Put(ctx context.Context, key DatasetKey, table *dataset.Table) error
}

// TradeRecordStore provides access to trade_records storage.
type TradeRecordStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
	Insert(ctx context.Context, t *domain.TradeRecord) error

	// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, trades []*domain.TradeRecord) error

	// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error)

	// GetBySymbol retrieves all trades for a symbol, ordered by entry time ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.TradeRecord, error)

	// GetByStrategy retrieves all trades for a symbol/strategy combination,
	// ordered by entry time ASC.
	GetByStrategy(ctx context.Context, symbol, strategyID string) ([]*domain.TradeRecord, error)
}

// RunSummaryStore provides access to run_summaries storage.
type RunSummaryStore interface {
	// Insert adds a new summary. Returns ErrDuplicateKey if the
	// (symbol, month, strategy_id) key exists.
	Insert(ctx context.Context, s *domain.RunSummary) error

	// GetByKey retrieves a summary by its composite key.
	GetByKey(ctx context.Context, symbol, month, strategyID string) (*domain.RunSummary, error)

	// GetBySymbol retrieves all summaries for a symbol.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.RunSummary, error)

	// GetAll retrieves all summaries.
	GetAll(ctx context.Context) ([]*domain.RunSummary, error)
}
