package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"news-trade-lab/internal/domain"
	"news-trade-lab/internal/storage"
)

// TradeRecordStore implements storage.TradeRecordStore using PostgreSQL.
type TradeRecordStore struct {
	pool *Pool
}

// NewTradeRecordStore creates a new TradeRecordStore.
func NewTradeRecordStore(pool *Pool) *TradeRecordStore {
	return &TradeRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeRecordStore = (*TradeRecordStore)(nil)

const tradeRecordColumns = `
	trade_id, symbol, strategy_id, trade_number, position_side,
	entry_time, entry_price,
	exit_time, exit_price, exit_reason,
	tp_price, sl_price, tp_price_hit, sl_price_hit,
	max_pos_pct_change, max_pos_pct_change_time,
	max_neg_pct_change, max_neg_pct_change_time,
	trade_score
`

const insertTradeRecordQuery = `
	INSERT INTO trade_records (` + tradeRecordColumns + `) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7,
		$8, $9, $10,
		$11, $12, $13, $14,
		$15, $16,
		$17, $18,
		$19
	)
`

func tradeRecordArgs(t *domain.TradeRecord) []any {
	return []any{
		t.TradeID, t.Symbol, t.StrategyID, t.TradeNumber, t.PositionSide,
		t.EntryTime, t.EntryPrice,
		t.ExitTime, t.ExitPrice, t.ExitReason,
		t.TPPrice, t.SLPrice, t.TPPriceHit, t.SLPriceHit,
		t.MaxPosPctChange, t.MaxPosPctChangeTime,
		t.MaxNegPctChange, t.MaxNegPctChangeTime,
		t.TradeScore,
	}
}

// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeRecordStore) Insert(ctx context.Context, t *domain.TradeRecord) error {
	if t == nil || t.TradeID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertTradeRecordQuery, tradeRecordArgs(t)...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade record: %w", err)
	}
	return nil
}

// InsertBulk adds multiple trades atomically. Fails entire batch on any duplicate.
func (s *TradeRecordStore) InsertBulk(ctx context.Context, trades []*domain.TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range trades {
		if t == nil || t.TradeID == "" {
			return storage.ErrInvalidInput
		}
		if _, err := tx.Exec(ctx, insertTradeRecordQuery, tradeRecordArgs(t)...); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade record in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
func (s *TradeRecordStore) GetByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error) {
	query := `
		SELECT ` + tradeRecordColumns + `
		FROM trade_records
		WHERE trade_id = $1
	`

	row := s.pool.QueryRow(ctx, query, tradeID)
	t, err := scanTradeRecord(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trade record by id: %w", err)
	}
	return t, nil
}

// GetBySymbol retrieves all trades for a symbol, ordered by entry time ASC.
func (s *TradeRecordStore) GetBySymbol(ctx context.Context, symbol string) ([]*domain.TradeRecord, error) {
	query := `
		SELECT ` + tradeRecordColumns + `
		FROM trade_records
		WHERE symbol = $1
		ORDER BY entry_time ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("query by symbol: %w", err)
	}
	defer rows.Close()

	return scanTradeRecords(rows)
}

// GetByStrategy retrieves all trades for a symbol/strategy combination,
// ordered by entry time ASC.
func (s *TradeRecordStore) GetByStrategy(ctx context.Context, symbol, strategyID string) ([]*domain.TradeRecord, error) {
	query := `
		SELECT ` + tradeRecordColumns + `
		FROM trade_records
		WHERE symbol = $1 AND strategy_id = $2
		ORDER BY entry_time ASC
	`

	rows, err := s.pool.Query(ctx, query, symbol, strategyID)
	if err != nil {
		return nil, fmt.Errorf("query by strategy: %w", err)
	}
	defer rows.Close()

	return scanTradeRecords(rows)
}

func scanTradeRecord(row pgx.Row) (*domain.TradeRecord, error) {
	var t domain.TradeRecord
	err := row.Scan(
		&t.TradeID, &t.Symbol, &t.StrategyID, &t.TradeNumber, &t.PositionSide,
		&t.EntryTime, &t.EntryPrice,
		&t.ExitTime, &t.ExitPrice, &t.ExitReason,
		&t.TPPrice, &t.SLPrice, &t.TPPriceHit, &t.SLPriceHit,
		&t.MaxPosPctChange, &t.MaxPosPctChangeTime,
		&t.MaxNegPctChange, &t.MaxNegPctChangeTime,
		&t.TradeScore,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanTradeRecords(rows pgx.Rows) ([]*domain.TradeRecord, error) {
	var result []*domain.TradeRecord
	for rows.Next() {
		t, err := scanTradeRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade record: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade records: %w", err)
	}
	return result, nil
}
