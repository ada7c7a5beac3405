package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"news-trade-lab/internal/domain"
	"news-trade-lab/internal/storage"
)

// RunSummaryStore implements storage.RunSummaryStore using ClickHouse.
type RunSummaryStore struct {
	conn *Conn
}

// NewRunSummaryStore creates a new RunSummaryStore.
func NewRunSummaryStore(conn *Conn) *RunSummaryStore {
	return &RunSummaryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.RunSummaryStore = (*RunSummaryStore)(nil)

const runSummaryColumns = `
	symbol, month, strategy_id,
	total_trades, positive_trades, negative_trades,
	total_trade_score, best_outcome_pct, worst_outcome_pct
`

// Insert adds a new summary. Returns ErrDuplicateKey if key exists.
func (s *RunSummaryStore) Insert(ctx context.Context, sum *domain.RunSummary) error {
	if sum == nil || sum.Symbol == "" || sum.Month == "" || sum.StrategyID == "" {
		return storage.ErrInvalidInput
	}

	// ReplacingMergeTree would silently replace; keep append-only semantics.
	exists, err := s.exists(ctx, sum.Symbol, sum.Month, sum.StrategyID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	query := `
		INSERT INTO run_summaries (` + runSummaryColumns + `) VALUES (
			?, ?, ?,
			?, ?, ?,
			?, ?, ?
		)
	`

	err = s.conn.Exec(ctx, query,
		sum.Symbol, sum.Month, sum.StrategyID,
		uint32(sum.TotalTrades), uint32(sum.PositiveTrades), uint32(sum.NegativeTrades),
		sum.TotalTradeScore, sum.BestOutcomePct, sum.WorstOutcomePct,
	)
	if err != nil {
		return fmt.Errorf("insert run summary: %w", err)
	}
	return nil
}

// GetByKey retrieves a summary by its composite key.
func (s *RunSummaryStore) GetByKey(ctx context.Context, symbol, month, strategyID string) (*domain.RunSummary, error) {
	query := `
		SELECT ` + runSummaryColumns + `
		FROM run_summaries FINAL
		WHERE symbol = ? AND month = ? AND strategy_id = ?
		LIMIT 1
	`

	row := s.conn.QueryRow(ctx, query, symbol, month, strategyID)

	sum, err := scanRunSummary(row)
	if err != nil {
		return nil, storage.ErrNotFound
	}
	return sum, nil
}

// GetBySymbol retrieves all summaries for a symbol.
func (s *RunSummaryStore) GetBySymbol(ctx context.Context, symbol string) ([]*domain.RunSummary, error) {
	query := `
		SELECT ` + runSummaryColumns + `
		FROM run_summaries FINAL
		WHERE symbol = ?
		ORDER BY month ASC, strategy_id ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("query by symbol: %w", err)
	}
	defer rows.Close()

	return scanRunSummaries(rows)
}

// GetAll retrieves all summaries.
func (s *RunSummaryStore) GetAll(ctx context.Context) ([]*domain.RunSummary, error) {
	query := `
		SELECT ` + runSummaryColumns + `
		FROM run_summaries FINAL
		ORDER BY symbol ASC, month ASC, strategy_id ASC
	`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query all: %w", err)
	}
	defer rows.Close()

	return scanRunSummaries(rows)
}

func (s *RunSummaryStore) exists(ctx context.Context, symbol, month, strategyID string) (bool, error) {
	query := `
		SELECT count(*) FROM run_summaries FINAL
		WHERE symbol = ? AND month = ? AND strategy_id = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, symbol, month, strategyID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func scanRunSummary(row driver.Row) (*domain.RunSummary, error) {
	var (
		sum             domain.RunSummary
		total, pos, neg uint32
	)
	err := row.Scan(
		&sum.Symbol, &sum.Month, &sum.StrategyID,
		&total, &pos, &neg,
		&sum.TotalTradeScore, &sum.BestOutcomePct, &sum.WorstOutcomePct,
	)
	if err != nil {
		return nil, err
	}
	sum.TotalTrades = int(total)
	sum.PositiveTrades = int(pos)
	sum.NegativeTrades = int(neg)
	return &sum, nil
}

func scanRunSummaries(rows driver.Rows) ([]*domain.RunSummary, error) {
	var result []*domain.RunSummary
	for rows.Next() {
		var (
			sum             domain.RunSummary
			total, pos, neg uint32
		)
		err := rows.Scan(
			&sum.Symbol, &sum.Month, &sum.StrategyID,
			&total, &pos, &neg,
			&sum.TotalTradeScore, &sum.BestOutcomePct, &sum.WorstOutcomePct,
		)
		if err != nil {
			return nil, fmt.Errorf("scan run summary: %w", err)
		}
		sum.TotalTrades = int(total)
		sum.PositiveTrades = int(pos)
		sum.NegativeTrades = int(neg)
		result = append(result, &sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run summaries: %w", err)
	}
	return result, nil
}
