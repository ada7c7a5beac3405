package strategy

import (
	"news-trade-lab/internal/dataset"
	"news-trade-lab/internal/domain"
)

// ExitRule decides when an open position closes. Implementations are
// stateless across trades; per-trade state lives on the TradeRecord.
type ExitRule interface {
	// ID returns the rule identifier including parameters.
	ID() string

	// Prepare validates that the table carries every column the rule
	// needs and derives any auxiliary columns (EMAs). Called once before
	// a run starts; an error here is a fatal configuration error.
	Prepare(table *dataset.Table) error

	// OnEntry fills rule-specific fields on a freshly opened trade,
	// such as fixed take-profit and stop-loss levels.
	OnEntry(trade *domain.TradeRecord)

	// ShouldExit reports whether the position must close at row.
	// The returned reason is recorded on the trade.
	ShouldExit(table *dataset.Table, row int, trade *domain.TradeRecord) (string, bool)
}
