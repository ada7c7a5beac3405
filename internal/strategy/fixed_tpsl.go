package strategy

import (
	"fmt"

	"news-trade-lab/internal/dataset"
	"news-trade-lab/internal/domain"
)

// FixedTPSLRule exits when price crosses a fixed take-profit or stop-loss
// level, computed as percentage offsets from the entry price.
type FixedTPSLRule struct {
	TakeProfitPct float64 // e.g. 0.03 for 3%
	StopLossPct   float64 // e.g. 0.01 for 1%
}

// NewFixedTPSLRule creates a new FixedTPSLRule.
func NewFixedTPSLRule(takeProfitPct, stopLossPct float64) *FixedTPSLRule {
	return &FixedTPSLRule{
		TakeProfitPct: takeProfitPct,
		StopLossPct:   stopLossPct,
	}
}

// ID returns the rule identifier including parameters.
func (r *FixedTPSLRule) ID() string {
	return fmt.Sprintf("TP_SL_%g_%g", r.TakeProfitPct, r.StopLossPct)
}

// Prepare checks the price column is present.
func (r *FixedTPSLRule) Prepare(table *dataset.Table) error {
	if !table.HasColumn(domain.ColAvgPrice) {
		return fmt.Errorf("fixed TP/SL rule requires column %s", domain.ColAvgPrice)
	}
	return nil
}

// OnEntry computes side-dependent TP and SL levels from the entry price.
func (r *FixedTPSLRule) OnEntry(trade *domain.TradeRecord) {
	if trade.PositionSide == domain.PositionLong {
		trade.TPPrice = trade.EntryPrice * (1 + r.TakeProfitPct)
		trade.SLPrice = trade.EntryPrice * (1 - r.StopLossPct)
	} else {
		trade.TPPrice = trade.EntryPrice * (1 - r.TakeProfitPct)
		trade.SLPrice = trade.EntryPrice * (1 + r.StopLossPct)
	}
}

// ShouldExit fires on the first row where price crosses either level.
// Long positions take profit at or above TPPrice and stop out at or
// below SLPrice; shorts are mirrored.
func (r *FixedTPSLRule) ShouldExit(table *dataset.Table, row int, trade *domain.TradeRecord) (string, bool) {
	price, _ := table.Column(domain.ColAvgPrice)
	p := price[row]

	long := trade.PositionSide == domain.PositionLong
	if (long && p >= trade.TPPrice) || (!long && p <= trade.TPPrice) {
		trade.TPPriceHit = true
		return domain.ExitReasonTakeProfit, true
	}
	if (long && p <= trade.SLPrice) || (!long && p >= trade.SLPrice) {
		trade.SLPriceHit = true
		return domain.ExitReasonStopLoss, true
	}
	return "", false
}

var _ ExitRule = (*FixedTPSLRule)(nil)
