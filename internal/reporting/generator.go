package reporting

import (
	"encoding/json"
	"io"
	"sort"
	"time"

	"news-trade-lab/internal/backtest"
	"news-trade-lab/internal/domain"
	"news-trade-lab/internal/metrics"
)

// Generator builds run reports.
type Generator struct {
	now func() time.Time // injectable clock for deterministic output
}

// NewGenerator creates a report generator.
func NewGenerator() *Generator {
	return &Generator{
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// FromResult assembles the report for one finished run. stats may be nil
// for a run with zero trades.
func (g *Generator) FromResult(cfg backtest.Config, strategyID string, result *backtest.Result, stats *metrics.ScoreStats) *RunReport {
	report := &RunReport{
		GeneratedAt: g.now(),
		Symbol:      cfg.Symbol,
		Month:       cfg.Month,
		StrategyID:  strategyID,
		SpecID:      cfg.SpecID,
		Summary: SummarySection{
			TotalTrades:     result.Summary.TotalTrades,
			PositiveTrades:  result.Summary.PositiveTrades,
			NegativeTrades:  result.Summary.NegativeTrades,
			TotalTradeScore: result.Summary.TotalTradeScore,
			BestOutcomePct:  result.Summary.BestOutcomePct,
			WorstOutcomePct: result.Summary.WorstOutcomePct,
		},
		Trades: tradeRows(result.Trades),
	}

	if stats != nil {
		report.Stats = &StatsSection{
			WinRate:              stats.WinRate,
			ScoreMean:            stats.ScoreMean,
			ScoreMedian:          stats.ScoreMedian,
			ScoreP10:             stats.ScoreP10,
			ScoreP90:             stats.ScoreP90,
			ScoreStddev:          stats.ScoreStddev,
			MaxDrawdown:          stats.MaxDrawdown,
			MaxConsecutiveLosses: stats.MaxConsecutiveLosses,
		}
	}

	return report
}

// WriteJSON writes the report as indented JSON.
func (r *RunReport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func tradeRows(trades []*domain.TradeRecord) []TradeRow {
	rows := make([]TradeRow, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, TradeRow{
			TradeID:      t.TradeID,
			TradeNumber:  t.TradeNumber,
			PositionSide: t.PositionSide,
			EntryTime:    t.EntryTime,
			EntryPrice:   t.EntryPrice,
			ExitTime:     t.ExitTime,
			ExitPrice:    t.ExitPrice,
			ExitReason:   t.ExitReason,
			TPPrice:      t.TPPrice,
			SLPrice:      t.SLPrice,
			TPPriceHit:   t.TPPriceHit,
			SLPriceHit:   t.SLPriceHit,
			MaxPos:       t.MaxPosPctChange,
			MaxPosTime:   t.MaxPosPctChangeTime,
			MaxNeg:       t.MaxNegPctChange,
			MaxNegTime:   t.MaxNegPctChangeTime,
			TradeScore:   t.TradeScore,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].EntryTime != rows[j].EntryTime {
			return rows[i].EntryTime < rows[j].EntryTime
		}
		return rows[i].TradeID < rows[j].TradeID
	})
	return rows
}
