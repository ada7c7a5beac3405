package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders the run report as a Markdown string.
func RenderMarkdown(r *RunReport) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Backtest Run: %s %s\n\n", r.Symbol, r.Month))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Strategy: %s\n\n", r.StrategyID))
	if r.SpecID != "" {
		sb.WriteString(fmt.Sprintf("Feature spec: `%s`\n\n", r.SpecID))
	}

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Trades | %d |\n", r.Summary.TotalTrades))
	sb.WriteString(fmt.Sprintf("| Positive Trades | %d |\n", r.Summary.PositiveTrades))
	sb.WriteString(fmt.Sprintf("| Negative Trades | %d |\n", r.Summary.NegativeTrades))
	sb.WriteString(fmt.Sprintf("| Total Trade Score | %.6f |\n", r.Summary.TotalTradeScore))
	sb.WriteString(fmt.Sprintf("| Best Outcome Sum | %.6f |\n", r.Summary.BestOutcomePct))
	sb.WriteString(fmt.Sprintf("| Worst Outcome Sum | %.6f |\n", r.Summary.WorstOutcomePct))
	sb.WriteString("\n")

	if r.Stats != nil {
		sb.WriteString("## Score Distribution\n\n")
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Win Rate | %.4f |\n", r.Stats.WinRate))
		sb.WriteString(fmt.Sprintf("| Mean | %.6f |\n", r.Stats.ScoreMean))
		sb.WriteString(fmt.Sprintf("| Median | %.6f |\n", r.Stats.ScoreMedian))
		sb.WriteString(fmt.Sprintf("| P10 | %.6f |\n", r.Stats.ScoreP10))
		sb.WriteString(fmt.Sprintf("| P90 | %.6f |\n", r.Stats.ScoreP90))
		sb.WriteString(fmt.Sprintf("| Stddev | %.6f |\n", r.Stats.ScoreStddev))
		sb.WriteString(fmt.Sprintf("| Max Drawdown | %.6f |\n", r.Stats.MaxDrawdown))
		sb.WriteString(fmt.Sprintf("| Max Consecutive Losses | %d |\n", r.Stats.MaxConsecutiveLosses))
		sb.WriteString("\n")
	}

	sb.WriteString("## Trades\n\n")
	if len(r.Trades) == 0 {
		sb.WriteString("No trades.\n")
		return sb.String()
	}

	sb.WriteString("| # | Side | Entry | Exit | Reason | MaxPos | MaxNeg | Score |\n")
	sb.WriteString("|---|------|-------|------|--------|--------|--------|-------|\n")
	for _, t := range r.Trades {
		sb.WriteString(fmt.Sprintf("| %d | %s | %d | %d | %s | %.6f | %.6f | %.6f |\n",
			t.TradeNumber, t.PositionSide, t.EntryTime, t.ExitTime, t.ExitReason,
			t.MaxPos, t.MaxNeg, t.TradeScore))
	}

	return sb.String()
}
