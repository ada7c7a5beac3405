// Package reporting renders backtest runs into durable artifacts: a JSON
// document carrying the full trade list, a CSV trade table, and a Markdown
// summary.
package reporting

import "time"

// RunReport is the artifact of one backtest run.
type RunReport struct {
	GeneratedAt time.Time `json:"generated_at"`
	Symbol      string    `json:"symbol"`
	Month       string    `json:"month"`
	StrategyID  string    `json:"strategy_id"`
	SpecID      string    `json:"spec_id,omitempty"`

	Summary SummarySection `json:"summary"`
	Stats   *StatsSection  `json:"stats,omitempty"`
	Trades  []TradeRow     `json:"trades"`
}

// SummarySection mirrors the run summary persisted alongside the trades.
type SummarySection struct {
	TotalTrades     int     `json:"total_trades"`
	PositiveTrades  int     `json:"positive_trades"`
	NegativeTrades  int     `json:"negative_trades"`
	TotalTradeScore float64 `json:"total_trade_score"`
	BestOutcomePct  float64 `json:"best_outcome_pct"`
	WorstOutcomePct float64 `json:"worst_outcome_pct"`
}

// StatsSection carries the score distribution, present when the run had
// at least one trade.
type StatsSection struct {
	WinRate              float64 `json:"win_rate"`
	ScoreMean            float64 `json:"score_mean"`
	ScoreMedian          float64 `json:"score_median"`
	ScoreP10             float64 `json:"score_p10"`
	ScoreP90             float64 `json:"score_p90"`
	ScoreStddev          float64 `json:"score_stddev"`
	MaxDrawdown          float64 `json:"max_drawdown"`
	MaxConsecutiveLosses int     `json:"max_consecutive_losses"`
}

// TradeRow is one trade in the artifact, ordered by entry time.
type TradeRow struct {
	TradeID      string  `json:"trade_id"`
	TradeNumber  int     `json:"trade_number"`
	PositionSide string  `json:"position_side"`
	EntryTime    int64   `json:"entry_time"`
	EntryPrice   float64 `json:"entry_price"`
	ExitTime     int64   `json:"exit_time"`
	ExitPrice    float64 `json:"exit_price"`
	ExitReason   string  `json:"exit_reason"`
	TPPrice      float64 `json:"tp_price,omitempty"`
	SLPrice      float64 `json:"sl_price,omitempty"`
	TPPriceHit   bool    `json:"tp_price_hit,omitempty"`
	SLPriceHit   bool    `json:"sl_price_hit,omitempty"`
	MaxPos       float64 `json:"max_pos_pct_change"`
	MaxPosTime   int64   `json:"max_pos_pct_change_time"`
	MaxNeg       float64 `json:"max_neg_pct_change"`
	MaxNegTime   int64   `json:"max_neg_pct_change_time"`
	TradeScore   float64 `json:"trade_score"`
}
