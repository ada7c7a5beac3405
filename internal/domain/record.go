package domain

// Position side constants.
const (
	PositionLong  = "long"
	PositionShort = "short"
)

// Exit reason codes.
const (
	ExitReasonTakeProfit = "TAKE_PROFIT"
	ExitReasonStopLoss   = "STOP_LOSS"
	ExitReasonFlowRatio  = "FLOW_RATIO"
	ExitReasonHorizon    = "HORIZON"
)

// TradeRecord represents one simulated trade emitted by the backtester.
// Immutable once the replay loop closes it out.
type TradeRecord struct {
	TradeID      string  // deterministic hash, see idhash
	Symbol       string  // traded symbol
	StrategyID   string  // exit rule identifier
	TradeNumber  int     // ordinal within the run
	PositionSide string  // "long" | "short"

	// Entry
	EntryTime  int64   // signal timestamp (ms)
	EntryPrice float64 // avg_price at the signal row

	// Exit
	ExitTime   int64   // timestamp of the exit row (ms)
	ExitPrice  float64 // avg_price at the exit row
	ExitReason string  // reason code

	// Levels (fixed TP/SL rule only, zero otherwise)
	TPPrice    float64
	SLPrice    float64
	TPPriceHit bool
	SLPriceHit bool

	// Excursions relative to entry, signed fractions rounded to 6 decimals.
	MaxPosPctChange     float64 // most favorable observed pct change
	MaxPosPctChangeTime int64   // when the favorable extreme was set (ms)
	MaxNegPctChange     float64 // most adverse observed pct change
	MaxNegPctChangeTime int64   // when the adverse extreme was set (ms)

	// TradeScore = MaxPosPctChange + MaxNegPctChange. Its sign classifies the
	// trade as positive or negative in the run summary.
	TradeScore float64
}

// RunSummary aggregates one backtest run.
type RunSummary struct {
	Symbol          string
	Month           string
	StrategyID      string
	TotalTrades     int
	PositiveTrades  int
	NegativeTrades  int
	TotalTradeScore float64
	BestOutcomePct  float64 // sum of favorable excursions, side-adjusted
	WorstOutcomePct float64 // sum of adverse excursions, side-adjusted
}
