package backtest

import (
	"context"
	"fmt"
	"math"

	"news-trade-lab/internal/dataset"
	"news-trade-lab/internal/domain"
	"news-trade-lab/internal/idhash"
	"news-trade-lab/internal/strategy"
)

// Default configuration values.
const (
	DefaultHorizonSeconds  = 3600 // 60 minutes in trade
	DefaultCooldownSeconds = 4800 // 80 minutes before re-entry
)

// Sentinel extremes, guaranteed to be overwritten by the first
// observed percentage change.
const (
	sentinelMaxPos = -1.0
	sentinelMaxNeg = 1.0
)

// Config parameterizes a backtest run. Horizon and cooldown are tuning
// values supplied per experiment.
type Config struct {
	Symbol          string `yaml:"symbol" json:"symbol"`
	Month           string `yaml:"month" json:"month"`
	SpecID          string `yaml:"spec_id,omitempty" json:"spec_id,omitempty"`
	HorizonSeconds  int    `yaml:"horizon_seconds" json:"horizon_seconds"`
	CooldownSeconds int    `yaml:"cooldown_seconds" json:"cooldown_seconds"`
}

// Result holds one run's trades and its aggregate summary.
type Result struct {
	Trades  []*domain.TradeRecord
	Summary domain.RunSummary
}

// Runner replays a compiled feature table sequentially: it scans for
// signal rows, opens one position at a time, walks it forward until the
// exit rule fires or the horizon elapses, and suppresses re-entry for a
// cooldown window after each exit.
type Runner struct {
	cfg  Config
	rule strategy.ExitRule
}

// NewRunner creates a backtest runner.
func NewRunner(cfg Config, rule strategy.ExitRule) *Runner {
	if cfg.HorizonSeconds <= 0 {
		cfg.HorizonSeconds = DefaultHorizonSeconds
	}
	if cfg.CooldownSeconds <= 0 {
		cfg.CooldownSeconds = DefaultCooldownSeconds
	}
	return &Runner{cfg: cfg, rule: rule}
}

// Run replays the table. A table without signal or price columns is a
// fatal configuration error; a table with zero signal rows is a
// successful run with zero trades.
func (r *Runner) Run(ctx context.Context, table *dataset.Table) (*Result, error) {
	if !table.HasColumn(domain.ColSignal) {
		return nil, fmt.Errorf("feature table is missing column %s", domain.ColSignal)
	}
	if !table.HasColumn(domain.ColAvgPrice) {
		return nil, fmt.Errorf("feature table is missing column %s", domain.ColAvgPrice)
	}

	work := table.Clone()
	if err := r.rule.Prepare(work); err != nil {
		return nil, fmt.Errorf("prepare exit rule %s: %w", r.rule.ID(), err)
	}

	signal, _ := work.Column(domain.ColSignal)
	price, _ := work.Column(domain.ColAvgPrice)
	ts := work.Timestamps()

	result := &Result{
		Summary: domain.RunSummary{
			Symbol:     r.cfg.Symbol,
			Month:      r.cfg.Month,
			StrategyID: r.rule.ID(),
		},
	}

	horizonMs := int64(r.cfg.HorizonSeconds) * 1000
	cooldownMs := int64(r.cfg.CooldownSeconds) * 1000

	cursor := 0
	for cursor < len(ts) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entry := nextSignal(signal, cursor)
		if entry < 0 {
			break
		}
		if math.IsNaN(price[entry]) {
			// No price has printed yet for this second; the signal is
			// not tradeable.
			cursor = entry + 1
			continue
		}

		trade := r.openTrade(signal, price, ts, entry, len(result.Trades))
		r.walkTrade(work, price, ts, entry, horizonMs, trade)
		r.score(trade, result)

		// Resume scanning after the cooldown window from the exit point.
		cursor = indexAtOrAfter(ts, trade.ExitTime+cooldownMs)
	}

	return result, nil
}

// nextSignal returns the first row at or after start with signal 1 or -1,
// or -1 when none remain.
func nextSignal(signal []float64, start int) int {
	for i := start; i < len(signal); i++ {
		if signal[i] == 1 || signal[i] == -1 {
			return i
		}
	}
	return -1
}

// indexAtOrAfter returns the first row whose timestamp is >= t.
func indexAtOrAfter(ts []int64, t int64) int {
	lo, hi := 0, len(ts)
	for lo < hi {
		mid := (lo + hi) / 2
		if ts[mid] < t {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

func (r *Runner) openTrade(signal, price []float64, ts []int64, entry, tradeNumber int) *domain.TradeRecord {
	side := domain.PositionLong
	if signal[entry] == -1 {
		side = domain.PositionShort
	}

	trade := &domain.TradeRecord{
		TradeID:         idhash.ComputeTradeID(r.cfg.Symbol, r.rule.ID(), r.cfg.SpecID, ts[entry]),
		Symbol:          r.cfg.Symbol,
		StrategyID:      r.rule.ID(),
		TradeNumber:     tradeNumber,
		PositionSide:    side,
		EntryTime:       ts[entry],
		EntryPrice:      price[entry],
		MaxPosPctChange: sentinelMaxPos,
		MaxNegPctChange: sentinelMaxNeg,
	}
	r.rule.OnEntry(trade)
	return trade
}

// walkTrade advances bar-by-bar from the entry row to the horizon,
// tracking excursion extremes. The exit fixes the trade's close at the
// first row where the rule fires, but extremes keep updating through the
// horizon so the record captures the full potential of the move.
func (r *Runner) walkTrade(work *dataset.Table, price []float64, ts []int64, entry int, horizonMs int64, trade *domain.TradeRecord) {
	deadline := trade.EntryTime + horizonMs
	last := entry
	closed := false

	for i := entry; i < len(ts) && ts[i] <= deadline; i++ {
		last = i
		p := price[i]
		if math.IsNaN(p) {
			continue
		}

		pct := dataset.Round((p-trade.EntryPrice)/trade.EntryPrice, 6)
		if pct > trade.MaxPosPctChange {
			trade.MaxPosPctChange = pct
			trade.MaxPosPctChangeTime = ts[i]
		}
		if pct < trade.MaxNegPctChange {
			trade.MaxNegPctChange = pct
			trade.MaxNegPctChangeTime = ts[i]
		}

		if closed {
			continue
		}
		if reason, exit := r.rule.ShouldExit(work, i, trade); exit {
			trade.ExitTime = ts[i]
			trade.ExitPrice = p
			trade.ExitReason = reason
			closed = true
		}
	}

	if !closed {
		// Horizon elapsed without the rule firing.
		trade.ExitTime = ts[last]
		trade.ExitPrice = price[last]
		trade.ExitReason = domain.ExitReasonHorizon
	}
}

// score finalizes the trade and folds it into the run summary.
func (r *Runner) score(trade *domain.TradeRecord, result *Result) {
	trade.TradeScore = dataset.Round(trade.MaxPosPctChange+trade.MaxNegPctChange, 6)

	result.Trades = append(result.Trades, trade)
	result.Summary.TotalTrades++
	result.Summary.TotalTradeScore += trade.TradeScore
	if trade.TradeScore > 0 {
		result.Summary.PositiveTrades++
	} else {
		result.Summary.NegativeTrades++
	}

	// Side-adjusted excursion totals: for shorts the adverse excursion is
	// the favorable one, negated.
	if trade.PositionSide == domain.PositionLong {
		result.Summary.BestOutcomePct += trade.MaxPosPctChange
		result.Summary.WorstOutcomePct += trade.MaxNegPctChange
	} else {
		result.Summary.BestOutcomePct += -trade.MaxNegPctChange
		result.Summary.WorstOutcomePct += -trade.MaxPosPctChange
	}
}
