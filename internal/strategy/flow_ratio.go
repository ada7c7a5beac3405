package strategy

import (
	"fmt"
	"math"

	"news-trade-lab/internal/dataset"
	"news-trade-lab/internal/domain"
	"news-trade-lab/internal/feature"
)

// EMA column names derived by the flow-ratio rule.
const (
	ColNumTradesBoughtEMA = "num_of_trades_bought_ema"
	ColNumTradesSoldEMA   = "num_of_trades_sold_ema"
)

// FlowRatioRule exits when the ratio of smoothed buy-print count to
// smoothed sell-print count crosses a threshold, signalling that the
// order flow that triggered the entry has flipped.
type FlowRatioRule struct {
	EMASpan   int     // span of the exponential moving averages
	Threshold float64 // exit when bought/sold ratio exceeds this
}

// NewFlowRatioRule creates a new FlowRatioRule.
func NewFlowRatioRule(emaSpan int, threshold float64) *FlowRatioRule {
	return &FlowRatioRule{EMASpan: emaSpan, Threshold: threshold}
}

// ID returns the rule identifier including parameters.
func (r *FlowRatioRule) ID() string {
	return fmt.Sprintf("FLOW_RATIO_%d_%g", r.EMASpan, r.Threshold)
}

// Prepare derives the buy/sell count EMA columns. The raw count columns
// must be present; their absence is a fatal configuration error.
func (r *FlowRatioRule) Prepare(table *dataset.Table) error {
	if !table.HasColumn(domain.ColAvgPrice) {
		return fmt.Errorf("flow-ratio rule requires column %s", domain.ColAvgPrice)
	}
	for _, col := range []string{domain.ColNumTradesBought, domain.ColNumTradesSold} {
		if !table.HasColumn(col) {
			return fmt.Errorf("flow-ratio rule requires column %s", col)
		}
	}

	bought, _ := table.Column(domain.ColNumTradesBought)
	sold, _ := table.Column(domain.ColNumTradesSold)

	boughtEMA := feature.EMA(bought, r.EMASpan)
	soldEMA := feature.EMA(sold, r.EMASpan)
	for i := range boughtEMA {
		boughtEMA[i] = dataset.Round(boughtEMA[i], 2)
		soldEMA[i] = dataset.Round(soldEMA[i], 2)
	}

	if err := table.SetColumn(ColNumTradesBoughtEMA, boughtEMA); err != nil {
		return err
	}
	return table.SetColumn(ColNumTradesSoldEMA, soldEMA)
}

// OnEntry leaves TP/SL levels at zero; the rule has no price levels.
func (r *FlowRatioRule) OnEntry(_ *domain.TradeRecord) {}

// ShouldExit fires the first time the bought/sold EMA ratio exceeds the
// threshold. A zero numerator or denominator yields a neutral ratio of 1,
// and a NaN ratio (EMA warmup) never fires.
func (r *FlowRatioRule) ShouldExit(table *dataset.Table, row int, _ *domain.TradeRecord) (string, bool) {
	boughtEMA, _ := table.Column(ColNumTradesBoughtEMA)
	soldEMA, _ := table.Column(ColNumTradesSoldEMA)

	ratio := 1.0
	if boughtEMA[row] != 0 && soldEMA[row] != 0 {
		ratio = dataset.Round(boughtEMA[row]/soldEMA[row], 2)
	}
	if math.IsNaN(ratio) {
		return "", false
	}
	if ratio > r.Threshold {
		return domain.ExitReasonFlowRatio, true
	}
	return "", false
}

var _ ExitRule = (*FlowRatioRule)(nil)
