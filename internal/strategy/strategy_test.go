package strategy

import (
	"errors"
	"math"
	"testing"

	"news-trade-lab/internal/dataset"
	"news-trade-lab/internal/domain"
)

func flowTable(n int) *dataset.Table {
	ts := make([]int64, n)
	price := make([]float64, n)
	bought := make([]float64, n)
	sold := make([]float64, n)
	for i := 0; i < n; i++ {
		ts[i] = int64(i) * 1000
		price[i] = 100
		bought[i] = 10
		sold[i] = 5
	}
	t := dataset.New(ts)
	_ = t.SetColumn(domain.ColAvgPrice, price)
	_ = t.SetColumn(domain.ColNumTradesBought, bought)
	_ = t.SetColumn(domain.ColNumTradesSold, sold)
	return t
}

func TestFixedTPSL_Levels(t *testing.T) {
	rule := NewFixedTPSLRule(0.03, 0.01)

	long := &domain.TradeRecord{PositionSide: domain.PositionLong, EntryPrice: 100}
	rule.OnEntry(long)
	if long.TPPrice != 103 || long.SLPrice != 99 {
		t.Errorf("Long levels = %v/%v, want 103/99", long.TPPrice, long.SLPrice)
	}

	short := &domain.TradeRecord{PositionSide: domain.PositionShort, EntryPrice: 100}
	rule.OnEntry(short)
	if short.TPPrice != 97 || short.SLPrice != 101 {
		t.Errorf("Short levels = %v/%v, want 97/101", short.TPPrice, short.SLPrice)
	}
}

func TestFixedTPSL_DirectionAwareTriggers(t *testing.T) {
	tbl := dataset.New([]int64{0})
	_ = tbl.SetColumn(domain.ColAvgPrice, []float64{96})

	rule := NewFixedTPSLRule(0.03, 0.01)

	// Price 96: a long entered at 100 stops out; a short takes profit.
	long := &domain.TradeRecord{PositionSide: domain.PositionLong, EntryPrice: 100}
	rule.OnEntry(long)
	reason, exit := rule.ShouldExit(tbl, 0, long)
	if !exit || reason != domain.ExitReasonStopLoss || !long.SLPriceHit {
		t.Errorf("Long at 96: reason=%s exit=%v", reason, exit)
	}

	short := &domain.TradeRecord{PositionSide: domain.PositionShort, EntryPrice: 100}
	rule.OnEntry(short)
	reason, exit = rule.ShouldExit(tbl, 0, short)
	if !exit || reason != domain.ExitReasonTakeProfit || !short.TPPriceHit {
		t.Errorf("Short at 96: reason=%s exit=%v", reason, exit)
	}
}

func TestFlowRatio_PrepareDerivesEMAColumns(t *testing.T) {
	tbl := flowTable(20)

	rule := NewFlowRatioRule(5, 1.5)
	if err := rule.Prepare(tbl); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}

	ema, ok := tbl.Column(ColNumTradesBoughtEMA)
	if !ok {
		t.Fatal("bought EMA column not derived")
	}
	if !math.IsNaN(ema[0]) {
		t.Errorf("EMA warmup must be NaN, got %v", ema[0])
	}
	if ema[10] != 10 {
		t.Errorf("Constant series EMA = %v, want 10", ema[10])
	}
}

func TestFlowRatio_WarmupNeverFires(t *testing.T) {
	tbl := flowTable(20)
	rule := NewFlowRatioRule(5, 1.5)
	if err := rule.Prepare(tbl); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}

	trade := &domain.TradeRecord{PositionSide: domain.PositionLong, EntryPrice: 100}
	if _, exit := rule.ShouldExit(tbl, 0, trade); exit {
		t.Error("Rule fired during EMA warmup")
	}
	// Steady 10/5 flow gives ratio 2.0 > 1.5 once warm.
	if reason, exit := rule.ShouldExit(tbl, 10, trade); !exit || reason != domain.ExitReasonFlowRatio {
		t.Errorf("Expected FLOW_RATIO exit once warm, got %s/%v", reason, exit)
	}
}

func TestFromConfig(t *testing.T) {
	tp, sl := 0.03, 0.01
	span, limit := 60, 2.0

	rule, err := FromConfig(Config{Type: TypeFixedTPSL, TakeProfitPct: &tp, StopLossPct: &sl})
	if err != nil {
		t.Fatalf("FromConfig fixed_tp_sl: %v", err)
	}
	if rule.ID() != "TP_SL_0.03_0.01" {
		t.Errorf("ID = %s", rule.ID())
	}

	rule, err = FromConfig(Config{Type: TypeFlowRatio, EMASpan: &span, RatioThreshold: &limit})
	if err != nil {
		t.Fatalf("FromConfig flow_ratio: %v", err)
	}
	if rule.ID() != "FLOW_RATIO_60_2" {
		t.Errorf("ID = %s", rule.ID())
	}
}

func TestFromConfig_Errors(t *testing.T) {
	tp := 0.03
	span := 0
	limit := 2.0

	cases := []struct {
		name string
		cfg  Config
		want error
	}{
		{"unknown type", Config{Type: "martingale"}, ErrUnknownRuleType},
		{"missing tp", Config{Type: TypeFixedTPSL}, ErrMissingTakeProfit},
		{"missing sl", Config{Type: TypeFixedTPSL, TakeProfitPct: &tp}, ErrMissingStopLoss},
		{"missing span", Config{Type: TypeFlowRatio, RatioThreshold: &limit}, ErrMissingEMASpan},
		{"zero span", Config{Type: TypeFlowRatio, EMASpan: &span, RatioThreshold: &limit}, ErrNonPositiveEMASpan},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := FromConfig(tc.cfg); !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}
}
