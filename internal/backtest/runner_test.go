package backtest

import (
	"context"
	"math"
	"testing"

	"news-trade-lab/internal/dataset"
	"news-trade-lab/internal/domain"
	"news-trade-lab/internal/strategy"
)

// buildTable creates a table with n seconds of data. price and signal are
// filled from the given sparse maps; price defaults to 100, signal to 0.
func buildTable(n int, prices map[int]float64, signals map[int]float64) *dataset.Table {
	ts := make([]int64, n)
	price := make([]float64, n)
	signal := make([]float64, n)
	for i := 0; i < n; i++ {
		ts[i] = int64(i) * 1000
		price[i] = 100
		if p, ok := prices[i]; ok {
			price[i] = p
		}
		if s, ok := signals[i]; ok {
			signal[i] = s
		}
	}
	t := dataset.New(ts)
	_ = t.SetColumn(domain.ColAvgPrice, price)
	_ = t.SetColumn(domain.ColSignal, signal)
	return t
}

func testConfig(horizon, cooldown int) Config {
	return Config{
		Symbol:          "BTCUSDT",
		Month:           "2021-08",
		HorizonSeconds:  horizon,
		CooldownSeconds: cooldown,
	}
}

func TestRunner_TakeProfitScenario(t *testing.T) {
	// Signal at t=10 with entry 100. Price ramps through 103 before t=40,
	// peaks at 105 at t=40, then falls to 97 at t=90.
	prices := map[int]float64{}
	for i := 11; i <= 40; i++ {
		prices[i] = 100 + float64(i-10)*(5.0/30.0)
	}
	for i := 41; i <= 90; i++ {
		prices[i] = 105 - float64(i-40)*(8.0/50.0)
	}
	for i := 91; i < 200; i++ {
		prices[i] = 97
	}

	table := buildTable(200, prices, map[int]float64{10: 1})

	rule := strategy.NewFixedTPSLRule(0.03, 0.01)
	runner := NewRunner(testConfig(120, 300), rule)

	result, err := runner.Run(context.Background(), table)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Trades) != 1 {
		t.Fatalf("Expected 1 trade, got %d", len(result.Trades))
	}

	trade := result.Trades[0]
	if !trade.TPPriceHit {
		t.Error("Expected TP hit flag")
	}
	if trade.SLPriceHit {
		t.Error("SL must not be hit before TP")
	}
	if trade.ExitReason != domain.ExitReasonTakeProfit {
		t.Errorf("ExitReason = %s, want TAKE_PROFIT", trade.ExitReason)
	}
	if trade.ExitPrice < 103 {
		t.Errorf("Exit must be at the first crossing of 103, got %v", trade.ExitPrice)
	}
	// The favorable extreme keeps tracking past the exit row.
	if math.Abs(trade.MaxPosPctChange-0.05) > 1e-6 {
		t.Errorf("MaxPosPctChange = %v, want 0.05", trade.MaxPosPctChange)
	}
	if trade.MaxPosPctChangeTime != 40_000 {
		t.Errorf("MaxPosPctChangeTime = %d, want 40000", trade.MaxPosPctChangeTime)
	}
}

func TestRunner_ShortStopLoss(t *testing.T) {
	// Short entry at 100; price rises 2%, beyond the 1% stop.
	prices := map[int]float64{}
	for i := 11; i < 100; i++ {
		prices[i] = 102
	}
	table := buildTable(100, prices, map[int]float64{10: -1})

	rule := strategy.NewFixedTPSLRule(0.03, 0.01)
	result, err := NewRunner(testConfig(60, 300), rule).Run(context.Background(), table)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Trades) != 1 {
		t.Fatalf("Expected 1 trade, got %d", len(result.Trades))
	}

	trade := result.Trades[0]
	if trade.PositionSide != domain.PositionShort {
		t.Errorf("PositionSide = %s, want short", trade.PositionSide)
	}
	if !trade.SLPriceHit || trade.ExitReason != domain.ExitReasonStopLoss {
		t.Errorf("Expected short stop-out, got %+v", trade)
	}
	// For a short, +2% price move is adverse.
	if trade.MaxNegPctChange != 0.02 {
		t.Errorf("MaxNegPctChange = %v, want 0.02", trade.MaxNegPctChange)
	}
	if result.Summary.WorstOutcomePct != -0.02 {
		t.Errorf("WorstOutcomePct = %v, want -0.02 (side-adjusted)", result.Summary.WorstOutcomePct)
	}
}

func TestRunner_HorizonExit(t *testing.T) {
	// Flat prices: neither level ever crossed.
	table := buildTable(200, nil, map[int]float64{10: 1})

	rule := strategy.NewFixedTPSLRule(0.03, 0.01)
	result, err := NewRunner(testConfig(60, 300), rule).Run(context.Background(), table)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Trades) != 1 {
		t.Fatalf("Expected 1 trade, got %d", len(result.Trades))
	}

	trade := result.Trades[0]
	if trade.ExitReason != domain.ExitReasonHorizon {
		t.Errorf("ExitReason = %s, want HORIZON", trade.ExitReason)
	}
	if trade.ExitTime != 70_000 {
		t.Errorf("ExitTime = %d, want horizon boundary 70000", trade.ExitTime)
	}
}

func TestRunner_CooldownNonOverlap(t *testing.T) {
	// Signals every 30 seconds; with a 120s cooldown most are suppressed.
	signals := map[int]float64{}
	for i := 10; i < 590; i += 30 {
		signals[i] = 1
	}
	table := buildTable(600, nil, signals)

	cooldown := 120
	rule := strategy.NewFixedTPSLRule(0.03, 0.01)
	result, err := NewRunner(testConfig(60, cooldown), rule).Run(context.Background(), table)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Trades) < 2 {
		t.Fatalf("Expected multiple trades, got %d", len(result.Trades))
	}

	for i := 1; i < len(result.Trades); i++ {
		prev, next := result.Trades[i-1], result.Trades[i]
		if next.EntryTime < prev.ExitTime+int64(cooldown)*1000 {
			t.Errorf("Trade %d entered at %d, inside cooldown after exit %d",
				i, next.EntryTime, prev.ExitTime)
		}
	}
}

func TestRunner_ZeroSignalsIsSuccess(t *testing.T) {
	table := buildTable(100, nil, nil)

	rule := strategy.NewFixedTPSLRule(0.03, 0.01)
	result, err := NewRunner(testConfig(60, 300), rule).Run(context.Background(), table)
	if err != nil {
		t.Fatalf("Zero signals must not be an error: %v", err)
	}
	if len(result.Trades) != 0 || result.Summary.TotalTrades != 0 {
		t.Errorf("Expected empty result, got %+v", result.Summary)
	}
}

func TestRunner_MissingColumnsFatal(t *testing.T) {
	table := dataset.New([]int64{0, 1000})
	_ = table.SetColumn(domain.ColAvgPrice, []float64{100, 101})

	rule := strategy.NewFixedTPSLRule(0.03, 0.01)
	if _, err := NewRunner(testConfig(60, 300), rule).Run(context.Background(), table); err == nil {
		t.Fatal("Expected error for table without signal column")
	}

	table = dataset.New([]int64{0, 1000})
	_ = table.SetColumn(domain.ColSignal, []float64{0, 1})
	if _, err := NewRunner(testConfig(60, 300), rule).Run(context.Background(), table); err == nil {
		t.Fatal("Expected error for table without price column")
	}
}

func TestRunner_FlowRatioExit(t *testing.T) {
	n := 300
	bought := make([]float64, n)
	sold := make([]float64, n)
	for i := 0; i < n; i++ {
		// Balanced flow until t=50, then buyers dominate.
		bought[i] = 10
		sold[i] = 10
		if i >= 50 {
			bought[i] = 40
		}
	}

	table := buildTable(n, nil, map[int]float64{20: 1})
	_ = table.SetColumn(domain.ColNumTradesBought, bought)
	_ = table.SetColumn(domain.ColNumTradesSold, sold)

	rule := strategy.NewFlowRatioRule(5, 2.0)
	result, err := NewRunner(testConfig(120, 300), rule).Run(context.Background(), table)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Trades) != 1 {
		t.Fatalf("Expected 1 trade, got %d", len(result.Trades))
	}

	trade := result.Trades[0]
	if trade.ExitReason != domain.ExitReasonFlowRatio {
		t.Errorf("ExitReason = %s, want FLOW_RATIO", trade.ExitReason)
	}
	if trade.ExitTime <= 50_000 {
		t.Errorf("Exit fired before flow flipped: %d", trade.ExitTime)
	}
	if trade.TPPrice != 0 || trade.SLPrice != 0 {
		t.Errorf("Flow-ratio trades carry no price levels: %+v", trade)
	}
}

func TestRunner_FlowRatioMissingColumnsFatal(t *testing.T) {
	table := buildTable(100, nil, map[int]float64{10: 1})

	rule := strategy.NewFlowRatioRule(5, 2.0)
	if _, err := NewRunner(testConfig(60, 300), rule).Run(context.Background(), table); err == nil {
		t.Fatal("Expected error when count columns are absent")
	}
}

func TestRunner_DeterministicTradeIDs(t *testing.T) {
	table := buildTable(200, nil, map[int]float64{10: 1})

	rule := strategy.NewFixedTPSLRule(0.03, 0.01)
	first, err := NewRunner(testConfig(60, 300), rule).Run(context.Background(), table)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	second, err := NewRunner(testConfig(60, 300), rule).Run(context.Background(), table)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if first.Trades[0].TradeID != second.Trades[0].TradeID {
		t.Error("Identical runs must produce identical trade IDs")
	}
	if len(first.Trades[0].TradeID) != 64 {
		t.Errorf("TradeID must be a sha256 hex digest, got %q", first.Trades[0].TradeID)
	}
}
