package reporting

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"news-trade-lab/internal/backtest"
	"news-trade-lab/internal/domain"
	"news-trade-lab/internal/metrics"
)

func fixedClock() time.Time {
	return time.Date(2023, 9, 1, 12, 0, 0, 0, time.UTC)
}

func sampleResult() *backtest.Result {
	return &backtest.Result{
		Trades: []*domain.TradeRecord{
			{
				TradeID: "bbb", TradeNumber: 2, PositionSide: "long",
				EntryTime: 2000, EntryPrice: 101, ExitTime: 5000, ExitPrice: 102,
				ExitReason: "TP_PRICE", MaxPosPctChange: 0.02, MaxNegPctChange: -0.005,
				TradeScore: 0.015,
			},
			{
				TradeID: "aaa", TradeNumber: 1, PositionSide: "long",
				EntryTime: 1000, EntryPrice: 100, ExitTime: 4000, ExitPrice: 99,
				ExitReason: "SL_PRICE", MaxPosPctChange: 0.001, MaxNegPctChange: -0.01,
				TradeScore: -0.009,
			},
		},
		Summary: domain.RunSummary{
			Symbol: "BTCUSDT", Month: "2023-08", StrategyID: "TP_SL_0.01_0.005",
			TotalTrades: 2, PositiveTrades: 1, NegativeTrades: 1,
			TotalTradeScore: 0.006, BestOutcomePct: 0.021, WorstOutcomePct: -0.015,
		},
	}
}

func TestGenerator_FromResult(t *testing.T) {
	cfg := backtest.Config{Symbol: "BTCUSDT", Month: "2023-08", SpecID: "abc123"}
	result := sampleResult()
	stats := &metrics.ScoreStats{WinRate: 0.5, ScoreMean: 0.003, MaxConsecutiveLosses: 1}

	report := NewGenerator().WithClock(fixedClock).FromResult(cfg, "TP_SL_0.01_0.005", result, stats)

	if report.GeneratedAt != fixedClock() {
		t.Errorf("GeneratedAt = %v", report.GeneratedAt)
	}
	if report.Symbol != "BTCUSDT" || report.SpecID != "abc123" {
		t.Errorf("identity = %s/%s", report.Symbol, report.SpecID)
	}
	if report.Summary.TotalTrades != 2 || report.Summary.TotalTradeScore != 0.006 {
		t.Errorf("summary = %+v", report.Summary)
	}
	if report.Stats == nil || report.Stats.WinRate != 0.5 {
		t.Errorf("stats = %+v", report.Stats)
	}

	// Trades sorted by entry time regardless of input order.
	if len(report.Trades) != 2 || report.Trades[0].TradeID != "aaa" || report.Trades[1].TradeID != "bbb" {
		t.Errorf("trade order = %+v", report.Trades)
	}
}

func TestGenerator_FromResult_NoStats(t *testing.T) {
	cfg := backtest.Config{Symbol: "BTCUSDT", Month: "2023-08"}
	result := &backtest.Result{Summary: domain.RunSummary{Symbol: "BTCUSDT"}}

	report := NewGenerator().WithClock(fixedClock).FromResult(cfg, "TP_SL_0.01_0.005", result, nil)

	if report.Stats != nil {
		t.Error("stats should be omitted for an empty run")
	}
	if len(report.Trades) != 0 {
		t.Errorf("trades = %d, want 0", len(report.Trades))
	}
}

func TestRunReport_WriteJSON(t *testing.T) {
	cfg := backtest.Config{Symbol: "BTCUSDT", Month: "2023-08"}
	report := NewGenerator().WithClock(fixedClock).FromResult(cfg, "TP_SL_0.01_0.005", sampleResult(), nil)

	var buf bytes.Buffer
	if err := report.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var decoded RunReport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Symbol != "BTCUSDT" || len(decoded.Trades) != 2 {
		t.Errorf("decoded = %+v", decoded)
	}
	if decoded.Trades[0].ExitReason != "SL_PRICE" {
		t.Errorf("first trade = %+v", decoded.Trades[0])
	}
}

func TestRenderTradesCSV(t *testing.T) {
	report := NewGenerator().WithClock(fixedClock).
		FromResult(backtest.Config{Symbol: "BTCUSDT", Month: "2023-08"}, "TP_SL_0.01_0.005", sampleResult(), nil)

	out := RenderTradesCSV(report.Trades)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want header + 2 rows", len(lines))
	}
	if !strings.HasPrefix(lines[0], "trade_id,trade_number,") {
		t.Errorf("header = %s", lines[0])
	}
	if !strings.Contains(lines[1], "aaa,1,long,1000,") {
		t.Errorf("first row = %s", lines[1])
	}
}

func TestRenderMarkdown(t *testing.T) {
	stats := &metrics.ScoreStats{WinRate: 0.5}
	report := NewGenerator().WithClock(fixedClock).
		FromResult(backtest.Config{Symbol: "BTCUSDT", Month: "2023-08", SpecID: "abc"}, "TP_SL_0.01_0.005", sampleResult(), stats)

	out := RenderMarkdown(report)
	for _, want := range []string{
		"# Backtest Run: BTCUSDT 2023-08",
		"Strategy: TP_SL_0.01_0.005",
		"## Score Distribution",
		"| Total Trades | 2 |",
		"| SL_PRICE |",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderMarkdown_NoTrades(t *testing.T) {
	report := NewGenerator().WithClock(fixedClock).
		FromResult(backtest.Config{Symbol: "BTCUSDT", Month: "2023-08"}, "TP_SL_0.01_0.005",
			&backtest.Result{Summary: domain.RunSummary{}}, nil)

	out := RenderMarkdown(report)
	if !strings.Contains(out, "No trades.") {
		t.Error("markdown should note the empty trade list")
	}
}
