package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"news-trade-lab/internal/backtest"
	"news-trade-lab/internal/binance"
	"news-trade-lab/internal/dataset"
	"news-trade-lab/internal/feature"
	"news-trade-lab/internal/idhash"
	applog "news-trade-lab/internal/log"
	"news-trade-lab/internal/pipeline"
	"news-trade-lab/internal/storage"
	chstore "news-trade-lab/internal/storage/clickhouse"
	"news-trade-lab/internal/storage/memory"
	"news-trade-lab/internal/storage/migrations"
	"news-trade-lab/internal/strategy"
)

// coreColumns are the order-flow columns the sweep derives signals from.
var coreColumns = []string{
	"sum_asset_bought",
	"num_of_trades_bought",
	"sum_asset_sold",
	"num_of_trades_sold",
}

// sweepResult is one grid cell in the output artifact.
type sweepResult struct {
	Key             string  `json:"key"`
	Symbol          string  `json:"symbol"`
	Month           string  `json:"month"`
	Signal          string  `json:"signal"`
	TotalTrades     int     `json:"total_trades"`
	TotalTradeScore float64 `json:"total_trade_score"`
	PositiveTrades  int     `json:"positive_trades"`
	NegativeTrades  int     `json:"negative_trades"`
}

func main() {
	symbolsFlag := flag.String("symbols", "ETHUSDT", "Comma-separated symbols")
	month := flag.String("month", "", "Calendar month, e.g. 2023-08 (required)")
	columnsFlag := flag.String("columns", strings.Join(coreColumns, ","), "Signal columns to sweep (z-scored)")
	threshold := flag.Float64("threshold", 100, "Signal z-score threshold")

	takeProfit := flag.Float64("take-profit-pct", 0.01, "Take-profit fraction")
	stopLoss := flag.Float64("stop-loss-pct", 0.005, "Stop-loss fraction")

	archiveDir := flag.String("archive-dir", "data", "Directory holding aggTrades CSV dumps")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string for the dataset store")
	useMemory := flag.Bool("use-memory", false, "Use in-memory dataset store")

	outPath := flag.String("out", "grid_search_results.json", "Results JSON path")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	logger := applog.New(*logLevel)

	if *month == "" {
		logger.Fatal().Msg("--month is required")
	}
	symbols := strings.Split(*symbolsFlag, ",")
	columns := strings.Split(*columnsFlag, ",")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	var datasetStore storage.DatasetStore = memory.NewDatasetStore()
	if !*useMemory {
		if *clickhouseDSN == "" {
			logger.Fatal().Msg("--clickhouse-dsn is required when not using --use-memory")
		}
		conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect to clickhouse")
		}
		defer conn.Close()
		datasetStore = chstore.NewDatasetStore(conn)
	}

	rule := strategy.NewFixedTPSLRule(*takeProfit, *stopLoss)
	builder := pipeline.NewBuilder(binance.NewArchive(*archiveDir), datasetStore, nil, logger)

	var results []sweepResult
	for _, symbol := range symbols {
		for _, col := range columns {
			spec := sweepSpec(col, *threshold)
			signalDesc := fmt.Sprintf("%s_zscore when threshold over %g", col, *threshold)

			logger.Info().Str("symbol", symbol).Str("signal", signalDesc).Msg("sweep cell")

			table, _, err := builder.TradingDataset(ctx, pipeline.Request{Symbol: symbol, Month: *month, Spec: spec})
			if err != nil {
				if errors.Is(err, pipeline.ErrDataUnavailable) {
					logger.Warn().Str("symbol", symbol).Str("month", *month).Msg("data unavailable, skipping")
					continue
				}
				logger.Fatal().Err(err).Msg("build trading dataset")
			}

			cfg := backtest.Config{Symbol: symbol, Month: *month}
			result, err := backtest.NewRunner(cfg, rule).Run(ctx, table)
			if err != nil {
				logger.Fatal().Err(err).Msg("backtest failed")
			}

			key, err := idhash.ComputeSpecID(map[string]any{
				"symbol":    symbol,
				"month":     *month,
				"column":    col,
				"threshold": *threshold,
				"strategy":  rule.ID(),
			})
			if err != nil {
				logger.Fatal().Err(err).Msg("compute result key")
			}

			results = append(results, sweepResult{
				Key:             key,
				Symbol:          symbol,
				Month:           *month,
				Signal:          signalDesc,
				TotalTrades:     result.Summary.TotalTrades,
				TotalTradeScore: dataset.Round(result.Summary.TotalTradeScore, 4),
				PositiveTrades:  result.Summary.PositiveTrades,
				NegativeTrades:  result.Summary.NegativeTrades,
			})
		}
	}

	if err := writeResults(*outPath, results); err != nil {
		logger.Fatal().Err(err).Msg("write results")
	}
	logger.Info().Int("cells", len(results)).Str("out", *outPath).Msg("sweep complete")
}

// sweepSpec is the grid template: z-score every core column, signal on one.
func sweepSpec(signalColumn string, threshold float64) *feature.Spec {
	return &feature.Spec{
		Columns: []string{"avg_price", "sum_asset_bought", "num_of_trades_bought", "sum_asset_sold", "num_of_trades_sold"},
		Features: []feature.Feature{
			{Type: feature.KindZScore, Columns: coreColumns},
		},
		Signal: &feature.SignalSpec{Column: signalColumn + "_zscore", Threshold: threshold},
	}
}

func writeResults(path string, results []sweepResult) error {
	data, err := json.MarshalIndent(results, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
