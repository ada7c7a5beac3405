package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"news-trade-lab/internal/backtest"
	"news-trade-lab/internal/binance"
	"news-trade-lab/internal/config"
	"news-trade-lab/internal/feature"
	applog "news-trade-lab/internal/log"
	"news-trade-lab/internal/metrics"
	"news-trade-lab/internal/news"
	"news-trade-lab/internal/pipeline"
	"news-trade-lab/internal/reporting"
	"news-trade-lab/internal/storage"
	chstore "news-trade-lab/internal/storage/clickhouse"
	"news-trade-lab/internal/storage/memory"
	"news-trade-lab/internal/storage/migrations"
	pgstore "news-trade-lab/internal/storage/postgres"
	"news-trade-lab/internal/strategy"
)

func main() {
	symbol := flag.String("symbol", "", "Trading symbol, e.g. BTCUSDT (required)")
	month := flag.String("month", "", "Calendar month, e.g. 2023-08 (required)")
	specPath := flag.String("spec", "", "Feature spec YAML (required)")
	recompile := flag.Bool("recompile", false, "Ignore cached compiled datasets")

	strategyType := flag.String("strategy", strategy.TypeFixedTPSL, "Exit rule: fixed_tp_sl or flow_ratio")
	takeProfit := flag.Float64("take-profit-pct", 0.01, "Take-profit fraction for fixed_tp_sl")
	stopLoss := flag.Float64("stop-loss-pct", 0.005, "Stop-loss fraction for fixed_tp_sl")
	emaSpan := flag.Int("ema-span", 2000, "EMA span for flow_ratio")
	ratioThreshold := flag.Float64("ratio-threshold", 1.2, "Ratio threshold for flow_ratio")
	horizon := flag.Int("horizon-seconds", backtest.DefaultHorizonSeconds, "Max trade walk horizon")
	cooldown := flag.Int("cooldown-seconds", backtest.DefaultCooldownSeconds, "Re-entry suppression after an exit")

	archiveDir := flag.String("archive-dir", "data", "Directory holding aggTrades CSV dumps")
	newsEndpoint := flag.String("news-endpoint", news.DefaultEndpoint, "News API endpoint")
	newsSnapshot := flag.String("news-snapshot", "news_snapshot.json", "Local news snapshot path")

	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string for trade records")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string for datasets and summaries")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage")
	persist := flag.Bool("persist", false, "Persist trade records and the run summary")

	outputJSON := flag.Bool("json", false, "Write the run report as JSON to stdout")
	outputMarkdown := flag.Bool("markdown", false, "Write the run report as Markdown to stdout")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	logger := applog.New(*logLevel)

	if *symbol == "" || *month == "" {
		logger.Fatal().Msg("--symbol and --month are required")
	}
	if *specPath == "" {
		logger.Fatal().Msg("--spec is required")
	}

	spec, err := config.LoadFeatureSpec(*specPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load feature spec")
	}

	rule, err := strategy.FromConfig(strategy.Config{
		Type:           *strategyType,
		TakeProfitPct:  takeProfit,
		StopLossPct:    stopLoss,
		EMASpan:        emaSpan,
		RatioThreshold: ratioThreshold,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("build exit rule")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	var (
		datasetStore storage.DatasetStore     = memory.NewDatasetStore()
		tradeStore   storage.TradeRecordStore = memory.NewTradeRecordStore()
		summaryStore storage.RunSummaryStore  = memory.NewRunSummaryStore()
	)
	if !*useMemory {
		if *postgresDSN == "" || *clickhouseDSN == "" {
			logger.Fatal().Msg("--postgres-dsn and --clickhouse-dsn are required when not using --use-memory")
		}

		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect to postgres")
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatal().Err(err).Msg("postgres migrations")
		}
		tradeStore = pgstore.NewTradeRecordStore(pool)

		conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect to clickhouse")
		}
		defer conn.Close()
		datasetStore = chstore.NewDatasetStore(conn)
		summaryStore = chstore.NewRunSummaryStore(conn)
	}

	var provider feature.NewsProvider
	if specNeedsNews(spec) {
		client := news.NewClient(news.WithEndpoint(*newsEndpoint))
		provider = news.NewArchive(*newsSnapshot, client, news.DefaultMaxAge)
	}

	builder := pipeline.NewBuilder(binance.NewArchive(*archiveDir), datasetStore, provider, logger)

	table, specID, err := builder.TradingDataset(ctx, pipeline.Request{
		Symbol:    *symbol,
		Month:     *month,
		Spec:      spec,
		Recompile: *recompile,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("build trading dataset")
	}

	cfg := backtest.Config{
		Symbol:          *symbol,
		Month:           *month,
		SpecID:          specID,
		HorizonSeconds:  *horizon,
		CooldownSeconds: *cooldown,
	}

	logger.Info().
		Str("symbol", *symbol).
		Str("month", *month).
		Str("strategy", rule.ID()).
		Msg("running backtest")

	result, err := backtest.NewRunner(cfg, rule).Run(ctx, table)
	if err != nil {
		logger.Fatal().Err(err).Msg("backtest failed")
	}

	if *persist && len(result.Trades) > 0 {
		if err := tradeStore.InsertBulk(ctx, result.Trades); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			logger.Fatal().Err(err).Msg("persist trades")
		}
		if err := summaryStore.Insert(ctx, &result.Summary); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			logger.Fatal().Err(err).Msg("persist summary")
		}
	}

	stats := runStats(ctx, result, *symbol, rule.ID())
	report := reporting.NewGenerator().FromResult(cfg, rule.ID(), result, stats)

	switch {
	case *outputJSON:
		if err := report.WriteJSON(os.Stdout); err != nil {
			logger.Fatal().Err(err).Msg("write report")
		}
	case *outputMarkdown:
		fmt.Print(reporting.RenderMarkdown(report))
	default:
		printSummary(result)
	}
}

// runStats computes the score distribution for this run's trades only.
func runStats(ctx context.Context, result *backtest.Result, symbol, strategyID string) *metrics.ScoreStats {
	if len(result.Trades) == 0 {
		return nil
	}
	scratch := memory.NewTradeRecordStore()
	if err := scratch.InsertBulk(ctx, result.Trades); err != nil {
		return nil
	}
	stats, err := metrics.NewAggregator(scratch).ComputeStats(ctx, symbol, strategyID)
	if err != nil {
		return nil
	}
	return stats
}

func printSummary(result *backtest.Result) {
	s := result.Summary
	fmt.Println("================================")
	fmt.Printf("Total Trades:      %d\n", s.TotalTrades)
	fmt.Printf("Total TradeScore:  %.4f\n", s.TotalTradeScore)
	fmt.Printf("Positive Trades:   %d\n", s.PositiveTrades)
	fmt.Printf("Negative Trades:   %d\n", s.NegativeTrades)
	fmt.Printf("Best Outcome Sum:  %.6f\n", s.BestOutcomePct)
	fmt.Printf("Worst Outcome Sum: %.6f\n", s.WorstOutcomePct)
	fmt.Println("================================")
}

func specNeedsNews(spec *feature.Spec) bool {
	for _, f := range spec.Features {
		if f.Type == feature.KindNewsSignal {
			return true
		}
	}
	return false
}
