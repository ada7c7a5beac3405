package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"news-trade-lab/internal/binance"
	"news-trade-lab/internal/config"
	"news-trade-lab/internal/feature"
	applog "news-trade-lab/internal/log"
	"news-trade-lab/internal/news"
	"news-trade-lab/internal/pipeline"
	"news-trade-lab/internal/storage"
	chstore "news-trade-lab/internal/storage/clickhouse"
	"news-trade-lab/internal/storage/memory"
	"news-trade-lab/internal/storage/migrations"
)

func main() {
	symbol := flag.String("symbol", "", "Trading symbol, e.g. BTCUSDT (required)")
	month := flag.String("month", "", "Calendar month, e.g. 2023-08 (required)")
	specPath := flag.String("spec", "", "Feature spec YAML (default: built-in z-score spec)")
	recompile := flag.Bool("recompile", false, "Ignore cached compiled datasets")

	archiveDir := flag.String("archive-dir", "data", "Directory holding aggTrades CSV dumps")
	newsEndpoint := flag.String("news-endpoint", news.DefaultEndpoint, "News API endpoint")
	newsSnapshot := flag.String("news-snapshot", "news_snapshot.json", "Local news snapshot path")

	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string for the dataset store")
	useMemory := flag.Bool("use-memory", false, "Use in-memory dataset store")

	outPath := flag.String("out", "", "Write the table CSV here (default stdout)")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	logger := applog.New(*logLevel)

	if *symbol == "" || *month == "" {
		logger.Fatal().Msg("--symbol and --month are required")
	}

	spec := defaultSpec()
	if *specPath != "" {
		loaded, err := config.LoadFeatureSpec(*specPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("load feature spec")
		}
		spec = loaded
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

	var provider feature.NewsProvider
	if specNeedsNews(spec) {
		client := news.NewClient(news.WithEndpoint(*newsEndpoint))
		provider = news.NewArchive(*newsSnapshot, client, news.DefaultMaxAge)
	}

	builder := pipeline.NewBuilder(binance.NewArchive(*archiveDir), datasetStore, provider, logger)

	start := time.Now()
	table, specID, err := builder.TradingDataset(ctx, pipeline.Request{
		Symbol:    *symbol,
		Month:     *month,
		Spec:      spec,
		Recompile: *recompile,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("build trading dataset")
	}
	logger.Info().
		Str("spec_id", specID).
		Int("rows", table.Len()).
		Dur("elapsed", time.Since(start)).
		Msg("dataset ready")

	out := os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("create output file")
		}
		defer f.Close()
		out = f
	}

	if err := table.WriteCSV(out); err != nil {
		logger.Fatal().Err(err).Msg("write csv")
	}
	if *outPath != "" {
		fmt.Printf("wrote %s\n", *outPath)
	}
}

// defaultSpec derives z-scores over the order-flow columns and signals on
// sell-side quantity spikes.
func defaultSpec() *feature.Spec {
	return &feature.Spec{
		Columns: []string{"avg_price", "sum_asset_bought", "num_of_trades_bought", "sum_asset_sold", "num_of_trades_sold"},
		Features: []feature.Feature{
			{
				Type:    feature.KindZScore,
				Columns: []string{"sum_asset_bought", "num_of_trades_bought", "sum_asset_sold", "num_of_trades_sold"},
			},
		},
		Signal: &feature.SignalSpec{Column: "sum_asset_sold_zscore", Threshold: 100},
	}
}

func specNeedsNews(spec *feature.Spec) bool {
	for _, f := range spec.Features {
		if f.Type == feature.KindNewsSignal {
			return true
		}
	}
	return false
}
