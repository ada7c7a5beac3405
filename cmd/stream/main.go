package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"news-trade-lab/internal/binance"
	"news-trade-lab/internal/domain"
	applog "news-trade-lab/internal/log"
	"news-trade-lab/internal/observability"
	"news-trade-lab/internal/reduce"
)

func main() {
	symbolsFlag := flag.String("symbols", "BTCUSDT", "Comma-separated symbols to stream")
	streamURL := flag.String("url", binance.DefaultStreamURL, "Combined-stream endpoint")
	interval := flag.Duration("interval", 5*time.Second, "Reduce-and-print cadence")
	metricsAddr := flag.String("metrics-addr", "", "Serve /metrics on this address (empty disables)")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	logger := applog.New(*logLevel)
	symbols := strings.Split(*symbolsFlag, ",")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler())
		server := &http.Server{Addr: *metricsAddr, Handler: mux}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("metrics server")
			}
		}()
		defer server.Close()
		logger.Info().Str("addr", *metricsAddr).Msg("metrics server listening")
	}

	stream, err := binance.NewStream(ctx, *streamURL, symbols, nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect stream")
	}
	defer stream.Close()

	logger.Info().Strs("symbols", symbols).Msg("streaming trades")

	buffers := make(map[string][]domain.AggTrade, len(symbols))
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case st, ok := <-stream.Trades():
			if !ok {
				return
			}
			buffers[st.Symbol] = append(buffers[st.Symbol], st.Trade)
			observability.DefaultMetrics.StreamBufferSize.Set(float64(bufferedTrades(buffers)))

		case <-ticker.C:
			for symbol, trades := range buffers {
				printWindow(logger, symbol, trades)
				delete(buffers, symbol)
			}
			observability.DefaultMetrics.StreamBufferSize.Set(0)
		}
	}
}

func bufferedTrades(buffers map[string][]domain.AggTrade) int {
	total := 0
	for _, trades := range buffers {
		total += len(trades)
	}
	return total
}

// printWindow reduces one interval's prints and logs the latest bar.
func printWindow(logger zerolog.Logger, symbol string, trades []domain.AggTrade) {
	if len(trades) == 0 {
		return
	}

	bars, err := reduce.Reduce(trades)
	if err != nil {
		logger.Error().Err(err).Str("symbol", symbol).Msg("reduce window")
		return
	}
	for range bars {
		observability.RecordBarReduced()
	}

	last := bars[len(bars)-1]
	logger.Info().
		Str("symbol", symbol).
		Int64("ts", last.Timestamp).
		Float64("avg_price", last.AvgPrice).
		Float64("bought_qty", last.SumAssetBought).
		Float64("sold_qty", last.SumAssetSold).
		Float64("buys", last.NumTradesBought).
		Float64("sells", last.NumTradesSold).
		Int("bars", len(bars)).
		Msg("window reduced")
}
