// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Trade stream metrics
	RawTradesProcessed prometheus.Counter
	BarsReduced        prometheus.Counter
	StreamReconnects   prometheus.Counter
	StreamErrors       *prometheus.CounterVec
	StreamBufferSize   prometheus.Gauge
	LastTradeTime      prometheus.Gauge

	// News metrics
	NewsEventsFetched  prometheus.Counter
	NewsFetchErrors    prometheus.Counter
	NewsSnapshotWrites prometheus.Counter

	// Pipeline metrics
	PipelineRunsTotal *prometheus.CounterVec
	PipelineDuration  *prometheus.HistogramVec
	DatasetCacheHits  *prometheus.CounterVec
	ColumnsCompiled   prometheus.Counter

	// Backtest metrics
	BacktestRunsTotal *prometheus.CounterVec
	TradesSimulated   *prometheus.CounterVec
	SignalsSkipped    prometheus.Counter
	BacktestDuration  prometheus.Histogram

	// Latency metrics
	NewsFetchLatency prometheus.Histogram
	WSMessageLatency prometheus.Histogram

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
	DBConnections   *prometheus.GaugeVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
	UptimeSeconds     prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "news_trade_lab"
	}

	return &Metrics{
		// Trade stream metrics
		RawTradesProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "raw_trades_processed_total",
			Help:      "Total number of aggregated trades processed",
		}),
		BarsReduced: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "bars_reduced_total",
			Help:      "Total number of one-second bars emitted by the reducer",
		}),
		StreamReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "reconnects_total",
			Help:      "Total number of websocket reconnects",
		}),
		StreamErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "errors_total",
			Help:      "Total number of stream errors by type",
		}, []string{"error_type"}),
		StreamBufferSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "buffer_size",
			Help:      "Current number of buffered raw trades awaiting reduction",
		}),
		LastTradeTime: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "last_trade_timestamp_ms",
			Help:      "Timestamp of the most recent trade seen, in milliseconds",
		}),

		// News metrics
		NewsEventsFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "news",
			Name:      "events_fetched_total",
			Help:      "Total number of news events fetched from the archive endpoint",
		}),
		NewsFetchErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "news",
			Name:      "fetch_errors_total",
			Help:      "Total number of failed news fetches",
		}),
		NewsSnapshotWrites: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "news",
			Name:      "snapshot_writes_total",
			Help:      "Total number of local news snapshot writes",
		}),

		// Pipeline metrics
		PipelineRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by phase and status",
		}, []string{"phase", "status"}),
		PipelineDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline phase duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"phase"}),
		DatasetCacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "dataset_cache_total",
			Help:      "Dataset store lookups by result (hit, miss, partial)",
		}, []string{"result"}),
		ColumnsCompiled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "columns_compiled_total",
			Help:      "Total number of feature columns compiled",
		}),

		// Backtest metrics
		BacktestRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "runs_total",
			Help:      "Total number of backtest runs by strategy and status",
		}, []string{"strategy", "status"}),
		TradesSimulated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "trades_simulated_total",
			Help:      "Total number of trades simulated by exit reason",
		}, []string{"exit_reason"}),
		SignalsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "signals_skipped_total",
			Help:      "Total number of signals skipped due to cooldown or bad entry",
		}),
		BacktestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "duration_seconds",
			Help:      "Backtest run duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		}),

		// Latency metrics
		NewsFetchLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "news",
			Name:      "fetch_latency_seconds",
			Help:      "News archive fetch latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		WSMessageLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "ws_message_latency_seconds",
			Help:      "Delay between trade event time and local receipt",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
		DBConnections: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "connections",
			Help:      "Number of database connections by state",
		}, []string{"database", "state"}),

		// Health metrics
		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful pipeline or backtest run",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordTradeProcessed increments the raw trades processed counter.
func RecordTradeProcessed() {
	DefaultMetrics.RawTradesProcessed.Inc()
}

// RecordBarReduced increments the reduced bars counter.
func RecordBarReduced() {
	DefaultMetrics.BarsReduced.Inc()
}

// RecordStreamError records a stream error by type.
func RecordStreamError(errorType string) {
	DefaultMetrics.StreamErrors.WithLabelValues(errorType).Inc()
}

// RecordDatasetLookup records a dataset store lookup result.
func RecordDatasetLookup(result string) {
	DefaultMetrics.DatasetCacheHits.WithLabelValues(result).Inc()
}

// RecordPipelineRun records a pipeline run.
func RecordPipelineRun(phase, status string, durationSeconds float64) {
	DefaultMetrics.PipelineRunsTotal.WithLabelValues(phase, status).Inc()
	DefaultMetrics.PipelineDuration.WithLabelValues(phase).Observe(durationSeconds)
}

// RecordTradeSimulated increments the simulated trades counter.
func RecordTradeSimulated(exitReason string) {
	DefaultMetrics.TradesSimulated.WithLabelValues(exitReason).Inc()
}

// RecordBacktestRun records a backtest run outcome.
func RecordBacktestRun(strategy, status string, durationSeconds float64) {
	DefaultMetrics.BacktestRunsTotal.WithLabelValues(strategy, status).Inc()
	DefaultMetrics.BacktestDuration.Observe(durationSeconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
