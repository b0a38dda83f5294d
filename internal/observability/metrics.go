// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// REST metrics
	RESTCallLatency *prometheus.HistogramVec
	RESTCallErrors  *prometheus.CounterVec

	// Snapshot metrics
	ChunksTotal       *prometheus.CounterVec
	SnapshotPairs     prometheus.Gauge
	RecordsDropped    *prometheus.CounterVec
	UnconvertedQuotes prometheus.Gauge

	// Live ingestion metrics
	WSMessages         *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	RecordsAppended    prometheus.Counter
	RecordsRejected    *prometheus.CounterVec

	// Flush metrics
	FlushDuration *prometheus.HistogramVec
	FlushSize     prometheus.Histogram

	// Run metrics
	RunsTotal   *prometheus.CounterVec
	RunDuration *prometheus.HistogramVec

	// Health metrics
	LastSuccessfulRun *prometheus.GaugeVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "kraken_tools"
	}

	return &Metrics{
		RESTCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rest",
			Name:      "call_latency_seconds",
			Help:      "Kraken REST call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		RESTCallErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rest",
			Name:      "call_errors_total",
			Help:      "Total number of failed Kraken REST calls",
		}, []string{"endpoint"}),

		ChunksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "chunks_total",
			Help:      "Total number of ticker chunks requested by status",
		}, []string{"status"}),
		SnapshotPairs: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "pairs",
			Help:      "Number of pairs in the last ticker snapshot",
		}),
		RecordsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "normalization",
			Name:      "records_dropped_total",
			Help:      "Total number of snapshot records dropped by reason",
		}, []string{"reason"}),
		UnconvertedQuotes: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "normalization",
			Name:      "unconverted_quote_currencies",
			Help:      "Quote currencies without a USD rate in the last run",
		}),

		WSMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "ws_messages_total",
			Help:      "Total number of websocket messages by kind",
		}, []string{"kind"}),
		ValidationFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "validation_failures_total",
			Help:      "Total number of messages failing schema validation by contract",
		}, []string{"contract"}),
		RecordsAppended: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "records_appended_total",
			Help:      "Total number of ticker records appended to the record log",
		}),
		RecordsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "records_rejected_total",
			Help:      "Total number of ticker records rejected during decode",
		}, []string{"reason"}),

		FlushDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "flush_duration_seconds",
			Help:      "Record log flush duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		FlushSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "flush_records",
			Help:      "Number of records per flush",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
		}),

		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "total",
			Help:      "Total number of tool runs by status",
		}, []string{"tool", "status"}),
		RunDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Tool run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 300, 900, 3600},
		}, []string{"tool"}),

		LastSuccessfulRun: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful run",
		}, []string{"tool"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRESTCall records REST call latency and failures.
func RecordRESTCall(endpoint string, seconds float64, err error) {
	DefaultMetrics.RESTCallLatency.WithLabelValues(endpoint).Observe(seconds)
	if err != nil {
		DefaultMetrics.RESTCallErrors.WithLabelValues(endpoint).Inc()
	}
}

// RecordChunk records the outcome of one ticker chunk ("ok" or "failed").
func RecordChunk(status string) {
	DefaultMetrics.ChunksTotal.WithLabelValues(status).Inc()
}

// RecordSnapshotPairs sets the snapshot size gauge.
func RecordSnapshotPairs(n int) {
	DefaultMetrics.SnapshotPairs.Set(float64(n))
}

// RecordRecordDropped records a dropped snapshot record.
func RecordRecordDropped(reason string) {
	DefaultMetrics.RecordsDropped.WithLabelValues(reason).Inc()
}

// RecordUnconverted sets the unconverted quote currencies gauge.
func RecordUnconverted(n int) {
	DefaultMetrics.UnconvertedQuotes.Set(float64(n))
}

// RecordWSMessage records one inbound websocket message by kind.
func RecordWSMessage(kind string) {
	DefaultMetrics.WSMessages.WithLabelValues(kind).Inc()
}

// RecordValidationFailure records a message failing its contract.
func RecordValidationFailure(contract string) {
	DefaultMetrics.ValidationFailures.WithLabelValues(contract).Inc()
}

// RecordLiveRecords records appended and rejected ticker records.
func RecordLiveRecords(appended int, rejected map[string]int) {
	DefaultMetrics.RecordsAppended.Add(float64(appended))
	for reason, n := range rejected {
		DefaultMetrics.RecordsRejected.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordFlush records a record log flush.
func RecordFlush(duration time.Duration, size int, err error) {
	status := "ok"
	if err != nil {
		status = "failed"
	}
	DefaultMetrics.FlushDuration.WithLabelValues(status).Observe(duration.Seconds())
	DefaultMetrics.FlushSize.Observe(float64(size))
}

// RecordRun records a tool run.
func RecordRun(tool, status string, durationSeconds float64) {
	DefaultMetrics.RunsTotal.WithLabelValues(tool, status).Inc()
	DefaultMetrics.RunDuration.WithLabelValues(tool).Observe(durationSeconds)
	if status == "ok" {
		DefaultMetrics.LastSuccessfulRun.WithLabelValues(tool).SetToCurrentTime()
	}
}
