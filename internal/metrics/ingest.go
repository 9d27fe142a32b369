package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Run status label values.
const (
	RunSuccess = "success"
	RunFailure = "failure"
)

// Ingestion Prometheus metrics.
var (
	IngestDownloadBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "ingest_download_bytes_total",
			Help:      "Bytes downloaded from the sales register source",
		},
	)

	IngestBatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "ingest_batch_duration_seconds",
			Help:      "Duration of one bulk insert batch in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	IngestRowsInsertedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "ingest_rows_inserted_total",
			Help:      "Property records written by the loader",
		},
	)

	IngestRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "ingest_runs_total",
			Help:      "Completed ingestion runs by outcome",
		},
		[]string{"status"},
	)
)

var registerIngestOnce sync.Once

// RegisterIngestMetrics registers ingestion metrics with the default registry.
// Safe to call more than once.
func RegisterIngestMetrics() {
	registerIngestOnce.Do(func() {
		prometheus.MustRegister(
			IngestDownloadBytesTotal,
			IngestBatchDuration,
			IngestRowsInsertedTotal,
			IngestRunsTotal,
		)
	})
}
