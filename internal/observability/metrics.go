package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// prediction API.
type Metrics struct {
	QueriesServed   *prometheus.CounterVec // labels: endpoint={predictions,raw,latest}, outcome={success,error,empty}
	QueryDuration   *prometheus.HistogramVec
	RowsReturned    prometheus.Histogram
	RecordsIngested prometheus.Counter
	IngestErrors    prometheus.Counter

	// Parquet scan metrics.
	PartitionsScanned *prometheus.HistogramVec // labels: layout={location,date}
	ScanDuration      *prometheus.HistogramVec
	SnapshotAge       *prometheus.GaugeVec

	// Spatial resolution metrics.
	PointLookups *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all API metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		QueriesServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "streamflow",
			Name:      "queries_served_total",
			Help:      "Prediction queries served by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "streamflow",
			Name:      "query_duration_seconds",
			Help:      "End-to-end prediction query duration.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),
		RowsReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "streamflow",
			Name:      "rows_returned",
			Help:      "Number of result rows per prediction query.",
			Buckets:   []float64{10, 100, 1_000, 10_000, 100_000, 1_000_000},
		}),
		RecordsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "streamflow",
			Name:      "records_ingested_total",
			Help:      "Prediction records accepted by the ingest endpoint.",
		}),
		IngestErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "streamflow",
			Name:      "ingest_errors_total",
			Help:      "Ingest requests that failed to persist.",
		}),
		PartitionsScanned: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "streamflow",
			Name:      "partitions_scanned",
			Help:      "Parquet partitions read per scan, after pruning.",
			Buckets:   []float64{1, 5, 10, 20, 50, 100, 500},
		}, []string{"layout"}),
		ScanDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "streamflow",
			Name:      "scan_duration_seconds",
			Help:      "Parquet scan duration by partition layout.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}, []string{"layout"}),
		SnapshotAge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "streamflow",
			Name:      "partition_snapshot_age_seconds",
			Help:      "Age of the served partition listing by layout.",
		}, []string{"layout"}),
		PointLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "streamflow",
			Name:      "point_lookups_total",
			Help:      "Point-in-polygon basin lookups by result.",
		}, []string{"result"}),
	}

	prometheus.MustRegister(
		m.QueriesServed,
		m.QueryDuration,
		m.RowsReturned,
		m.RecordsIngested,
		m.IngestErrors,
		m.PartitionsScanned,
		m.ScanDuration,
		m.SnapshotAge,
		m.PointLookups,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		QueriesServed:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "streamflow", Name: "queries_served_total"}, []string{"endpoint", "outcome"}),
		QueryDuration:     prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "streamflow", Name: "query_duration_seconds"}, []string{"endpoint"}),
		RowsReturned:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "streamflow", Name: "rows_returned"}),
		RecordsIngested:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "streamflow", Name: "records_ingested_total"}),
		IngestErrors:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "streamflow", Name: "ingest_errors_total"}),
		PartitionsScanned: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "streamflow", Name: "partitions_scanned"}, []string{"layout"}),
		ScanDuration:      prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "streamflow", Name: "scan_duration_seconds"}, []string{"layout"}),
		SnapshotAge:       prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: "streamflow", Name: "partition_snapshot_age_seconds"}, []string{"layout"}),
		PointLookups:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "streamflow", Name: "point_lookups_total"}, []string{"result"}),
	}
}
