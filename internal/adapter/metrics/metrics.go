package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// QueryMetrics holds all Prometheus metrics for the catalogue service.
type QueryMetrics struct {
	QueriesTotal    *prometheus.CounterVec
	QueryDuration   *prometheus.HistogramVec
	RowsReturned    *prometheus.CounterVec
	ExportBytes     prometheus.Counter
	CellCacheHits   prometheus.Counter
	CellCacheMisses prometheus.Counter
}

// NewQueryMetrics initializes and registers the Prometheus metrics.
func NewQueryMetrics() *QueryMetrics {
	return &QueryMetrics{
		QueriesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agdc",
			Subsystem: "query",
			Name:      "operations_total",
			Help:      "Total catalogue operations by operation and status.",
		}, []string{"operation", "status"}), // status: ok, error, invalid
		QueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "agdc",
			Subsystem: "query",
			Name:      "duration_seconds",
			Help:      "Catalogue operation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		RowsReturned: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agdc",
			Subsystem: "query",
			Name:      "rows_returned_total",
			Help:      "Total rows returned or exported by operation.",
		}, []string{"operation"}),
		ExportBytes: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "agdc",
			Subsystem: "query",
			Name:      "export_bytes_total",
			Help:      "Total CSV bytes streamed to export sinks.",
		}),
		CellCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "agdc",
			Subsystem: "cache",
			Name:      "cell_hits_total",
			Help:      "Total cell-list cache hits.",
		}),
		CellCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "agdc",
			Subsystem: "cache",
			Name:      "cell_misses_total",
			Help:      "Total cell-list cache misses.",
		}),
	}
}
