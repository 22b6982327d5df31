package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Query Prometheus metrics.
var (
	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "metasearch",
			Name:      "query_duration_seconds",
			Help:      "Search query duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"backend", "entity", "kind"},
	)

	QueryErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "metasearch",
			Name:      "query_errors_total",
			Help:      "Total search query errors",
		},
		[]string{"backend", "entity", "error_type"},
	)

	CountCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "metasearch",
			Name:      "count_cache_total",
			Help:      "Count cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

// Query kinds.
const (
	KindSearch    = "search"
	KindCount     = "count"
	KindEstimate  = "estimate"
	KindChildren  = "children"
	KindAggregate = "aggregate"
	KindSummary   = "summary"
)

// BackendLabel maps an executor backend to its search context label.
func BackendLabel(backend string) string {
	if backend == "snapshot" {
		return BackendArchive
	}
	return backend
}

// ObserveQuery records one query round trip.
func ObserveQuery(backend, entity, kind string, start time.Time) {
	QueryDuration.WithLabelValues(BackendLabel(backend), entity, kind).Observe(time.Since(start).Seconds())
}

// CountQueryError records a failed query. Schema mismatches are counted apart.
func CountQueryError(backend, entity string, schemaMismatch bool) {
	errorType := "query"
	if schemaMismatch {
		errorType = "schema"
	}
	QueryErrorsTotal.WithLabelValues(BackendLabel(backend), entity, errorType).Inc()
}

var queryMetricsRegistered bool

// RegisterQueryMetrics registers Prometheus query metrics. Must be called once from main.
func RegisterQueryMetrics() {
	if queryMetricsRegistered {
		return
	}
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(QueryErrorsTotal)
	prometheus.MustRegister(CountCacheTotal)
	queryMetricsRegistered = true
}
