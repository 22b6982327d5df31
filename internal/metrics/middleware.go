package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/metasearch/internal/domain"
)

// Label values shared by HTTP and query metrics.
const (
	BackendLive    = "live"
	BackendArchive = "archive"
	labelNone      = "none"
	labelUnknown   = "unknown"
)

var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "metasearch",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds by route, entity and search context",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route", "entity", "backend", "status"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "metasearch",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by route, entity and search context",
		},
		[]string{"method", "route", "entity", "backend", "status"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(httpRequestsTotal)
}

// Middleware records request duration and count. Labels are read after routing,
// so the chi route pattern and the {entity} parameter are known.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			route := routeLabel(r)
			labels := []string{r.Method, route, entityLabel(r), backendLabel(r, route), strconv.Itoa(ww.status)}
			httpRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
			httpRequestsTotal.WithLabelValues(labels...).Inc()
		})
	}
}

func routeLabel(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil || rctx.RoutePattern() == "" {
		return labelUnknown
	}
	return rctx.RoutePattern()
}

// entityLabel names the searched entity. Unknown path values collapse to one label.
func entityLabel(r *http.Request) string {
	raw := chi.URLParam(r, "entity")
	if raw == "" {
		raw = r.URL.Query().Get("type")
	}
	if raw == "" {
		return labelNone
	}
	e, err := domain.ParseEntity(raw)
	if err != nil {
		return labelUnknown
	}
	return string(e)
}

func backendLabel(r *http.Request, route string) string {
	switch route {
	case "/health", "/metrics", labelUnknown:
		return labelNone
	}
	if r.URL.Query().Get("searchContext") == BackendArchive {
		return BackendArchive
	}
	return BackendLive
}

// statusWriter captures the response status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.wroteHeader = true
	}
	return w.ResponseWriter.Write(b) //nolint:wrapcheck // delegating to underlying ResponseWriter
}
