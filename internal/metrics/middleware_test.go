package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/stats/aggregate", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/{entity}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "entity") == "widgets" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"results":[]}`))
	})
	return r
}

func serve(r http.Handler, target string) {
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, http.NoBody))
}

// sampleCount reads the number of observations of one histogram series.
func sampleCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	m, ok := o.(prometheus.Metric)
	require.True(t, ok)
	var out dto.Metric
	require.NoError(t, m.Write(&out))
	return out.GetHistogram().GetSampleCount()
}

func TestMiddleware_EntityAndBackendLabels(t *testing.T) {
	r := newTestRouter()

	tests := []struct {
		name    string
		target  string
		route   string
		entity  string
		backend string
		status  string
	}{
		{"live search", "/granules?status=completed", "/{entity}", "granules", BackendLive, "200"},
		{"archive search", "/executions?searchContext=archive", "/{entity}", "executions", BackendArchive, "200"},
		{"unknown entity", "/widgets", "/{entity}", labelUnknown, BackendLive, "404"},
		{"aggregate type", "/stats/aggregate?type=pdrs&searchContext=archive", "/stats/aggregate", "pdrs", BackendArchive, "200"},
		{"health", "/health", "/health", labelNone, labelNone, "200"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			counter := httpRequestsTotal.WithLabelValues(http.MethodGet, tc.route, tc.entity, tc.backend, tc.status)
			histogram := httpRequestDuration.WithLabelValues(http.MethodGet, tc.route, tc.entity, tc.backend, tc.status)
			before, beforeSamples := testutil.ToFloat64(counter), sampleCount(t, histogram)

			serve(r, tc.target)

			assert.Equal(t, before+1, testutil.ToFloat64(counter))
			assert.Equal(t, beforeSamples+1, sampleCount(t, histogram))
		})
	}
}

func TestMiddleware_UnroutedRequest(t *testing.T) {
	r := newTestRouter()
	counter := httpRequestsTotal.WithLabelValues(http.MethodGet, labelUnknown, labelNone, labelNone, "404")
	before := testutil.ToFloat64(counter)

	serve(r, "/stats/aggregate/extra/segments")

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestMiddleware_FirstStatusWins(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/{entity}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.WriteHeader(http.StatusOK)
	})
	counter := httpRequestsTotal.WithLabelValues(http.MethodGet, "/{entity}", "rules", BackendLive, "400")
	before := testutil.ToFloat64(counter)

	serve(r, "/rules")

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestObserveQuery_ArchiveLabel(t *testing.T) {
	h := QueryDuration.WithLabelValues(BackendArchive, "granules", KindCount)
	before := sampleCount(t, h)

	ObserveQuery("snapshot", "granules", KindCount, time.Now().Add(-time.Second))

	assert.Equal(t, before+1, sampleCount(t, h))
}

func TestCountQueryError(t *testing.T) {
	schema := QueryErrorsTotal.WithLabelValues(BackendLive, "collections", "schema")
	other := QueryErrorsTotal.WithLabelValues(BackendArchive, "collections", "query")
	beforeSchema, beforeOther := testutil.ToFloat64(schema), testutil.ToFloat64(other)

	CountQueryError("live", "collections", true)
	CountQueryError("snapshot", "collections", false)

	assert.Equal(t, beforeSchema+1, testutil.ToFloat64(schema))
	assert.Equal(t, beforeOther+1, testutil.ToFloat64(other))
}

func TestBackendLabel(t *testing.T) {
	assert.Equal(t, BackendArchive, BackendLabel("snapshot"))
	assert.Equal(t, BackendLive, BackendLabel("live"))
}
