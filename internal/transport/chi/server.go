package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/metasearch/internal/db"
	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/domain/search/dsl"
	"github.com/kailas-cloud/metasearch/internal/domain/search/params"
	logpkg "github.com/kailas-cloud/metasearch/internal/logger"
	gen "github.com/kailas-cloud/metasearch/internal/transport/generated"
	healthuc "github.com/kailas-cloud/metasearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/metasearch/internal/usecase/search"
	statsuc "github.com/kailas-cloud/metasearch/internal/usecase/stats"
)

// Query keys bound by the generated wrappers for the stats routes.
const (
	keyAggregateType  = "type"
	keyAggregateField = "field"
	keySummaryFrom    = "timestamp__from"
	keySummaryTo      = "timestamp__to"

	defaultAggregateBy = "status"
)

// Searcher runs entity searches.
type Searcher interface {
	Search(ctx context.Context, entity domain.Entity, backend db.Backend, p params.Parameters) (searchuc.Response, error)
}

// StatsReader runs aggregate and summary queries.
type StatsReader interface {
	Aggregate(ctx context.Context, backend db.Backend, entity domain.Entity, p params.Parameters,
		field string) (statsuc.AggregateResponse, error)
	Summary(ctx context.Context, backend db.Backend, from, to time.Time) (statsuc.Summary, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements generated.ServerInterface for the oapi-codegen chi router.
type Server struct {
	gen.Unimplemented

	search        Searcher
	stats         StatsReader
	health        HealthChecker
	parse         dsl.Options
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search Searcher,
	stats StatsReader,
	health HealthChecker,
	parse dsl.Options,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search: search,
		stats:  stats,
		health: health,
		parse:  parse,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrUnsupportedFilterField, http.StatusBadRequest, gen.ErrorCodeUnsupportedFilterField),
		sentinelHandler(domain.ErrMalformedPairedFilter, http.StatusBadRequest, gen.ErrorCodeMalformedPairedFilter),
		sentinelHandler(domain.ErrInvalidParameter, http.StatusBadRequest, gen.ErrorCodeInvalidParameter),
		sentinelHandler(domain.ErrUnknownEntity, http.StatusNotFound, gen.ErrorCodeUnknownEntity),
		sentinelHandler(domain.ErrBackendUnavailable, http.StatusNotFound, gen.ErrorCodeBackendUnavailable),
		sentinelHandler(domain.ErrSchemaMismatch, http.StatusBadGateway, gen.ErrorCodeSchemaMismatchError),
		sentinelHandler(domain.ErrQueryExecution, http.StatusBadGateway, gen.ErrorCodeQueryExecutionError),
	}
	return s
}

var _ gen.ServerInterface = (*Server)(nil)

// SearchEntity handles GET /{entity}. Everything but searchContext is parsed by the filter DSL.
func (s *Server) SearchEntity(w http.ResponseWriter, r *http.Request, name string, qp gen.SearchEntityParams) {
	entity, err := domain.ParseEntity(name)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	p, err := dsl.Parse(entity, r.URL.Query(), s.parse)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	backend := backendFor(qp.SearchContext)
	ctx := logpkg.WithSearch(r.Context(), string(entity), string(backend))
	if ignored := p.Ignored(); len(ignored) > 0 {
		logpkg.FromContext(ctx).Debug("ignored unmapped filter fields", zap.Strings("fields", ignored))
	}

	resp, err := s.search.Search(ctx, entity, backend, p)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetAggregate handles GET /stats/aggregate. Query keys besides type and field are entity filters.
func (s *Server) GetAggregate(w http.ResponseWriter, r *http.Request, qp gen.GetAggregateParams) {
	entity, err := domain.ParseEntity(qp.Type)
	if err != nil {
		s.handleDomainError(w, domain.NewFieldError(keyAggregateType, withInvalid(err)))
		return
	}
	field := defaultAggregateBy
	if qp.Field != nil && *qp.Field != "" {
		field = *qp.Field
	}

	filters := url.Values{}
	for k, v := range r.URL.Query() {
		if k != keyAggregateType && k != keyAggregateField {
			filters[k] = v
		}
	}
	p, err := dsl.Parse(entity, filters, s.parse)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	backend := backendFor(qp.SearchContext)
	ctx := logpkg.WithSearch(r.Context(), string(entity), string(backend))
	resp, err := s.stats.Aggregate(ctx, backend, entity, p, field)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetSummary handles GET /stats.
func (s *Server) GetSummary(w http.ResponseWriter, r *http.Request, qp gen.GetSummaryParams) {
	from, err := timeParam(keySummaryFrom, qp.TimestampFrom)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	to, err := timeParam(keySummaryTo, qp.TimestampTo)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp, err := s.stats.Summary(r.Context(), backendFor(qp.SearchContext), from, to)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]gen.HealthResponseChecks, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = gen.HealthResponseChecks(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, gen.HealthResponse{
		Status: gen.HealthResponseStatus(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// backendFor selects the snapshot backend for archive searches.
func backendFor(sc *gen.SearchContext) db.Backend {
	if sc != nil && *sc == gen.SearchContextArchive {
		return db.BackendSnapshot
	}
	return db.BackendLive
}

// timeParam reads epoch milliseconds or an RFC 3339 timestamp. Absent gives the zero time.
func timeParam(key string, raw *string) (time.Time, error) {
	if raw == nil || *raw == "" {
		return time.Time{}, nil
	}
	v := *raw
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, domain.NewFieldError(key, withInvalid(err))
	}
	return t.UTC(), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, gen.ErrorCodeInternalServerError, "internal error")
}

// handleParamError answers binding failures reported by the generated wrappers.
func (s *Server) handleParamError(w http.ResponseWriter, _ *http.Request, err error) {
	name := ""
	var required *gen.RequiredParamError
	var invalid *gen.InvalidParamFormatError
	switch {
	case errors.As(err, &required):
		name = required.ParamName
	case errors.As(err, &invalid):
		name = invalid.ParamName
	}
	s.handleDomainError(w, domain.NewFieldError(name, withInvalid(err)))
}
