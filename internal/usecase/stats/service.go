// Package stats answers aggregate and summary questions over the search DSL.
package stats

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"github.com/kailas-cloud/metasearch/internal/db"
	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/domain/search/params"
	logpkg "github.com/kailas-cloud/metasearch/internal/logger"
	"github.com/kailas-cloud/metasearch/internal/metrics"
	"github.com/kailas-cloud/metasearch/internal/query"
)

// APIName is reported in aggregate meta.
const APIName = "cumulus-api"

// Bucket is one aggregate group.
type Bucket struct {
	Key   any   `json:"key"`
	Count int64 `json:"count"`
}

// AggregateMeta describes an aggregate result.
type AggregateMeta struct {
	Name  string `json:"name"`
	Stack string `json:"stack"`
	Table string `json:"table"`
	Count int64  `json:"count"`
	Field string `json:"field"`
}

// AggregateResponse lists groups by count descending.
type AggregateResponse struct {
	Meta    AggregateMeta `json:"meta"`
	Results []Bucket      `json:"results"`
}

// Metric is one summary figure over a time window.
type Metric struct {
	DateFrom    string `json:"dateFrom"`
	DateTo      string `json:"dateTo"`
	Value       any    `json:"value"`
	Aggregation string `json:"aggregation"`
	Unit        string `json:"unit"`
}

// Summary is the fixed granule metric bundle.
type Summary struct {
	Errors         Metric `json:"errors"`
	Collections    Metric `json:"collections"`
	ProcessingTime Metric `json:"processingTime"`
	Granules       Metric `json:"granules"`
}

var aggregatable = map[domain.Entity]bool{
	domain.EntityGranule:              true,
	domain.EntityExecution:            true,
	domain.EntityPdr:                  true,
	domain.EntityCollection:           true,
	domain.EntityReconciliationReport: true,
}

// Service runs aggregate and summary queries.
type Service struct {
	executors map[db.Backend]Executor
	stack     string
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a stats service.
func New(executors []Executor, stack string, logger *zap.Logger) *Service {
	m := make(map[db.Backend]Executor, len(executors))
	for _, e := range executors {
		m[e.Backend()] = e
	}
	return &Service{executors: m, stack: stack, logger: logger, now: time.Now}
}

// Aggregate groups an entity by field under the given filters.
func (s *Service) Aggregate(
	ctx context.Context, backend db.Backend, entity domain.Entity, p params.Parameters, field string,
) (AggregateResponse, error) {
	if !aggregatable[entity] {
		return AggregateResponse{}, domain.NewFieldError("type",
			fmt.Errorf("%w: cannot aggregate %s", domain.ErrInvalidParameter, entity))
	}
	spec, err := query.SpecFor(entity)
	if err != nil {
		return AggregateResponse{}, err
	}
	plan, err := query.Aggregate(spec, p, field)
	if err != nil {
		return AggregateResponse{}, fmt.Errorf("compile %s aggregate: %w", entity, err)
	}

	rows, err := s.run(ctx, backend, entity, metrics.KindAggregate, plan.Query)
	if err != nil {
		return AggregateResponse{}, err
	}

	resp := AggregateResponse{
		Meta: AggregateMeta{
			Name: APIName, Stack: s.stack, Table: plan.Table, Field: plan.Field,
		},
		Results: make([]Bucket, 0, len(rows)),
	}
	for _, row := range rows {
		n := toInt64(row[query.CountColumn])
		resp.Results = append(resp.Results, Bucket{Key: row[query.KeyColumn], Count: n})
		resp.Meta.Count += n
	}
	return resp, nil
}

// Summary computes granule metrics over [from, to]. Zero bounds default to the epoch and now.
func (s *Service) Summary(ctx context.Context, backend db.Backend, from, to time.Time) (Summary, error) {
	plan := query.Summary(from, to, s.now())
	rows, err := s.run(ctx, backend, domain.EntityGranule, metrics.KindSummary, plan.Query)
	if err != nil {
		return Summary{}, err
	}
	var row db.Row
	if len(rows) > 0 {
		row = rows[0]
	}

	dateFrom := plan.From.Format(time.RFC3339)
	dateTo := plan.To.Format(time.RFC3339)
	metric := func(v any, aggregation, unit string) Metric {
		return Metric{DateFrom: dateFrom, DateTo: dateTo, Value: v, Aggregation: aggregation, Unit: unit}
	}

	var avg any
	if v, ok := toFloat64(row[query.ColAvgProcessingTime]); ok {
		avg = v
	}
	return Summary{
		Errors:         metric(toInt64(row[query.ColCountErrors]), "count", "error"),
		Collections:    metric(toInt64(row[query.ColCountCollections]), "count", "collection"),
		ProcessingTime: metric(avg, "average", "second"),
		Granules:       metric(toInt64(row[query.ColCountGranules]), "count", "granule"),
	}, nil
}

func (s *Service) run(
	ctx context.Context, backend db.Backend, entity domain.Entity, kind string, q sq.Sqlizer,
) ([]db.Row, error) {
	exec, ok := s.executors[backend]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrBackendUnavailable, backend)
	}
	st, err := exec.Lower(q)
	if err != nil {
		return nil, &domain.QueryError{Backend: string(backend), Entity: string(entity), Op: kind, Err: err}
	}

	start := time.Now()
	res, err := exec.QueryAll(ctx, st)
	if err != nil {
		qe := &domain.QueryError{Backend: string(backend), Entity: string(entity), Op: kind, Err: err}
		metrics.CountQueryError(qe.Backend, qe.Entity, qe.IsSchemaMismatch())
		logpkg.FromContextOr(ctx, s.logger).Error("Stats query failed",
			zap.String("backend", qe.Backend),
			zap.String("entity", qe.Entity),
			zap.String("kind", kind),
			zap.Error(err),
		)
		return nil, qe
	}
	metrics.ObserveQuery(string(backend), string(entity), kind, start)
	return res[0], nil
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
