package search

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"github.com/kailas-cloud/metasearch/internal/db"
	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/domain/search/filter"
	"github.com/kailas-cloud/metasearch/internal/domain/search/params"
	logpkg "github.com/kailas-cloud/metasearch/internal/logger"
	"github.com/kailas-cloud/metasearch/internal/metrics"
	"github.com/kailas-cloud/metasearch/internal/query"
	"github.com/kailas-cloud/metasearch/internal/translate"
)

// APIName is reported in every response meta.
const APIName = "cumulus-api"

// Meta describes a result page.
type Meta struct {
	Name  string `json:"name"`
	Stack string `json:"stack"`
	Table string `json:"table"`
	Limit int    `json:"limit"`
	Page  int    `json:"page"`
	Count int64  `json:"count"`
}

// Response is one page of translated records.
type Response struct {
	Meta    Meta               `json:"meta"`
	Results []translate.Record `json:"results"`
}

// Service compiles, executes and translates entity searches.
type Service struct {
	executors map[db.Backend]Executor
	cache     CountCache
	stack     string
	logger    *zap.Logger
}

// New creates a search service. cache can be nil; it only serves snapshot counts.
func New(executors []Executor, cache CountCache, stack string, logger *zap.Logger) *Service {
	m := make(map[db.Backend]Executor, len(executors))
	for _, e := range executors {
		m[e.Backend()] = e
	}
	return &Service{executors: m, cache: cache, stack: stack, logger: logger}
}

// Executor returns the executor of a backend.
func (s *Service) Executor(backend db.Backend) (Executor, error) {
	e, ok := s.executors[backend]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrBackendUnavailable, backend)
	}
	return e, nil
}

// Stack returns the deployment name reported in meta.
func (s *Service) Stack() string { return s.stack }

// Search runs one entity search on the chosen backend.
func (s *Service) Search(
	ctx context.Context, entity domain.Entity, backend db.Backend, p params.Parameters,
) (Response, error) {
	spec, err := query.SpecFor(entity)
	if err != nil {
		return Response{}, err
	}
	exec, err := s.Executor(backend)
	if err != nil {
		return Response{}, err
	}
	proj, err := translate.NewProjection(p.Fields())
	if err != nil {
		return Response{}, domain.NewFieldError("fields", fmt.Errorf("%w: %w", domain.ErrInvalidParameter, err))
	}
	plan, err := query.Compile(spec, p)
	if err != nil {
		return Response{}, fmt.Errorf("compile %s search: %w", entity, err)
	}

	run := &run{svc: s, exec: exec, entity: entity, p: p}
	start := time.Now()
	count, rows, err := run.execute(ctx, plan)
	if err != nil {
		return Response{}, err
	}

	records := []translate.Record{}
	if !plan.CountOnly {
		ch, err := run.children(ctx, spec, rows)
		if err != nil {
			return Response{}, err
		}
		records, err = translate.Records(entity, rows, ch, translate.Options{
			IncludeFullRecord: p.IncludeFullRecord(),
			IncludeStats:      p.IncludeStats(),
		})
		if err != nil {
			return Response{}, err
		}
		records = proj.ApplyAll(records)
	}
	run.observe(metrics.KindSearch, start)

	return Response{
		Meta: Meta{
			Name:  APIName,
			Stack: s.stack,
			Table: plan.Table,
			Limit: plan.Limit,
			Page:  plan.Page,
			Count: count,
		},
		Results: records,
	}, nil
}

// run carries the per-search execution context.
type run struct {
	svc    *Service
	exec   Executor
	entity domain.Entity
	p      params.Parameters
}

// execute obtains the count and, unless countOnly, the records page.
func (r *run) execute(ctx context.Context, plan query.Plan) (int64, []db.Row, error) {
	countSt, err := r.lower("count", plan.Count)
	if err != nil {
		return 0, nil, err
	}

	count, haveCount := int64(0), false
	if plan.Estimate {
		n, err := r.exec.EstimateRowCount(ctx, plan.Table)
		if err != nil {
			return 0, nil, r.fail(ctx, "estimate", err)
		}
		count, haveCount = n, n >= 0
	}
	if !haveCount {
		if gen, ok := r.generation(ctx); ok {
			count, err = r.svc.cache.Count(ctx, r.exec.Backend(), gen, countSt, func(ctx context.Context) (int64, error) {
				start := time.Now()
				res, err := r.exec.QueryAll(ctx, countSt)
				if err != nil {
					return 0, err
				}
				r.observe(metrics.KindCount, start)
				return countOf(res[0]), nil
			})
			if err != nil {
				return 0, nil, r.fail(ctx, "count", err)
			}
			haveCount = true
		}
	}

	var stmts []db.Statement
	if !haveCount {
		stmts = append(stmts, countSt)
	}
	if !plan.CountOnly {
		recordsSt, err := r.lower("records", plan.Records)
		if err != nil {
			return 0, nil, err
		}
		stmts = append(stmts, recordsSt)
	}
	if len(stmts) == 0 {
		return count, nil, nil
	}

	res, err := r.exec.QueryAll(ctx, stmts...)
	if err != nil {
		return 0, nil, r.fail(ctx, "search", err)
	}
	if !haveCount {
		count, res = countOf(res[0]), res[1:]
	}
	var rows []db.Row
	if !plan.CountOnly {
		rows = res[0]
	}
	return count, rows, nil
}

// generation returns the snapshot generation when counts may be served from the cache.
// Executors without a generation are never cached.
func (r *run) generation(ctx context.Context) (string, bool) {
	if r.svc.cache == nil || r.exec.Backend() != db.BackendSnapshot {
		return "", false
	}
	v, ok := r.exec.(Versioned)
	if !ok {
		return "", false
	}
	gen, err := v.Generation(ctx)
	if err != nil {
		logpkg.FromContextOr(ctx, r.svc.logger).Warn("Snapshot generation unavailable, counting uncached",
			zap.String("entity", string(r.entity)), zap.Error(err))
		return "", false
	}
	return gen, true
}

// children fetches nested rows of the page, one batched query per child type.
func (r *run) children(ctx context.Context, spec query.Spec, rows []db.Row) (translate.Children, error) {
	ids := translate.CumulusIDs(rows)
	if len(ids) == 0 {
		return translate.Children{}, nil
	}

	var (
		qs    []sq.Sqlizer
		apply []func(res []db.Row, ch *translate.Children)
	)
	switch {
	case r.entity == domain.EntityGranule && r.p.IncludeFullRecord():
		qs = append(qs, query.FilesByGranule(ids), query.ExecutionsByGranule(ids))
		apply = append(apply,
			func(res []db.Row, ch *translate.Children) { ch.Files = translate.GroupFiles(res) },
			func(res []db.Row, ch *translate.Children) { ch.Executions = translate.LatestExecutions(res) },
		)
	case r.entity == domain.EntityCollection && r.p.IncludeStats():
		q, err := query.CollectionStats(spec, r.p, ids)
		if err != nil {
			return translate.Children{}, err
		}
		qs = append(qs, q)
		apply = append(apply, func(res []db.Row, ch *translate.Children) { ch.Stats = translate.CollectionStats(res) })
	default:
		return translate.Children{}, nil
	}

	stmts := make([]db.Statement, 0, len(qs))
	for _, q := range qs {
		st, err := r.lower("children", q)
		if err != nil {
			return translate.Children{}, err
		}
		stmts = append(stmts, st)
	}

	start := time.Now()
	res, err := r.exec.QueryAll(ctx, stmts...)
	if err != nil {
		return translate.Children{}, r.fail(ctx, "children", err)
	}
	r.observe(metrics.KindChildren, start)

	var ch translate.Children
	for i, f := range apply {
		f(res[i], &ch)
	}
	return ch, nil
}

func (r *run) lower(op string, q sq.Sqlizer) (db.Statement, error) {
	st, err := r.exec.Lower(q)
	if err != nil {
		return db.Statement{}, &domain.QueryError{
			Backend: string(r.exec.Backend()), Entity: string(r.entity), Op: op, Err: err,
		}
	}
	return st, nil
}

// fail logs an execution failure and wraps it for the caller.
func (r *run) fail(ctx context.Context, op string, err error) error {
	qe := &domain.QueryError{Backend: string(r.exec.Backend()), Entity: string(r.entity), Op: op, Err: err}
	metrics.CountQueryError(qe.Backend, qe.Entity, qe.IsSchemaMismatch())

	if ctx.Err() == nil {
		logpkg.FromContextOr(ctx, r.svc.logger).Error("Search query failed",
			zap.String("backend", qe.Backend),
			zap.String("entity", qe.Entity),
			zap.String("op", op),
			zap.Strings("filters", FilterSummary(r.p)),
			zap.Error(err),
		)
	}
	return qe
}

func (r *run) observe(kind string, start time.Time) {
	metrics.ObserveQuery(string(r.exec.Backend()), string(r.entity), kind, start)
}

// FilterSummary renders the active predicates as "kind:field" items for logs.
func FilterSummary(p params.Parameters) []string {
	fs := p.Filters()
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		switch x := f.(type) {
		case filter.Term:
			out = append(out, "term:"+x.Key())
		case filter.Terms:
			out = append(out, "terms:"+x.Key())
		case filter.Not:
			out = append(out, "not:"+x.Key())
		case filter.Exists:
			out = append(out, "exists:"+x.Key())
		case filter.Range:
			out = append(out, "range:"+x.Key())
		default:
			out = append(out, f.Kind().String())
		}
	}
	if p.Active() {
		out = append(out, "active")
	}
	return out
}

// countOf reads the single count cell of a count query.
func countOf(rows []db.Row) int64 {
	if len(rows) == 0 {
		return 0
	}
	switch n := rows[0][query.CountColumn].(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	default:
		return 0
	}
}
