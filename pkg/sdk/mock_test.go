package metasearch

import (
	"context"
	"time"

	"github.com/kailas-cloud/metasearch/internal/db"
	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/domain/search/params"
	healthuc "github.com/kailas-cloud/metasearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/metasearch/internal/usecase/search"
	statsuc "github.com/kailas-cloud/metasearch/internal/usecase/stats"
)

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn func(ctx context.Context, entity domain.Entity, backend db.Backend,
		p params.Parameters) (searchuc.Response, error)
}

func (m *mockSearchUC) Search(
	ctx context.Context, entity domain.Entity, backend db.Backend, p params.Parameters,
) (searchuc.Response, error) {
	return m.searchFn(ctx, entity, backend, p)
}

// --- statsUseCase mock ---

type mockStatsUC struct {
	aggregateFn func(ctx context.Context, backend db.Backend, entity domain.Entity,
		p params.Parameters, field string) (statsuc.AggregateResponse, error)
	summaryFn func(ctx context.Context, backend db.Backend, from, to time.Time) (statsuc.Summary, error)
}

func (m *mockStatsUC) Aggregate(
	ctx context.Context, backend db.Backend, entity domain.Entity, p params.Parameters, field string,
) (statsuc.AggregateResponse, error) {
	return m.aggregateFn(ctx, backend, entity, p, field)
}

func (m *mockStatsUC) Summary(
	ctx context.Context, backend db.Backend, from, to time.Time,
) (statsuc.Summary, error) {
	return m.summaryFn(ctx, backend, from, to)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }

// newMockClient wires a Client around mocks.
func newMockClient(s *mockSearchUC, st *mockStatsUC, h *mockHealthUC) *Client {
	return &Client{searchSvc: s, statsSvc: st, healthSvc: h}
}
