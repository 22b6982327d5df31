package metasearch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/metasearch/internal/db"
	dbDuck "github.com/kailas-cloud/metasearch/internal/db/duckdb"
	dbPostgres "github.com/kailas-cloud/metasearch/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/metasearch/internal/db/redis"
	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/domain/search/dsl"
	"github.com/kailas-cloud/metasearch/internal/domain/search/params"
	"github.com/kailas-cloud/metasearch/internal/metrics"
	"github.com/kailas-cloud/metasearch/internal/query"
	"github.com/kailas-cloud/metasearch/internal/repository/countcache"
	healthuc "github.com/kailas-cloud/metasearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/metasearch/internal/usecase/search"
	statsuc "github.com/kailas-cloud/metasearch/internal/usecase/stats"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultCacheTTL         = 5 * time.Minute
	defaultStack            = "local"
)

// Internal interfaces, swapped in tests.
type searchUseCase interface {
	Search(ctx context.Context, entity domain.Entity, backend db.Backend, p params.Parameters) (searchuc.Response, error)
}

type statsUseCase interface {
	Aggregate(ctx context.Context, backend db.Backend, entity domain.Entity, p params.Parameters,
		field string) (statsuc.AggregateResponse, error)
	Summary(ctx context.Context, backend db.Backend, from, to time.Time) (statsuc.Summary, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the metasearch SDK entry point.
type Client struct {
	closers   []func()
	searchSvc searchUseCase
	statsSvc  statsUseCase
	healthSvc healthUseCase
	parse     dsl.Options
	obs       *observer
}

// New creates a Client and connects the configured backends.
// The provided context bounds connection setup.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{stack: defaultStack, cacheTTL: defaultCacheTTL}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.dsn == "" && cfg.snapshot == nil && cfg.snapshotDB == nil {
		return nil, errors.New("metasearch: a backend is required (use WithPostgres or WithSnapshot)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	c := &Client{
		parse: dsl.Options{DefaultLimit: cfg.defaultLimit, MaxLimit: cfg.maxLimit, Strict: cfg.strict},
		obs:   obs,
	}
	if err := c.connect(ctx, cfg); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// connect opens every configured backend and wires the services.
func (c *Client) connect(ctx context.Context, cfg *clientConfig) error {
	var (
		searchExecs []searchuc.Executor
		statsExecs  []statsuc.Executor
		live, snap  healthuc.Pinger
		cachePinger healthuc.Pinger
		cache       searchuc.CountCache
	)

	if cfg.dsn != "" {
		pg, err := dbPostgres.Open(ctx, dbPostgres.Config{
			DSN:      cfg.dsn,
			MinConns: cfg.minConns,
			MaxConns: cfg.maxConns,
		})
		if err != nil {
			return fmt.Errorf("metasearch: open live backend: %w", err)
		}
		c.closers = append(c.closers, pg.Close)
		searchExecs = append(searchExecs, pg)
		statsExecs = append(statsExecs, pg)
		live = pg
	}

	if cfg.snapshot != nil || cfg.snapshotDB != nil {
		duck, err := openSnapshot(ctx, cfg)
		if err != nil {
			return err
		}
		c.closers = append(c.closers, duck.Close)
		if cfg.verify {
			if err := duck.VerifySchema(ctx, query.SnapshotColumns()); err != nil {
				return fmt.Errorf("metasearch: verify snapshot: %w", err)
			}
		}
		searchExecs = append(searchExecs, duck)
		statsExecs = append(statsExecs, duck)
		snap = duck
	}

	if len(cfg.cacheAddrs) > 0 {
		store, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.cacheAddrs, Password: cfg.cachePassword})
		if err != nil {
			return fmt.Errorf("metasearch: create count cache: %w", err)
		}
		c.closers = append(c.closers, store.Close)
		if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			return fmt.Errorf("metasearch: count cache not ready: %w", err)
		}
		cache = countcache.New(store, countcache.DefaultPrefix, cfg.cacheTTL, metrics.CountCacheTotal, zap.NewNop())
		cachePinger = store
	}

	c.searchSvc = searchuc.New(searchExecs, cache, cfg.stack, zap.NewNop())
	c.statsSvc = statsuc.New(statsExecs, cfg.stack, zap.NewNop())
	c.healthSvc = healthuc.New(live, snap, cachePinger)
	return nil
}

func openSnapshot(ctx context.Context, cfg *clientConfig) (*dbDuck.Executor, error) {
	if cfg.snapshotDB != nil {
		return dbDuck.New(cfg.snapshotDB), nil
	}
	s := cfg.snapshot
	duck, err := dbDuck.Open(ctx, dbDuck.Config{
		Bucket:   s.bucket,
		Prefix:   s.prefix,
		Region:   s.region,
		Endpoint: s.endpoint,
		URLStyle: s.urlStyle,
		UseSSL:   s.useSSL,
		Tables:   query.SnapshotTables(),
	})
	if err != nil {
		return nil, fmt.Errorf("metasearch: open snapshot backend: %w", err)
	}
	return duck, nil
}

// Close releases all resources.
func (c *Client) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Health checks every configured backend.
func (c *Client) Health(ctx context.Context) HealthReport {
	return c.healthSvc.Check(ctx)
}

// Ping fails unless every configured component is healthy.
func (c *Client) Ping(ctx context.Context) error {
	r := c.Health(ctx)
	if r.Status != healthuc.Healthy {
		return fmt.Errorf("ping: status %s: %v", r.Status, r.Checks)
	}
	return nil
}

// Search starts a fluent search on an entity.
func (c *Client) Search(entity Entity) *SearchBuilder {
	return &SearchBuilder{client: c, entity: entity, values: url.Values{}}
}

// Query runs a search expressed in the HTTP query-string grammar.
// searchContext=archive selects the snapshot backend.
func (c *Client) Query(ctx context.Context, entity Entity, values url.Values) (resp *Response, err error) {
	start := time.Now()
	defer func() { c.obs.observe(operation{"search", entity, backendOf(values)}, start, err) }()

	p, err := dsl.Parse(entity, values, c.parse)
	if err != nil {
		return nil, fmt.Errorf("parse %s query: %w", entity, err)
	}
	r, err := c.searchSvc.Search(ctx, entity, backendOf(values), p)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", entity, err)
	}
	return &r, nil
}

// Aggregate groups an entity by field. filters use the query-string grammar.
func (c *Client) Aggregate(
	ctx context.Context, entity Entity, field string, filters url.Values,
) (resp *AggregateResponse, err error) {
	start := time.Now()
	defer func() { c.obs.observe(operation{"aggregate", entity, backendOf(filters)}, start, err) }()

	if filters == nil {
		filters = url.Values{}
	}
	p, err := dsl.Parse(entity, filters, c.parse)
	if err != nil {
		return nil, fmt.Errorf("parse %s aggregate: %w", entity, err)
	}
	r, err := c.statsSvc.Aggregate(ctx, backendOf(filters), entity, p, field)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s by %s: %w", entity, field, err)
	}
	return &r, nil
}

// Summary computes granule metrics over [from, to]. Zero bounds default to the epoch and now.
func (c *Client) Summary(ctx context.Context, from, to time.Time, archive bool) (resp *Summary, err error) {
	start := time.Now()
	backend := db.BackendLive
	if archive {
		backend = db.BackendSnapshot
	}
	defer func() { c.obs.observe(operation{"summary", domain.EntityGranule, backend}, start, err) }()

	r, err := c.statsSvc.Summary(ctx, backend, from, to)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	return &r, nil
}

const searchContextArchive = "archive"

func backendOf(values url.Values) db.Backend {
	if values.Get(dsl.KeySearchContext) == searchContextArchive {
		return db.BackendSnapshot
	}
	return db.BackendLive
}
