package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/metasearch/internal/config"
	dbDuck "github.com/kailas-cloud/metasearch/internal/db/duckdb"
	dbPostgres "github.com/kailas-cloud/metasearch/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/metasearch/internal/db/redis"
	"github.com/kailas-cloud/metasearch/internal/domain/search/dsl"
	"github.com/kailas-cloud/metasearch/internal/metrics"
	"github.com/kailas-cloud/metasearch/internal/query"
	"github.com/kailas-cloud/metasearch/internal/repository/countcache"
	healthuc "github.com/kailas-cloud/metasearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/metasearch/internal/usecase/search"
	statsuc "github.com/kailas-cloud/metasearch/internal/usecase/stats"
)

// app is the composition root shared by serve, query and stats.
type app struct {
	search  *searchuc.Service
	stats   *statsuc.Service
	health  *healthuc.Service
	parse   dsl.Options
	closers []func()
}

// buildApp opens every configured backend and wires the use cases.
func buildApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	a := &app{parse: parseOptions(cfg.Search)}

	var (
		searchExecs []searchuc.Executor
		statsExecs  []statsuc.Executor
		live, snap  healthuc.Pinger
		cachePinger healthuc.Pinger
		cache       searchuc.CountCache
	)

	if cfg.Live.DSN != "" {
		pg, err := dbPostgres.Open(ctx, dbPostgres.Config{
			DSN:             cfg.Live.DSN,
			MinConns:        cfg.Live.MinConns,
			MaxConns:        cfg.Live.MaxConns,
			AcquireTimeout:  time.Duration(cfg.Live.AcquireTimeoutMs) * time.Millisecond,
			IdleTimeout:     time.Duration(cfg.Live.IdleTimeoutSec) * time.Second,
			MaxConnLifetime: time.Duration(cfg.Live.MaxConnLifetimeSec) * time.Second,
			ConnectTimeout:  time.Duration(cfg.Live.ConnectTimeoutSec) * time.Second,
		})
		if err != nil {
			a.close()
			return nil, fmt.Errorf("open live backend: %w", err)
		}
		a.closers = append(a.closers, pg.Close)
		searchExecs = append(searchExecs, pg)
		statsExecs = append(statsExecs, pg)
		live = pg
		logger.Info("Live backend ready", zap.Int32("max_conns", cfg.Live.MaxConns))
	}

	if cfg.Snapshot.Enabled {
		s := cfg.Snapshot
		duck, err := dbDuck.Open(ctx, dbDuck.Config{
			Bucket:          s.Bucket,
			Prefix:          s.Prefix,
			Region:          s.Region,
			Endpoint:        s.Endpoint,
			URLStyle:        s.URLStyle,
			UseSSL:          s.UseSSL,
			AccessKeyID:     s.AccessKeyID,
			SecretAccessKey: s.SecretAccessKey,
			SessionToken:    s.SessionToken,
			Threads:         s.Threads,
			MemoryLimit:     s.MemoryLimit,
			Tables:          query.SnapshotTables(),

			GenerationInterval: time.Duration(s.GenerationCheckSec) * time.Second,
		})
		if err != nil {
			a.close()
			return nil, fmt.Errorf("open snapshot backend: %w", err)
		}
		a.closers = append(a.closers, duck.Close)
		if s.VerifySchema {
			if err := duck.VerifySchema(ctx, query.SnapshotColumns()); err != nil {
				a.close()
				return nil, fmt.Errorf("verify snapshot: %w", err)
			}
		}
		searchExecs = append(searchExecs, duck)
		statsExecs = append(statsExecs, duck)
		snap = duck
		logger.Info("Snapshot backend ready",
			zap.String("bucket", s.Bucket),
			zap.String("prefix", s.Prefix),
			zap.Bool("schema_verified", s.VerifySchema),
		)
	}

	if len(cfg.Cache.Addrs) > 0 {
		store, err := dbRedis.NewStore(cacheStoreConfig(cfg.Cache))
		if err != nil {
			a.close()
			return nil, fmt.Errorf("create count cache: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		if err := store.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			a.close()
			return nil, fmt.Errorf("count cache not ready: %w", err)
		}
		cache = countcache.New(store, cfg.Cache.KeyPrefix, time.Duration(cfg.Cache.TTLSec)*time.Second,
			metrics.CountCacheTotal, logger)
		cachePinger = store
		logger.Info("Count cache ready", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	a.search = searchuc.New(searchExecs, cache, cfg.Search.Stack, logger)
	a.stats = statsuc.New(statsExecs, cfg.Search.Stack, logger)
	a.health = healthuc.New(live, snap, cachePinger)
	return a, nil
}

func cacheStoreConfig(c config.CacheConfig) dbRedis.Config {
	return dbRedis.Config{Addrs: c.Addrs, Username: c.Username, Password: c.Password, DB: c.DB}
}

func parseOptions(s config.SearchConfig) dsl.Options {
	return dsl.Options{DefaultLimit: s.DefaultLimit, MaxLimit: s.MaxLimit, Strict: s.StrictFields}
}

// close releases backends in reverse open order.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
