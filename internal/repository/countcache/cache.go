// Package countcache memoizes exact snapshot counts in a key-value store.
// Keys carry the snapshot generation, so a refreshed snapshot never serves old counts.
package countcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/metasearch/internal/db"
)

// DefaultPrefix namespaces cache keys.
const DefaultPrefix = "metasearch:count:"

// store is the consumer interface for the count cache (ISP).
type store interface {
	GetCount(ctx context.Context, key string) (int64, error)
	PutCount(ctx context.Context, key string, n int64, ttl time.Duration) error
}

// Cache caches count results keyed by backend, data generation and statement.
type Cache struct {
	store      store
	prefix     string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a count cache.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(s store, prefix string, ttl time.Duration, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Cache {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Cache{
		store:      s,
		prefix:     prefix,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Count returns a cached count or computes and stores it.
// Store failures degrade to computing; they never fail the search.
func (c *Cache) Count(
	ctx context.Context, backend db.Backend, generation string, st db.Statement,
	compute func(ctx context.Context) (int64, error),
) (int64, error) {
	key, err := c.cacheKey(backend, generation, st)
	if err != nil {
		c.logger.Warn("Failed to build count cache key", zap.Error(err))
		return compute(ctx)
	}

	if n, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return n, nil
	}
	c.incCache("miss")

	n, err := compute(ctx)
	if err != nil {
		return 0, err
	}
	c.putToCache(ctx, key, n)
	return n, nil
}

func (c *Cache) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *Cache) cacheKey(backend db.Backend, generation string, st db.Statement) (string, error) {
	args, err := json.Marshal(st.Args)
	if err != nil {
		return "", fmt.Errorf("encode args: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(backend))
	h.Write([]byte{0})
	h.Write([]byte(generation))
	h.Write([]byte{0})
	h.Write([]byte(st.SQL))
	h.Write([]byte{0})
	h.Write(args)
	return c.prefix + hex.EncodeToString(h.Sum(nil)), nil
}

func (c *Cache) getFromCache(ctx context.Context, key string) (int64, bool) {
	n, err := c.store.GetCount(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Count cache get failed", zap.String("key", key), zap.Error(err))
		}
		return 0, false
	}
	return n, true
}

func (c *Cache) putToCache(ctx context.Context, key string, n int64) {
	if err := c.store.PutCount(ctx, key, n, c.ttl); err != nil {
		c.logger.Warn("Failed to cache count", zap.String("key", key), zap.Error(err))
	}
}
