package metasearch

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	dsn      string
	minConns int32
	maxConns int32

	snapshot   *snapshotConfig
	snapshotDB *sql.DB

	cacheAddrs    []string
	cachePassword string
	cacheTTL      time.Duration

	stack        string
	defaultLimit int
	maxLimit     int
	strict       bool
	verify       bool

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

type snapshotConfig struct {
	bucket, prefix, region string
	endpoint, urlStyle     string
	useSSL                 bool
}

// WithPostgres enables the live backend.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.dsn = dsn
	})
}

// WithPool sets the live connection pool bounds.
func WithPool(minConns, maxConns int32) Option {
	return optionFunc(func(c *clientConfig) {
		c.minConns = minConns
		c.maxConns = maxConns
	})
}

// WithSnapshot enables the snapshot backend over s3://bucket/prefix/<table>/*.parquet.
func WithSnapshot(bucket, prefix, region string) Option {
	return optionFunc(func(c *clientConfig) {
		if c.snapshot == nil {
			c.snapshot = &snapshotConfig{urlStyle: "vhost", useSSL: true}
		}
		c.snapshot.bucket = bucket
		c.snapshot.prefix = prefix
		c.snapshot.region = region
	})
}

// WithSnapshotEndpoint points the snapshot backend at an S3-compatible endpoint (MinIO, localstack).
func WithSnapshotEndpoint(endpoint, urlStyle string, useSSL bool) Option {
	return optionFunc(func(c *clientConfig) {
		if c.snapshot == nil {
			c.snapshot = &snapshotConfig{}
		}
		c.snapshot.endpoint = endpoint
		c.snapshot.urlStyle = urlStyle
		c.snapshot.useSSL = useSSL
	})
}

// WithSnapshotDB uses an already opened database/sql handle as the snapshot engine.
// The client takes ownership and closes it.
func WithSnapshotDB(db *sql.DB) Option {
	return optionFunc(func(c *clientConfig) {
		c.snapshotDB = db
	})
}

// WithVerifySchema checks snapshot tables for every column searches may touch before returning from New.
func WithVerifySchema() Option {
	return optionFunc(func(c *clientConfig) {
		c.verify = true
	})
}

// WithRedisCache memoizes snapshot counts in Redis for ttl.
func WithRedisCache(addrs []string, password string, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheAddrs = addrs
		c.cachePassword = password
		c.cacheTTL = ttl
	})
}

// WithStack sets the deployment name reported in response meta.
func WithStack(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.stack = name
	})
}

// WithLimits sets the default page size and its upper bound.
// Defaults: 10 and 1000.
func WithLimits(defaultLimit, maxLimit int) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultLimit = defaultLimit
		c.maxLimit = maxLimit
	})
}

// WithStrictFields rejects filters on unmapped fields instead of ignoring them.
func WithStrictFields() Option {
	return optionFunc(func(c *clientConfig) {
		c.strict = true
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
