package db

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// Backend names an execution path.
type Backend string

// Backends.
const (
	// BackendLive is the transactional store holding current data.
	BackendLive Backend = "live"
	// BackendSnapshot is the embedded engine over periodically refreshed columnar files.
	BackendSnapshot Backend = "snapshot"
)

// Row is one result row keyed by output column name.
type Row map[string]any

// Statement is a query lowered for one backend.
type Statement struct {
	SQL  string
	Args []any
}

// Pinger checks backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Executor runs compiled queries against one backend.
type Executor interface {
	Pinger
	Backend() Backend
	// Lower renders a backend-neutral query with this backend's placeholders and bindings.
	Lower(q sq.Sqlizer) (Statement, error)
	// QueryAll runs statements and returns their rows in argument order.
	// Implementations decide whether statements may run concurrently.
	QueryAll(ctx context.Context, stmts ...Statement) ([][]Row, error)
	// EstimateRowCount returns a statistics-based row estimate, or -1 when unavailable.
	EstimateRowCount(ctx context.Context, table string) (int64, error)
	Close()
}

// CountStore keeps integer counts that expire.
type CountStore interface {
	GetCount(ctx context.Context, key string) (int64, error)
	PutCount(ctx context.Context, key string, n int64, ttl time.Duration) error
}

// CacheStore is the backend of the count cache.
type CacheStore interface {
	Pinger
	CountStore
	Close()
}
