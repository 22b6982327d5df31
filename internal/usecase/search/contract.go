package search

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/kailas-cloud/metasearch/internal/db"
)

// Executor runs compiled statements on one backend.
type Executor interface {
	Backend() db.Backend
	Lower(q sq.Sqlizer) (db.Statement, error)
	QueryAll(ctx context.Context, stmts ...db.Statement) ([][]db.Row, error)
	EstimateRowCount(ctx context.Context, table string) (int64, error)
}

// Versioned is implemented by executors whose data is replaced in place.
// Generation changes whenever the data does.
type Versioned interface {
	Generation(ctx context.Context) (string, error)
}

// CountCache memoizes exact counts per data generation.
type CountCache interface {
	Count(ctx context.Context, backend db.Backend, generation string, st db.Statement,
		compute func(ctx context.Context) (int64, error)) (int64, error)
}
