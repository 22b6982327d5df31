package stats

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
}
