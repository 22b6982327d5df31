// Package postgres runs compiled searches against the live transactional store.
package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/metasearch/internal/db"
)

// Compile-time check: Executor implements db.Executor.
var _ db.Executor = (*Executor)(nil)

// Config holds pool settings for the live store.
type Config struct {
	DSN               string
	MinConns          int32
	MaxConns          int32
	AcquireTimeout    time.Duration
	IdleTimeout       time.Duration
	MaxConnLifetime   time.Duration
	ConnectTimeout    time.Duration
	HealthCheckPeriod time.Duration
}

type conn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Release()
}

type pool interface {
	Acquire(ctx context.Context) (conn, error)
	Ping(ctx context.Context) error
	Close()
}

type pgxPool struct{ p *pgxpool.Pool }

func (p pgxPool) Acquire(ctx context.Context) (conn, error) {
	c, err := p.p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (p pgxPool) Ping(ctx context.Context) error { return p.p.Ping(ctx) }
func (p pgxPool) Close()                         { p.p.Close() }

// Executor runs statements over a pgx connection pool.
// Statements of one QueryAll run concurrently, each on its own connection.
type Executor struct {
	pool           pool
	acquireTimeout time.Duration
}

// Open connects the pool.
func Open(ctx context.Context, cfg Config) (*Executor, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, &db.Error{Op: db.OpConnect, Err: fmt.Errorf("parse dsn: %w", err)}
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	if cfg.IdleTimeout > 0 {
		pc.MaxConnIdleTime = cfg.IdleTimeout
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.HealthCheckPeriod > 0 {
		pc.HealthCheckPeriod = cfg.HealthCheckPeriod
	}
	if cfg.ConnectTimeout > 0 {
		pc.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	p, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, &db.Error{Op: db.OpConnect, Err: err}
	}
	return &Executor{pool: pgxPool{p: p}, acquireTimeout: cfg.AcquireTimeout}, nil
}

// Backend implements db.Executor.
func (e *Executor) Backend() db.Backend { return db.BackendLive }

// Lower renders $n placeholders. Bindings pass through to pgx unchanged.
func (e *Executor) Lower(q sq.Sqlizer) (db.Statement, error) {
	s, args, err := q.ToSql()
	if err != nil {
		return db.Statement{}, &db.Error{Op: db.OpLower, Err: err}
	}
	s, err = sq.Dollar.ReplacePlaceholders(s)
	if err != nil {
		return db.Statement{}, &db.Error{Op: db.OpLower, Err: err}
	}
	return db.Statement{SQL: s, Args: args}, nil
}

// QueryAll runs the statements concurrently and returns rows in argument order.
func (e *Executor) QueryAll(ctx context.Context, stmts ...db.Statement) ([][]db.Row, error) {
	out := make([][]db.Row, len(stmts))
	g, gctx := errgroup.WithContext(ctx)
	for i, st := range stmts {
		g.Go(func() error {
			rows, err := e.query(gctx, st)
			if err != nil {
				return err
			}
			out[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Executor) query(ctx context.Context, st db.Statement) ([]db.Row, error) {
	actx := ctx
	if e.acquireTimeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, e.acquireTimeout)
		defer cancel()
	}
	c, err := e.pool.Acquire(actx)
	if err != nil {
		return nil, &db.Error{Op: db.OpAcquire, Err: err}
	}
	defer c.Release()

	rows, err := c.Query(ctx, st.SQL, st.Args...)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	defer rows.Close()

	out, err := collect(rows)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	return out, nil
}

func collect(rows pgx.Rows) ([]db.Row, error) {
	fields := rows.FieldDescriptions()
	out := []db.Row{}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(db.Row, len(fields))
		for i, f := range fields {
			row[f.Name] = Normalize(vals[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Normalize converts a pgx value to the shared row representation.
func Normalize(v any) any {
	switch x := v.(type) {
	case pgtype.Numeric:
		if !x.Valid {
			return nil
		}
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case pgtype.Interval:
		if !x.Valid {
			return nil
		}
		return float64(x.Microseconds)/1e6 + float64(x.Days)*86400 + float64(x.Months)*30*86400
	}
	return db.NormalizeValue(v)
}

// EstimateRowCount reads the planner statistics of a table.
func (e *Executor) EstimateRowCount(ctx context.Context, table string) (int64, error) {
	rows, err := e.QueryAll(ctx, db.Statement{
		SQL:  `SELECT reltuples::bigint AS estimate FROM pg_class WHERE relname = $1`,
		Args: []any{table},
	})
	if err != nil {
		return -1, &db.Error{Op: db.OpEstimate, Err: err}
	}
	if len(rows[0]) == 0 {
		return -1, nil
	}
	n, ok := rows[0][0]["estimate"].(int64)
	if !ok {
		return -1, nil
	}
	return n, nil
}

// Ping checks connectivity.
func (e *Executor) Ping(ctx context.Context) error {
	if err := e.pool.Ping(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close releases the pool.
func (e *Executor) Close() { e.pool.Close() }
