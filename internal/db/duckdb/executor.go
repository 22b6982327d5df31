// Package duckdb runs compiled searches against columnar snapshots through an embedded DuckDB.
package duckdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/marcboeker/go-duckdb"

	"github.com/kailas-cloud/metasearch/internal/db"
	"github.com/kailas-cloud/metasearch/internal/domain"
)

// Compile-time check: Executor implements db.Executor.
var _ db.Executor = (*Executor)(nil)

// isoMillis is the binding format for timestamps.
const isoMillis = "2006-01-02T15:04:05.000Z"

// Config locates the snapshot files and tunes the engine.
type Config struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	URLStyle        string
	UseSSL          bool
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Threads         int
	MemoryLimit     string
	Tables          []string
	// GenerationInterval bounds how long a file listing is reused. Default 30s.
	GenerationInterval time.Duration
}

// Executor runs statements on a single DuckDB connection.
// The engine handles one statement at a time, so statements never overlap.
type Executor struct {
	db *sql.DB

	// generationSQL lists the files behind the views; empty means the data never changes.
	generationSQL string
	interval      time.Duration
	genMu         sync.Mutex
	generation    string
	checkedAt     time.Time
}

// Open starts an in-memory engine and exposes one view per snapshot table.
func Open(ctx context.Context, cfg Config) (*Executor, error) {
	sqlDB, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, &db.Error{Op: db.OpConnect, Err: fmt.Errorf("open duckdb: %w", err)}
	}
	e := New(sqlDB)
	e.generationSQL = generationQuery(cfg)
	e.interval = cfg.GenerationInterval
	if e.interval <= 0 {
		e.interval = 30 * time.Second
	}
	for _, stmt := range setupStatements(cfg) {
		if _, err := sqlDB.ExecContext(ctx, stmt); err != nil {
			_ = sqlDB.Close()
			return nil, &db.Error{Op: db.OpConnect, Err: fmt.Errorf("%s: %w", firstWord(stmt), err)}
		}
	}
	return e, nil
}

// New wraps an open database and pins it to one connection.
func New(sqlDB *sql.DB) *Executor {
	sqlDB.SetMaxOpenConns(1)
	return &Executor{db: sqlDB}
}

func firstWord(s string) string {
	w, _, _ := strings.Cut(s, " ")
	return w
}

// literal quotes a string for statements that cannot take bindings.
func literal(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func setupStatements(cfg Config) []string {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	stmts := []string{fmt.Sprintf("SET threads = %d", threads)}
	if cfg.MemoryLimit != "" {
		stmts = append(stmts, "SET memory_limit = "+literal(cfg.MemoryLimit))
	}
	if cfg.Bucket == "" {
		return stmts
	}

	stmts = append(stmts, "INSTALL httpfs", "LOAD httpfs")
	if cfg.Region != "" {
		stmts = append(stmts, "SET s3_region = "+literal(cfg.Region))
	}
	if cfg.Endpoint != "" {
		stmts = append(stmts,
			"SET s3_endpoint = "+literal(cfg.Endpoint),
			fmt.Sprintf("SET s3_use_ssl = %t", cfg.UseSSL))
	}
	if cfg.URLStyle != "" {
		stmts = append(stmts, "SET s3_url_style = "+literal(cfg.URLStyle))
	}
	if cfg.AccessKeyID != "" {
		stmts = append(stmts,
			"SET s3_access_key_id = "+literal(cfg.AccessKeyID),
			"SET s3_secret_access_key = "+literal(cfg.SecretAccessKey))
	}
	if cfg.SessionToken != "" {
		stmts = append(stmts, "SET s3_session_token = "+literal(cfg.SessionToken))
	}
	for _, table := range cfg.Tables {
		stmts = append(stmts, fmt.Sprintf(
			"CREATE OR REPLACE VIEW %s AS SELECT * FROM read_parquet(%s, union_by_name = true)",
			table, literal(parquetGlob(cfg, table))))
	}
	return stmts
}

func parquetGlob(cfg Config, table string) string {
	prefix := strings.Trim(cfg.Prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return fmt.Sprintf("s3://%s/%s%s/*.parquet", cfg.Bucket, prefix, table)
}

// generationQuery reads object metadata only; file contents are not fetched.
func generationQuery(cfg Config) string {
	if cfg.Bucket == "" || len(cfg.Tables) == 0 {
		return ""
	}
	globs := make([]string, 0, len(cfg.Tables))
	for _, table := range cfg.Tables {
		globs = append(globs, literal(parquetGlob(cfg, table)))
	}
	return "SELECT filename, size, last_modified FROM read_blob([" + strings.Join(globs, ", ") +
		"]) ORDER BY filename"
}

// Generation fingerprints the snapshot files currently behind the views:
// names, sizes and modification times. It changes when the snapshot is refreshed.
func (e *Executor) Generation(ctx context.Context) (string, error) {
	if e.generationSQL == "" {
		return "static", nil
	}
	e.genMu.Lock()
	defer e.genMu.Unlock()
	if e.generation != "" && time.Since(e.checkedAt) < e.interval {
		return e.generation, nil
	}

	res, err := e.QueryAll(ctx, db.Statement{SQL: e.generationSQL})
	if err != nil {
		return "", err
	}
	h := sha256.New()
	for _, r := range res[0] {
		fmt.Fprintf(h, "%v\x00%v\x00%v\n", r["filename"], r["size"], r["last_modified"])
	}
	e.generation = hex.EncodeToString(h.Sum(nil))[:16]
	e.checkedAt = time.Now()
	return e.generation, nil
}

// Backend implements db.Executor.
func (e *Executor) Backend() db.Backend { return db.BackendSnapshot }

// Lower keeps ? placeholders and converts bindings to the engine's representation:
// timestamps become ISO-8601 strings, structured values become JSON text.
func (e *Executor) Lower(q sq.Sqlizer) (db.Statement, error) {
	s, args, err := q.ToSql()
	if err != nil {
		return db.Statement{}, &db.Error{Op: db.OpLower, Err: err}
	}
	converted := make([]any, len(args))
	for i, a := range args {
		if converted[i], err = convertBinding(a); err != nil {
			return db.Statement{}, &db.Error{Op: db.OpLower, Err: err}
		}
	}
	return db.Statement{SQL: s, Args: converted}, nil
}

func convertBinding(v any) (any, error) {
	switch x := v.(type) {
	case nil, string, bool, int, int32, int64, float32, float64:
		return x, nil
	case time.Time:
		return x.UTC().Format(isoMillis), nil
	case []byte:
		return string(x), nil
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Pointer:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode binding: %w", err)
		}
		return string(b), nil
	default:
		return v, nil
	}
}

// QueryAll runs the statements one after another on the same connection.
func (e *Executor) QueryAll(ctx context.Context, stmts ...db.Statement) ([][]db.Row, error) {
	c, err := e.db.Conn(ctx)
	if err != nil {
		return nil, &db.Error{Op: db.OpAcquire, Err: err}
	}
	defer c.Close()

	out := make([][]db.Row, 0, len(stmts))
	for _, st := range stmts {
		rows, err := query(ctx, c, st)
		if err != nil {
			return nil, err
		}
		out = append(out, rows)
	}
	return out, nil
}

func query(ctx context.Context, c *sql.Conn, st db.Statement) ([]db.Row, error) {
	rows, err := c.QueryContext(ctx, st.SQL, st.Args...)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: classify(err)}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	out := []db.Row{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &db.Error{Op: db.OpQuery, Err: err}
		}
		row := make(db.Row, len(cols))
		for i, name := range cols {
			row[name] = Normalize(vals[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: classify(err)}
	}
	return out, nil
}

var schemaErrorMarkers = []string{
	"binder error",
	"referenced column",
	"does not have a column",
	"no such column",
	"catalog error",
	"no such table",
}

// classify marks binder and catalog failures as schema mismatches.
func classify(err error) error {
	msg := strings.ToLower(err.Error())
	for _, m := range schemaErrorMarkers {
		if strings.Contains(msg, m) {
			return fmt.Errorf("%w: %w", domain.ErrSchemaMismatch, err)
		}
	}
	return err
}

// Normalize converts a DuckDB value to the shared row representation.
func Normalize(v any) any {
	switch x := v.(type) {
	case duckdb.UUID:
		return uuid.UUID(x).String()
	case *duckdb.UUID:
		if x == nil {
			return nil
		}
		return uuid.UUID(*x).String()
	case duckdb.Interval:
		return float64(x.Micros)/1e6 + float64(x.Days)*86400 + float64(x.Months)*30*86400
	case *big.Int:
		if x == nil {
			return nil
		}
		return x.Int64()
	}
	return db.NormalizeValue(v)
}

// EstimateRowCount is unsupported on snapshots; callers fall back to an exact count.
func (e *Executor) EstimateRowCount(context.Context, string) (int64, error) {
	return -1, nil
}

// VerifySchema checks that every snapshot table exposes the columns queries need.
func (e *Executor) VerifySchema(ctx context.Context, required map[string][]string) error {
	tables := make([]string, 0, len(required))
	for t := range required {
		tables = append(tables, t)
	}
	slices.Sort(tables)

	for _, table := range tables {
		res, err := e.QueryAll(ctx, db.Statement{
			SQL: "SELECT name FROM pragma_table_info(" + literal(table) + ")",
		})
		if err != nil {
			return &db.Error{Op: db.OpSchema, Err: err}
		}
		have := map[string]bool{}
		for _, r := range res[0] {
			if name, ok := r["name"].(string); ok {
				have[name] = true
			}
		}
		var missing []string
		for _, c := range required[table] {
			if !have[c] {
				missing = append(missing, c)
			}
		}
		if len(missing) > 0 {
			return &db.Error{Op: db.OpSchema, Err: &domain.SchemaMismatchError{Table: table, Missing: missing}}
		}
	}
	return nil
}

// Ping checks the engine answers.
func (e *Executor) Ping(ctx context.Context) error {
	if err := e.db.PingContext(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close shuts down the engine.
func (e *Executor) Close() { _ = e.db.Close() }
