package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/kailas-cloud/metasearch/internal/db"
	"github.com/kailas-cloud/metasearch/internal/db/duckdb"
	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/domain/search/dsl"
	"github.com/kailas-cloud/metasearch/internal/domain/search/params"
)

// fixtureBase is the updated_at of granule 1; granule i is i minutes later.
var fixtureBase = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func iso(t time.Time) string { return t.UTC().Format("2006-01-02T15:04:05.000Z") }

var schema = []string{
	`CREATE TABLE collections (cumulus_id INTEGER PRIMARY KEY, name TEXT, version TEXT, process TEXT,
		url_path TEXT, duplicate_handling TEXT, granule_id_validation_regex TEXT,
		granule_id_extraction_regex TEXT, sample_file_name TEXT, files TEXT, report_to_ems INTEGER,
		ignore_files_config_for_discovery INTEGER, meta TEXT, tags TEXT, created_at TEXT, updated_at TEXT)`,
	`CREATE TABLE providers (cumulus_id INTEGER PRIMARY KEY, name TEXT, protocol TEXT, host TEXT,
		created_at TEXT, updated_at TEXT)`,
	`CREATE TABLE pdrs (cumulus_id INTEGER PRIMARY KEY, name TEXT, status TEXT, collection_cumulus_id INTEGER,
		provider_cumulus_id INTEGER, execution_cumulus_id INTEGER, created_at TEXT, updated_at TEXT)`,
	`CREATE TABLE executions (cumulus_id INTEGER PRIMARY KEY, arn TEXT, url TEXT, status TEXT,
		workflow_name TEXT, timestamp TEXT, collection_cumulus_id INTEGER, async_operation_cumulus_id INTEGER,
		parent_cumulus_id INTEGER, error TEXT, duration REAL, archived INTEGER, created_at TEXT, updated_at TEXT)`,
	`CREATE TABLE granules (cumulus_id INTEGER PRIMARY KEY, granule_id TEXT, producer_granule_id TEXT,
		status TEXT, collection_cumulus_id INTEGER, provider_cumulus_id INTEGER, pdr_cumulus_id INTEGER,
		published INTEGER, archived INTEGER, cmr_link TEXT, duration REAL, time_to_archive REAL,
		time_to_process REAL, product_volume INTEGER, error TEXT, query_fields TEXT,
		beginning_date_time TEXT, ending_date_time TEXT, last_update_date_time TEXT,
		processing_start_date_time TEXT, processing_end_date_time TEXT, production_date_time TEXT,
		timestamp TEXT, created_at TEXT, updated_at TEXT)`,
	`CREATE TABLE files (cumulus_id INTEGER PRIMARY KEY, granule_cumulus_id INTEGER, bucket TEXT, key TEXT,
		file_name TEXT, file_size INTEGER, checksum_type TEXT, checksum_value TEXT, source TEXT, type TEXT)`,
	`CREATE TABLE granules_executions (granule_cumulus_id INTEGER, execution_cumulus_id INTEGER)`,
}

// seed loads 2 collections, 2 providers and 10 granules.
// Granules 1-3 belong to MOD09GQ___006, the rest to MOD11A1___006.
// Granule ids of 1-3 and 4 contain A2017025. Even granules failed with an error.
func seed() []string {
	stmts := []string{
		`INSERT INTO collections (cumulus_id, name, version, tags, created_at, updated_at) VALUES
			(1, 'MOD09GQ', '006', '["modis"]', '2023-01-01T00:00:00.000Z', '2023-01-01T00:00:00.000Z'),
			(2, 'MOD11A1', '006', NULL, '2023-01-02T00:00:00.000Z', '2023-01-02T00:00:00.000Z'),
			(3, 'EMPTY', '001', NULL, '2023-01-03T00:00:00.000Z', '2023-01-03T00:00:00.000Z')`,
		`INSERT INTO providers (cumulus_id, name, protocol, host) VALUES
			(1, 's3_provider', 's3', 'bucket'), (2, 'http_provider', 'http', 'example.com')`,
		`INSERT INTO executions (cumulus_id, arn, url, status, workflow_name, timestamp, collection_cumulus_id,
			created_at, updated_at) VALUES
			(1, 'arn:aws:states:us-east-1:1:execution:Ingest:old', 'https://exec/old', 'completed', 'Ingest',
				'2024-01-01T00:00:00.000Z', 1, '2024-01-01T00:00:00.000Z', '2024-01-01T00:00:00.000Z'),
			(2, 'arn:aws:states:us-east-1:1:execution:Ingest:new', 'https://exec/new', 'completed', 'Ingest',
				'2024-01-02T00:00:00.000Z', 1, '2024-01-02T00:00:00.000Z', '2024-01-02T00:00:00.000Z')`,
		`INSERT INTO granules_executions VALUES (1, 1), (1, 2), (2, 1)`,
		`INSERT INTO files (cumulus_id, granule_cumulus_id, bucket, key, file_name, file_size) VALUES
			(1, 1, 'protected', 'g1/a.hdf', 'a.hdf', 100),
			(2, 1, 'public', 'g1/a.jpg', 'a.jpg', 5),
			(3, 2, 'protected', 'g2/b.hdf', 'b.hdf', 200)`,
	}
	for i := 1; i <= 10; i++ {
		collection, provider, gid := 2, 2, fmt.Sprintf("MOD11A1.A2018%03d.h%02dv00.006", i, i)
		switch {
		case i <= 3:
			collection, provider, gid = 1, 1, fmt.Sprintf("MOD09GQ.A2017025.h%02dv00.006", i)
		case i == 4:
			gid = "MOD11A1.A2017025.h04v00.006"
		}
		status, errJSON := "completed", "NULL"
		if i%2 == 0 {
			status, errJSON = "failed", `'{"Error":"CmrFailure","Cause":"timeout"}'`
		}
		updated := iso(fixtureBase.Add(time.Duration(i) * time.Minute))
		stmts = append(stmts, fmt.Sprintf(
			`INSERT INTO granules (cumulus_id, granule_id, status, collection_cumulus_id, provider_cumulus_id,
				published, duration, product_volume, error, created_at, updated_at)
			VALUES (%d, '%s', '%s', %d, %d, %d, %d.5, %d, %s, '%s', '%s')`,
			i, gid, status, collection, provider, i%2, i, i*1000, errJSON, updated, updated))
	}
	return stmts
}

// recordingExecutor records every QueryAll call.
type recordingExecutor struct {
	Executor
	mu    sync.Mutex
	calls [][]db.Statement

	generationErr error
}

func (r *recordingExecutor) QueryAll(ctx context.Context, stmts ...db.Statement) ([][]db.Row, error) {
	r.mu.Lock()
	r.calls = append(r.calls, stmts)
	r.mu.Unlock()
	return r.Executor.QueryAll(ctx, stmts...)
}

func (r *recordingExecutor) Generation(ctx context.Context) (string, error) {
	if r.generationErr != nil {
		return "", r.generationErr
	}
	return r.Executor.(Versioned).Generation(ctx)
}

func (r *recordingExecutor) statements() []string {
	var out []string
	for _, call := range r.calls {
		for _, st := range call {
			out = append(out, st.SQL)
		}
	}
	return out
}

func newSnapshotFixture(t *testing.T, ddl ...string) *recordingExecutor {
	t.Helper()
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	e := duckdb.New(sqlDB)
	t.Cleanup(e.Close)
	for _, stmt := range append(append(schema, seed()...), ddl...) {
		if _, err := sqlDB.Exec(stmt); err != nil {
			t.Fatalf("fixture %q: %v", strings.Fields(stmt)[:3], err)
		}
	}
	return &recordingExecutor{Executor: e}
}

func newTestService(t *testing.T, execs ...Executor) *Service {
	t.Helper()
	return New(execs, nil, "test-stack", zap.NewNop())
}

func mustParse(t *testing.T, entity domain.Entity, raw map[string][]string) params.Parameters {
	t.Helper()
	p, err := dsl.Parse(entity, raw, dsl.Options{})
	if err != nil {
		t.Fatalf("parse %v: %v", raw, err)
	}
	return p
}

func q(kv ...string) map[string][]string {
	out := map[string][]string{}
	for i := 0; i+1 < len(kv); i += 2 {
		out[kv[i]] = append(out[kv[i]], kv[i+1])
	}
	return out
}

// stubExecutor is a live-style executor with canned results.
type stubExecutor struct {
	backend  db.Backend
	estimate int64
	rows     [][]db.Row
	err      error
	calls    [][]db.Statement
}

func (s *stubExecutor) Backend() db.Backend { return s.backend }

func (s *stubExecutor) Lower(q sq.Sqlizer) (db.Statement, error) {
	sqlText, args, err := q.ToSql()
	if err != nil {
		return db.Statement{}, err
	}
	return db.Statement{SQL: sqlText, Args: args}, nil
}

func (s *stubExecutor) QueryAll(_ context.Context, stmts ...db.Statement) ([][]db.Row, error) {
	s.calls = append(s.calls, stmts)
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]db.Row, len(stmts))
	for i := range stmts {
		if i < len(s.rows) {
			out[i] = s.rows[i]
		} else {
			out[i] = []db.Row{}
		}
	}
	return out, nil
}

func (s *stubExecutor) EstimateRowCount(context.Context, string) (int64, error) {
	return s.estimate, nil
}

// stubCache serves a fixed count.
type stubCache struct {
	count       int64
	hits        int
	generations []string
}

func (c *stubCache) Count(
	_ context.Context, _ db.Backend, generation string, _ db.Statement, _ func(context.Context) (int64, error),
) (int64, error) {
	c.hits++
	c.generations = append(c.generations, generation)
	return c.count, nil
}
