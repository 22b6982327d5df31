package countcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/metasearch/internal/db"
)

// mockCountStore implements the consumer interface for tests.
type mockCountStore struct {
	getFn func(ctx context.Context, key string) (int64, error)
	setFn func(ctx context.Context, key string, n int64, ttl time.Duration) error
}

func (m *mockCountStore) GetCount(ctx context.Context, key string) (int64, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return 0, db.ErrKeyNotFound
}

func (m *mockCountStore) PutCount(ctx context.Context, key string, n int64, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, n, ttl)
	}
	return nil
}

func newTestCache(t *testing.T) (*Cache, *mockCountStore) {
	t.Helper()
	ms := &mockCountStore{}
	return New(ms, "", 5*time.Minute, nil, zap.NewNop()), ms
}

const testGeneration = "3f1c9a0d2b7e4a55"

var countStmt = db.Statement{
	SQL:  "SELECT COUNT(*) AS \"count\" FROM granules WHERE granules.status = ?",
	Args: []any{"completed"},
}
