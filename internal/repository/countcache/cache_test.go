package countcache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/metasearch/internal/db"
)

func TestCount_Miss(t *testing.T) {
	c, ms := newTestCache(t)
	ctx := context.Background()

	var stored int64
	var storedTTL time.Duration
	ms.setFn = func(_ context.Context, _ string, n int64, ttl time.Duration) error {
		stored, storedTTL = n, ttl
		return nil
	}

	calls := 0
	n, err := c.Count(ctx, db.BackendSnapshot, testGeneration, countStmt, func(context.Context) (int64, error) {
		calls++
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 42 || calls != 1 {
		t.Fatalf("expected computed 42 once, got %d after %d calls", n, calls)
	}
	if stored != 42 || storedTTL != 5*time.Minute {
		t.Fatalf("expected 42 stored for 5m, got %d for %s", stored, storedTTL)
	}
}

func TestCount_Hit(t *testing.T) {
	c, ms := newTestCache(t)
	ms.getFn = func(_ context.Context, key string) (int64, error) {
		if !strings.HasPrefix(key, DefaultPrefix) {
			t.Fatalf("unexpected key %q", key)
		}
		return 7, nil
	}

	n, err := c.Count(context.Background(), db.BackendSnapshot, testGeneration, countStmt, func(context.Context) (int64, error) {
		t.Fatal("compute must not run on a hit")
		return 0, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 7 {
		t.Fatalf("expected cached 7, got %d", n)
	}
}

func TestCount_StoreErrorFallsBack(t *testing.T) {
	c, ms := newTestCache(t)
	ms.getFn = func(context.Context, string) (int64, error) { return 0, errors.New("conn refused") }
	ms.setFn = func(context.Context, string, int64, time.Duration) error { return errors.New("conn refused") }

	n, err := c.Count(context.Background(), db.BackendSnapshot, testGeneration, countStmt, func(context.Context) (int64, error) {
		return 3, nil
	})
	if err != nil {
		t.Fatalf("store errors must not fail the count: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3, got %d", n)
	}
}

func TestCount_CorruptValueRecomputes(t *testing.T) {
	c, ms := newTestCache(t)
	ms.getFn = func(context.Context, string) (int64, error) {
		return 0, errors.New(`strconv.ParseInt: parsing "NaN?": invalid syntax`)
	}

	n, err := c.Count(context.Background(), db.BackendSnapshot, testGeneration, countStmt, func(context.Context) (int64, error) {
		return 11, nil
	})
	if err != nil || n != 11 {
		t.Fatalf("expected recomputed 11, got %d, %v", n, err)
	}
}

func TestCount_ComputeError(t *testing.T) {
	c, ms := newTestCache(t)
	setCalled := false
	ms.setFn = func(context.Context, string, int64, time.Duration) error {
		setCalled = true
		return nil
	}
	boom := errors.New("boom")

	_, err := c.Count(context.Background(), db.BackendSnapshot, testGeneration, countStmt, func(context.Context) (int64, error) {
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected compute error, got %v", err)
	}
	if setCalled {
		t.Fatal("failed counts must not be cached")
	}
}

func TestCacheKey_DependsOnBackendGenerationAndArgs(t *testing.T) {
	c, _ := newTestCache(t)
	base, _ := c.cacheKey(db.BackendSnapshot, testGeneration, countStmt)
	other := countStmt
	other.Args = []any{"failed"}

	k1, _ := c.cacheKey(db.BackendLive, testGeneration, countStmt)
	k2, _ := c.cacheKey(db.BackendSnapshot, testGeneration, other)
	k3, _ := c.cacheKey(db.BackendSnapshot, testGeneration, countStmt)
	k4, _ := c.cacheKey(db.BackendSnapshot, "refreshed", countStmt)
	if base == k1 || base == k2 || base == k4 {
		t.Fatal("keys must differ by backend, generation and args")
	}
	if base != k3 {
		t.Fatal("keys must be stable")
	}
}

func TestCount_RefreshedSnapshotMisses(t *testing.T) {
	c, ms := newTestCache(t)
	stored := map[string]int64{}
	ms.getFn = func(_ context.Context, key string) (int64, error) {
		if v, ok := stored[key]; ok {
			return v, nil
		}
		return 0, db.ErrKeyNotFound
	}
	ms.setFn = func(_ context.Context, key string, n int64, _ time.Duration) error {
		stored[key] = n
		return nil
	}
	ctx := context.Background()

	n, err := c.Count(ctx, db.BackendSnapshot, "gen-1", countStmt, func(context.Context) (int64, error) { return 5, nil })
	if err != nil || n != 5 {
		t.Fatalf("expected 5, got %d, %v", n, err)
	}
	n, err = c.Count(ctx, db.BackendSnapshot, "gen-1", countStmt, func(context.Context) (int64, error) {
		t.Fatal("same generation must hit")
		return 0, nil
	})
	if err != nil || n != 5 {
		t.Fatalf("expected cached 5, got %d, %v", n, err)
	}
	n, err = c.Count(ctx, db.BackendSnapshot, "gen-2", countStmt, func(context.Context) (int64, error) { return 8, nil })
	if err != nil || n != 8 {
		t.Fatalf("expected recomputed 8 after refresh, got %d, %v", n, err)
	}
}

func TestCount_Metrics(t *testing.T) {
	total := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "count_cache_total"}, []string{"result"})
	ms := &mockCountStore{}
	c := New(ms, "", time.Minute, total, zap.NewNop())

	compute := func(context.Context) (int64, error) { return 1, nil }
	_, _ = c.Count(context.Background(), db.BackendSnapshot, testGeneration, countStmt, compute)
	ms.getFn = func(context.Context, string) (int64, error) { return 1, nil }
	_, _ = c.Count(context.Background(), db.BackendSnapshot, testGeneration, countStmt, compute)

	if got := testutil.ToFloat64(total.WithLabelValues("miss")); got != 1 {
		t.Fatalf("expected 1 miss, got %v", got)
	}
	if got := testutil.ToFloat64(total.WithLabelValues("hit")); got != 1 {
		t.Fatalf("expected 1 hit, got %v", got)
	}
}
