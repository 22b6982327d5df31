package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockPinger{}, &mockPinger{}, &mockPinger{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, name := range []string{ComponentLive, ComponentSnapshot, ComponentCache} {
		if r.Checks[name] != CheckOK {
			t.Errorf("expected %s %q, got %q", name, CheckOK, r.Checks[name])
		}
	}
}

func TestCheck_LiveError(t *testing.T) {
	svc := New(&mockPinger{err: errors.New("conn refused")}, &mockPinger{}, nil)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[ComponentLive] != CheckError {
		t.Errorf("expected live %q, got %q", CheckError, r.Checks[ComponentLive])
	}
	if r.Checks[ComponentSnapshot] != CheckOK {
		t.Errorf("expected snapshot %q, got %q", CheckOK, r.Checks[ComponentSnapshot])
	}
}

func TestCheck_CacheErrorDegrades(t *testing.T) {
	svc := New(&mockPinger{}, nil, &mockPinger{err: errors.New("timeout")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[ComponentCache] != CheckError {
		t.Errorf("expected cache %q, got %q", CheckError, r.Checks[ComponentCache])
	}
}

func TestCheck_AllBackendsDown(t *testing.T) {
	svc := New(
		&mockPinger{err: errors.New("db down")},
		&mockPinger{err: errors.New("s3 down")},
		&mockPinger{},
	)
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
}

func TestCheck_OnlyLive(t *testing.T) {
	svc := New(&mockPinger{}, nil, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks[ComponentSnapshot]; ok {
		t.Error("snapshot check should be absent when snapshot is nil")
	}
	if _, ok := r.Checks[ComponentCache]; ok {
		t.Error("cache check should be absent when cache is nil")
	}
}
