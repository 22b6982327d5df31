package fieldmap

import (
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/metasearch/internal/domain"
)

func TestFor_EveryEntityMapped(t *testing.T) {
	for _, e := range domain.Entities() {
		m, ok := For(e)
		if !ok {
			t.Errorf("no mapping for %s", e)
			continue
		}
		if _, ok := m.Lookup("timestamp"); !ok {
			t.Errorf("%s: timestamp not mapped", e)
		}
	}
}

func TestTimestamp_MapsToUpdatedAt(t *testing.T) {
	m, _ := For(domain.EntityGranule)
	f, ok := m.Lookup("timestamp")
	if !ok {
		t.Fatal("timestamp not mapped")
	}
	if f.Targets[0].Key != "updatedAt" || f.Targets[0].Column != "updated_at" {
		t.Errorf("timestamp target = %+v", f.Targets[0])
	}
}

func TestCollectionID_Decompose(t *testing.T) {
	m, _ := For(domain.EntityGranule)
	f, _ := m.Lookup("collectionId")
	if !f.IsComposite() {
		t.Fatal("collectionId must be composite")
	}
	vals, err := f.Decompose("MOD09GQ___006")
	if err != nil {
		t.Fatal(err)
	}
	if vals[0] != "MOD09GQ" || vals[1] != "006" {
		t.Errorf("decompose = %v", vals)
	}
	for _, tg := range f.Targets {
		if tg.Relation != RelCollection {
			t.Errorf("target %s on %q, want collections", tg.Key, tg.Relation)
		}
	}

	if _, err := f.Decompose("noversion"); !errors.Is(err, domain.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestErrorError_IsJSONExtraction(t *testing.T) {
	for _, e := range []domain.Entity{domain.EntityGranule, domain.EntityExecution} {
		m, _ := For(e)
		tg, ok := m.Target("error.Error")
		if !ok {
			t.Fatalf("%s: error.Error not mapped", e)
		}
		if tg.Column != "error" || tg.JSONKey != "Error" || !tg.IsPrimary() {
			t.Errorf("%s: target = %+v", e, tg)
		}
	}
}

func TestKind_Coerce(t *testing.T) {
	tests := []struct {
		kind Kind
		raw  string
		want any
	}{
		{KindString, "completed", "completed"},
		{KindNumber, "6.8", 6.8},
		{KindBoolean, "true", true},
		{KindDate, "1579352700000", time.UnixMilli(1579352700000).UTC()},
		{KindDate, "2020-01-18T13:05:00Z", time.Date(2020, 1, 18, 13, 5, 0, 0, time.UTC)},
		{KindUUID, "0EEE5C79-73D5-4F6A-9E4C-6B1D5C2E0D11", "0eee5c79-73d5-4f6a-9e4c-6b1d5c2e0d11"},
		{KindEnabledState, "ENABLED", true},
		{KindEnabledState, "disabled", false},
	}
	for _, tt := range tests {
		got, err := tt.kind.Coerce(tt.raw)
		if err != nil {
			t.Fatalf("Coerce(%q): %v", tt.raw, err)
		}
		if gt, ok := got.(time.Time); ok {
			if !gt.Equal(tt.want.(time.Time)) {
				t.Errorf("Coerce(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			continue
		}
		if got != tt.want {
			t.Errorf("Coerce(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestKind_CoerceRejects(t *testing.T) {
	bad := []struct {
		kind Kind
		raw  string
	}{
		{KindNumber, "ten"},
		{KindBoolean, "maybe"},
		{KindDate, "yesterday"},
		{KindUUID, "not-a-uuid"},
		{KindEnabledState, "PAUSED"},
	}
	for _, tt := range bad {
		if _, err := tt.kind.Coerce(tt.raw); !errors.Is(err, domain.ErrInvalidParameter) {
			t.Errorf("Coerce(%q): expected ErrInvalidParameter, got %v", tt.raw, err)
		}
	}
}

func TestRelatedFields(t *testing.T) {
	m, _ := For(domain.EntityExecution)
	tg, _ := m.Target("asyncOperationId")
	if tg.Relation != RelAsyncOperation || tg.Kind != KindUUID {
		t.Errorf("asyncOperationId = %+v", tg)
	}
	tg, _ = m.Target("parentArn")
	if tg.Relation != RelParent || tg.Column != "arn" {
		t.Errorf("parentArn = %+v", tg)
	}

	pm, _ := For(domain.EntityProvider)
	id, _ := pm.Lookup("id")
	if id.Targets[0].Key != "name" {
		t.Errorf("provider id should alias name: %+v", id.Targets[0])
	}
}
