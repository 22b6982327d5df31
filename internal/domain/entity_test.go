package domain

import (
	"errors"
	"testing"
)

func TestParseEntity(t *testing.T) {
	tests := []struct {
		in   string
		want Entity
	}{
		{"granules", EntityGranule},
		{"granule", EntityGranule},
		{"asyncOperations", EntityAsyncOperation},
		{"reconciliationReport", EntityReconciliationReport},
		{"pdr", EntityPdr},
	}
	for _, tt := range tests {
		got, err := ParseEntity(tt.in)
		if err != nil {
			t.Fatalf("ParseEntity(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseEntity(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := ParseEntity("widgets"); !errors.Is(err, ErrUnknownEntity) {
		t.Errorf("expected ErrUnknownEntity, got %v", err)
	}
}

func TestCollectionID_RoundTrip(t *testing.T) {
	id := ConstructCollectionID("MOD09GQ", "006")
	if id != "MOD09GQ___006" {
		t.Fatalf("unexpected id %q", id)
	}
	name, version, err := DeconstructCollectionID(id)
	if err != nil {
		t.Fatal(err)
	}
	if name != "MOD09GQ" || version != "006" {
		t.Errorf("got %q %q", name, version)
	}
}

func TestDeconstructCollectionID_LastSeparatorWins(t *testing.T) {
	name, version, err := DeconstructCollectionID("a___b___1")
	if err != nil {
		t.Fatal(err)
	}
	if name != "a___b" || version != "1" {
		t.Errorf("got %q %q", name, version)
	}
}

func TestDeconstructCollectionID_Missing(t *testing.T) {
	if _, _, err := DeconstructCollectionID("nover"); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestQueryError_Classification(t *testing.T) {
	driver := errors.New("connection reset")
	err := error(&QueryError{Backend: "live", Entity: "granules", Op: "records", Err: driver})
	if !errors.Is(err, ErrQueryExecution) {
		t.Error("expected ErrQueryExecution")
	}
	if !errors.Is(err, driver) {
		t.Error("expected driver error in chain")
	}
	if errors.Is(err, ErrSchemaMismatch) {
		t.Error("unexpected schema mismatch")
	}

	schema := error(&QueryError{
		Backend: "snapshot", Entity: "granules", Op: "count",
		Err: &SchemaMismatchError{Table: "granules", Missing: []string{"archived"}},
	})
	if !errors.Is(schema, ErrSchemaMismatch) {
		t.Error("expected ErrSchemaMismatch")
	}
	if errors.Is(schema, ErrQueryExecution) {
		t.Error("schema mismatch should not classify as execution failure")
	}
	var sm *SchemaMismatchError
	if !errors.As(schema, &sm) || sm.Missing[0] != "archived" {
		t.Errorf("errors.As failed: %v", schema)
	}
}
