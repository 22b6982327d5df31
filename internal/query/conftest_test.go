package query

import (
	"strings"
	"testing"

	sq "github.com/Masterminds/squirrel"

	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/domain/search/params"
)

func mustSpec(t *testing.T, e domain.Entity) Spec {
	t.Helper()
	s, err := SpecFor(e)
	if err != nil {
		t.Fatalf("SpecFor(%s): %v", e, err)
	}
	return s
}

func mustParams(t *testing.T, b *params.Builder) params.Parameters {
	t.Helper()
	p, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return p
}

func mustCompile(t *testing.T, e domain.Entity, b *params.Builder) Plan {
	t.Helper()
	plan, err := Compile(mustSpec(t, e), mustParams(t, b))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return plan
}

func mustSQL(t *testing.T, b sq.Sqlizer) (string, []any) {
	t.Helper()
	s, args, err := b.ToSql()
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}
	return s, args
}

// withClause returns the WITH prefix of a compiled query.
func withClause(t *testing.T, s string) string {
	t.Helper()
	i := strings.Index(s, ") SELECT ")
	if !strings.HasPrefix(s, "WITH ") || i < 0 {
		t.Fatalf("no WITH clause in %q", s)
	}
	return s[:i+1]
}
