package fieldmap

import (
	"fmt"
	"maps"
	"slices"

	"github.com/kailas-cloud/metasearch/internal/domain"
)

// Relation names. Each is also the SQL alias of the joined table.
const (
	RelCollection     = "collections"
	RelProvider       = "providers"
	RelPdr            = "pdrs"
	RelExecution      = "executions"
	RelAsyncOperation = "async_operations"
	RelParent         = "executions_parent"
	// RelGranules is a one-to-many relation from collections, compiled as EXISTS.
	RelGranules = "granules"
)

// Target is one physical destination of a semantic field.
type Target struct {
	// Key identifies the target in query parameters.
	Key string
	// Relation is "" for the primary table.
	Relation string
	Column   string
	// JSONKey, when set, extracts this key from a JSON column.
	JSONKey string
	Kind    Kind
}

// IsPrimary reports whether the target lives on the entity table.
func (t Target) IsPrimary() bool { return t.Relation == "" }

// Field maps one query-string name to its targets.
// Composite fields (collectionId) decompose one raw value across several targets.
type Field struct {
	Name    string
	Targets []Target
	split   func(string) ([]string, error)
}

// IsComposite reports whether the field spans several targets.
func (f Field) IsComposite() bool { return len(f.Targets) > 1 }

// Decompose coerces a raw value into one value per target.
func (f Field) Decompose(raw string) ([]any, error) {
	parts := []string{raw}
	if f.split != nil {
		var err error
		if parts, err = f.split(raw); err != nil {
			return nil, err
		}
	}
	if len(parts) != len(f.Targets) {
		return nil, fmt.Errorf("%w: %s expects %d parts, got %d",
			domain.ErrInvalidParameter, f.Name, len(f.Targets), len(parts))
	}
	out := make([]any, len(parts))
	for i, t := range f.Targets {
		v, err := t.Kind.Coerce(parts[i])
		if err != nil {
			return nil, domain.NewFieldError(f.Name, err)
		}
		out[i] = v
	}
	return out, nil
}

// Mapping is the field table of one entity.
type Mapping struct {
	entity  domain.Entity
	fields  map[string]Field
	targets map[string]Target
}

func newMapping(entity domain.Entity, fields ...Field) Mapping {
	m := Mapping{entity: entity, fields: map[string]Field{}, targets: map[string]Target{}}
	for _, f := range fields {
		m.fields[f.Name] = f
		for _, t := range f.Targets {
			m.targets[t.Key] = t
		}
	}
	return m
}

// Entity returns the entity this mapping describes.
func (m Mapping) Entity() domain.Entity { return m.entity }

// Lookup resolves a query-string field name.
func (m Mapping) Lookup(name string) (Field, bool) {
	f, ok := m.fields[name]
	return f, ok
}

// Target resolves a parameter key.
func (m Mapping) Target(key string) (Target, bool) {
	t, ok := m.targets[key]
	return t, ok
}

// Targets returns every target sorted by key.
func (m Mapping) Targets() []Target {
	keys := slices.Sorted(maps.Keys(m.targets))
	out := make([]Target, 0, len(keys))
	for _, k := range keys {
		out = append(out, m.targets[k])
	}
	return out
}

// Names returns the query-string names sorted.
func (m Mapping) Names() []string { return slices.Sorted(maps.Keys(m.fields)) }

// For returns the mapping of an entity.
func For(e domain.Entity) (Mapping, bool) {
	m, ok := registry[e]
	return m, ok
}

func primary(name, column string, kind Kind) Field {
	return Field{Name: name, Targets: []Target{{Key: name, Column: column, Kind: kind}}}
}

// alias exposes an existing target under another query-string name.
func alias(name string, f Field) Field {
	return Field{Name: name, Targets: f.Targets, split: f.split}
}

func related(name, key, relation, column string, kind Kind) Field {
	return Field{Name: name, Targets: []Target{{Key: key, Relation: relation, Column: column, Kind: kind}}}
}

func jsonField(name, column, jsonKey string) Field {
	return Field{Name: name, Targets: []Target{{Key: name, Column: column, JSONKey: jsonKey, Kind: KindString}}}
}

func collectionID() Field {
	return Field{
		Name: "collectionId",
		Targets: []Target{
			{Key: "collectionName", Relation: RelCollection, Column: "name", Kind: KindString},
			{Key: "collectionVersion", Relation: RelCollection, Column: "version", Kind: KindString},
		},
		split: func(raw string) ([]string, error) {
			name, version, err := domain.DeconstructCollectionID(raw)
			if err != nil {
				return nil, err
			}
			return []string{name, version}, nil
		},
	}
}

func timestamps() []Field {
	updated := primary("updatedAt", "updated_at", KindDate)
	return []Field{
		primary("createdAt", "created_at", KindDate),
		updated,
		alias("timestamp", updated),
	}
}
