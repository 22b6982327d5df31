// Package query compiles typed search parameters into backend-neutral SQL plans.
package query

import (
	"fmt"
	"slices"

	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/domain/search/fieldmap"
	"github.com/kailas-cloud/metasearch/internal/domain/search/params"
)

// Column is a relation column surfaced under an output alias.
type Column struct {
	Name  string
	Alias string
}

// Relation is a many-to-one table reachable through a foreign key on the primary table.
type Relation struct {
	// Name is the SQL alias and matches fieldmap.Target.Relation.
	Name  string
	Table string
	// ForeignKey is the primary-table column holding the related cumulus_id.
	ForeignKey string
	Decorate   []Column
	// Always decorates every records query.
	Always bool
	// FullRecord decorates only when includeFullRecord is set.
	FullRecord bool
}

// Granules describes the one-to-many granule relation of collections.
type Granules struct {
	Table              string
	ForeignKey         string
	ProviderForeignKey string
}

// Spec declares how one entity is searched.
type Spec struct {
	Entity  domain.Entity
	Table   string
	Mapping fieldmap.Mapping
	// TextColumn is the target of infix and prefix.
	TextColumn string
	// TextCast compares the text column as TEXT (uuid ids).
	TextCast    bool
	Relations   []Relation
	DefaultSort []params.Sort
	// EstimateByDefault is the estimateTableRowCount default.
	EstimateByDefault bool
	Granules          *Granules
}

// Relation returns the relation with the given name.
func (s Spec) Relation(name string) (Relation, bool) {
	for _, r := range s.Relations {
		if r.Name == name {
			return r, true
		}
	}
	return Relation{}, false
}

// RequiredColumns lists, per physical table, the columns compiled queries may touch.
func (s Spec) RequiredColumns() map[string][]string {
	out := map[string][]string{}
	add := func(table string, cols ...string) {
		for _, c := range cols {
			if !slices.Contains(out[table], c) {
				out[table] = append(out[table], c)
			}
		}
	}
	add(s.Table, "cumulus_id")
	if s.TextColumn != "" {
		add(s.Table, s.TextColumn)
	}
	for _, r := range s.Relations {
		add(s.Table, r.ForeignKey)
		add(r.Table, "cumulus_id")
		for _, c := range r.Decorate {
			add(r.Table, c.Name)
		}
	}
	for _, t := range s.Mapping.Targets() {
		switch {
		case t.IsPrimary():
			add(s.Table, t.Column)
		case t.Relation == fieldmap.RelGranules && s.Granules != nil:
			add(s.Granules.Table, s.Granules.ForeignKey, s.Granules.ProviderForeignKey)
			add("providers", "cumulus_id", t.Column)
		default:
			if r, ok := s.Relation(t.Relation); ok {
				add(r.Table, t.Column)
			}
		}
	}
	for table := range out {
		slices.Sort(out[table])
	}
	return out
}

func mustMapping(e domain.Entity) fieldmap.Mapping {
	m, ok := fieldmap.For(e)
	if !ok {
		panic(fmt.Sprintf("query: no field mapping for %s", e))
	}
	return m
}

var byUpdatedDesc = []params.Sort{{Key: "updatedAt", Order: params.Desc}}

func collectionRelation() Relation {
	return Relation{
		Name: fieldmap.RelCollection, Table: "collections", ForeignKey: "collection_cumulus_id",
		Decorate: []Column{{"name", "collectionName"}, {"version", "collectionVersion"}},
		Always:   true,
	}
}

func providerRelation() Relation {
	return Relation{
		Name: fieldmap.RelProvider, Table: "providers", ForeignKey: "provider_cumulus_id",
		Decorate: []Column{{"name", "providerName"}},
		Always:   true,
	}
}

var specs = map[domain.Entity]Spec{
	domain.EntityGranule: {
		Entity: domain.EntityGranule, Table: "granules", TextColumn: "granule_id",
		Mapping: mustMapping(domain.EntityGranule),
		Relations: []Relation{
			collectionRelation(),
			providerRelation(),
			{
				Name: fieldmap.RelPdr, Table: "pdrs", ForeignKey: "pdr_cumulus_id",
				Decorate: []Column{{"name", "pdrName"}}, Always: true,
			},
		},
		DefaultSort: byUpdatedDesc,
	},
	domain.EntityCollection: {
		Entity: domain.EntityCollection, Table: "collections", TextColumn: "name",
		Mapping:     mustMapping(domain.EntityCollection),
		DefaultSort: byUpdatedDesc,
		Granules: &Granules{
			Table: "granules", ForeignKey: "collection_cumulus_id", ProviderForeignKey: "provider_cumulus_id",
		},
	},
	domain.EntityProvider: {
		Entity: domain.EntityProvider, Table: "providers", TextColumn: "name",
		Mapping:     mustMapping(domain.EntityProvider),
		DefaultSort: byUpdatedDesc,
	},
	domain.EntityPdr: {
		Entity: domain.EntityPdr, Table: "pdrs", TextColumn: "name",
		Mapping: mustMapping(domain.EntityPdr),
		Relations: []Relation{
			collectionRelation(),
			providerRelation(),
			{
				Name: fieldmap.RelExecution, Table: "executions", ForeignKey: "execution_cumulus_id",
				Decorate: []Column{{"arn", "executionArn"}}, Always: true,
			},
		},
		DefaultSort: byUpdatedDesc,
	},
	domain.EntityExecution: {
		Entity: domain.EntityExecution, Table: "executions", TextColumn: "arn",
		Mapping: mustMapping(domain.EntityExecution),
		Relations: []Relation{
			collectionRelation(),
			{
				Name: fieldmap.RelAsyncOperation, Table: "async_operations", ForeignKey: "async_operation_cumulus_id",
				Decorate: []Column{{"id", "asyncOperationId"}}, FullRecord: true,
			},
			{
				Name: fieldmap.RelParent, Table: "executions", ForeignKey: "parent_cumulus_id",
				Decorate: []Column{{"arn", "parentArn"}}, FullRecord: true,
			},
		},
		DefaultSort:       byUpdatedDesc,
		EstimateByDefault: true,
	},
	domain.EntityAsyncOperation: {
		Entity: domain.EntityAsyncOperation, Table: "async_operations", TextColumn: "id", TextCast: true,
		Mapping:     mustMapping(domain.EntityAsyncOperation),
		DefaultSort: byUpdatedDesc,
	},
	domain.EntityReconciliationReport: {
		Entity: domain.EntityReconciliationReport, Table: "reconciliation_reports", TextColumn: "name",
		Mapping:     mustMapping(domain.EntityReconciliationReport),
		DefaultSort: byUpdatedDesc,
	},
	domain.EntityRule: {
		Entity: domain.EntityRule, Table: "rules", TextColumn: "name",
		Mapping:     mustMapping(domain.EntityRule),
		Relations:   []Relation{collectionRelation(), providerRelation()},
		DefaultSort: byUpdatedDesc,
	},
}

// SpecFor returns the query spec of an entity.
func SpecFor(e domain.Entity) (Spec, error) {
	s, ok := specs[e]
	if !ok {
		return Spec{}, fmt.Errorf("%w: %q", domain.ErrUnknownEntity, e)
	}
	return s, nil
}

// SnapshotTables lists every table a snapshot must expose.
func SnapshotTables() []string {
	return []string{
		"async_operations", "collections", "executions", "files", "granules",
		"granules_executions", "pdrs", "providers", "reconciliation_reports", "rules",
	}
}

// SnapshotColumns merges RequiredColumns over every entity.
func SnapshotColumns() map[string][]string {
	out := map[string][]string{}
	for _, e := range domain.Entities() {
		for table, cols := range specs[e].RequiredColumns() {
			for _, c := range cols {
				if !slices.Contains(out[table], c) {
					out[table] = append(out[table], c)
				}
			}
		}
	}
	for table := range out {
		slices.Sort(out[table])
	}
	return out
}
