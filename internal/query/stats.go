package query

import (
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/domain/search/fieldmap"
	"github.com/kailas-cloud/metasearch/internal/domain/search/params"
)

// Aggregate output aliases.
const (
	KeyColumn             = "key"
	DefaultAggregateField = "status"
)

// AggregatePlan groups one entity by a field.
type AggregatePlan struct {
	Entity domain.Entity
	Table  string
	Field  string
	Query  sq.SelectBuilder
}

// Aggregate builds a GROUP BY query over a single table, joining collections or
// providers only when a filter references them. Null keys are excluded.
func Aggregate(spec Spec, p params.Parameters, field string) (AggregatePlan, error) {
	if field == "" {
		field = DefaultAggregateField
	}
	name := strings.TrimSuffix(field, ".keyword")
	f, ok := spec.Mapping.Lookup(name)
	if !ok {
		return AggregatePlan{}, domain.NewFieldError(field, domain.ErrUnsupportedFilterField)
	}

	c := compiler{spec: spec, p: p}
	ps, err := c.predicates()
	if err != nil {
		return AggregatePlan{}, err
	}

	joined := map[string]bool{}
	var parts []string
	for _, t := range f.Targets {
		if _, err := c.target(t.Key); err != nil {
			return AggregatePlan{}, err
		}
		if t.Relation == fieldmap.RelGranules {
			return AggregatePlan{}, domain.NewFieldError(field,
				fmt.Errorf("%w: cannot group by a granule field", domain.ErrInvalidParameter))
		}
		if !t.IsPrimary() {
			joined[t.Relation] = true
		}
		parts = append(parts, c.ref(t))
	}
	key := parts[0]
	if len(parts) > 1 {
		key = strings.Join(parts, " || '"+domain.CollectionIDSeparator+"' || ")
	}

	q := sq.Select(key+" AS "+quote(KeyColumn), "COUNT(*) AS "+quote(CountColumn)).From(spec.Table)
	for _, r := range spec.Relations {
		if len(ps.relations[r.Name]) == 0 && !joined[r.Name] {
			continue
		}
		q = q.InnerJoin(c.joinOn(r, r.Table))
		for _, pr := range ps.relations[r.Name] {
			q = q.Where(pr)
		}
	}
	for _, pr := range ps.primary {
		q = q.Where(pr)
	}
	q = q.Where(key+" IS NOT NULL").
		GroupBy(key).
		OrderBy(quote(CountColumn)+" DESC", quote(KeyColumn)+" ASC")

	return AggregatePlan{Entity: spec.Entity, Table: spec.Table, Field: field, Query: q}, nil
}

// Summary output aliases.
const (
	ColCountErrors       = "count_errors"
	ColCountGranules     = "count_granules"
	ColAvgProcessingTime = "avg_processing_time"
	ColCountCollections  = "count_collections"
)

// SummaryPlan computes the fixed granule metric bundle over a time window.
type SummaryPlan struct {
	From  time.Time
	To    time.Time
	Query sq.SelectBuilder
}

// DefaultSummaryFrom is the lower window bound when none is given.
var DefaultSummaryFrom = time.Date(1970, 1, 1, 12, 0, 0, 0, time.UTC)

// Summary builds the summary query for a window. A zero to means now.
func Summary(from, to, now time.Time) SummaryPlan {
	if from.IsZero() {
		from = DefaultSummaryFrom
	}
	if to.IsZero() {
		to = now
	}
	from, to = from.UTC(), to.UTC()
	g := "granules"
	q := sq.Select(
		"COUNT(CASE WHEN "+jsonText(g, "error", "Error")+" IS NOT NULL THEN 1 END) AS "+quote(ColCountErrors),
		"COUNT("+col(g, "cumulus_id")+") AS "+quote(ColCountGranules),
		"AVG("+col(g, "duration")+") AS "+quote(ColAvgProcessingTime),
		"COUNT(DISTINCT "+col(g, "collection_cumulus_id")+") AS "+quote(ColCountCollections),
	).
		From(g).
		Where(sq.GtOrEq{col(g, "updated_at"): from}).
		Where(sq.LtOrEq{col(g, "updated_at"): to})
	return SummaryPlan{From: from, To: to, Query: q}
}
