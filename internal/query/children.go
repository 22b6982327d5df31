package query

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/kailas-cloud/metasearch/internal/domain/search/params"
)

// Child query output aliases.
const (
	ColGranuleCumulusID    = "granule_cumulus_id"
	ColCollectionCumulusID = "collection_cumulus_id"
	ColExecutionURL        = "url"
	ColStatus              = "status"
)

// FilesByGranule fetches the files of a page of granules in one query.
func FilesByGranule(granuleIDs []int64) sq.SelectBuilder {
	return sq.Select("files.*").
		From("files").
		Where(sq.Eq{col("files", ColGranuleCumulusID): granuleIDs}).
		OrderBy(col("files", ColGranuleCumulusID)+" ASC", col("files", "cumulus_id")+" ASC")
}

// ExecutionsByGranule fetches execution urls for a page of granules in one query,
// newest first within each granule.
func ExecutionsByGranule(granuleIDs []int64) sq.SelectBuilder {
	ge := "granules_executions"
	return sq.Select(
		col(ge, ColGranuleCumulusID)+" AS "+quote(ColGranuleCumulusID),
		col("executions", "url")+" AS "+quote(ColExecutionURL),
	).
		From(ge).
		InnerJoin("executions ON "+col("executions", "cumulus_id")+" = "+col(ge, "execution_cumulus_id")).
		Where(sq.Eq{col(ge, ColGranuleCumulusID): granuleIDs}).
		OrderBy(
			col(ge, ColGranuleCumulusID)+" ASC",
			orderBy(col("executions", "timestamp"), "DESC"),
			col("executions", "cumulus_id")+" DESC",
		)
}

// CollectionStats counts granules per status for a page of collections.
// With active collections the granule window and provider filters apply here too.
func CollectionStats(spec Spec, p params.Parameters, collectionIDs []int64) (sq.SelectBuilder, error) {
	g := spec.Granules
	q := sq.Select(
		col(g.Table, g.ForeignKey)+" AS "+quote(ColCollectionCumulusID),
		col(g.Table, "status")+" AS "+quote(ColStatus),
		"COUNT(*) AS "+quote(CountColumn),
	).
		From(g.Table).
		Where(sq.Eq{col(g.Table, g.ForeignKey): collectionIDs})

	if p.Active() {
		c := compiler{spec: spec, p: p}
		ps, err := c.predicates()
		if err != nil {
			return sq.SelectBuilder{}, err
		}
		for _, pr := range ps.granules {
			q = q.Where(pr)
		}
		if len(ps.granuleProviders) > 0 {
			providers := sq.Select(col("providers", "cumulus_id")).From("providers")
			for _, pr := range ps.granuleProviders {
				providers = providers.Where(pr)
			}
			q = q.Where(in{expr: col(g.Table, g.ProviderForeignKey), sub: providers})
		}
	}

	return q.GroupBy(col(g.Table, g.ForeignKey), col(g.Table, "status")).
		OrderBy(col(g.Table, g.ForeignKey)+" ASC", col(g.Table, "status")+" ASC"), nil
}
