package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/domain/search/params"
)

func TestAggregate_DefaultStatus(t *testing.T) {
	plan, err := Aggregate(mustSpec(t, domain.EntityGranule), mustParams(t, params.NewBuilder()), "")
	require.NoError(t, err)

	s, args := mustSQL(t, plan.Query)
	assert.Equal(t,
		`SELECT granules.status AS "key", COUNT(*) AS "count" FROM granules `+
			`WHERE granules.status IS NOT NULL GROUP BY granules.status ORDER BY "count" DESC, "key" ASC`, s)
	assert.Empty(t, args)
	assert.Equal(t, "status", plan.Field)
	assert.Equal(t, "granules", plan.Table)
}

func TestAggregate_ErrorKeyword(t *testing.T) {
	plan, err := Aggregate(mustSpec(t, domain.EntityExecution), mustParams(t, params.NewBuilder()), "error.Error.keyword")
	require.NoError(t, err)

	s, _ := mustSQL(t, plan.Query)
	assert.Contains(t, s, `SELECT executions.error->>'Error' AS "key"`)
	assert.Contains(t, s, `executions.error->>'Error' IS NOT NULL`)
	assert.Equal(t, "error.Error.keyword", plan.Field)
}

func TestAggregate_JoinsOnlyFilteredRelations(t *testing.T) {
	plan, err := Aggregate(mustSpec(t, domain.EntityGranule), mustParams(t, params.NewBuilder().
		Term("providerName", "s3_provider").
		Term("status", "failed")), "status")
	require.NoError(t, err)

	s, args := mustSQL(t, plan.Query)
	assert.Contains(t, s, `INNER JOIN providers ON providers.cumulus_id = granules.provider_cumulus_id`)
	assert.NotContains(t, s, `collections`)
	assert.NotContains(t, s, `LEFT JOIN`)
	assert.Equal(t, []any{"s3_provider", "failed"}, args)
}

func TestAggregate_CompositeKey(t *testing.T) {
	plan, err := Aggregate(mustSpec(t, domain.EntityGranule), mustParams(t, params.NewBuilder()), "collectionId")
	require.NoError(t, err)

	s, _ := mustSQL(t, plan.Query)
	assert.Contains(t, s, `collections.name || '___' || collections.version AS "key"`)
	assert.Contains(t, s, `INNER JOIN collections ON`)
}

func TestAggregate_UnknownField(t *testing.T) {
	_, err := Aggregate(mustSpec(t, domain.EntityGranule), mustParams(t, params.NewBuilder()), "nope")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFilterField)
}

func TestSummary_Defaults(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.FixedZone("X", 7200))
	plan := Summary(time.Time{}, time.Time{}, now)

	assert.Equal(t, DefaultSummaryFrom, plan.From)
	assert.Equal(t, now.UTC(), plan.To)

	s, args := mustSQL(t, plan.Query)
	assert.Contains(t, s, `COUNT(CASE WHEN granules.error->>'Error' IS NOT NULL THEN 1 END) AS "count_errors"`)
	assert.Contains(t, s, `AVG(granules.duration) AS "avg_processing_time"`)
	assert.Contains(t, s, `COUNT(DISTINCT granules.collection_cumulus_id) AS "count_collections"`)
	assert.Contains(t, s, `WHERE granules.updated_at >= ? AND granules.updated_at <= ?`)
	assert.Equal(t, []any{DefaultSummaryFrom, now.UTC()}, args)
}
