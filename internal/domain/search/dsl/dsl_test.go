package dsl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/domain/search/params"
)

func q(kv ...string) map[string][]string {
	out := map[string][]string{}
	for i := 0; i+1 < len(kv); i += 2 {
		out[kv[i]] = append(out[kv[i]], kv[i+1])
	}
	return out
}

func TestParse_Paging(t *testing.T) {
	p, err := Parse(domain.EntityGranule, q("limit", "20", "page", "3"), Options{})
	require.NoError(t, err)
	assert.Equal(t, 20, p.Limit())
	assert.Equal(t, 3, p.Page())
	assert.Equal(t, 40, p.Offset())
}

func TestParse_PagingDefaultsAndClamp(t *testing.T) {
	p, err := Parse(domain.EntityGranule, q(), Options{})
	require.NoError(t, err)
	assert.Equal(t, params.DefaultLimit, p.Limit())
	assert.Equal(t, 1, p.Page())

	p, err = Parse(domain.EntityGranule, q("limit", "5000"), Options{DefaultLimit: 20, MaxLimit: 100})
	require.NoError(t, err)
	assert.Equal(t, 100, p.Limit())

	p, err = Parse(domain.EntityGranule, q("skip", "7"), Options{})
	require.NoError(t, err)
	assert.Equal(t, 7, p.Offset())

	_, err = Parse(domain.EntityGranule, q("limit", "ten"), Options{})
	require.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestParse_PagingRejectsZeroAndOverflow(t *testing.T) {
	tests := []struct {
		name  string
		raw   map[string][]string
		field string
	}{
		{"zero limit", q("limit", "0"), "limit"},
		{"zero page", q("page", "0"), "page"},
		{"page overflows offset", q("limit", "10", "page", "922337203685477582"), "page"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(domain.EntityGranule, tt.raw, Options{})
			require.ErrorIs(t, err, domain.ErrInvalidParameter)
			var fe *domain.FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.field, fe.Field)
		})
	}
}

func TestParse_InvalidProjectionRejected(t *testing.T) {
	_, err := Parse(domain.EntityGranule, q("fields", "granuleId,granuleId["), Options{})
	require.ErrorIs(t, err, domain.ErrInvalidParameter)
	var fe *domain.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "fields", fe.Field)

	p, err := Parse(domain.EntityGranule, q("fields", "granuleId,error.Error"), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"granuleId", "error.Error"}, p.Fields())
}

func TestParse_SuffixGrammar(t *testing.T) {
	p, err := Parse(domain.EntityGranule, q(
		"status", "completed",
		"granuleId__in", "g1,g2,,g3",
		"provider__not", "s3_provider",
		"error.Error__exists", "true",
		"timestamp__from", "1579352700000",
		"timestamp__to", "1579352800000",
		"duration__from", "2.5",
	), Options{})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"status": "completed"}, p.Term())
	assert.Equal(t, map[string][]any{"granuleId": {"g1", "g2", "g3"}}, p.Terms())
	assert.Equal(t, map[string]any{"providerName": "s3_provider"}, p.Not())
	assert.Equal(t, map[string]bool{"error.Error": true}, p.Exists())

	r := p.Ranges()["updatedAt"]
	assert.Equal(t, time.UnixMilli(1579352700000).UTC(), r.GTE())
	assert.Equal(t, time.UnixMilli(1579352800000).UTC(), r.LTE())
	assert.Equal(t, 2.5, p.Ranges()["duration"].GTE())
	assert.Nil(t, p.Ranges()["duration"].LTE())
}

func TestParse_CollectionIDDecomposes(t *testing.T) {
	p, err := Parse(domain.EntityGranule, q("collectionId", "MOD09GQ___006"), Options{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"collectionName": "MOD09GQ", "collectionVersion": "006"}, p.Term())
}

func TestParse_CollectionIDTermsArePaired(t *testing.T) {
	p, err := Parse(domain.EntityExecution, q("collectionId__in", "a___1,b___2"), Options{})
	require.NoError(t, err)
	terms := p.Terms()
	assert.Equal(t, []any{"a", "b"}, terms["collectionName"])
	assert.Equal(t, []any{"1", "2"}, terms["collectionVersion"])
}

func TestParse_EmptyTermsList(t *testing.T) {
	p, err := Parse(domain.EntityGranule, q("granuleId__in", ""), Options{})
	require.NoError(t, err)
	v, ok := p.Terms()["granuleId"]
	require.True(t, ok, "empty list must stay a filter")
	assert.Empty(t, v)
}

func TestParse_UnmappedFieldIgnoredByDefault(t *testing.T) {
	p, err := Parse(domain.EntityGranule, q("non_existing_field", "x", "status", "failed"), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"non_existing_field"}, p.Ignored())
	assert.Equal(t, map[string]any{"status": "failed"}, p.Term())
}

func TestParse_UnmappedFieldStrict(t *testing.T) {
	_, err := Parse(domain.EntityGranule, q("non_existing_field__in", "x"), Options{Strict: true})
	require.ErrorIs(t, err, domain.ErrUnsupportedFilterField)

	var fe *domain.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "non_existing_field", fe.Field)
}

func TestParse_Sort(t *testing.T) {
	p, err := Parse(domain.EntityGranule, q("sort_by", "timestamp", "order", "desc"), Options{})
	require.NoError(t, err)
	assert.Equal(t, []params.Sort{{Key: "updatedAt", Order: params.Desc}}, p.Sort())

	p, err = Parse(domain.EntityGranule, q("sort_key", "-productVolume,+collectionId"), Options{})
	require.NoError(t, err)
	assert.Equal(t, []params.Sort{
		{Key: "productVolume", Order: params.Desc},
		{Key: "collectionName", Order: params.Asc},
		{Key: "collectionVersion", Order: params.Asc},
	}, p.Sort())

	_, err = Parse(domain.EntityGranule, q("sort_by", "status", "order", "sideways"), Options{})
	require.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestParse_FlagsAndText(t *testing.T) {
	p, err := Parse(domain.EntityCollection, q(
		"infix", "MOD", "prefix", "M",
		"fields", "name,version",
		"includeFullRecord", "true", "countOnly", "false",
		"estimateTableRowCount", "false", "active", "true", "includeStats", "true",
		"searchContext", "archive",
	), Options{})
	require.NoError(t, err)
	assert.Equal(t, "MOD", p.Infix())
	assert.Equal(t, "M", p.Prefix())
	assert.Equal(t, []string{"name", "version"}, p.Fields())
	assert.True(t, p.IncludeFullRecord())
	assert.False(t, p.CountOnly())
	assert.True(t, p.Active())
	assert.True(t, p.IncludeStats())
	v, set := p.EstimateTableRowCount()
	assert.True(t, set)
	assert.False(t, v)
	assert.Empty(t, p.Ignored(), "reserved words are not fields")
}

func TestParse_InvalidValues(t *testing.T) {
	cases := []map[string][]string{
		q("duration__from", "long"),
		q("published", "sometimes"),
		q("collectionId", "noversion"),
		q("collectionId__from", "a___1"),
		q("includeFullRecord", "yes please"),
	}
	for _, in := range cases {
		_, err := Parse(domain.EntityGranule, in, Options{})
		assert.ErrorIs(t, err, domain.ErrInvalidParameter, "input %v", in)
	}
}

func TestParse_Deterministic(t *testing.T) {
	in := q("status", "completed", "granuleId__in", "a,b", "timestamp__from", "1", "sort_key", "-timestamp")
	a, err := Parse(domain.EntityGranule, in, Options{})
	require.NoError(t, err)
	b, err := Parse(domain.EntityGranule, in, Options{})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestParse_UnknownEntity(t *testing.T) {
	_, err := Parse(domain.Entity("widgets"), q(), Options{})
	require.ErrorIs(t, err, domain.ErrUnknownEntity)
}
