package metasearch

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/metasearch/internal/domain/search/dsl"
)

// SearchBuilder is a fluent builder for entity searches.
// Each method records one query-string parameter; Do parses and runs them.
type SearchBuilder struct {
	client *Client
	entity Entity
	values url.Values
	sort   []string
}

// Where adds an equality filter.
func (b *SearchBuilder) Where(field string, value any) *SearchBuilder {
	b.values.Set(field, formatValue(value))
	return b
}

// In adds a membership filter.
func (b *SearchBuilder) In(field string, values ...any) *SearchBuilder {
	items := make([]string, len(values))
	for i, v := range values {
		items[i] = formatValue(v)
	}
	b.values.Set(field+dsl.SuffixTerms, strings.Join(items, ","))
	return b
}

// Not adds an inequality filter.
func (b *SearchBuilder) Not(field string, value any) *SearchBuilder {
	b.values.Set(field+dsl.SuffixNot, formatValue(value))
	return b
}

// Exists filters on presence (true) or absence (false) of a field.
func (b *SearchBuilder) Exists(field string, present bool) *SearchBuilder {
	b.values.Set(field+dsl.SuffixExists, strconv.FormatBool(present))
	return b
}

// Between adds an inclusive range. A nil bound is left open.
func (b *SearchBuilder) Between(field string, from, to any) *SearchBuilder {
	if from != nil {
		b.values.Set(field+dsl.SuffixFrom, formatValue(from))
	}
	if to != nil {
		b.values.Set(field+dsl.SuffixTo, formatValue(to))
	}
	return b
}

// Prefix matches the entity's text column by prefix.
func (b *SearchBuilder) Prefix(s string) *SearchBuilder {
	b.values.Set(dsl.KeyPrefix, s)
	return b
}

// Infix matches the entity's text column by substring.
func (b *SearchBuilder) Infix(s string) *SearchBuilder {
	b.values.Set(dsl.KeyInfix, s)
	return b
}

// Sort appends sort keys; a leading '-' sorts descending.
func (b *SearchBuilder) Sort(keys ...string) *SearchBuilder {
	b.sort = append(b.sort, keys...)
	return b
}

// Limit sets the page size.
func (b *SearchBuilder) Limit(n int) *SearchBuilder {
	b.values.Set(dsl.KeyLimit, strconv.Itoa(n))
	return b
}

// Page selects a 1-based page.
func (b *SearchBuilder) Page(n int) *SearchBuilder {
	b.values.Set(dsl.KeyPage, strconv.Itoa(n))
	return b
}

// Fields projects each record onto dotted paths.
func (b *SearchBuilder) Fields(paths ...string) *SearchBuilder {
	b.values.Set(dsl.KeyFields, strings.Join(paths, ","))
	return b
}

// FullRecord attaches files and the latest execution to granules.
func (b *SearchBuilder) FullRecord() *SearchBuilder {
	b.values.Set(dsl.KeyIncludeFullRecord, "true")
	return b
}

// CountOnly skips records and returns only the count.
func (b *SearchBuilder) CountOnly() *SearchBuilder {
	b.values.Set(dsl.KeyCountOnly, "true")
	return b
}

// Active restricts collections to those with granules.
func (b *SearchBuilder) Active() *SearchBuilder {
	b.values.Set(dsl.KeyActive, "true")
	return b
}

// WithStats attaches granule status counts to collections.
func (b *SearchBuilder) WithStats() *SearchBuilder {
	b.values.Set(dsl.KeyIncludeStats, "true")
	return b
}

// Estimate toggles table row estimates for unfiltered counts.
func (b *SearchBuilder) Estimate(on bool) *SearchBuilder {
	b.values.Set(dsl.KeyEstimateTableRowCount, strconv.FormatBool(on))
	return b
}

// Archive runs the search on the snapshot backend.
func (b *SearchBuilder) Archive() *SearchBuilder {
	b.values.Set(dsl.KeySearchContext, searchContextArchive)
	return b
}

// Values returns the query-string form of the search.
func (b *SearchBuilder) Values() url.Values {
	v := make(url.Values, len(b.values)+1)
	for k, vals := range b.values {
		v[k] = append([]string(nil), vals...)
	}
	if len(b.sort) > 0 {
		v.Set(dsl.KeySortKey, strings.Join(b.sort, ","))
	}
	return v
}

// Do executes the search.
func (b *SearchBuilder) Do(ctx context.Context) (*Response, error) {
	return b.client.Query(ctx, b.entity, b.Values())
}

// formatValue renders a filter value in the query-string grammar. Times become epoch milliseconds.
func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case time.Time:
		return strconv.FormatInt(x.UnixMilli(), 10)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
