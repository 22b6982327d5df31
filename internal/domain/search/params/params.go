package params

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/ohler55/ojg/jp"

	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/domain/search/filter"
)

// Paging defaults.
const (
	DefaultLimit = 10
	DefaultPage  = 1
)

// Order is a sort direction.
type Order string

// Sort directions.
const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// IsValid reports whether the order is asc or desc.
func (o Order) IsValid() bool { return o == Asc || o == Desc }

// Sort is one item of the effective sort.
type Sort struct {
	Key   string
	Order Order
}

// Parameters is the immutable, typed form of a search request.
// Keys are field-mapping target keys, not raw query-string names.
type Parameters struct {
	term     map[string]any
	terms    map[string][]any
	not      map[string]any
	exists   map[string]bool
	ranges   map[string]filter.Range
	infix    string
	prefix   string
	sort     []Sort
	limit    int
	page     int
	offset   int
	fields   []string
	ignored  []string
	estimate *bool

	includeFullRecord bool
	countOnly         bool
	active            bool
	includeStats      bool
}

// Term returns a copy of the equality filters.
func (p Parameters) Term() map[string]any { return maps.Clone(p.term) }

// Terms returns a copy of the membership filters.
func (p Parameters) Terms() map[string][]any {
	out := make(map[string][]any, len(p.terms))
	for k, v := range p.terms {
		out[k] = slices.Clone(v)
	}
	return out
}

// Not returns a copy of the negation filters.
func (p Parameters) Not() map[string]any { return maps.Clone(p.not) }

// Exists returns a copy of the presence filters.
func (p Parameters) Exists() map[string]bool { return maps.Clone(p.exists) }

// Ranges returns a copy of the range filters.
func (p Parameters) Ranges() map[string]filter.Range { return maps.Clone(p.ranges) }

// Infix returns the substring match, or "".
func (p Parameters) Infix() string { return p.infix }

// Prefix returns the leading-substring match, or "".
func (p Parameters) Prefix() string { return p.prefix }

// Sort returns the explicit sort. Empty means the entity default.
func (p Parameters) Sort() []Sort { return slices.Clone(p.sort) }

// Limit returns the page size.
func (p Parameters) Limit() int { return p.limit }

// Page returns the 1-based page number.
func (p Parameters) Page() int { return p.page }

// Offset returns the row offset of the page.
func (p Parameters) Offset() int { return p.offset }

// Fields returns the projection allow-list. Empty means no projection.
func (p Parameters) Fields() []string { return slices.Clone(p.fields) }

// Ignored lists query fields that were dropped as unmapped.
func (p Parameters) Ignored() []string { return slices.Clone(p.ignored) }

// IncludeFullRecord reports whether children are attached.
func (p Parameters) IncludeFullRecord() bool { return p.includeFullRecord }

// CountOnly reports whether the records query is skipped.
func (p Parameters) CountOnly() bool { return p.countOnly }

// Active reports whether collections are restricted to those with granules.
func (p Parameters) Active() bool { return p.active }

// IncludeStats reports whether collection granule stats are attached.
func (p Parameters) IncludeStats() bool { return p.includeStats }

// EstimateTableRowCount returns the flag and whether it was set explicitly.
func (p Parameters) EstimateTableRowCount() (value, set bool) {
	if p.estimate == nil {
		return false, false
	}
	return *p.estimate, true
}

// HasFilters reports whether any predicate restricts the result.
func (p Parameters) HasFilters() bool {
	return len(p.term) > 0 || len(p.terms) > 0 || len(p.not) > 0 ||
		len(p.exists) > 0 || len(p.ranges) > 0 || p.infix != "" || p.prefix != "" ||
		p.active
}

// Filters returns every predicate in pipeline order, keys sorted within a kind.
func (p Parameters) Filters() []filter.Filter {
	var out []filter.Filter
	for _, k := range slices.Sorted(maps.Keys(p.term)) {
		f, _ := filter.NewTerm(k, p.term[k])
		out = append(out, f)
	}
	for _, k := range slices.Sorted(maps.Keys(p.terms)) {
		f, _ := filter.NewTerms(k, p.terms[k])
		out = append(out, f)
	}
	for _, k := range slices.Sorted(maps.Keys(p.not)) {
		f, _ := filter.NewNot(k, p.not[k])
		out = append(out, f)
	}
	for _, k := range slices.Sorted(maps.Keys(p.exists)) {
		f, _ := filter.NewExists(k, p.exists[k])
		out = append(out, f)
	}
	for _, k := range slices.Sorted(maps.Keys(p.ranges)) {
		out = append(out, p.ranges[k])
	}
	if p.infix != "" {
		f, _ := filter.NewInfix(p.infix)
		out = append(out, f)
	}
	if p.prefix != "" {
		f, _ := filter.NewPrefix(p.prefix)
		out = append(out, f)
	}
	return out
}

// Builder accumulates parameters. The first error sticks and is returned by Build.
type Builder struct {
	p         Parameters
	offsetSet bool
	err       error
}

// NewBuilder starts an empty parameter set.
func NewBuilder() *Builder {
	return &Builder{p: Parameters{
		term:   map[string]any{},
		terms:  map[string][]any{},
		not:    map[string]any{},
		exists: map[string]bool{},
		ranges: map[string]filter.Range{},
	}}
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// Term adds an equality filter.
func (b *Builder) Term(key string, value any) *Builder {
	if _, err := filter.NewTerm(key, value); err != nil {
		return b.fail(err)
	}
	b.p.term[key] = value
	return b
}

// Terms adds a membership filter. A nil or empty list matches nothing.
func (b *Builder) Terms(key string, values []any) *Builder {
	if _, err := filter.NewTerms(key, values); err != nil {
		return b.fail(err)
	}
	if values == nil {
		values = []any{}
	}
	b.p.terms[key] = slices.Clone(values)
	return b
}

// Not adds a negation filter.
func (b *Builder) Not(key string, value any) *Builder {
	if _, err := filter.NewNot(key, value); err != nil {
		return b.fail(err)
	}
	b.p.not[key] = value
	return b
}

// Exists adds a presence filter.
func (b *Builder) Exists(key string, exists bool) *Builder {
	if _, err := filter.NewExists(key, exists); err != nil {
		return b.fail(err)
	}
	b.p.exists[key] = exists
	return b
}

// Range adds or narrows a range filter. Nil bounds leave existing bounds unchanged.
func (b *Builder) Range(key string, gte, lte any) *Builder {
	r, err := filter.NewRange(key, gte, lte)
	if err != nil {
		return b.fail(err)
	}
	if prev, ok := b.p.ranges[key]; ok {
		r = prev.Merge(r)
	}
	b.p.ranges[key] = r
	return b
}

// Infix sets the substring match.
func (b *Builder) Infix(v string) *Builder { b.p.infix = v; return b }

// Prefix sets the leading-substring match.
func (b *Builder) Prefix(v string) *Builder { b.p.prefix = v; return b }

// Sort appends a sort item.
func (b *Builder) Sort(key string, order Order) *Builder {
	if key == "" {
		return b.fail(fmt.Errorf("sort key is required"))
	}
	if !order.IsValid() {
		return b.fail(fmt.Errorf("invalid sort order %q", order))
	}
	b.p.sort = append(b.p.sort, Sort{Key: key, Order: order})
	return b
}

// Limit sets the page size. Zero leaves the default in place.
func (b *Builder) Limit(n int) *Builder { b.p.limit = n; return b }

// Page sets the 1-based page number. Zero leaves the default in place.
func (b *Builder) Page(n int) *Builder { b.p.page = n; return b }

// Offset overrides the offset derived from page and limit.
func (b *Builder) Offset(n int) *Builder {
	if n < 0 {
		return b.fail(fmt.Errorf("offset must be >= 0, got %d", n))
	}
	b.p.offset = n
	b.offsetSet = true
	return b
}

// Fields sets the projection allow-list of dotted paths such as "error.Error".
func (b *Builder) Fields(fields ...string) *Builder {
	for _, f := range fields {
		if err := ValidateField(f); err != nil {
			return b.fail(err)
		}
	}
	b.p.fields = slices.Clone(fields)
	return b
}

// ValidateField checks that a projection path parses as a dotted JSON path.
func ValidateField(field string) error {
	if _, err := jp.ParseString("$." + field); err != nil {
		return domain.NewFieldError("fields",
			fmt.Errorf("%w: invalid field path %q: %w", domain.ErrInvalidParameter, field, err))
	}
	return nil
}

// Ignore records a query field dropped as unmapped.
func (b *Builder) Ignore(field string) *Builder {
	if !slices.Contains(b.p.ignored, field) {
		b.p.ignored = append(b.p.ignored, field)
	}
	return b
}

// IncludeFullRecord toggles child assembly.
func (b *Builder) IncludeFullRecord(v bool) *Builder { b.p.includeFullRecord = v; return b }

// CountOnly toggles skipping the records query.
func (b *Builder) CountOnly(v bool) *Builder { b.p.countOnly = v; return b }

// EstimateTableRowCount sets the estimate flag explicitly.
func (b *Builder) EstimateTableRowCount(v bool) *Builder { b.p.estimate = &v; return b }

// Active toggles the collections-with-granules restriction.
func (b *Builder) Active(v bool) *Builder { b.p.active = v; return b }

// IncludeStats toggles collection granule stats.
func (b *Builder) IncludeStats(v bool) *Builder { b.p.includeStats = v; return b }

// Build validates and freezes the parameters.
// Defaults: limit=10, page=1, offset=(page-1)*limit. A page whose offset
// overflows is rejected.
func (b *Builder) Build() (Parameters, error) {
	if b.err != nil {
		return Parameters{}, b.err
	}
	p := b.p
	if p.limit < 0 {
		return Parameters{}, fmt.Errorf("limit must be >= 0, got %d", p.limit)
	}
	if p.limit == 0 {
		p.limit = DefaultLimit
	}
	if p.page <= 0 {
		p.page = DefaultPage
	}
	if !b.offsetSet {
		if p.page-1 > math.MaxInt/p.limit {
			return Parameters{}, domain.NewFieldError("page",
				fmt.Errorf("%w: page %d is out of range for limit %d", domain.ErrInvalidParameter, p.page, p.limit))
		}
		p.offset = (p.page - 1) * p.limit
	}

	// Detach from the builder so later builder calls cannot leak in.
	p.term = maps.Clone(p.term)
	p.terms = Parameters{terms: p.terms}.Terms()
	p.not = maps.Clone(p.not)
	p.exists = maps.Clone(p.exists)
	p.ranges = maps.Clone(p.ranges)
	p.sort = slices.Clone(p.sort)
	p.fields = slices.Clone(p.fields)
	p.ignored = slices.Clone(p.ignored)
	if p.estimate != nil {
		v := *p.estimate
		p.estimate = &v
	}
	return p, nil
}
