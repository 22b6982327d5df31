// Package dsl parses query-string shaped search parameters into typed parameters.
package dsl

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/domain/search/fieldmap"
	"github.com/kailas-cloud/metasearch/internal/domain/search/params"
)

// Suffixes of the filter grammar, in match priority order.
const (
	SuffixTerms  = "__in"
	SuffixNot    = "__not"
	SuffixExists = "__exists"
	SuffixFrom   = "__from"
	SuffixTo     = "__to"
)

// Control keys that are never treated as field filters.
const (
	KeyLimit                 = "limit"
	KeyPage                  = "page"
	KeySkip                  = "skip"
	KeySortBy                = "sort_by"
	KeySortKey               = "sort_key"
	KeyOrder                 = "order"
	KeyPrefix                = "prefix"
	KeyInfix                 = "infix"
	KeyFields                = "fields"
	KeyEstimateTableRowCount = "estimateTableRowCount"
	KeyIncludeFullRecord     = "includeFullRecord"
	KeyCountOnly             = "countOnly"
	KeyActive                = "active"
	KeyIncludeStats          = "includeStats"
	KeySearchContext         = "searchContext"
)

var reserved = map[string]bool{
	KeyLimit: true, KeyPage: true, KeySkip: true, KeySortBy: true, KeySortKey: true,
	KeyOrder: true, KeyPrefix: true, KeyInfix: true, KeyFields: true,
	KeyEstimateTableRowCount: true, KeyIncludeFullRecord: true, KeyCountOnly: true,
	KeyActive: true, KeyIncludeStats: true, KeySearchContext: true,
}

// IsReserved reports whether key is a control key.
func IsReserved(key string) bool { return reserved[key] }

// Options tune parsing.
type Options struct {
	// DefaultLimit applies when no limit is given (0 uses params.DefaultLimit).
	DefaultLimit int
	// MaxLimit clamps the page size (0 disables clamping).
	MaxLimit int
	// Strict rejects unmapped fields instead of ignoring them.
	Strict bool
}

// Parse converts raw parameters for an entity into typed parameters.
// Identical input always yields identical output.
func Parse(entity domain.Entity, raw map[string][]string, opts Options) (params.Parameters, error) {
	mapping, ok := fieldmap.For(entity)
	if !ok {
		return params.Parameters{}, fmt.Errorf("%w: %q", domain.ErrUnknownEntity, entity)
	}
	p := parser{mapping: mapping, opts: opts, b: params.NewBuilder()}

	if err := p.control(raw); err != nil {
		return params.Parameters{}, err
	}
	for _, key := range slices.Sorted(maps.Keys(raw)) {
		if reserved[key] {
			continue
		}
		if err := p.filter(key, raw[key]); err != nil {
			return params.Parameters{}, err
		}
	}
	return p.b.Build()
}

type parser struct {
	mapping fieldmap.Mapping
	opts    Options
	b       *params.Builder
}

func first(vals []string) (string, bool) {
	if len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// splitList joins repeated values and splits on commas, dropping empty items.
func splitList(vals []string) []string {
	var out []string
	for _, v := range vals {
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

func (p *parser) intParam(raw map[string][]string, key string) (int, bool, error) {
	v, ok := first(raw[key])
	if !ok || v == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false, domain.NewFieldError(key,
			fmt.Errorf("%w: %q is not a non-negative integer", domain.ErrInvalidParameter, v))
	}
	return n, true, nil
}

// positiveParam is intParam for limit and page, where an explicit zero is rejected.
func (p *parser) positiveParam(raw map[string][]string, key string) (int, bool, error) {
	n, ok, err := p.intParam(raw, key)
	if err == nil && ok && n == 0 {
		return 0, false, domain.NewFieldError(key,
			fmt.Errorf("%w: must be a positive integer", domain.ErrInvalidParameter))
	}
	return n, ok, err
}

func (p *parser) boolParam(raw map[string][]string, key string) (value, set bool, err error) {
	v, ok := first(raw[key])
	if !ok || v == "" {
		return false, false, nil
	}
	b, perr := strconv.ParseBool(v)
	if perr != nil {
		return false, false, domain.NewFieldError(key,
			fmt.Errorf("%w: %q is not a boolean", domain.ErrInvalidParameter, v))
	}
	return b, true, nil
}

func (p *parser) control(raw map[string][]string) error {
	limit, ok, err := p.positiveParam(raw, KeyLimit)
	if err != nil {
		return err
	}
	if !ok {
		limit = p.opts.DefaultLimit
	}
	if p.opts.MaxLimit > 0 && limit > p.opts.MaxLimit {
		limit = p.opts.MaxLimit
	}
	p.b.Limit(limit)

	page, ok, err := p.positiveParam(raw, KeyPage)
	if err != nil {
		return err
	}
	if ok {
		p.b.Page(page)
	}
	skip, ok, err := p.intParam(raw, KeySkip)
	if err != nil {
		return err
	}
	if ok {
		p.b.Offset(skip)
	}

	if err := p.sort(raw); err != nil {
		return err
	}

	if v, _ := first(raw[KeyPrefix]); v != "" {
		p.b.Prefix(v)
	}
	if v, _ := first(raw[KeyInfix]); v != "" {
		p.b.Infix(v)
	}
	if fields := splitList(raw[KeyFields]); len(fields) > 0 {
		p.b.Fields(fields...)
	}

	flags := []struct {
		key string
		set func(bool) *params.Builder
	}{
		{KeyIncludeFullRecord, p.b.IncludeFullRecord},
		{KeyCountOnly, p.b.CountOnly},
		{KeyEstimateTableRowCount, p.b.EstimateTableRowCount},
		{KeyActive, p.b.Active},
		{KeyIncludeStats, p.b.IncludeStats},
	}
	for _, f := range flags {
		v, ok, err := p.boolParam(raw, f.key)
		if err != nil {
			return err
		}
		if ok {
			f.set(v)
		}
	}
	return nil
}

func (p *parser) sort(raw map[string][]string) error {
	if keys := splitList(raw[KeySortKey]); len(keys) > 0 {
		for _, k := range keys {
			order := params.Asc
			switch k[0] {
			case '-':
				order, k = params.Desc, k[1:]
			case '+':
				k = k[1:]
			}
			if err := p.sortField(k, order); err != nil {
				return err
			}
		}
		return nil
	}

	by, _ := first(raw[KeySortBy])
	if by == "" {
		return nil
	}
	order := params.Asc
	if o, _ := first(raw[KeyOrder]); o != "" {
		order = params.Order(strings.ToLower(o))
		if !order.IsValid() {
			return domain.NewFieldError(KeyOrder,
				fmt.Errorf("%w: order must be asc or desc, got %q", domain.ErrInvalidParameter, o))
		}
	}
	return p.sortField(by, order)
}

func (p *parser) sortField(name string, order params.Order) error {
	f, ok, err := p.lookup(name)
	if err != nil || !ok {
		return err
	}
	for _, t := range f.Targets {
		p.b.Sort(t.Key, order)
	}
	return nil
}

// lookup resolves a field, applying the unmapped-field policy.
func (p *parser) lookup(name string) (fieldmap.Field, bool, error) {
	f, ok := p.mapping.Lookup(name)
	if ok {
		return f, true, nil
	}
	if p.opts.Strict {
		return fieldmap.Field{}, false, domain.NewFieldError(name, domain.ErrUnsupportedFilterField)
	}
	p.b.Ignore(name)
	return fieldmap.Field{}, false, nil
}

func (p *parser) filter(key string, vals []string) error {
	switch {
	case strings.HasSuffix(key, SuffixTerms):
		return p.terms(strings.TrimSuffix(key, SuffixTerms), vals)
	case strings.HasSuffix(key, SuffixNot):
		return p.scalar(strings.TrimSuffix(key, SuffixNot), vals, p.b.Not)
	case strings.HasSuffix(key, SuffixExists):
		return p.exists(strings.TrimSuffix(key, SuffixExists), vals)
	case strings.HasSuffix(key, SuffixFrom):
		return p.bound(strings.TrimSuffix(key, SuffixFrom), vals, true)
	case strings.HasSuffix(key, SuffixTo):
		return p.bound(strings.TrimSuffix(key, SuffixTo), vals, false)
	default:
		return p.scalar(key, vals, p.b.Term)
	}
}

func (p *parser) scalar(name string, vals []string, add func(string, any) *params.Builder) error {
	v, ok := first(vals)
	if !ok {
		return nil
	}
	f, mapped, err := p.lookup(name)
	if err != nil || !mapped {
		return err
	}
	decomposed, err := f.Decompose(v)
	if err != nil {
		return domain.NewFieldError(name, err)
	}
	for i, t := range f.Targets {
		add(t.Key, decomposed[i])
	}
	return nil
}

func (p *parser) terms(name string, vals []string) error {
	f, mapped, err := p.lookup(name)
	if err != nil || !mapped {
		return err
	}
	lists := make([][]any, len(f.Targets))
	for i := range lists {
		lists[i] = []any{}
	}
	for _, item := range splitList(vals) {
		decomposed, err := f.Decompose(item)
		if err != nil {
			return domain.NewFieldError(name, err)
		}
		for i := range f.Targets {
			lists[i] = append(lists[i], decomposed[i])
		}
	}
	for i, t := range f.Targets {
		p.b.Terms(t.Key, lists[i])
	}
	return nil
}

func (p *parser) exists(name string, vals []string) error {
	v, ok := first(vals)
	if !ok {
		return nil
	}
	f, mapped, err := p.lookup(name)
	if err != nil || !mapped {
		return err
	}
	b, perr := strconv.ParseBool(v)
	if perr != nil {
		return domain.NewFieldError(name+SuffixExists,
			fmt.Errorf("%w: %q is not a boolean", domain.ErrInvalidParameter, v))
	}
	for _, t := range f.Targets {
		p.b.Exists(t.Key, b)
	}
	return nil
}

func (p *parser) bound(name string, vals []string, lower bool) error {
	v, ok := first(vals)
	if !ok || v == "" {
		return nil
	}
	f, mapped, err := p.lookup(name)
	if err != nil || !mapped {
		return err
	}
	if f.IsComposite() {
		return domain.NewFieldError(name,
			fmt.Errorf("%w: range is not supported on composite fields", domain.ErrInvalidParameter))
	}
	t := f.Targets[0]
	coerced, err := t.Kind.Coerce(v)
	if err != nil {
		return domain.NewFieldError(name, err)
	}
	if lower {
		p.b.Range(t.Key, coerced, nil)
	} else {
		p.b.Range(t.Key, nil, coerced)
	}
	return nil
}
