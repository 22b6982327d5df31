package filter

import (
	"fmt"
	"slices"
)

// Kind enumerates the filter variants.
type Kind int

// Filter kinds, in compile pipeline order.
const (
	KindTerm Kind = iota + 1
	KindTerms
	KindNot
	KindExists
	KindRange
	KindInfix
	KindPrefix
)

func (k Kind) String() string {
	switch k {
	case KindTerm:
		return "term"
	case KindTerms:
		return "terms"
	case KindNot:
		return "not"
	case KindExists:
		return "exists"
	case KindRange:
		return "range"
	case KindInfix:
		return "infix"
	case KindPrefix:
		return "prefix"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Filter is one predicate of a search. The set of implementations is closed.
type Filter interface {
	Kind() Kind
	isFilter()
}

// Term matches a field equal to a value.
type Term struct {
	key   string
	value any
}

// NewTerm creates an equality filter.
func NewTerm(key string, value any) (Term, error) {
	if key == "" {
		return Term{}, fmt.Errorf("filter key is required")
	}
	if value == nil {
		return Term{}, fmt.Errorf("term value is required for key %q", key)
	}
	return Term{key: key, value: value}, nil
}

// Kind implements Filter.
func (Term) Kind() Kind { return KindTerm }
func (Term) isFilter()  {}

// Key returns the field key.
func (t Term) Key() string { return t.key }

// Value returns the coerced value.
func (t Term) Value() any { return t.value }

// Terms matches a field against a value list. An empty list matches nothing.
type Terms struct {
	key    string
	values []any
}

// NewTerms creates a set-membership filter.
func NewTerms(key string, values []any) (Terms, error) {
	if key == "" {
		return Terms{}, fmt.Errorf("filter key is required")
	}
	return Terms{key: key, values: slices.Clone(values)}, nil
}

// Kind implements Filter.
func (Terms) Kind() Kind { return KindTerms }
func (Terms) isFilter()  {}

// Key returns the field key.
func (t Terms) Key() string { return t.key }

// Values returns a copy of the value list.
func (t Terms) Values() []any { return slices.Clone(t.values) }

// Not excludes rows where a field equals a value.
type Not struct {
	key   string
	value any
}

// NewNot creates a negation filter.
func NewNot(key string, value any) (Not, error) {
	if key == "" {
		return Not{}, fmt.Errorf("filter key is required")
	}
	if value == nil {
		return Not{}, fmt.Errorf("not value is required for key %q", key)
	}
	return Not{key: key, value: value}, nil
}

// Kind implements Filter.
func (Not) Kind() Kind { return KindNot }
func (Not) isFilter()  {}

// Key returns the field key.
func (n Not) Key() string { return n.key }

// Value returns the coerced value.
func (n Not) Value() any { return n.value }

// Exists matches rows where a field is (or is not) set.
type Exists struct {
	key    string
	exists bool
}

// NewExists creates a presence filter.
func NewExists(key string, exists bool) (Exists, error) {
	if key == "" {
		return Exists{}, fmt.Errorf("filter key is required")
	}
	return Exists{key: key, exists: exists}, nil
}

// Kind implements Filter.
func (Exists) Kind() Kind { return KindExists }
func (Exists) isFilter()  {}

// Key returns the field key.
func (e Exists) Key() string { return e.key }

// Exists reports whether the field must be present.
func (e Exists) Exists() bool { return e.exists }

// Range bounds a field inclusively. Either bound may be absent.
type Range struct {
	key string
	gte any
	lte any
}

// NewRange validates and creates a range filter.
func NewRange(key string, gte, lte any) (Range, error) {
	if key == "" {
		return Range{}, fmt.Errorf("filter key is required")
	}
	if gte == nil && lte == nil {
		return Range{}, fmt.Errorf("at least one range boundary is required for key %q", key)
	}
	return Range{key: key, gte: gte, lte: lte}, nil
}

// Kind implements Filter.
func (Range) Kind() Kind { return KindRange }
func (Range) isFilter()  {}

// Key returns the field key.
func (r Range) Key() string { return r.key }

// GTE returns the lower bound or nil.
func (r Range) GTE() any { return r.gte }

// LTE returns the upper bound or nil.
func (r Range) LTE() any { return r.lte }

// Merge returns a range carrying the bounds of both. Bounds on other override.
func (r Range) Merge(other Range) Range {
	out := r
	if other.gte != nil {
		out.gte = other.gte
	}
	if other.lte != nil {
		out.lte = other.lte
	}
	return out
}

// Infix matches the entity text field containing a substring.
type Infix struct{ value string }

// NewInfix creates a substring filter.
func NewInfix(value string) (Infix, error) {
	if value == "" {
		return Infix{}, fmt.Errorf("infix value is required")
	}
	return Infix{value: value}, nil
}

// Kind implements Filter.
func (Infix) Kind() Kind { return KindInfix }
func (Infix) isFilter()  {}

// Value returns the substring.
func (i Infix) Value() string { return i.value }

// Prefix matches the entity text field starting with a string.
type Prefix struct{ value string }

// NewPrefix creates a leading-substring filter.
func NewPrefix(value string) (Prefix, error) {
	if value == "" {
		return Prefix{}, fmt.Errorf("prefix value is required")
	}
	return Prefix{value: value}, nil
}

// Kind implements Filter.
func (Prefix) Kind() Kind { return KindPrefix }
func (Prefix) isFilter()  {}

// Value returns the prefix.
func (p Prefix) Value() string { return p.value }
