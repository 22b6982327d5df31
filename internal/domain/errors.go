package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedFilterField signals a filter on a field the entity does not map.
	ErrUnsupportedFilterField = errors.New("unsupported filter field")
	// ErrMalformedPairedFilter signals collection name/version lists of different length.
	ErrMalformedPairedFilter = errors.New("malformed paired filter")
	// ErrInvalidParameter signals a value that cannot be coerced to the field type.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrQueryExecution signals a driver or SQL failure on either backend.
	ErrQueryExecution = errors.New("query execution failed")
	// ErrSchemaMismatch signals a snapshot schema incompatible with the generated query.
	ErrSchemaMismatch = errors.New("snapshot schema mismatch")
	// ErrUnknownEntity signals a search on an entity that has no query spec.
	ErrUnknownEntity = errors.New("unknown entity")
	// ErrBackendUnavailable signals a search routed to a backend that is not configured.
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// FieldError ties a parse-level failure to the offending query field.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return e.Err.Error() + ": " + e.Field }

func (e *FieldError) Unwrap() error { return e.Err }

// NewFieldError creates a field error for the given sentinel.
func NewFieldError(field string, err error) error {
	return &FieldError{Field: field, Err: err}
}

// QueryError wraps an execution failure with the search it belongs to.
type QueryError struct {
	Backend string
	Entity  string
	Op      string
	Err     error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s %s %s: %v", e.Backend, e.Entity, e.Op, e.Err)
}

// IsSchemaMismatch reports whether the failure is a snapshot schema mismatch.
func (e *QueryError) IsSchemaMismatch() bool { return errors.Is(e.Err, ErrSchemaMismatch) }

// Unwrap exposes both the classification sentinel and the driver error.
func (e *QueryError) Unwrap() []error {
	if e.IsSchemaMismatch() {
		return []error{e.Err}
	}
	return []error{ErrQueryExecution, e.Err}
}

// SchemaMismatchError lists the columns a snapshot table is missing.
type SchemaMismatchError struct {
	Table   string
	Missing []string
}

func (e *SchemaMismatchError) Error() string {
	if len(e.Missing) == 0 {
		return fmt.Sprintf("%s: table %s", ErrSchemaMismatch.Error(), e.Table)
	}
	return fmt.Sprintf("%s: table %s is missing columns %s",
		ErrSchemaMismatch.Error(), e.Table, strings.Join(e.Missing, ", "))
}

func (e *SchemaMismatchError) Unwrap() error { return ErrSchemaMismatch }
