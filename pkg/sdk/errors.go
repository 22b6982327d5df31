package metasearch

import "github.com/kailas-cloud/metasearch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrUnsupportedFilterField = domain.ErrUnsupportedFilterField
	ErrMalformedPairedFilter  = domain.ErrMalformedPairedFilter
	ErrInvalidParameter       = domain.ErrInvalidParameter
	ErrQueryExecution         = domain.ErrQueryExecution
	ErrSchemaMismatch         = domain.ErrSchemaMismatch
	ErrUnknownEntity          = domain.ErrUnknownEntity
	ErrBackendUnavailable     = domain.ErrBackendUnavailable
)
