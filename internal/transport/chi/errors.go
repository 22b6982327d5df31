package chi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/kailas-cloud/metasearch/internal/domain"
	gen "github.com/kailas-cloud/metasearch/internal/transport/generated"
)

func writeError(w http.ResponseWriter, status int, code gen.ErrorCode, message string) {
	writeJSON(w, status, gen.ErrorResponse{Error: code, Message: message})
}

func withInvalid(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrInvalidParameter, err)
}

// safeDomainMessage returns a client-facing message without exposing driver internals.
// Field errors carry user input only and are returned in full.
func safeDomainMessage(err error) string {
	var fe *domain.FieldError
	if errors.As(err, &fe) {
		return fe.Error()
	}
	sentinels := []error{
		domain.ErrUnsupportedFilterField,
		domain.ErrMalformedPairedFilter,
		domain.ErrInvalidParameter,
		domain.ErrUnknownEntity,
		domain.ErrBackendUnavailable,
		domain.ErrSchemaMismatch,
		domain.ErrQueryExecution,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code gen.ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}
