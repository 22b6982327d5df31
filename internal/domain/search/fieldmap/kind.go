package fieldmap

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/metasearch/internal/domain"
)

// Kind selects how a raw query-string value is coerced.
type Kind int

// Value kinds.
const (
	KindString Kind = iota
	KindNumber
	KindBoolean
	KindDate
	KindUUID
	// KindEnabledState maps ENABLED/DISABLED onto a boolean column.
	KindEnabledState
)

// Coerce converts a raw value to the Go type bound into SQL for this kind.
func (k Kind) Coerce(raw string) (any, error) {
	switch k {
	case KindString:
		return raw, nil
	case KindNumber:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", domain.ErrInvalidParameter, raw)
		}
		return f, nil
	case KindBoolean:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a boolean", domain.ErrInvalidParameter, raw)
		}
		return b, nil
	case KindDate:
		return parseDate(raw)
	case KindUUID:
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a uuid", domain.ErrInvalidParameter, raw)
		}
		return id.String(), nil
	case KindEnabledState:
		switch strings.ToUpper(strings.TrimSpace(raw)) {
		case "ENABLED", "TRUE":
			return true, nil
		case "DISABLED", "FALSE":
			return false, nil
		}
		return nil, fmt.Errorf("%w: %q is not ENABLED or DISABLED", domain.ErrInvalidParameter, raw)
	default:
		return nil, fmt.Errorf("unknown field kind %d", int(k))
	}
}

// parseDate accepts epoch milliseconds or RFC 3339 and returns UTC.
func parseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return time.UnixMilli(int64(f)).UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q is not a date", domain.ErrInvalidParameter, raw)
}
