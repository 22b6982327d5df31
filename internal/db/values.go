package db

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// NormalizeValue maps driver-specific scalar types onto one representation,
// so rows from either backend translate to identical records.
func NormalizeValue(v any) any {
	switch x := v.(type) {
	case float32:
		// Shortest decimal that round-trips at float32 precision: 6.8, not 6.800000190734863.
		f, _ := strconv.ParseFloat(strconv.FormatFloat(float64(x), 'g', -1, 32), 64)
		return f
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case time.Time:
		return x.UTC()
	case [16]byte:
		return uuid.UUID(x).String()
	case uuid.UUID:
		return x.String()
	case []byte:
		return string(x)
	default:
		return v
	}
}
