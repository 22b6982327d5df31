package translate

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ohler55/ojg/oj"
)

// ISOMillis is the API format of date-time strings.
const ISOMillis = "2006-01-02T15:04:05.000Z"

// timeLayouts covers the textual timestamps a snapshot may carry.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

// asTime reads a timestamp from a driver value.
// Numbers are epoch milliseconds.
func asTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), true
	case int64:
		return time.UnixMilli(x).UTC(), true
	case float64:
		return time.UnixMilli(int64(x)).UTC(), true
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, x); err == nil {
				return t.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

// isoTime renders a timestamp as an ISO-8601 string with milliseconds.
func isoTime(v any) any {
	t, ok := asTime(v)
	if !ok {
		return nil
	}
	return t.Format(ISOMillis)
}

// epochMillis renders a timestamp as milliseconds since the epoch.
func epochMillis(v any) any {
	t, ok := asTime(v)
	if !ok {
		return nil
	}
	return t.UnixMilli()
}

func str(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// boolean accepts native booleans and the integer form engines without a boolean type use.
func boolean(v any) any {
	switch x := v.(type) {
	case bool:
		return x
	case int64:
		return x != 0
	case float64:
		return x != 0
	case string:
		b, err := strconv.ParseBool(x)
		if err != nil {
			return nil
		}
		return b
	}
	return nil
}

func number(v any) any {
	switch x := v.(type) {
	case int64, float64:
		return x
	case string:
		if n, err := strconv.ParseInt(x, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(x, 64); err == nil {
			return f
		}
	}
	return nil
}

// numericString renders integral volumes without exponent.
func numericString(v any) any {
	switch x := v.(type) {
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return x
	}
	return nil
}

// structured decodes JSON text into maps and slices; other values pass through.
func structured(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
		return s
	}
	out, err := oj.ParseString(trimmed)
	if err != nil {
		return s
	}
	return out
}

// jsonText renders a structured value as JSON text.
func jsonText(v any) any {
	switch x := structured(v).(type) {
	case nil:
		return nil
	case string:
		return x
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return nil
		}
		return string(b)
	}
}

func int64Value(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case float64:
		return int64(x), true
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		return n, err == nil
	}
	return 0, false
}
