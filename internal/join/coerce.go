package join

import (
	"strconv"
	"strings"
	"time"

	"github.com/crossquery/crossquery/internal/querydef"
)

// canonicalKey renders a join-key value into its comparable string
// form. For mismatched kinds both sides coerce to string; numbers
// render without exponent so a numeric 42 equals the string "42", and
// coerced strings are trimmed of surrounding whitespace the way the
// original flat-file sources were. Values with no canonical form
// (bool, binary, nested) report !ok and raise JoinTypeMismatch.
func canonicalKey(value any, kind querydef.DataKind, coerced bool) (string, bool) {
	switch typed := value.(type) {
	case string:
		if coerced {
			return strings.TrimSpace(typed), true
		}
		return typed, true
	case int:
		return strconv.FormatInt(int64(typed), 10), true
	case int32:
		return strconv.FormatInt(int64(typed), 10), true
	case int64:
		return strconv.FormatInt(typed, 10), true
	case float32:
		return formatFloat(float64(typed)), true
	case float64:
		return formatFloat(typed), true
	case time.Time:
		if kind == querydef.KindDate || coerced {
			return typed.UTC().Format(time.RFC3339), true
		}
		return "", false
	default:
		return "", false
	}
}

func formatFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
