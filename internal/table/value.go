package table

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// decimalRe accepts plain decimal and scientific notation only, so strings such
// as "NaN", "Inf" or "0x1p-2" that strconv.ParseFloat would take stay text.
var decimalRe = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// Coerce converts a raw cell string to its typed value: int64 when it parses
// as a base-10 integer, float64 when it is a decimal number, otherwise the
// string itself. Integers that overflow int64 stay text so a save writes them
// back digit for digit. Surrounding whitespace is not trimmed.
func Coerce(s string) any {
	if s == "" {
		return ""
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return i
	}
	if errors.Is(err, strconv.ErrRange) {
		return s
	}
	if decimalRe.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return s
}

// Format renders a cell value as it is written to CSV. Whole floats keep a
// trailing ".0" so a reload coerces them back to float64.
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		s := strconv.FormatFloat(x, 'f', -1, 64)
		if !strings.ContainsAny(s, ".nN") {
			s += ".0"
		}
		return s
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
