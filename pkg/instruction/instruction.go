// Package instruction parses the flat argument strings that agents pass to
// table tools into structured edit payloads.
//
// The syntax is deliberately small: "key=value" pairs separated by commas.
// There is no quoting, so a value cannot contain a literal comma.
package instruction

import (
	"errors"
	"strings"
)

// ErrMissingPart is returned when a compound argument lacks a required part.
var ErrMissingPart = errors.New("instruction: missing argument part")

// ParseKeyValue parses "k=v, k2=v2" into a map. Each comma-separated segment
// is split on its first "="; keys and values are trimmed and segments without
// "=" are dropped. A repeated key keeps its last value.
func ParseKeyValue(text string) map[string]string {
	out := make(map[string]string)
	for _, seg := range strings.Split(text, ",") {
		k, v, ok := strings.Cut(seg, "=")
		if !ok {
			continue
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out
}

// SplitCellArgs splits "row, column, value" on the first two commas. The value
// keeps any further commas.
func SplitCellArgs(text string) (row, column, value string, err error) {
	parts := strings.SplitN(text, ",", 3)
	if len(parts) < 3 {
		return "", "", "", ErrMissingPart
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2]), nil
}

// SplitRowArgs splits "row: k=v, k2=v2" on the first colon.
func SplitRowArgs(text string) (row, payload string, err error) {
	row, payload, ok := strings.Cut(text, ":")
	if !ok {
		return "", "", ErrMissingPart
	}
	return strings.TrimSpace(row), strings.TrimSpace(payload), nil
}

// ColumnSpec is the parsed form of "<name> with values=<default>".
type ColumnSpec struct {
	Name       string
	Default    string
	HasDefault bool
}

// ParseColumnSpec parses an add-column argument. The " with " keyword is
// matched case-insensitively as a whole word so names such as "withdrawals"
// survive; everything after "values=" (or "value=") is the default.
func ParseColumnSpec(text string) ColumnSpec {
	text = strings.TrimSpace(text)
	low := strings.ToLower(text)
	idx := strings.Index(low, " with ")
	if idx < 0 {
		return ColumnSpec{Name: text}
	}
	spec := ColumnSpec{Name: strings.TrimSpace(text[:idx])}
	rest := strings.TrimSpace(text[idx+len(" with "):])
	key, val, ok := strings.Cut(rest, "=")
	if !ok {
		return spec
	}
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "values", "value", "default":
		spec.Default = strings.TrimSpace(val)
		spec.HasDefault = true
	}
	return spec
}
