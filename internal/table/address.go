package table

import (
	"fmt"
	"strconv"
	"strings"
)

type rowKind int

const (
	rowIndex rowKind = iota
	rowFirst
	rowLast
)

// RowSpec addresses a row as "first", "last" or a zero-based index.
type RowSpec struct {
	kind  rowKind
	index int
	raw   string
}

// First and Last are the keyword row specifiers.
var (
	First = RowSpec{kind: rowFirst, raw: "first"}
	Last  = RowSpec{kind: rowLast, raw: "last"}
)

// Index returns a RowSpec for a fixed position.
func Index(i int) RowSpec {
	return RowSpec{kind: rowIndex, index: i, raw: strconv.Itoa(i)}
}

// ParseRowSpec parses "first", "last" (any case) or a base-10 integer.
func ParseRowSpec(s string) (RowSpec, error) {
	raw := strings.TrimSpace(s)
	switch strings.ToLower(raw) {
	case "first":
		return RowSpec{kind: rowFirst, raw: raw}, nil
	case "last":
		return RowSpec{kind: rowLast, raw: raw}, nil
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		return RowSpec{}, &Error{
			Code: InvalidRow,
			Msg:  fmt.Sprintf("Invalid row specifier '%s'. Use a number, 'first', or 'last'.", raw),
			Err:  err,
		}
	}
	return RowSpec{kind: rowIndex, index: i, raw: raw}, nil
}

// Resolve maps the specifier onto a table with n rows.
func (r RowSpec) Resolve(n int) (int, error) {
	var i int
	switch r.kind {
	case rowFirst:
		i = 0
	case rowLast:
		i = n - 1
	default:
		i = r.index
	}
	if i < 0 || i >= n {
		return 0, outOfRange(i, n)
	}
	return i, nil
}

func (r RowSpec) String() string { return r.raw }

func outOfRange(i, n int) error {
	if n == 0 {
		return errorf(RowOutOfRange, "Row index %d is out of range: the table has no rows.", i)
	}
	return errorf(RowOutOfRange, "Row index %d is out of range (0-%d).", i, n-1)
}

// ResolveRow parses and resolves a textual row specifier against t.
func (t *Table) ResolveRow(spec string) (int, error) {
	r, err := ParseRowSpec(spec)
	if err != nil {
		return 0, err
	}
	return r.Resolve(t.Len())
}

// MatchPolicy selects how a column name that is not an exact match is resolved.
type MatchPolicy int

const (
	// MatchSubstring accepts a unique case-insensitive substring match.
	MatchSubstring MatchPolicy = iota
	// MatchFold accepts a unique case-insensitive equal name.
	MatchFold
)

// ParseMatchPolicy maps "substring" or "fold" to a MatchPolicy.
func ParseMatchPolicy(s string) (MatchPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "substring":
		return MatchSubstring, nil
	case "fold", "case-insensitive":
		return MatchFold, nil
	}
	return 0, fmt.Errorf("table: unknown match policy %q", s)
}

func (p MatchPolicy) String() string {
	if p == MatchFold {
		return "fold"
	}
	return "substring"
}

// ResolveColumn returns the declared column name that name refers to. An
// exact match always wins; otherwise the policy decides and more than one
// candidate is an ambiguity error listing them all.
func (t *Table) ResolveColumn(name string, policy MatchPolicy) (string, error) {
	if t.HasColumn(name) {
		return name, nil
	}
	want := strings.ToLower(strings.TrimSpace(name))
	var matches []string
	if want != "" {
		for _, c := range t.columns {
			low := strings.ToLower(c)
			switch policy {
			case MatchFold:
				if low == want {
					matches = append(matches, c)
				}
			default:
				if strings.Contains(low, want) {
					matches = append(matches, c)
				}
			}
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", t.unknownColumn(name)
	}
	return "", errorf(AmbiguousColumn, "Multiple columns match '%s': %s. Please be more specific.",
		name, strings.Join(matches, ", "))
}
