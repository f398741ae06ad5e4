package table

import (
	"fmt"
	"sort"
	"strings"
)

// Table is an ordered set of named columns with one value per column in every
// row. Rows are addressed by contiguous zero-based position. Cells hold
// string, int64 or float64 values; the empty string marks an absent value.
type Table struct {
	columns []string
	rows    [][]any
}

// New returns an empty table with the given columns.
func New(columns ...string) *Table {
	return &Table{columns: append([]string(nil), columns...)}
}

// FromRecords builds a table from CSV-style records whose first record is the
// header. Short rows are padded with "", long rows are cut to the header width
// and every cell is passed through Coerce. Records with no fields at all are
// skipped; rows of empty cells are kept.
func FromRecords(records [][]string) *Table {
	if len(records) == 0 {
		return New()
	}
	t := New(uniqueHeader(records[0])...)
	for _, rec := range records[1:] {
		if len(rec) == 0 {
			continue
		}
		row := make([]any, len(t.columns))
		for i := range row {
			if i < len(rec) {
				row[i] = Coerce(rec[i])
			} else {
				row[i] = ""
			}
		}
		t.rows = append(t.rows, row)
	}
	return t
}

// uniqueHeader names empty headers "Unnamed: <i>" and suffixes repeats with
// ".1", ".2" and so on.
func uniqueHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		name := h
		for n := 1; seen[name]; n++ {
			name = fmt.Sprintf("%s.%d", h, n)
		}
		seen[name] = true
		out[i] = name
	}
	return out
}

// Records renders the table as CSV records, header first.
func (t *Table) Records() [][]string {
	out := make([][]string, 0, len(t.rows)+1)
	out = append(out, t.Columns())
	for _, row := range t.rows {
		rec := make([]string, len(row))
		for i, v := range row {
			rec[i] = Format(v)
		}
		out = append(out, rec)
	}
	return out
}

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Width returns the number of columns.
func (t *Table) Width() int { return len(t.columns) }

// Row returns a copy of row i. It panics when i is out of range, like a slice.
func (t *Table) Row(i int) []any {
	return append([]any(nil), t.rows[i]...)
}

// Cell returns the value at row i in the named column.
func (t *Table) Cell(i int, column string) (any, bool) {
	c := t.index(column)
	if c < 0 || i < 0 || i >= len(t.rows) {
		return nil, false
	}
	return t.rows[i][c], true
}

// HasColumn reports whether name is a declared column (exact match).
func (t *Table) HasColumn(name string) bool {
	return t.index(name) >= 0
}

func (t *Table) index(name string) int {
	for i, c := range t.columns {
		if c == name {
			return i
		}
	}
	return -1
}

// AddColumn appends a column and fills every existing row with fill.
func (t *Table) AddColumn(name string, fill any) error {
	if name == "" {
		return errorf(InvalidInput, "Column name must not be empty.")
	}
	if t.HasColumn(name) {
		return errorf(DuplicateColumn, "Column '%s' already exists.", name)
	}
	t.columns = append(t.columns, name)
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], fill)
	}
	return nil
}

// DropColumn removes the column with the exact given name.
func (t *Table) DropColumn(name string) error {
	c := t.index(name)
	if c < 0 {
		return t.unknownColumn(name)
	}
	t.columns = append(t.columns[:c], t.columns[c+1:]...)
	for i, row := range t.rows {
		t.rows[i] = append(row[:c], row[c+1:]...)
	}
	return nil
}

// AppendRow adds a row built from values keyed by exact column name. Columns
// missing from values are filled with "". Unknown keys reject the whole row.
func (t *Table) AppendRow(values map[string]any) ([]any, error) {
	var unknown []string
	for k := range values {
		if !t.HasColumn(k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, errorf(UnknownColumns, "Columns don't exist: %s. Available columns: %s",
			strings.Join(unknown, ", "), t.columnList())
	}
	row := make([]any, len(t.columns))
	for i, c := range t.columns {
		if v, ok := values[c]; ok {
			row[i] = v
		} else {
			row[i] = ""
		}
	}
	t.rows = append(t.rows, row)
	return append([]any(nil), row...), nil
}

// DeleteRow removes row i and returns its values. Later rows shift down so
// positions stay contiguous.
func (t *Table) DeleteRow(i int) ([]any, error) {
	if i < 0 || i >= len(t.rows) {
		return nil, outOfRange(i, len(t.rows))
	}
	removed := t.rows[i]
	t.rows = append(t.rows[:i], t.rows[i+1:]...)
	return removed, nil
}

// Set writes v into row i of the named column.
func (t *Table) Set(i int, column string, v any) error {
	if i < 0 || i >= len(t.rows) {
		return outOfRange(i, len(t.rows))
	}
	c := t.index(column)
	if c < 0 {
		return t.unknownColumn(column)
	}
	t.rows[i][c] = v
	return nil
}

// Clone returns a deep copy of t.
func (t *Table) Clone() *Table {
	out := New(t.columns...)
	out.rows = make([][]any, len(t.rows))
	for i, row := range t.rows {
		out.rows[i] = append([]any(nil), row...)
	}
	return out
}

// DescribeRow renders values as "col=value, ..." in column order.
func (t *Table) DescribeRow(values []any) string {
	parts := make([]string, 0, len(values))
	for i, v := range values {
		if i >= len(t.columns) {
			break
		}
		parts = append(parts, t.columns[i]+"="+Format(v))
	}
	return strings.Join(parts, ", ")
}

func (t *Table) columnList() string {
	if len(t.columns) == 0 {
		return "(none)"
	}
	return strings.Join(t.columns, ", ")
}

func (t *Table) unknownColumn(name string) error {
	return errorf(UnknownColumn, "Column '%s' does not exist. Available columns: %s", name, t.columnList())
}
