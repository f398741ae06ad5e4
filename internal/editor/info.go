package editor

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/vinodismyname/mcpcsv/internal/table"
)

// PreviewRows is the number of rows Info shows.
const PreviewRows = 3

// Info reports the row count, the column list and a preview of the first rows.
func (e *Editor) Info() (string, error) {
	t, err := e.store.Load()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if t.Width() == 0 {
		b.WriteString("Table has 0 rows and no columns.\nPreview:\n(empty table)")
		return b.String(), nil
	}
	fmt.Fprintf(&b, "Table has %d rows and columns: %s\nPreview:\n", t.Len(), columnList(t))
	b.WriteString(Render(t, 0, min(PreviewRows, t.Len())))
	return b.String(), nil
}

// Page is a window of rows rendered as text cells.
type Page struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Offset  int        `json:"offset"`
	Total   int        `json:"total"`
}

// Rows returns up to limit rows starting at offset.
func (e *Editor) Rows(offset, limit int) (Page, error) {
	t, err := e.store.Load()
	if err != nil {
		return Page{}, err
	}
	if offset < 0 {
		offset = 0
	}
	p := Page{Columns: t.Columns(), Offset: offset, Total: t.Len(), Rows: [][]string{}}
	end := min(t.Len(), offset+max(limit, 0))
	for i := offset; i < end; i++ {
		row := t.Row(i)
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = table.Format(v)
		}
		p.Rows = append(p.Rows, cells)
	}
	return p, nil
}

// Render lays out rows [from, to) of t as an aligned text grid with the row
// position in the first column.
func Render(t *table.Table, from, to int) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\t"+strings.Join(t.Columns(), "\t"))
	for i := from; i < to && i < t.Len(); i++ {
		cells := []string{strconv.Itoa(i)}
		for _, v := range t.Row(i) {
			cells = append(cells, table.Format(v))
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	_ = w.Flush()
	return strings.TrimRight(buf.String(), "\n")
}

func columnList(t *table.Table) string {
	if t.Width() == 0 {
		return "(none)"
	}
	return strings.Join(t.Columns(), ", ")
}

// String renders the page like Render, numbering rows from Offset.
func (p Page) String() string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\t"+strings.Join(p.Columns, "\t"))
	for i, row := range p.Rows {
		fmt.Fprintln(w, strconv.Itoa(p.Offset+i)+"\t"+strings.Join(row, "\t"))
	}
	_ = w.Flush()
	return strings.TrimRight(buf.String(), "\n")
}
