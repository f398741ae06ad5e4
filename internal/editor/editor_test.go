package editor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vinodismyname/mcpcsv/internal/table"
)

const people = "name,age,city\nAnn,30,Oslo\nBob,41,Rome\nCid,25,Lima\nDee,52,Kyiv\n"

func newEditor(t *testing.T, csv string, opts ...Option) (*Editor, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "table.csv")
	if csv != "" {
		require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))
	}
	return New(table.NewStore(path), opts...), path
}

func snapshot(t *testing.T, e *Editor) *table.Table {
	t.Helper()
	tbl, err := e.Snapshot()
	require.NoError(t, err)
	return tbl
}

func TestInfo(t *testing.T) {
	e, _ := newEditor(t, people)
	out, err := e.Info()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "Table has 4 rows and columns: name, age, city\nPreview:\n"))
	require.Contains(t, out, "0  Ann   30   Oslo")
	require.Contains(t, out, "2  Cid   25   Lima")
	require.NotContains(t, out, "Dee")

	again, err := e.Info()
	require.NoError(t, err)
	require.Equal(t, out, again)
	require.Equal(t, int64(0), e.Version())
}

func TestInfo_EmptyTable(t *testing.T) {
	e, _ := newEditor(t, "")
	out, err := e.Info()
	require.NoError(t, err)
	require.Contains(t, out, "0 rows and no columns")
}

func TestRemoveRow(t *testing.T) {
	e, _ := newEditor(t, people)
	out, err := e.RemoveRow("1")
	require.NoError(t, err)
	require.Equal(t, "Row 1 removed: name=Bob, age=41, city=Rome", out)

	tbl := snapshot(t, e)
	require.Equal(t, 3, tbl.Len())
	for i, want := range []string{"Ann", "Cid", "Dee"} {
		v, _ := tbl.Cell(i, "name")
		require.Equal(t, want, v)
	}
	info, err := e.Info()
	require.NoError(t, err)
	require.Contains(t, info, "Table has 3 rows")

	out, err = e.RemoveRow("last")
	require.NoError(t, err)
	require.Contains(t, out, "Row 2 removed")

	_, err = e.RemoveRow("7")
	require.Equal(t, table.RowOutOfRange, table.CodeOf(err))
	require.Contains(t, err.Error(), "(0-1)")

	_, err = e.RemoveRow("middle")
	require.Equal(t, table.InvalidRow, table.CodeOf(err))
	require.Equal(t, int64(2), e.Version())
}

func TestAddColumn_NumericDefault(t *testing.T) {
	e, _ := newEditor(t, people)
	out, err := e.AddColumn("bonus with values=100")
	require.NoError(t, err)
	require.Equal(t, "Column 'bonus' added with default value: '100'.", out)

	tbl := snapshot(t, e)
	require.Equal(t, []string{"name", "age", "city", "bonus"}, tbl.Columns())
	for i := 0; i < tbl.Len(); i++ {
		v, _ := tbl.Cell(i, "bonus")
		require.Equal(t, int64(100), v)
	}
	info, err := e.Info()
	require.NoError(t, err)
	require.Contains(t, info, "columns: name, age, city, bonus")
}

func TestAddColumn_Defaults(t *testing.T) {
	e, _ := newEditor(t, people)

	_, err := e.AddColumn("rate with values=2.5")
	require.NoError(t, err)
	_, err = e.AddColumn("notes")
	require.NoError(t, err)
	_, err = e.AddColumn("team with values=red")
	require.NoError(t, err)

	tbl := snapshot(t, e)
	rate, _ := tbl.Cell(0, "rate")
	require.Equal(t, 2.5, rate)
	notes, _ := tbl.Cell(0, "notes")
	require.Equal(t, "", notes)
	team, _ := tbl.Cell(3, "team")
	require.Equal(t, "red", team)

	_, err = e.AddColumn("age with values=1")
	require.Equal(t, table.DuplicateColumn, table.CodeOf(err))
	_, err = e.AddColumn("")
	require.Equal(t, table.InvalidInput, table.CodeOf(err))
}

func TestAddRow(t *testing.T) {
	e, _ := newEditor(t, "name,age,city\n")
	out, err := e.AddRow(map[string]string{"name": "John", "age": "30"})
	require.NoError(t, err)
	require.Equal(t, "Row added: name=John, age=30, city=", out)

	tbl := snapshot(t, e)
	require.Equal(t, 1, tbl.Len())
	require.Equal(t, []string{"John", "30", ""}, tbl.Records()[1])

	_, err = e.AddRow(map[string]string{"name": "X", "salary": "1"})
	require.Equal(t, table.UnknownColumns, table.CodeOf(err))
	require.Contains(t, err.Error(), "salary")
	require.Contains(t, err.Error(), "Available columns: name, age, city")
	require.Equal(t, 1, snapshot(t, e).Len())

	_, err = e.AddRow(nil)
	require.Equal(t, table.InvalidInput, table.CodeOf(err))
}

func TestSetCell(t *testing.T) {
	e, _ := newEditor(t, people)
	before := snapshot(t, e)

	out, err := e.SetCell("last", "age", "31")
	require.NoError(t, err)
	require.Equal(t, "Value set at row 3, column 'age' to '31'.", out)

	after := snapshot(t, e)
	v, _ := after.Cell(3, "age")
	require.Equal(t, int64(31), v)

	require.NoError(t, before.Set(3, "age", int64(31)))
	require.Equal(t, before.Records(), after.Records())
}

func TestSetCell_KeepsOversizedIntegers(t *testing.T) {
	e, path := newEditor(t, "id,n\n12345678901234567890,1\n")
	_, err := e.SetCell("0", "n", "2")
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "id,n\n12345678901234567890,2\n", string(raw))
}

func TestSetCell_Errors(t *testing.T) {
	e, _ := newEditor(t, "first_name,last_name\nA,B\n")

	_, err := e.SetCell("0", "name", "x")
	require.Equal(t, table.AmbiguousColumn, table.CodeOf(err))
	require.Contains(t, err.Error(), "first_name, last_name")

	_, err = e.SetCell("5", "first", "x")
	require.Equal(t, table.RowOutOfRange, table.CodeOf(err))

	_, err = e.SetCell("zero", "first", "x")
	require.Equal(t, table.InvalidRow, table.CodeOf(err))

	_, err = e.SetCell("0", "email", "x")
	require.Equal(t, table.UnknownColumn, table.CodeOf(err))

	out, err := e.SetCell("first", "LAST", "Smith")
	require.NoError(t, err)
	require.Contains(t, out, "column 'last_name'")
}

func TestSetCell_FoldPolicy(t *testing.T) {
	e, _ := newEditor(t, "first_name,Age\nA,1\n", WithMatchPolicy(table.MatchFold))

	_, err := e.SetCell("0", "first", "x")
	require.Equal(t, table.UnknownColumn, table.CodeOf(err))

	_, err = e.SetCell("0", "age", "2.5")
	require.NoError(t, err)
	v, _ := snapshot(t, e).Cell(0, "Age")
	require.Equal(t, 2.5, v)
}

func TestSetRow(t *testing.T) {
	e, _ := newEditor(t, people)
	out, err := e.SetRow("first", map[string]string{"city": "Bergen", "age": "33"})
	require.NoError(t, err)
	require.Equal(t, "Row 0 updated: age=33, city=Bergen", out)

	tbl := snapshot(t, e)
	require.Equal(t, []string{"Ann", "33", "Bergen"}, tbl.Records()[1])

	_, err = e.SetRow("1", map[string]string{"age": "1", "zip": "0150"})
	require.Equal(t, table.UnknownColumn, table.CodeOf(err))
	require.Contains(t, err.Error(), "Column 'zip' does not exist")
	v, _ := snapshot(t, e).Cell(1, "age")
	require.Equal(t, int64(41), v)

	_, err = e.SetRow("9", map[string]string{"age": "1"})
	require.Equal(t, table.RowOutOfRange, table.CodeOf(err))

	_, err = e.SetRow("0", map[string]string{})
	require.Equal(t, table.InvalidInput, table.CodeOf(err))
}

func TestSetRow_AllEmptyRowSurvivesReload(t *testing.T) {
	e, _ := newEditor(t, "name,age\nAnn,30\nBob,41\nCid,25\n")
	out, err := e.SetRow("0", map[string]string{"name": "", "age": ""})
	require.NoError(t, err)
	require.Equal(t, "Row 0 updated: name=, age=", out)

	info, err := e.Info()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(info, "Table has 3 rows"))

	tbl := snapshot(t, e)
	require.Equal(t, 3, tbl.Len())
	require.Equal(t, []string{"", ""}, tbl.Records()[1])
	require.Equal(t, []string{"Bob", "41"}, tbl.Records()[2])
}

func TestAddRow_EmptyValuesSurviveReload(t *testing.T) {
	e, _ := newEditor(t, "name,age\nAnn,30\n")
	out, err := e.AddRow(map[string]string{"name": ""})
	require.NoError(t, err)
	require.Equal(t, "Row added: name=, age=", out)
	require.Equal(t, 2, snapshot(t, e).Len())

	single, _ := newEditor(t, "name\nAnn\n")
	_, err = single.AddRow(map[string]string{"name": ""})
	require.NoError(t, err)
	tbl := snapshot(t, single)
	require.Equal(t, 2, tbl.Len())
	require.Equal(t, []string{""}, tbl.Records()[2])
}

func TestRemoveColumn(t *testing.T) {
	e, _ := newEditor(t, people)
	out, err := e.RemoveColumn("CIT")
	require.NoError(t, err)
	require.Equal(t, "Column 'city' removed.", out)
	require.Equal(t, []string{"name", "age"}, snapshot(t, e).Columns())

	_, err = e.RemoveColumn("city")
	require.Equal(t, table.UnknownColumn, table.CodeOf(err))
	require.Contains(t, err.Error(), "Available columns: name, age")
}

func TestRows(t *testing.T) {
	e, _ := newEditor(t, people)
	p, err := e.Rows(1, 2)
	require.NoError(t, err)
	require.Equal(t, 4, p.Total)
	require.Equal(t, [][]string{{"Bob", "41", "Rome"}, {"Cid", "25", "Lima"}}, p.Rows)

	p, err = e.Rows(10, 5)
	require.NoError(t, err)
	require.Empty(t, p.Rows)
}

func TestImport(t *testing.T) {
	e, path := newEditor(t, people)
	src := filepath.Join(t.TempDir(), "upload.csv")
	require.NoError(t, os.WriteFile(src, []byte("sku,qty\nA1,3\n"), 0o644))

	out, err := e.Import(src)
	require.NoError(t, err)
	require.Equal(t, "Loaded table with 1 rows and columns: sku, qty", out)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "sku,qty\nA1,3\n", string(raw))
}

func TestStorageUnavailable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "table.csv")
	require.NoError(t, os.MkdirAll(filepath.Join(path, "child"), 0o755))

	e := New(table.NewStore(path))
	_, err := e.AddColumn("x")
	require.Equal(t, table.StorageUnavailable, table.CodeOf(err))
	_, err = e.Info()
	require.Equal(t, table.StorageUnavailable, table.CodeOf(err))
}
