package table

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromRecords_PadsAndCoerces(t *testing.T) {
	tbl := FromRecords([][]string{
		{"name", "age", "score"},
		{"Ann", "30"},
		{"Bob", "41", "9.5", "extra"},
		{"", "", ""},
	})
	require.Equal(t, 2, tbl.Len())
	require.Equal(t, []any{"Ann", int64(30), ""}, tbl.Row(0))
	require.Equal(t, []any{"Bob", int64(41), 9.5}, tbl.Row(1))
}

func TestFromRecords_HeaderCleanup(t *testing.T) {
	tbl := FromRecords([][]string{{"\ufeffid", "", "id", "id"}})
	require.Equal(t, []string{"id", "Unnamed: 1", "id.1", "id.2"}, tbl.Columns())
}

func TestAddDropColumn(t *testing.T) {
	tbl := fourRows()
	require.NoError(t, tbl.AddColumn("bonus", int64(100)))
	for i := 0; i < tbl.Len(); i++ {
		v, ok := tbl.Cell(i, "bonus")
		require.True(t, ok)
		require.Equal(t, int64(100), v)
	}

	err := tbl.AddColumn("bonus", "")
	require.Equal(t, DuplicateColumn, CodeOf(err))

	require.NoError(t, tbl.DropColumn("age"))
	require.Equal(t, []string{"name", "city", "bonus"}, tbl.Columns())
	require.Equal(t, []any{"Ann", "Oslo", int64(100)}, tbl.Row(0))

	require.Equal(t, UnknownColumn, CodeOf(tbl.DropColumn("age")))
}

func TestAppendRow(t *testing.T) {
	tbl := New("name", "age", "city")
	row, err := tbl.AppendRow(map[string]any{"name": "John", "age": "30"})
	require.NoError(t, err)
	require.Equal(t, []any{"John", "30", ""}, row)
	require.Equal(t, 1, tbl.Len())

	_, err = tbl.AppendRow(map[string]any{"zip": "1", "name": "x", "email": "y"})
	require.Equal(t, UnknownColumns, CodeOf(err))
	require.Contains(t, err.Error(), "email, zip")
	require.Contains(t, err.Error(), "Available columns: name, age, city")
	require.Equal(t, 1, tbl.Len())
}

func TestDeleteRowKeepsContiguousPositions(t *testing.T) {
	tbl := fourRows()
	removed, err := tbl.DeleteRow(1)
	require.NoError(t, err)
	require.Equal(t, "Bob", removed[0])
	require.Equal(t, 3, tbl.Len())
	for i, want := range []string{"Ann", "Cid", "Dee"} {
		require.Equal(t, want, tbl.Row(i)[0])
	}
	_, err = tbl.DeleteRow(3)
	require.Equal(t, RowOutOfRange, CodeOf(err))
}

func TestSetAndClone(t *testing.T) {
	tbl := fourRows()
	cp := tbl.Clone()
	require.NoError(t, tbl.Set(3, "age", int64(31)))
	v, _ := tbl.Cell(3, "age")
	require.Equal(t, int64(31), v)
	v, _ = cp.Cell(3, "age")
	require.Equal(t, int64(52), v)

	require.Equal(t, UnknownColumn, CodeOf(tbl.Set(0, "nope", "x")))
	require.Equal(t, RowOutOfRange, CodeOf(tbl.Set(9, "age", "x")))
}

func TestDescribeRow(t *testing.T) {
	tbl := fourRows()
	require.Equal(t, "name=Ann, age=30, city=Oslo", tbl.DescribeRow(tbl.Row(0)))
}
