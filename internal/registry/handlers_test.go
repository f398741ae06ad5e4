package registry

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vinodismyname/mcpcsv/internal/insights"
	"github.com/vinodismyname/mcpcsv/internal/runtime"
	"github.com/vinodismyname/mcpcsv/internal/security"
	"github.com/vinodismyname/mcpcsv/internal/sessions"
)

const people = "name,age,city\nAnn,30,Oslo\nBob,25,Rome\nCid,41,Lima\nDee,19,Kyiv\nEve,52,Pune\n"

func newHandlers(t *testing.T) (*Handlers, string) {
	t.Helper()
	dir := t.TempDir()
	sec, err := security.NewManager([]string{dir}, nil)
	require.NoError(t, err)
	mgr := sessions.NewManager(0, 0, sessions.WithValidator(sec))
	t.Cleanup(func() { _ = mgr.Close(context.Background()) })
	return &Handlers{
		Sessions:    mgr,
		Security:    sec,
		Limits:      runtime.NewLimits(0, 0),
		AllowWrites: true,
		Logger:      zerolog.Nop(),
	}, dir
}

func openPeople(t *testing.T, h *Handlers, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "people.csv")
	require.NoError(t, os.WriteFile(path, []byte(people), 0o644))
	res, err := h.OpenTable(context.Background(), mcp.CallToolRequest{}, OpenTableInput{Path: path})
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(res))
	out, ok := res.StructuredContent.(OpenTableOutput)
	require.True(t, ok)
	require.NotEmpty(t, out.TableID)
	return out.TableID
}

func resultText(res *mcp.CallToolResult) string {
	var parts []string
	for _, c := range res.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func TestOpenTable_Validation(t *testing.T) {
	h, dir := newHandlers(t)
	ctx := context.Background()

	res, err := h.OpenTable(ctx, mcp.CallToolRequest{}, OpenTableInput{})
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Contains(t, resultText(res), "VALIDATION: path is required")

	res, err = h.OpenTable(ctx, mcp.CallToolRequest{}, OpenTableInput{Path: filepath.Join(dir, "book.xlsx")})
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Contains(t, resultText(res), "UNSUPPORTED_FORMAT")

	res, err = h.OpenTable(ctx, mcp.CallToolRequest{}, OpenTableInput{Path: filepath.Join(os.TempDir(), "elsewhere", "x.csv")})
	require.NoError(t, err)
	require.True(t, res.IsError)
}

func TestInfoAndEdits(t *testing.T) {
	h, dir := newHandlers(t)
	ctx := context.Background()
	id := openPeople(t, h, dir)

	res, err := h.GetInfo(ctx, mcp.CallToolRequest{}, TableInput{TableID: id})
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Contains(t, resultText(res), "Table has 5 rows and columns: name, age, city")

	res, err = h.RemoveRow(ctx, mcp.CallToolRequest{}, RowInput{TableID: id, Row: "last"})
	require.NoError(t, err)
	require.Equal(t, "Row 4 removed: name=Eve, age=52, city=Pune", resultText(res))

	res, err = h.SetCell(ctx, mcp.CallToolRequest{}, SetCellInput{TableID: id, Row: "first", Column: "age", Value: "31"})
	require.NoError(t, err)
	require.Equal(t, "Value set at row 0, column 'age' to '31'.", resultText(res))

	res, err = h.AddRow(ctx, mcp.CallToolRequest{}, AddRowInput{TableID: id, Values: "name=Fay, age=60"})
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(res))

	res, err = h.SetRow(ctx, mcp.CallToolRequest{}, SetRowInput{TableID: id, Row: "1", Values: "city=Bern"})
	require.NoError(t, err)
	require.Equal(t, "Row 1 updated: city=Bern", resultText(res))

	res, err = h.AddColumn(ctx, mcp.CallToolRequest{}, AddColumnInput{TableID: id, Spec: "score with values=0"})
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(res))

	res, err = h.RemoveColumn(ctx, mcp.CallToolRequest{}, RemoveColumnInput{TableID: id, Column: "city"})
	require.NoError(t, err)
	require.Equal(t, "Column 'city' removed.", resultText(res))

	data, err := os.ReadFile(filepath.Join(dir, "people.csv"))
	require.NoError(t, err)
	require.Equal(t, "name,age,score\nAnn,31,0\nBob,25,0\nCid,41,0\nDee,19,0\nFay,60,0\n", string(data))
}

func TestEditErrorsCarryCodes(t *testing.T) {
	h, dir := newHandlers(t)
	ctx := context.Background()
	id := openPeople(t, h, dir)

	cases := []struct {
		name string
		call func() (*mcp.CallToolResult, error)
		code string
	}{
		{"bad row", func() (*mcp.CallToolResult, error) {
			return h.RemoveRow(ctx, mcp.CallToolRequest{}, RowInput{TableID: id, Row: "second"})
		}, "INVALID_ROW"},
		{"out of range", func() (*mcp.CallToolResult, error) {
			return h.RemoveRow(ctx, mcp.CallToolRequest{}, RowInput{TableID: id, Row: "9"})
		}, "ROW_OUT_OF_RANGE"},
		{"unknown column", func() (*mcp.CallToolResult, error) {
			return h.SetCell(ctx, mcp.CallToolRequest{}, SetCellInput{TableID: id, Row: "0", Column: "salary", Value: "1"})
		}, "UNKNOWN_COLUMN"},
		{"duplicate column", func() (*mcp.CallToolResult, error) {
			return h.AddColumn(ctx, mcp.CallToolRequest{}, AddColumnInput{TableID: id, Spec: "age"})
		}, "DUPLICATE_COLUMN"},
		{"unknown columns", func() (*mcp.CallToolResult, error) {
			return h.AddRow(ctx, mcp.CallToolRequest{}, AddRowInput{TableID: id, Values: "nme=Zed"})
		}, "UNKNOWN_COLUMNS"},
		{"unknown handle", func() (*mcp.CallToolResult, error) {
			return h.GetInfo(ctx, mcp.CallToolRequest{}, TableInput{TableID: "nope"})
		}, "INVALID_HANDLE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := tc.call()
			require.NoError(t, err)
			require.True(t, res.IsError)
			require.True(t, strings.HasPrefix(resultText(res), tc.code+":"), resultText(res))
		})
	}

	data, err := os.ReadFile(filepath.Join(dir, "people.csv"))
	require.NoError(t, err)
	require.Equal(t, people, string(data))
}

func TestWritesDisabled(t *testing.T) {
	h, dir := newHandlers(t)
	id := openPeople(t, h, dir)
	h.AllowWrites = false

	res, err := h.RemoveRow(context.Background(), mcp.CallToolRequest{}, RowInput{TableID: id, Row: "0"})
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Contains(t, resultText(res), "PERMISSION_DENIED")
}

func TestPreviewRows_CursorPaging(t *testing.T) {
	h, dir := newHandlers(t)
	ctx := context.Background()
	id := openPeople(t, h, dir)

	res, err := h.PreviewRows(ctx, mcp.CallToolRequest{}, PreviewRowsInput{TableID: id, Rows: 2})
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(res))
	first := res.StructuredContent.(PreviewRowsOutput)
	require.Equal(t, [][]string{{"Ann", "30", "Oslo"}, {"Bob", "25", "Rome"}}, first.Rows)
	require.Equal(t, 5, first.Meta.Total)
	require.True(t, first.Meta.Truncated)
	require.NotEmpty(t, first.Meta.NextCursor)
	require.Contains(t, resultText(res), "rows 0-2 of 5")

	res, err = h.PreviewRows(ctx, mcp.CallToolRequest{}, PreviewRowsInput{Cursor: first.Meta.NextCursor})
	require.NoError(t, err)
	second := res.StructuredContent.(PreviewRowsOutput)
	require.Equal(t, 2, second.Meta.Offset)
	require.Equal(t, "Cid", second.Rows[0][0])
	require.Contains(t, resultText(res), "2  Cid")

	// an edit invalidates outstanding cursors
	res, err = h.SetCell(ctx, mcp.CallToolRequest{}, SetCellInput{TableID: id, Row: "0", Column: "age", Value: "1"})
	require.NoError(t, err)
	require.False(t, res.IsError)

	res, err = h.PreviewRows(ctx, mcp.CallToolRequest{}, PreviewRowsInput{Cursor: second.Meta.NextCursor})
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Contains(t, resultText(res), "CURSOR_INVALID")

	res, err = h.PreviewRows(ctx, mcp.CallToolRequest{}, PreviewRowsInput{TableID: "other", Cursor: first.Meta.NextCursor})
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Contains(t, resultText(res), "different table")
}

func TestPreviewRows_LastPageHasNoCursor(t *testing.T) {
	h, dir := newHandlers(t)
	id := openPeople(t, h, dir)

	res, err := h.PreviewRows(context.Background(), mcp.CallToolRequest{}, PreviewRowsInput{TableID: id})
	require.NoError(t, err)
	out := res.StructuredContent.(PreviewRowsOutput)
	require.Len(t, out.Rows, 5)
	require.False(t, out.Meta.Truncated)
	require.Empty(t, out.Meta.NextCursor)
}

func TestProfileTable(t *testing.T) {
	h, dir := newHandlers(t)
	id := openPeople(t, h, dir)

	res, err := h.ProfileTable(context.Background(), mcp.CallToolRequest{}, TableInput{TableID: id})
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(res))
	out := res.StructuredContent.(insights.ProfileOutput)
	require.Equal(t, 5, out.Rows)
	require.Len(t, out.Columns, 3)
}

func TestImportFile(t *testing.T) {
	h, dir := newHandlers(t)
	ctx := context.Background()
	id := openPeople(t, h, dir)

	src := filepath.Join(dir, "upload.csv")
	require.NoError(t, os.WriteFile(src, []byte("sku,qty\nA1,3\n"), 0o644))

	res, err := h.ImportFile(ctx, mcp.CallToolRequest{}, ImportFileInput{TableID: id, Path: src})
	require.NoError(t, err)
	require.Equal(t, "Loaded table with 1 rows and columns: sku, qty", resultText(res))

	res, err = h.ImportFile(ctx, mcp.CallToolRequest{}, ImportFileInput{TableID: id, Path: filepath.Join(dir, "missing.csv")})
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Contains(t, resultText(res), "OPEN_FAILED")
}

func TestCloseTable(t *testing.T) {
	h, dir := newHandlers(t)
	ctx := context.Background()
	id := openPeople(t, h, dir)

	res, err := h.CloseTable(ctx, mcp.CallToolRequest{}, TableInput{TableID: id})
	require.NoError(t, err)
	require.False(t, res.IsError)

	res, err = h.CloseTable(ctx, mcp.CallToolRequest{}, TableInput{TableID: id})
	require.NoError(t, err)
	require.Contains(t, resultText(res), "INVALID_HANDLE")
}

func TestConcentration(t *testing.T) {
	h, dir := newHandlers(t)
	ctx := context.Background()
	path := filepath.Join(dir, "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte("product,value\nA,80\nB,20\n"), 0o644))
	res, err := h.OpenTable(ctx, mcp.CallToolRequest{}, OpenTableInput{Path: path})
	require.NoError(t, err)
	id := res.StructuredContent.(OpenTableOutput).TableID

	res, err = h.Concentration(ctx, mcp.CallToolRequest{}, ConcentrationInput{TableID: id, Dimension: "product", Measure: "value"})
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(res))
	out := res.StructuredContent.(insights.ConcentrationOutput)
	require.Equal(t, "highly_concentrated", out.Band)
	require.Contains(t, resultText(res), "- A: 80.0%")

	res, err = h.Concentration(ctx, mcp.CallToolRequest{}, ConcentrationInput{TableID: id, Dimension: "region", Measure: "value"})
	require.NoError(t, err)
	require.Contains(t, resultText(res), "UNKNOWN_COLUMN")
}
