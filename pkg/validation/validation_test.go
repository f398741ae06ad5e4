package validation

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vinodismyname/mcpcsv/pkg/pagination"
)

type openInput struct {
	Path string `validate:"required,table_ext"`
}

type rowInput struct {
	TableID string `validate:"required"`
	Row     string `validate:"required,rowspec"`
}

type pageInput struct {
	TableID string `json:"table_id" validate:"required_without=Cursor"`
	Rows    int    `json:"rows" validate:"omitempty,min=1,max=500"`
	Cursor  string `json:"cursor" validate:"omitempty,cursor"`
}

func TestValidateStruct_TableExt(t *testing.T) {
	require.Empty(t, ValidateStruct(openInput{Path: "/data/people.CSV"}))
	require.Empty(t, ValidateStruct(openInput{Path: "book.xlsx"}))
	require.Equal(t, "VALIDATION: path is required", ValidateStruct(openInput{}))
	require.Equal(t, "VALIDATION: path must be a table file (.csv, .xlsx, .xlsm)", ValidateStruct(openInput{Path: "notes.txt"}))
}

func TestValidateStruct_RowSpec(t *testing.T) {
	require.Empty(t, ValidateStruct(rowInput{TableID: "t", Row: "Last"}))
	require.Empty(t, ValidateStruct(rowInput{TableID: "t", Row: "12"}))
	require.Equal(t, "INVALID_ROW: Invalid row specifier 'second'. Use a number, 'first', or 'last'.", ValidateStruct(rowInput{TableID: "t", Row: "second"}))
	require.Equal(t, "VALIDATION: tableid is required", ValidateStruct(rowInput{Row: "1"}))
}

func TestValidateStruct_Cursor(t *testing.T) {
	tok, err := pagination.EncodeCursor(pagination.Cursor{Tid: "t", Ps: 10})
	require.NoError(t, err)
	require.Empty(t, ValidateStruct(pageInput{Cursor: tok}))
	require.Empty(t, ValidateStruct(pageInput{TableID: "t"}))
	require.Equal(t, "VALIDATION: table_id is required (or supply cursor)", ValidateStruct(pageInput{}))
	require.Contains(t, ValidateStruct(pageInput{Cursor: "%%%"}), "CURSOR_INVALID")
	require.Equal(t, "VALIDATION: rows must satisfy max=500", ValidateStruct(pageInput{TableID: "t", Rows: 501}))
}
