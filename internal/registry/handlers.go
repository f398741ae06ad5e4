package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"github.com/vinodismyname/mcpcsv/internal/editor"
	"github.com/vinodismyname/mcpcsv/internal/insights"
	"github.com/vinodismyname/mcpcsv/internal/runtime"
	"github.com/vinodismyname/mcpcsv/internal/security"
	"github.com/vinodismyname/mcpcsv/internal/sessions"
	"github.com/vinodismyname/mcpcsv/internal/table"
	"github.com/vinodismyname/mcpcsv/pkg/instruction"
	"github.com/vinodismyname/mcpcsv/pkg/mcperr"
	"github.com/vinodismyname/mcpcsv/pkg/pagination"
	"github.com/vinodismyname/mcpcsv/pkg/validation"
)

// --- Input / Output Schemas (typed for discovery) ---

// OpenTableInput defines parameters for opening a table.
type OpenTableInput struct {
	Path string `json:"path" validate:"required,table_ext" jsonschema_description:"Path to a .csv working table inside an allowed directory"`
}

// OpenTableOutput documents the response fields for open_table.
type OpenTableOutput struct {
	TableID         string `json:"table_id" jsonschema_description:"Server-assigned table handle ID"`
	Path            string `json:"path" jsonschema_description:"Canonical path of the working file"`
	MaxPayloadBytes int    `json:"maxPayloadBytes" jsonschema_description:"Effective payload size limit in bytes"`
	PreviewRowLimit int    `json:"previewRowLimit" jsonschema_description:"Default row limit for previews"`
}

// TableInput addresses an open table.
type TableInput struct {
	TableID string `json:"table_id" validate:"required" jsonschema_description:"Table handle ID"`
}

// CloseTableOutput documents the response fields for close_table.
type CloseTableOutput struct {
	Success bool `json:"success" jsonschema_description:"True when the handle was closed"`
}

// RemoveColumnInput defines parameters for remove_column.
type RemoveColumnInput struct {
	TableID string `json:"table_id" validate:"required"`
	Column  string `json:"column" validate:"required"`
}

// RowInput defines parameters for remove_row.
type RowInput struct {
	TableID string `json:"table_id" validate:"required"`
	Row     string `json:"row" validate:"required,rowspec"`
}

// AddColumnInput defines parameters for add_column.
type AddColumnInput struct {
	TableID string `json:"table_id" validate:"required"`
	Spec    string `json:"spec" validate:"required"`
}

// AddRowInput defines parameters for add_row.
type AddRowInput struct {
	TableID string `json:"table_id" validate:"required"`
	Values  string `json:"values" validate:"required"`
}

// SetCellInput defines parameters for set_cell.
type SetCellInput struct {
	TableID string `json:"table_id" validate:"required"`
	Row     string `json:"row" validate:"required,rowspec"`
	Column  string `json:"column" validate:"required"`
	Value   string `json:"value"`
}

// SetRowInput defines parameters for set_row.
type SetRowInput struct {
	TableID string `json:"table_id" validate:"required"`
	Row     string `json:"row" validate:"required,rowspec"`
	Values  string `json:"values" validate:"required"`
}

// PreviewRowsInput defines parameters for preview_rows. A cursor carries the
// table ID, offset and page size of the next page.
type PreviewRowsInput struct {
	TableID string `json:"table_id" validate:"required_without=Cursor"`
	Rows    int    `json:"rows" validate:"omitempty,min=1"`
	Cursor  string `json:"cursor" validate:"omitempty,cursor"`
}

// PageMeta captures paging/truncation metadata.
type PageMeta struct {
	Total      int    `json:"total"`
	Offset     int    `json:"offset"`
	Returned   int    `json:"returned"`
	Truncated  bool   `json:"truncated"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// PreviewRowsOutput documents preview_rows results.
type PreviewRowsOutput struct {
	TableID string     `json:"table_id"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Meta    PageMeta   `json:"meta"`
}

// ImportFileInput defines parameters for import_file.
type ImportFileInput struct {
	TableID string `json:"table_id" validate:"required"`
	Path    string `json:"path" validate:"required,table_ext"`
}

// ConcentrationInput defines parameters for concentration.
type ConcentrationInput struct {
	TableID   string `json:"table_id" validate:"required"`
	Dimension string `json:"dimension" validate:"required"`
	Measure   string `json:"measure" validate:"required"`
	TopN      int    `json:"top_n" validate:"omitempty,min=1,max=50"`
}

var (
	errStaleCursor    = errors.New("cursor no longer matches table version")
	errWritesDisabled = errors.New("table edits are disabled on this server")
)

// Handlers implements the table tools over a session manager.
type Handlers struct {
	Sessions    *sessions.Manager
	Security    *security.Manager
	Limits      runtime.Limits
	AllowWrites bool
	Logger      zerolog.Logger
}

// OpenTable registers a handle for a working CSV file.
func (h *Handlers) OpenTable(ctx context.Context, req mcp.CallToolRequest, in OpenTableInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg), nil
	}
	id, err := h.Sessions.Open(ctx, in.Path)
	if err != nil {
		h.Logger.Warn().Err(err).Str("path", in.Path).Msg("open_table failed")
		return toolError(err, mcperr.OpenFailed), nil
	}
	hd, ok := h.Sessions.Get(id)
	if !ok {
		return toolError(sessions.ErrHandleNotFound, mcperr.InvalidHandle), nil
	}
	out := OpenTableOutput{
		TableID:         id,
		Path:            hd.Editor.Path(),
		MaxPayloadBytes: h.Limits.MaxPayloadBytes,
		PreviewRowLimit: h.Limits.PreviewRowLimit,
	}
	return mcp.NewToolResultStructured(out, fmt.Sprintf("table_id=%s path=%s", out.TableID, out.Path)), nil
}

// CloseTable releases a handle.
func (h *Handlers) CloseTable(ctx context.Context, req mcp.CallToolRequest, in TableInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg), nil
	}
	if err := h.Sessions.CloseHandle(ctx, in.TableID); err != nil {
		return toolError(err, mcperr.InvalidHandle), nil
	}
	return mcp.NewToolResultStructured(CloseTableOutput{Success: true}, "closed "+in.TableID), nil
}

// GetInfo returns the row count, the columns and a short preview.
func (h *Handlers) GetInfo(ctx context.Context, req mcp.CallToolRequest, in TableInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg), nil
	}
	var text string
	err := h.Sessions.WithRead(in.TableID, func(ed *editor.Editor, _ int64) error {
		var err error
		text, err = ed.Info()
		return err
	})
	if err != nil {
		return toolError(err, mcperr.StorageUnavailable), nil
	}
	return mcp.NewToolResultText(text), nil
}

// RemoveColumn drops one column.
func (h *Handlers) RemoveColumn(ctx context.Context, req mcp.CallToolRequest, in RemoveColumnInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg), nil
	}
	return h.write(in.TableID, "remove_column", func(ed *editor.Editor) (string, error) {
		return ed.RemoveColumn(in.Column)
	}), nil
}

// RemoveRow deletes one row.
func (h *Handlers) RemoveRow(ctx context.Context, req mcp.CallToolRequest, in RowInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg), nil
	}
	return h.write(in.TableID, "remove_row", func(ed *editor.Editor) (string, error) {
		return ed.RemoveRow(in.Row)
	}), nil
}

// AddColumn appends a column, optionally filled with a default.
func (h *Handlers) AddColumn(ctx context.Context, req mcp.CallToolRequest, in AddColumnInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg), nil
	}
	return h.write(in.TableID, "add_column", func(ed *editor.Editor) (string, error) {
		return ed.AddColumn(in.Spec)
	}), nil
}

// AddRow appends a row given as "k=v, k2=v2".
func (h *Handlers) AddRow(ctx context.Context, req mcp.CallToolRequest, in AddRowInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg), nil
	}
	return h.write(in.TableID, "add_row", func(ed *editor.Editor) (string, error) {
		return ed.AddRow(instruction.ParseKeyValue(in.Values))
	}), nil
}

// SetCell overwrites one cell.
func (h *Handlers) SetCell(ctx context.Context, req mcp.CallToolRequest, in SetCellInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg), nil
	}
	return h.write(in.TableID, "set_cell", func(ed *editor.Editor) (string, error) {
		return ed.SetCell(in.Row, in.Column, in.Value)
	}), nil
}

// SetRow overwrites several cells of one row.
func (h *Handlers) SetRow(ctx context.Context, req mcp.CallToolRequest, in SetRowInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg), nil
	}
	return h.write(in.TableID, "set_row", func(ed *editor.Editor) (string, error) {
		return ed.SetRow(in.Row, instruction.ParseKeyValue(in.Values))
	}), nil
}

// ImportFile replaces the table with the contents of a CSV or workbook file.
func (h *Handlers) ImportFile(ctx context.Context, req mcp.CallToolRequest, in ImportFileInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg), nil
	}
	src := in.Path
	if h.Security != nil {
		real, err := h.Security.ValidateOpenPath(in.Path)
		if err != nil {
			return toolError(err, mcperr.OpenFailed), nil
		}
		src = real
	}
	return h.write(in.TableID, "import_file", func(ed *editor.Editor) (string, error) {
		return ed.Import(src)
	}), nil
}

// PreviewRows returns one page of rows. Cursors are bound to the table's write
// version, so any edit between pages invalidates them.
func (h *Handlers) PreviewRows(ctx context.Context, req mcp.CallToolRequest, in PreviewRowsInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg), nil
	}
	id, offset, size := in.TableID, 0, in.Rows
	var cur *pagination.Cursor
	if strings.TrimSpace(in.Cursor) != "" {
		c, err := pagination.DecodeCursor(in.Cursor)
		if err != nil {
			return mcperr.New(mcperr.CursorInvalid, err.Error()), nil
		}
		if id != "" && id != c.Tid {
			return mcperr.New(mcperr.CursorInvalid, "cursor belongs to a different table"), nil
		}
		cur, id, offset, size = c, c.Tid, c.Off, c.Ps
	}
	if size <= 0 {
		size = h.Limits.PreviewRowLimit
	}
	if h.Limits.MaxPreviewRows > 0 {
		size = min(size, h.Limits.MaxPreviewRows)
	}

	var (
		out  PreviewRowsOutput
		page editor.Page
	)
	err := h.Sessions.WithRead(id, func(ed *editor.Editor, version int64) error {
		if cur != nil && cur.Ver != version {
			return errStaleCursor
		}
		var err error
		page, err = ed.Rows(offset, size)
		if err != nil {
			return err
		}
		out = PreviewRowsOutput{
			TableID: id,
			Columns: page.Columns,
			Rows:    page.Rows,
			Meta:    PageMeta{Total: page.Total, Offset: offset, Returned: len(page.Rows)},
		}
		if next := pagination.NextOffset(offset, len(page.Rows)); next < page.Total {
			tok, err := pagination.EncodeCursor(pagination.Cursor{Tid: id, Off: next, Ps: size, Ver: version})
			if err != nil {
				return err
			}
			out.Meta.Truncated = true
			out.Meta.NextCursor = tok
		}
		return nil
	})
	if err != nil {
		return toolError(err, mcperr.StorageUnavailable), nil
	}

	summary := fmt.Sprintf("rows %d-%d of %d", offset, offset+out.Meta.Returned, out.Meta.Total)
	if out.Meta.NextCursor != "" {
		summary += " nextCursor=" + out.Meta.NextCursor
	}
	res := mcp.NewToolResultStructured(out, summary)
	res.Content = []mcp.Content{mcp.NewTextContent(summary + "\n" + page.String())}
	return res, nil
}

// ProfileTable infers column types and roles and flags data quality issues.
func (h *Handlers) ProfileTable(ctx context.Context, req mcp.CallToolRequest, in TableInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg), nil
	}
	var out insights.ProfileOutput
	err := h.Sessions.WithRead(in.TableID, func(ed *editor.Editor, _ int64) error {
		t, err := ed.Snapshot()
		if err != nil {
			return err
		}
		out = insights.Profile(t)
		return nil
	})
	if err != nil {
		return toolError(err, mcperr.AnalysisFailed), nil
	}
	return mcp.NewToolResultStructured(out, out.Summary()), nil
}

// Concentration reports Top-N shares and the HHI of a measure by dimension.
func (h *Handlers) Concentration(ctx context.Context, req mcp.CallToolRequest, in ConcentrationInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg), nil
	}
	var out insights.ConcentrationOutput
	err := h.Sessions.WithRead(in.TableID, func(ed *editor.Editor, _ int64) error {
		t, err := ed.Snapshot()
		if err != nil {
			return err
		}
		out, err = insights.Concentration(t, in.Dimension, in.Measure, in.TopN, ed.Policy())
		return err
	})
	if err != nil {
		return toolError(err, mcperr.AnalysisFailed), nil
	}
	return mcp.NewToolResultStructured(out, out.Summary()), nil
}

func (h *Handlers) write(id, op string, fn func(ed *editor.Editor) (string, error)) *mcp.CallToolResult {
	if !h.AllowWrites {
		return mcperr.New(mcperr.PermissionDenied, errWritesDisabled.Error()+"; set MCPCSV_ENABLE_WRITES=true")
	}
	var msg string
	err := h.Sessions.WithWrite(id, func(ed *editor.Editor) error {
		var err error
		msg, err = fn(ed)
		return err
	})
	if err != nil {
		h.Logger.Debug().Err(err).Str("op", op).Str("table_id", id).Msg("table edit rejected")
		return toolError(err, mcperr.StorageUnavailable)
	}
	return mcp.NewToolResultText(msg)
}

// toolError maps internal failures onto catalog codes. fallback is used for
// errors with no better classification.
func toolError(err error, fallback mcperr.Code) *mcp.CallToolResult {
	switch {
	case errors.Is(err, sessions.ErrHandleNotFound):
		return mcperr.New(mcperr.InvalidHandle, "")
	case errors.Is(err, errStaleCursor):
		return mcperr.New(mcperr.CursorInvalid, err.Error())
	case errors.Is(err, runtime.ErrTooManyTables):
		return mcperr.New(mcperr.LimitExceeded, "too many open tables")
	case errors.Is(err, context.DeadlineExceeded):
		return mcperr.New(mcperr.Timeout, "")
	case errors.Is(err, security.ErrNotAllowed):
		return mcperr.New(mcperr.PermissionDenied, "")
	case errors.Is(err, security.ErrUnsupportedExtension), errors.Is(err, table.ErrUnsupportedFormat):
		return mcperr.New(mcperr.UnsupportedFormat, err.Error())
	case errors.Is(err, security.ErrNotFound):
		return mcperr.New(mcperr.OpenFailed, "file not found")
	}
	if code := table.CodeOf(err); code != "" {
		return mcperr.New(mcperr.Code(code), err.Error())
	}
	return mcperr.New(fallback, err.Error())
}
