package mcperr

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Code defines a canonical MCP error code used across tools.
type Code string

const (
	// Validation & Input
	Validation    Code = "VALIDATION"
	InvalidHandle Code = "INVALID_HANDLE"
	CursorInvalid Code = "CURSOR_INVALID"
	InvalidInput  Code = "INVALID_INPUT"

	// Addressing
	InvalidRow      Code = "INVALID_ROW"
	RowOutOfRange   Code = "ROW_OUT_OF_RANGE"
	UnknownColumn   Code = "UNKNOWN_COLUMN"
	AmbiguousColumn Code = "AMBIGUOUS_COLUMN"
	DuplicateColumn Code = "DUPLICATE_COLUMN"
	UnknownColumns  Code = "UNKNOWN_COLUMNS"

	// Resource & Limits
	BusyResource    Code = "BUSY_RESOURCE"
	Timeout         Code = "TIMEOUT"
	LimitExceeded   Code = "LIMIT_EXCEEDED"
	PayloadTooLarge Code = "PAYLOAD_TOO_LARGE"

	// IO & Formats
	OpenFailed         Code = "OPEN_FAILED"
	StorageUnavailable Code = "STORAGE_UNAVAILABLE"
	UnsupportedFormat  Code = "UNSUPPORTED_FORMAT"
	PermissionDenied   Code = "PERMISSION_DENIED"
	AnalysisFailed     Code = "ANALYSIS_FAILED"
)

// Entry documents a code's standard message, retry semantics, and next steps.
type Entry struct {
	Code      Code
	Message   string
	Retryable bool
	NextSteps []string
}

// catalog maps canonical codes to guidance. Messages can be overridden per error.
var catalog = map[Code]Entry{
	Validation:    {Code: Validation, Message: "invalid inputs", Retryable: true, NextSteps: []string{"Correct the inputs per schema and retry"}},
	InvalidHandle: {Code: InvalidHandle, Message: "table handle not found or expired", Retryable: true, NextSteps: []string{"Reopen the table via open_table and retry"}},
	CursorInvalid: {Code: CursorInvalid, Message: "cursor is invalid for current table state", Retryable: true, NextSteps: []string{"Restart pagination from the first page", "Avoid edits between pages"}},
	InvalidInput:  {Code: InvalidInput, Message: "malformed argument", Retryable: true, NextSteps: []string{"Follow the argument syntax in the tool description"}},

	InvalidRow:      {Code: InvalidRow, Message: "invalid row specifier", Retryable: true, NextSteps: []string{"Use a zero-based number, 'first', or 'last'"}},
	RowOutOfRange:   {Code: RowOutOfRange, Message: "row index out of range", Retryable: true, NextSteps: []string{"Call get_info to check the row count"}},
	UnknownColumn:   {Code: UnknownColumn, Message: "column does not exist", Retryable: true, NextSteps: []string{"Pick one of the listed columns"}},
	AmbiguousColumn: {Code: AmbiguousColumn, Message: "column name is ambiguous", Retryable: true, NextSteps: []string{"Use the full column name"}},
	DuplicateColumn: {Code: DuplicateColumn, Message: "column already exists", Retryable: false, NextSteps: []string{"Choose a different name or use set_cell/set_row"}},
	UnknownColumns:  {Code: UnknownColumns, Message: "row references unknown columns", Retryable: true, NextSteps: []string{"Remove the unknown keys or add the columns first"}},

	BusyResource:    {Code: BusyResource, Message: "concurrent request limit reached", Retryable: true, NextSteps: []string{"Retry after a short delay"}},
	Timeout:         {Code: Timeout, Message: "operation exceeded configured time limit", Retryable: true, NextSteps: []string{"Retry; large tables take longer to rewrite"}},
	LimitExceeded:   {Code: LimitExceeded, Message: "operation exceeded configured limits", Retryable: true, NextSteps: []string{"Close unused tables or lower the page size"}},
	PayloadTooLarge: {Code: PayloadTooLarge, Message: "payload exceeds configured size", Retryable: true, NextSteps: []string{"Split the edit into smaller calls"}},

	OpenFailed:         {Code: OpenFailed, Message: "failed to open table", Retryable: true, NextSteps: []string{"Verify path, permissions, and format"}},
	StorageUnavailable: {Code: StorageUnavailable, Message: "table storage unavailable", Retryable: true, NextSteps: []string{"Check disk space and permissions", "Call get_info to see what was persisted"}},
	UnsupportedFormat:  {Code: UnsupportedFormat, Message: "unsupported file format", Retryable: false, NextSteps: []string{"Use a .csv working table; import .xlsx via import_file"}},
	PermissionDenied:   {Code: PermissionDenied, Message: "insufficient permissions to access path", Retryable: false, NextSteps: []string{"Choose a path inside an allowed directory"}},
	AnalysisFailed:     {Code: AnalysisFailed, Message: "analysis failed", Retryable: true, NextSteps: []string{"Retry with a smaller table"}},
}

// Lookup returns the catalog entry for code.
func Lookup(code Code) (Entry, bool) {
	e, ok := catalog[code]
	return e, ok
}

// normalize builds a standard error string including next steps for MCP clients that
// surface only a message string. Format: "CODE: message" followed by a guidance tail.
func normalize(code Code, msg string) string {
	base := strings.TrimSpace(msg)
	e, ok := catalog[code]
	if !ok {
		if base == "" {
			return string(code)
		}
		return fmt.Sprintf("%s: %s", string(code), base)
	}
	if base == "" {
		base = e.Message
	}
	guidance := ""
	if len(e.NextSteps) > 0 {
		guidance = " | nextSteps: " + strings.Join(e.NextSteps, "; ")
	}
	return fmt.Sprintf("%s: %s%s", e.Code, base, guidance)
}

// FromText parses a "CODE: message" string, enriches it with catalog guidance,
// and returns an MCP tool error result.
func FromText(text string) *mcp.CallToolResult {
	t := strings.TrimSpace(text)
	if t == "" {
		return mcp.NewToolResultError(normalize(Validation, ""))
	}
	code, msg, _ := strings.Cut(t, ":")
	return mcp.NewToolResultError(normalize(Code(strings.TrimSpace(code)), strings.TrimSpace(msg)))
}

// New returns an MCP error result for a given code and optional message override.
func New(code Code, message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(normalize(code, message))
}

// Wrapf formats details and returns an MCP error result for the code.
func Wrapf(code Code, format string, args ...any) *mcp.CallToolResult {
	return mcp.NewToolResultError(normalize(code, fmt.Sprintf(format, args...)))
}
