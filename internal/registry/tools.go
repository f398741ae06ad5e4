package registry

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vinodismyname/mcpcsv/internal/insights"
)

const rowHelp = "Zero-based row index, or 'first' / 'last'"

// RegisterTableTools defines every table tool on s and records it in reg.
// Mutating tools are registered with RegisterWrite so WriteToolFilter can hide them.
func RegisterTableTools(s *server.MCPServer, reg *Registry, h *Handlers) {
	tableID := mcp.WithString("table_id", mcp.Required(), mcp.Description("Table handle ID from open_table"))

	openTool := mcp.NewTool(
		"open_table",
		mcp.WithDescription("Open a CSV working table and return a handle ID with effective limits. The file is created on the first edit if it does not exist yet."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to a .csv file inside an allowed directory")),
		mcp.WithOutputSchema[OpenTableOutput](),
	)
	s.AddTool(openTool, mcp.NewTypedToolHandler(h.OpenTable))
	reg.Register(openTool)

	closeTool := mcp.NewTool(
		"close_table",
		mcp.WithDescription("Close a previously opened table handle"),
		tableID,
		mcp.WithOutputSchema[CloseTableOutput](),
	)
	s.AddTool(closeTool, mcp.NewTypedToolHandler(h.CloseTable))
	reg.Register(closeTool)

	info := mcp.NewTool(
		"get_info",
		mcp.WithDescription("Gets information about the table including column names, number of rows, and a preview of the first rows."),
		tableID,
	)
	s.AddTool(info, mcp.NewTypedToolHandler(h.GetInfo))
	reg.Register(info)

	preview := mcp.NewTool(
		"preview_rows",
		mcp.WithDescription("Return a page of rows with a cursor for the next page. Any edit to the table invalidates outstanding cursors."),
		mcp.WithString("table_id", mcp.Description("Table handle ID (optional when cursor is supplied)")),
		mcp.WithNumber("rows", mcp.DefaultNumber(float64(h.Limits.PreviewRowLimit)), mcp.Min(1), mcp.Max(float64(h.Limits.MaxPreviewRows)), mcp.Description("Rows per page")),
		mcp.WithString("cursor", mcp.Description("nextCursor from a previous preview_rows call")),
		mcp.WithOutputSchema[PreviewRowsOutput](),
	)
	s.AddTool(preview, mcp.NewTypedToolHandler(h.PreviewRows))
	reg.Register(preview)

	profile := mcp.NewTool(
		"profile_table",
		mcp.WithDescription("Infer each column's type and role (id, target, measure, dimension), count missing values, and flag data quality issues such as negative amounts, mixed types, and duplicate IDs."),
		tableID,
	)
	s.AddTool(profile, mcp.NewTypedToolHandler(h.ProfileTable))
	reg.Register(profile)

	conc := mcp.NewTool(
		"concentration",
		mcp.WithDescription("Sum a numeric measure per value of a dimension column and report the Top-N shares plus the Herfindahl-Hirschman index with a concentration band."),
		tableID,
		mcp.WithString("dimension", mcp.Required(), mcp.Description("Grouping column")),
		mcp.WithString("measure", mcp.Required(), mcp.Description("Numeric column to sum")),
		mcp.WithNumber("top_n", mcp.DefaultNumber(5), mcp.Min(1), mcp.Max(50), mcp.Description("Groups to list before 'other'")),
		mcp.WithOutputSchema[insights.ConcentrationOutput](),
	)
	s.AddTool(conc, mcp.NewTypedToolHandler(h.Concentration))
	reg.Register(conc)

	removeColumn := mcp.NewTool(
		"remove_column",
		mcp.WithDescription("Removes a column. A partial name is accepted when it matches exactly one column."),
		tableID,
		mcp.WithString("column", mcp.Required(), mcp.Description("Column name")),
	)
	s.AddTool(removeColumn, mcp.NewTypedToolHandler(h.RemoveColumn))
	reg.RegisterWrite(removeColumn)

	removeRow := mcp.NewTool(
		"remove_row",
		mcp.WithDescription("Removes a row and echoes its values."),
		tableID,
		mcp.WithString("row", mcp.Required(), mcp.Description(rowHelp)),
	)
	s.AddTool(removeRow, mcp.NewTypedToolHandler(h.RemoveRow))
	reg.RegisterWrite(removeRow)

	addColumn := mcp.NewTool(
		"add_column",
		mcp.WithDescription("Adds a new column. Input is the column name with an optional default value (e.g., 'salary with values=50000')."),
		tableID,
		mcp.WithString("spec", mcp.Required(), mcp.Description("'<name>' or '<name> with values=<default>'")),
	)
	s.AddTool(addColumn, mcp.NewTypedToolHandler(h.AddColumn))
	reg.RegisterWrite(addColumn)

	addRow := mcp.NewTool(
		"add_row",
		mcp.WithDescription("Adds a new row. Keys must match column names exactly; missing columns are left empty."),
		tableID,
		mcp.WithString("values", mcp.Required(), mcp.Description("key=value pairs like 'name=John, age=30'")),
	)
	s.AddTool(addRow, mcp.NewTypedToolHandler(h.AddRow))
	reg.RegisterWrite(addRow)

	setCell := mcp.NewTool(
		"set_cell",
		mcp.WithDescription("Sets a specific cell. Numeric-looking values are stored as numbers."),
		tableID,
		mcp.WithString("row", mcp.Required(), mcp.Description(rowHelp)),
		mcp.WithString("column", mcp.Required(), mcp.Description("Column name")),
		mcp.WithString("value", mcp.Description("New cell value")),
	)
	s.AddTool(setCell, mcp.NewTypedToolHandler(h.SetCell))
	reg.RegisterWrite(setCell)

	setRow := mcp.NewTool(
		"set_row",
		mcp.WithDescription("Sets several cells of one row. Columns not named keep their values."),
		tableID,
		mcp.WithString("row", mcp.Required(), mcp.Description(rowHelp)),
		mcp.WithString("values", mcp.Required(), mcp.Description("key=value pairs like 'name=John, age=30'")),
	)
	s.AddTool(setRow, mcp.NewTypedToolHandler(h.SetRow))
	reg.RegisterWrite(setRow)

	importFile := mcp.NewTool(
		"import_file",
		mcp.WithDescription("Replace the table with the contents of a .csv file or the first sheet of an .xlsx workbook."),
		tableID,
		mcp.WithString("path", mcp.Required(), mcp.Description("Source file inside an allowed directory")),
	)
	s.AddTool(importFile, mcp.NewTypedToolHandler(h.ImportFile))
	reg.RegisterWrite(importFile)
}
