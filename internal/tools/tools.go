// Package tools adapts table operations to langchaingo's string-in,
// string-out tool interface.
package tools

import (
	"context"
	"strings"

	lctools "github.com/tmc/langchaingo/tools"

	"github.com/vinodismyname/mcpcsv/internal/table"
	"github.com/vinodismyname/mcpcsv/pkg/instruction"
)

// Editor is the subset of *editor.Editor the tools drive.
type Editor interface {
	Info() (string, error)
	RemoveColumn(name string) (string, error)
	RemoveRow(spec string) (string, error)
	AddColumn(spec string) (string, error)
	AddRow(payload map[string]string) (string, error)
	SetCell(row, column, value string) (string, error)
	SetRow(row string, payload map[string]string) (string, error)
}

// Tool is one named table operation.
type Tool struct {
	name        string
	description string
	call        func(input string) (string, error)
}

var _ lctools.Tool = Tool{}

// Name returns the tool name the agent uses in its Action line.
func (t Tool) Name() string { return t.name }

// Description tells the agent what the tool does and how to format its input.
func (t Tool) Description() string { return t.description }

// Call runs the operation. Table failures come back as the message text with
// a nil error so the agent can read them and correct its next action.
func (t Tool) Call(ctx context.Context, input string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	out, err := t.call(unquote(strings.TrimSpace(input)))
	if err != nil {
		if table.CodeOf(err) != "" {
			return err.Error(), nil
		}
		return "Error: " + err.Error(), nil
	}
	return out, nil
}

// New returns one tool per table operation, all bound to ed.
func New(ed Editor) []lctools.Tool {
	return []lctools.Tool{
		Tool{
			name:        "GetCSVInfo",
			description: "Gets information about the CSV file including column names, number of rows, and a preview.",
			call:        func(string) (string, error) { return ed.Info() },
		},
		Tool{
			name:        "RemoveColumn",
			description: "Removes a column. Input is the column name (string).",
			call:        ed.RemoveColumn,
		},
		Tool{
			name:        "RemoveRow",
			description: "Removes a row. Input can be a row index (integer) or special values like 'last' or 'first'.",
			call:        ed.RemoveRow,
		},
		Tool{
			name:        "AddColumn",
			description: "Adds a new column. Input should be column name with optional default values (e.g., 'salary with values=50000').",
			call:        ed.AddColumn,
		},
		Tool{
			name:        "AddRow",
			description: "Adds a new row. Input is key=value pairs like 'name=John, age=30'. Keys must match column names.",
			call: func(in string) (string, error) {
				return ed.AddRow(instruction.ParseKeyValue(in))
			},
		},
		Tool{
			name:        "SetCellValue",
			description: "Sets a specific cell. Input: 'row_index/first/last, column_name, value'. Row can be numeric index or 'first'/'last'.",
			call: func(in string) (string, error) {
				row, col, val, err := instruction.SplitCellArgs(in)
				if err != nil {
					return "", table.Errorf(table.InvalidInput, "Invalid input '%s'. Use 'row, column, value', for example 'first, age, 31'.", in)
				}
				return ed.SetCell(row, col, val)
			},
		},
		Tool{
			name:        "SetRow",
			description: "Sets an entire row. Input: 'row_index/first/last: key=value, key2=value2'. Row can be numeric or 'first'/'last'.",
			call: func(in string) (string, error) {
				row, payload, err := instruction.SplitRowArgs(in)
				if err != nil {
					return "", table.Errorf(table.InvalidInput, "Invalid input '%s'. Use 'row: key=value, key2=value2', for example 'last: name=Ann, age=31'.", in)
				}
				return ed.SetRow(row, instruction.ParseKeyValue(payload))
			},
		},
	}
}

// unquote strips one pair of matching quotes agents sometimes put around
// their Action Input.
func unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	switch q := s[0]; q {
	case '"', '\'', '`':
		if s[len(s)-1] == q {
			return strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}
