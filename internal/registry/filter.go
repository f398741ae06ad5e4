package registry

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// WriteToolFilter conditionally hides table-mutating tools unless explicitly enabled.
// Enable by setting environment variable MCPCSV_ENABLE_WRITES=true.
type WriteToolFilter struct {
	allowWrites bool
	reg         *Registry
}

// NewWriteToolFilter constructs a filter that consults reg for write tools.
func NewWriteToolFilter(reg *Registry, allowWrites bool) *WriteToolFilter {
	return &WriteToolFilter{allowWrites: allowWrites, reg: reg}
}

// FilterTools implements server tool filtering semantics.
// When writes are disabled, tools registered via RegisterWrite are excluded from discovery.
func (f *WriteToolFilter) FilterTools(ctx context.Context, tools []mcp.Tool) []mcp.Tool {
	if f.allowWrites {
		return tools
	}
	out := make([]mcp.Tool, 0, len(tools))
	for _, t := range tools {
		if f.reg.IsWrite(t.Name) {
			continue
		}
		out = append(out, t)
	}
	return out
}
