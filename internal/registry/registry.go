package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/tmc/langchaingo/llms"
)

// ToolProvider resolves MCP tool definitions and associates runtime metadata.
type ToolProvider interface {
	Tools(context.Context) ([]mcp.Tool, error)
}

// Registry maintains tool definitions and remembers which of them mutate tables.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]mcp.Tool
	writes map[string]bool
}

// New constructs an empty Registry ready for tool population.
func New() *Registry {
	return &Registry{
		tools:  map[string]mcp.Tool{},
		writes: map[string]bool{},
	}
}

// Register stores a read-only tool definition for discovery.
func (r *Registry) Register(tool mcp.Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tools[tool.Name] = tool
}

// RegisterWrite stores a tool that modifies table files.
func (r *Registry) RegisterWrite(tool mcp.Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tools[tool.Name] = tool
	r.writes[tool.Name] = true
}

// IsWrite reports whether name was registered with RegisterWrite.
func (r *Registry) IsWrite(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.writes[name]
}

// Get returns a tool by name when present.
func (r *Registry) Get(name string) (mcp.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Tools returns a stable-sorted list of registered tool definitions.
func (r *Registry) Tools(ctx context.Context) ([]mcp.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]mcp.Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		tools = append(tools, tool)
	}

	sort.Slice(tools, func(i, j int) bool {
		return tools[i].Name < tools[j].Name
	})

	return tools, nil
}

// ModelContextSize exposes a model's context window as known to langchaingo.
func (r *Registry) ModelContextSize(modelName string) int {
	return llms.GetModelContextSize(modelName)
}
