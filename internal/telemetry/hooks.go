package telemetry

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
)

// Hooks logs server lifecycle, tool calls and chat turns.
// Metrics backends can be added later under this package.
type Hooks struct {
	logger zerolog.Logger
}

// NewHooks constructs a Hooks instance with the provided logger.
func NewHooks(logger zerolog.Logger) *Hooks {
	return &Hooks{logger: logger}
}

// OnSessionStart records the start of a client session.
func (h *Hooks) OnSessionStart(sessionID string) {
	h.logger.Info().Str("session_id", sessionID).Msg("session started")
}

// OnSessionEnd records the end of a client session.
func (h *Hooks) OnSessionEnd(sessionID string) {
	h.logger.Info().Str("session_id", sessionID).Msg("session ended")
}

// OnToolCall logs tool invocations and their outcomes. failed marks calls
// that returned a tool error result rather than a Go error.
func (h *Hooks) OnToolCall(sessionID, toolName string, duration time.Duration, failed bool, err error) {
	if err != nil || failed {
		evt := h.logger.Warn()
		if err != nil {
			evt = h.logger.Error().Err(err)
		}
		evt.Str("session_id", sessionID).Str("tool", toolName).Dur("duration", duration).Msg("tool call error")
		return
	}
	h.logger.Info().Str("session_id", sessionID).Str("tool", toolName).Dur("duration", duration).Msg("tool call completed")
}

// OnAgentTurn logs one question/answer exchange of the chat agent.
func (h *Hooks) OnAgentTurn(input string, duration time.Duration, err error) {
	if err != nil {
		h.logger.Error().Int("input_len", len(input)).Dur("duration", duration).Err(err).Msg("agent turn failed")
		return
	}
	h.logger.Info().Int("input_len", len(input)).Dur("duration", duration).Msg("agent turn completed")
}

// ServerHooks adapts h to mcp-go server lifecycle hooks.
func (h *Hooks) ServerHooks() *server.Hooks {
	hooks := &server.Hooks{}

	hooks.AddOnRegisterSession(func(ctx context.Context, session server.ClientSession) {
		h.OnSessionStart(session.SessionID())
	})
	hooks.AddOnUnregisterSession(func(ctx context.Context, session server.ClientSession) {
		h.OnSessionEnd(session.SessionID())
	})
	hooks.AddAfterListTools(func(ctx context.Context, id any, req *mcp.ListToolsRequest, res *mcp.ListToolsResult) {
		h.logger.Info().Int("tools", len(res.Tools)).Msg("list_tools served")
	})
	hooks.AddOnError(func(ctx context.Context, id any, method mcp.MCPMethod, message any, err error) {
		h.logger.Error().Str("method", string(method)).Err(err).Msg("request error")
	})
	return hooks
}

// ToolMiddleware times each tool handler and reports it through OnToolCall.
func (h *Hooks) ToolMiddleware(next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		res, err := next(ctx, req)
		h.OnToolCall(sessionID(ctx), req.Params.Name, time.Since(start), res != nil && res.IsError, err)
		return res, err
	}
}

func sessionID(ctx context.Context) string {
	if s := server.ClientSessionFromContext(ctx); s != nil {
		return s.SessionID()
	}
	return ""
}
