package runtime

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vinodismyname/mcpcsv/pkg/mcperr"
)

// Middleware enforces runtime limits for tool calls using the Controller.
// It bounds global concurrency, rejects oversized arguments and applies an
// operation timeout to each call.
type Middleware struct {
	ctrl *Controller
}

// NewMiddleware constructs a Middleware bound to the provided Controller.
func NewMiddleware(ctrl *Controller) *Middleware {
	return &Middleware{ctrl: ctrl}
}

// ToolMiddleware implements mcp-go's tool handler middleware interface.
func (m *Middleware) ToolMiddleware(next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limits := m.ctrl.limits

		if limits.MaxPayloadBytes > 0 && req.Params.Arguments != nil {
			raw, err := json.Marshal(req.Params.Arguments)
			if err == nil && len(raw) > limits.MaxPayloadBytes {
				return mcperr.Wrapf(mcperr.PayloadTooLarge, "arguments are %d bytes (max=%d)", len(raw), limits.MaxPayloadBytes), nil
			}
		}

		acquireCtx := ctx
		if limits.AcquireRequestTimeout > 0 {
			var cancel context.CancelFunc
			acquireCtx, cancel = context.WithTimeout(ctx, limits.AcquireRequestTimeout)
			defer cancel()
		}
		if err := m.ctrl.AcquireRequest(acquireCtx); err != nil {
			return mcperr.Wrapf(mcperr.BusyResource, "concurrent request limit reached (max=%d)", limits.MaxConcurrentRequests), nil
		}
		defer m.ctrl.ReleaseRequest()

		callCtx := ctx
		cancel := func() {}
		if limits.OperationTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, limits.OperationTimeout)
		}
		defer cancel()

		res, err := next(callCtx, req)

		// Prefer a tool-level timeout over a transport error so the client can retry.
		if errors.Is(err, context.DeadlineExceeded) || (callCtx.Err() == context.DeadlineExceeded && err == nil && res == nil) {
			return mcperr.New(mcperr.Timeout, ""), nil
		}
		return res, err
	}
}
