package runtime

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/vinodismyname/mcpcsv/config"
)

// Limits captures the concurrency and payload guardrails configured for the server.
type Limits struct {
	// Concurrency caps
	MaxConcurrentRequests int
	MaxOpenTables         int

	// Payload and row bounds
	MaxPayloadBytes int
	PreviewRowLimit int
	MaxPreviewRows  int

	// Timeouts
	OperationTimeout      time.Duration
	AcquireRequestTimeout time.Duration
}

// NewLimits initializes Limits with fallbacks from config when values are unset.
func NewLimits(maxConcurrentRequests, maxOpenTables int) Limits {
	if maxConcurrentRequests <= 0 {
		maxConcurrentRequests = config.DefaultMaxConcurrentRequests
	}
	if maxOpenTables <= 0 {
		maxOpenTables = config.DefaultMaxOpenTables
	}

	return Limits{
		MaxConcurrentRequests: maxConcurrentRequests,
		MaxOpenTables:         maxOpenTables,
		MaxPayloadBytes:       config.DefaultMaxPayloadBytes,
		PreviewRowLimit:       config.DefaultPreviewRowLimit,
		MaxPreviewRows:        config.DefaultMaxPreviewRows,
		OperationTimeout:      config.DefaultOperationTimeout,
		AcquireRequestTimeout: config.DefaultAcquireRequestTimeout,
	}
}

// ErrTooManyTables is returned by AcquireTable when every table slot is in use.
var ErrTooManyTables = errors.New("runtime: open table limit reached")

// Controller coordinates the request and open-table semaphores.
type Controller struct {
	limits        Limits
	requestSem    *semaphore.Weighted
	openTablesSem *semaphore.Weighted
}

// NewController constructs a Controller backed by weighted semaphores.
func NewController(limits Limits) *Controller {
	return &Controller{
		limits:        limits,
		requestSem:    semaphore.NewWeighted(int64(limits.MaxConcurrentRequests)),
		openTablesSem: semaphore.NewWeighted(int64(limits.MaxOpenTables)),
	}
}

// AcquireRequest reserves capacity for an incoming request.
func (c *Controller) AcquireRequest(ctx context.Context) error {
	return c.requestSem.Acquire(ctx, 1)
}

// ReleaseRequest frees previously-acquired request capacity.
func (c *Controller) ReleaseRequest() {
	c.requestSem.Release(1)
}

// AcquireTable reserves an open table slot. It fails fast when the context
// has no deadline and every slot is taken.
func (c *Controller) AcquireTable(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		if !c.openTablesSem.TryAcquire(1) {
			return ErrTooManyTables
		}
		return nil
	}
	return c.openTablesSem.Acquire(ctx, 1)
}

// ReleaseTable frees an open table slot.
func (c *Controller) ReleaseTable() {
	c.openTablesSem.Release(1)
}

// LimitsSnapshot exposes the configured guardrails for telemetry and discovery.
func (c *Controller) LimitsSnapshot() Limits {
	return c.limits
}
