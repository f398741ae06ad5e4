package config

import "time"

// Default runtime limits and guardrails for the MCP CSV server and chat
// binary. Load overrides the ones exposed as environment variables.

const (
	// Concurrency
	DefaultMaxConcurrentRequests = 10
	DefaultMaxOpenTables         = 16

	// Payload and row limits
	DefaultMaxPayloadBytes = 128 * 1024 // 128KB
	DefaultPreviewRowLimit = 10
	DefaultMaxPreviewRows  = 500
)

const (
	// Timeouts
	DefaultOperationTimeout      = 30 * time.Second
	DefaultAcquireRequestTimeout = 2 * time.Second

	// Table handle cache
	DefaultTableIdleTTL       = 30 * time.Minute
	DefaultTableCleanupPeriod = time.Minute
)

const (
	// Agent defaults
	DefaultTablePath     = "sample.csv"
	DefaultProvider      = "googleai"
	DefaultModel         = "gemini-2.0-flash"
	DefaultMaxIterations = 8
	DefaultMatchPolicy   = "substring"
	DefaultLogLevel      = "info"
)
