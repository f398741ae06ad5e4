package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/vinodismyname/mcpcsv/config"
	"github.com/vinodismyname/mcpcsv/internal/editor"
	"github.com/vinodismyname/mcpcsv/internal/registry"
	"github.com/vinodismyname/mcpcsv/internal/runtime"
	"github.com/vinodismyname/mcpcsv/internal/security"
	"github.com/vinodismyname/mcpcsv/internal/sessions"
	"github.com/vinodismyname/mcpcsv/internal/table"
	"github.com/vinodismyname/mcpcsv/internal/telemetry"
	"github.com/vinodismyname/mcpcsv/pkg/version"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var (
		useStdio        bool
		shutdownTimeout time.Duration
	)

	flag.BoolVar(&useStdio, "stdio", false, "Run server over stdio transport")
	flag.DurationVar(&shutdownTimeout, "shutdown-timeout", 5*time.Second, "Graceful shutdown timeout")
	flag.Parse()

	// stdout carries the MCP stream; logs go to stderr
	logger := zlog.Output(os.Stderr).With().Str("service", "mcpcsv-server").Logger()
	ctx := logger.WithContext(context.Background())

	cfg, err := config.Load()
	if err != nil {
		logger.Error().Err(err).Msg("config: invalid configuration")
		os.Exit(1)
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(lvl)
	}
	policy, err := table.ParseMatchPolicy(cfg.MatchPolicy)
	if err != nil {
		logger.Error().Err(err).Msg("config: invalid match policy")
		os.Exit(1)
	}

	// Security: validate allow-list directories on startup (fail-safe on error)
	secMgr, err := security.NewManager(cfg.AllowedDirs, nil)
	if err != nil {
		logger.Error().Err(err).Msg("security: failed to initialize manager")
		fmt.Fprintln(os.Stderr, "invalid security configuration; check MCPCSV_ALLOWED_DIRS")
		os.Exit(1)
	}
	if err := secMgr.ValidateConfig(); err != nil {
		logger.Error().Err(err).Msg("security: invalid allow-list configuration")
		fmt.Fprintln(os.Stderr, "no allowed directories configured; set MCPCSV_ALLOWED_DIRS")
		os.Exit(1)
	}
	logger.Info().Strs("allowed_dirs", secMgr.AllowedDirectories()).Msg("security allow-list configured")

	limits := runtime.NewLimits(config.DefaultMaxConcurrentRequests, config.DefaultMaxOpenTables)
	runtimeController := runtime.NewController(limits)
	runtimeMW := runtime.NewMiddleware(runtimeController)

	tables := sessions.NewManager(0, 0,
		sessions.WithGate(runtimeController),
		sessions.WithValidator(secMgr),
		sessions.WithEditorOptions(
			editor.WithMatchPolicy(policy),
			editor.WithLogger(logger.With().Str("component", "editor").Logger()),
		),
	)
	tables.Start()

	hooks := telemetry.NewHooks(logger)
	toolRegistry := registry.New()
	writeFilter := registry.NewWriteToolFilter(toolRegistry, cfg.EnableWrites)

	srv := server.NewMCPServer(
		"MCP CSV Editing Server",
		version.Version(),
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithHooks(hooks.ServerHooks()),
		server.WithToolHandlerMiddleware(hooks.ToolMiddleware),
		server.WithToolHandlerMiddleware(runtimeMW.ToolMiddleware),
		server.WithToolFilter(func(ctx context.Context, tools []mcp.Tool) []mcp.Tool { return writeFilter.FilterTools(ctx, tools) }),
	)

	registry.RegisterTableTools(srv, toolRegistry, &registry.Handlers{
		Sessions:    tables,
		Security:    secMgr,
		Limits:      runtimeController.LimitsSnapshot(),
		AllowWrites: cfg.EnableWrites,
		Logger:      logger,
	})

	logger.Info().
		Ctx(ctx).
		Str("version", version.Version()).
		Int("max_concurrent_requests", limits.MaxConcurrentRequests).
		Int("max_open_tables", limits.MaxOpenTables).
		Bool("writes_enabled", cfg.EnableWrites).
		Str("match_policy", policy.String()).
		Int("model_context_size", toolRegistry.ModelContextSize(cfg.Model)).
		Bool("stdio", useStdio).
		Msg("server bootstrap configured")

	if !useStdio {
		// If no transport flags provided, print usage and exit non-zero
		fmt.Fprintln(os.Stderr, "no transport selected; use --stdio to run over stdio")
		os.Exit(2)
	}

	serveErr := server.ServeStdio(srv)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := tables.Close(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("table handles not released before shutdown timeout")
	}
	if serveErr != nil {
		// Use stderr for transport errors so clients don't misinterpret output
		fmt.Fprintf(os.Stderr, "Server error: %v\n", serveErr)
		os.Exit(1)
	}
}
