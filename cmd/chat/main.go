package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vinodismyname/mcpcsv/config"
	"github.com/vinodismyname/mcpcsv/internal/agent"
	"github.com/vinodismyname/mcpcsv/internal/editor"
	"github.com/vinodismyname/mcpcsv/internal/table"
	"github.com/vinodismyname/mcpcsv/internal/telemetry"
	"github.com/vinodismyname/mcpcsv/internal/tools"
	"github.com/vinodismyname/mcpcsv/pkg/version"
)

func main() {
	var tablePath, importPath string
	flag.StringVar(&tablePath, "table", "", "Working CSV file (overrides MCPCSV_TABLE_PATH)")
	flag.StringVar(&importPath, "file", "", "CSV or .xlsx file to load into the working table before chatting")
	flag.Parse()

	out := printer{w: os.Stdout, now: time.Now}

	cfg, err := config.Load()
	if err != nil {
		out.error(err.Error())
		os.Exit(1)
	}
	if tablePath != "" {
		cfg.TablePath = tablePath
	}

	// the conversation owns stdout
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Str("service", "mcpcsv-chat").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	policy, err := table.ParseMatchPolicy(cfg.MatchPolicy)
	if err != nil {
		out.error(err.Error())
		os.Exit(1)
	}
	ed := editor.New(table.NewStore(cfg.TablePath),
		editor.WithMatchPolicy(policy),
		editor.WithLogger(logger.With().Str("component", "editor").Logger()),
	)

	model, err := agent.NewModel(ctx, cfg)
	if err != nil {
		out.error(err.Error())
		os.Exit(1)
	}
	hooks := telemetry.NewHooks(logger)
	bot := agent.New(model, tools.New(ed),
		agent.WithMaxIterations(cfg.MaxIterations),
		agent.WithTurnObserver(hooks.OnAgentTurn),
	)
	logger.Debug().Str("version", version.UserAgent("mcpcsv-chat")).Str("provider", cfg.Provider).Str("model", cfg.Model).Msg("chat configured")

	out.header(cfg.TablePath)
	if importPath != "" {
		msg, err := ed.Import(importPath)
		if err != nil {
			out.error(err.Error())
		} else {
			out.bot(msg)
		}
	}

	run(ctx, bot, bufio.NewScanner(os.Stdin), out)
}

// asker is the part of *agent.Agent the loop needs.
type asker interface {
	Ask(ctx context.Context, input string) (string, error)
}

// run reads instructions until exit, EOF or interrupt. Agent failures are
// printed and the loop continues.
func run(ctx context.Context, bot asker, in *bufio.Scanner, out printer) {
	for {
		out.prompt()
		if !in.Scan() || ctx.Err() != nil {
			out.goodbye()
			return
		}
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}
		if isExit(line) {
			out.goodbye()
			return
		}
		answer, err := bot.Ask(ctx, line)
		if err != nil {
			out.error(fmt.Sprint(err))
			continue
		}
		out.bot(answer)
	}
}
