// Package agent wires the table tools to a langchaingo zero-shot ReAct agent.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/agents"
	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/tools"

	"github.com/vinodismyname/mcpcsv/config"
)

// SystemPrompt introduces the assistant to the model.
const SystemPrompt = `You are an AI CSV assistant that helps users manage their CSV data.
You can perform the following operations:
1. View information about the CSV including columns and a preview
2. Remove rows or columns
3. Add new rows or columns
4. Set values for specific cells or entire rows

Rows are numbered from 0. When a tool reports an error, read it and retry with corrected input.`

// promptPrefix extends SystemPrompt with the placeholders the MRKL prompt
// template fills in.
const promptPrefix = SystemPrompt + `

Today is {{.today}}. You have access to the following tools:

{{.tool_descriptions}}`

// NewModel builds the chat model selected by cfg.
func NewModel(ctx context.Context, cfg *config.Config) (llms.Model, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	switch cfg.Provider {
	case "openai":
		return openai.New(openai.WithToken(cfg.OpenAIAPIKey), openai.WithModel(cfg.Model))
	case "googleai":
		return googleai.New(ctx, googleai.WithAPIKey(cfg.GeminiAPIKey), googleai.WithDefaultModel(cfg.Model))
	}
	return nil, fmt.Errorf("agent: unknown provider %q", cfg.Provider)
}

// Agent answers free-form instructions by calling table tools.
type Agent struct {
	executor *agents.Executor
	observe  func(input string, d time.Duration, err error)
}

// Option configures an Agent.
type Option func(*settings)

type settings struct {
	maxIterations int
	observe       func(input string, d time.Duration, err error)
}

// WithMaxIterations bounds the number of tool calls per question.
func WithMaxIterations(n int) Option { return func(s *settings) { s.maxIterations = n } }

// WithTurnObserver is called after every Ask, e.g. with telemetry.Hooks.OnAgentTurn.
func WithTurnObserver(fn func(input string, d time.Duration, err error)) Option {
	return func(s *settings) { s.observe = fn }
}

// New builds an agent over model and tls.
func New(model llms.Model, tls []tools.Tool, opts ...Option) *Agent {
	s := settings{maxIterations: config.DefaultMaxIterations}
	for _, o := range opts {
		o(&s)
	}
	a := agents.NewOneShotAgent(model, tls,
		agents.WithPromptPrefix(promptPrefix),
		agents.WithMaxIterations(s.maxIterations),
	)
	return &Agent{
		executor: agents.NewExecutor(a, agents.WithMaxIterations(s.maxIterations)),
		observe:  s.observe,
	}
}

// Ask runs one instruction to completion and returns the final answer.
func (a *Agent) Ask(ctx context.Context, input string) (string, error) {
	start := time.Now()
	out, err := chains.Run(ctx, a.executor, input)
	if a.observe != nil {
		a.observe(input, time.Since(start), err)
	}
	if err != nil {
		return "", fmt.Errorf("agent: %w", err)
	}
	return strings.TrimSpace(out), nil
}
