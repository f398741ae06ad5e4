package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config is the environment-derived configuration shared by cmd/server and
// cmd/chat.
type Config struct {
	AllowedDirs   []string
	EnableWrites  bool
	MatchPolicy   string `validate:"oneof=substring fold"`
	TablePath     string `validate:"required"`
	Provider      string `validate:"oneof=googleai openai"`
	Model         string `validate:"required"`
	GeminiAPIKey  string
	OpenAIAPIKey  string
	LogLevel      string `validate:"oneof=debug info warn error"`
	MaxIterations int    `validate:"min=1,max=50"`
}

// Load reads an optional .env file (values already present in the
// environment win), then builds and validates a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, for tests.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		EnableWrites: parseBool(getenv("MCPCSV_ENABLE_WRITES")),
		MatchPolicy:  strings.ToLower(get("MCPCSV_MATCH_POLICY", DefaultMatchPolicy)),
		TablePath:    get("MCPCSV_TABLE_PATH", DefaultTablePath),
		Provider:     strings.ToLower(get("MCPCSV_LLM_PROVIDER", DefaultProvider)),
		Model:        get("MCPCSV_MODEL", DefaultModel),
		GeminiAPIKey: get("GEMINI_API_KEY", ""),
		OpenAIAPIKey: get("OPENAI_API_KEY", ""),
		LogLevel:     strings.ToLower(get("MCPCSV_LOG_LEVEL", DefaultLogLevel)),
	}
	if list := getenv("MCPCSV_ALLOWED_DIRS"); list != "" {
		cfg.AllowedDirs = filepath.SplitList(list)
	}

	iters := get("MCPCSV_MAX_ITERATIONS", strconv.Itoa(DefaultMaxIterations))
	n, err := strconv.Atoi(iters)
	if err != nil {
		return nil, fmt.Errorf("config: MCPCSV_MAX_ITERATIONS=%q: %w", iters, err)
	}
	cfg.MaxIterations = n

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// APIKey returns the credential for the configured provider.
func (c *Config) APIKey() string {
	if c.Provider == "openai" {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

// RequireAPIKey fails when the configured provider has no credential.
func (c *Config) RequireAPIKey() error {
	if c.APIKey() != "" {
		return nil
	}
	if c.Provider == "openai" {
		return errors.New("config: OPENAI_API_KEY is not set; add it to the environment or a .env file")
	}
	return errors.New("config: GEMINI_API_KEY is not set; add it to the environment or a .env file")
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
