package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/subosito/gotenv"
)

const (
	DefaultPort             = 3001
	DefaultContextDir       = "context"
	DefaultModel            = "gemini-2.0-flash-001"
	DefaultMaxContextTokens = 100000
	DefaultTokenEncoding    = "cl100k_base"
	DefaultBodyLimit        = "1M"
)

// Config holds application configuration
type Config struct {
	Port       int
	ContextDir string
	BodyLimit  string

	LLM    LLM
	Prompt Prompt

	Debug     bool
	LogFile   string
	TraceFile string
}

// LLM configures the model gateway.
type LLM struct {
	APIKey     string
	Model      string
	APIVersion string // empty keeps the SDK default
}

// Prompt configures the context budget of the prompt composer.
type Prompt struct {
	MaxContextTokens int // 0 disables the cap
	TokenEncoding    string
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	// A missing .env is normal outside development.
	_ = gotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function so tests can avoid the real
// environment.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Port:       DefaultPort,
		ContextDir: DefaultContextDir,
		BodyLimit:  DefaultBodyLimit,
		LLM: LLM{
			APIKey:     getenv("GEMINI_API_KEY"),
			Model:      DefaultModel,
			APIVersion: getenv("LLM_API_VERSION"),
		},
		Prompt: Prompt{
			MaxContextTokens: DefaultMaxContextTokens,
			TokenEncoding:    DefaultTokenEncoding,
		},
		Debug:     getenv("DEBUG") == "true",
		LogFile:   getenv("LOG_FILE"),
		TraceFile: getenv("TRACE_FILE"),
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = getenv("GOOGLE_API_KEY")
	}
	if v := getenv("MODEL_VERSION"); v != "" {
		cfg.LLM.Model = v
	}
	if v := getenv("CONTEXT_DIR"); v != "" {
		cfg.ContextDir = v
	}
	if v := getenv("TOKEN_ENCODING"); v != "" {
		cfg.Prompt.TokenEncoding = v
	}
	if v := getenv("BODY_LIMIT"); v != "" {
		cfg.BodyLimit = v
	}

	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("invalid PORT %q", v)
		}
		cfg.Port = port
	}
	if v := getenv("MAX_CONTEXT_TOKENS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("invalid MAX_CONTEXT_TOKENS %q", v)
		}
		cfg.Prompt.MaxContextTokens = n
	}

	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
