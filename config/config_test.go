package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envOf(nil))
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultContextDir, cfg.ContextDir)
	assert.Equal(t, DefaultModel, cfg.LLM.Model)
	assert.Empty(t, cfg.LLM.APIKey)
	assert.Equal(t, DefaultMaxContextTokens, cfg.Prompt.MaxContextTokens)
	assert.Equal(t, ":3001", cfg.Addr())
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"GOOGLE_API_KEY":     "fallback",
		"MODEL_VERSION":      "gemini-2.5-pro",
		"PORT":               "8080",
		"CONTEXT_DIR":        "/srv/context",
		"MAX_CONTEXT_TOKENS": "0",
		"DEBUG":              "true",
	}))
	require.NoError(t, err)

	assert.Equal(t, "fallback", cfg.LLM.APIKey)
	assert.Equal(t, "gemini-2.5-pro", cfg.LLM.Model)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/srv/context", cfg.ContextDir)
	assert.Zero(t, cfg.Prompt.MaxContextTokens)
	assert.True(t, cfg.Debug)
}

func TestFromEnvPrefersGeminiKey(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"GEMINI_API_KEY": "primary",
		"GOOGLE_API_KEY": "fallback",
	}))
	require.NoError(t, err)
	assert.Equal(t, "primary", cfg.LLM.APIKey)
}

func TestFromEnvRejectsBadNumbers(t *testing.T) {
	_, err := FromEnv(envOf(map[string]string{"PORT": "http"}))
	require.Error(t, err)

	_, err = FromEnv(envOf(map[string]string{"MAX_CONTEXT_TOKENS": "-1"}))
	require.Error(t, err)
}
