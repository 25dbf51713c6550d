package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, defaultModel, cfg.Model)
	assert.Equal(t, defaultBaseURL, cfg.BaseURL)
	assert.Equal(t, "sk-env", cfg.APIKey)
	assert.NoError(t, ValidateConfig(cfg))
	assert.Equal(t, 120*time.Second, cfg.RoundTimeout())
}

func TestLoadConfigOverlaysFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	path := filepath.Join(t.TempDir(), "chat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
model: gpt-4o-mini
base_url: https://example.test/v1
temperature: 0.1
max_tool_turns: 2
round_timeout_seconds: 30
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, "https://example.test/v1", cfg.BaseURL)
	assert.Equal(t, 2, cfg.MaxToolTurns)
	assert.Equal(t, 30*time.Second, cfg.RoundTimeout())
	// Untouched fields keep their defaults.
	assert.Equal(t, defaultMaxInputChars, cfg.MaxInputChars)
}

func TestValidateConfigRejectsDefects(t *testing.T) {
	cfg := Defaults()
	cfg.Model = ""
	cfg.MaxToolTurns = 0
	assert.Error(t, ValidateConfig(cfg))
}
