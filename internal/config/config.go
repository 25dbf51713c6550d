package config

import (
	"fmt"
	"os"
	"time"

	"aiupstart.com/chat-stream/internal/utils"
	"gopkg.in/yaml.v3"
)

// ChatConfig holds everything the engine needs for one provider endpoint:
// where to send requests, which model parameters to pass through, and the
// policy limits the orchestrator enforces.
type ChatConfig struct {
	BaseURL      string  `yaml:"base_url"`
	Model        string  `yaml:"model"`
	SystemPrompt string  `yaml:"system_prompt"`
	Temperature  float32 `yaml:"temperature"`
	TopP         float32 `yaml:"top_p"`
	MaxTokens    int     `yaml:"max_tokens"`

	MaxInputChars       int    `yaml:"max_input_chars"`
	MaxToolTurns        int    `yaml:"max_tool_turns"`
	RoundTimeoutSeconds int    `yaml:"round_timeout_seconds"`
	MetricsAddr         string `yaml:"metrics_addr"`

	// Filled from the environment, never from the file.
	APIKey string `yaml:"-"`
}

const (
	defaultBaseURL             = "https://api.openai.com/v1"
	defaultModel               = "gpt-4o"
	defaultMaxInputChars       = 8000
	defaultMaxToolTurns        = 5
	defaultRoundTimeoutSeconds = 120
)

func Defaults() *ChatConfig {
	return &ChatConfig{
		BaseURL:             defaultBaseURL,
		Model:               defaultModel,
		Temperature:         0.7,
		TopP:                1.0,
		MaxInputChars:       defaultMaxInputChars,
		MaxToolTurns:        defaultMaxToolTurns,
		RoundTimeoutSeconds: defaultRoundTimeoutSeconds,
	}
}

// LoadConfig reads the YAML settings file and overlays it on the defaults.
// A missing file is not an error; the defaults plus the env credential are a
// complete configuration.
func LoadConfig(path string) (*ChatConfig, error) {
	cfg := Defaults()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.APIKey = os.Getenv("OPENAI_API_KEY")
			return cfg, nil
		}
		return nil, err
	}
	defer f.Close()
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	return cfg, nil
}

// ValidateConfig logs every defect it finds, then fails if any were seen.
func ValidateConfig(cfg *ChatConfig) error {
	hasErr := false
	if cfg.BaseURL == "" {
		utils.Logger.Error().Str("module", "config").Msg("base_url must not be empty")
		hasErr = true
	}
	if cfg.Model == "" {
		utils.Logger.Error().Str("module", "config").Msg("model must not be empty")
		hasErr = true
	}
	if cfg.MaxInputChars <= 0 {
		utils.Logger.Error().Str("module", "config").Msg("max_input_chars must be positive")
		hasErr = true
	}
	if cfg.MaxToolTurns <= 0 {
		utils.Logger.Error().Str("module", "config").Msg("max_tool_turns must be positive")
		hasErr = true
	}
	if cfg.RoundTimeoutSeconds <= 0 {
		utils.Logger.Error().Str("module", "config").Msg("round_timeout_seconds must be positive")
		hasErr = true
	}
	if hasErr {
		return fmt.Errorf("invalid chat config: see above errors")
	}
	return nil
}

// RoundTimeout is the per-transport-round deadline.
func (c *ChatConfig) RoundTimeout() time.Duration {
	return time.Duration(c.RoundTimeoutSeconds) * time.Second
}
