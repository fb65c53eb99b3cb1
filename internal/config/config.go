package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

type ContextMode string

const (
	// ContextFull sends the whole capped transcript with every request.
	ContextFull ContextMode = "full"
	// ContextLatest sends only the latest user turn.
	ContextLatest ContextMode = "latest"
)

var ErrMissingAPIKey = errors.New("NVIDIA_API_KEY environment variable is not set")

type Config struct {
	// Secrets
	APIKey      string `env:"NVIDIA_API_KEY"`
	SecretsFile string `env:"SECRETS_FILE" envDefault:".secrets.yaml"`

	// LLM settings
	BaseURL     string        `env:"NVIDIA_BASE_URL" envDefault:"https://integrate.api.nvidia.com/v1"`
	Model       string        `env:"LLM_MODEL" envDefault:"nvidia/llama-3.1-nemotron-70b-instruct"`
	Temperature float32       `env:"LLM_TEMPERATURE" envDefault:"0.5"`
	TopP        float32       `env:"LLM_TOP_P" envDefault:"1"`
	MaxTokens   int           `env:"LLM_MAX_TOKENS" envDefault:"1024"`
	Timeout     time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`

	// Conversation
	ContextMode  ContextMode `env:"CONTEXT_MODE" envDefault:"full"`
	HistoryLimit int         `env:"HISTORY_LIMIT" envDefault:"20"`

	// Surfaces
	HTTPAddr         string  `env:"HTTP_ADDR" envDefault:":8501"`
	RateLimit        float64 `env:"RATE_LIMIT" envDefault:"1"`
	RateBurst        int     `env:"RATE_BURST" envDefault:"5"`
	TrustProxy       bool    `env:"TRUST_PROXY" envDefault:"false"`
	TelegramBotToken string  `env:"TELEGRAM_BOT_TOKEN"`
	AllowedUsers     []int64 `env:"ALLOWED_USERS" envSeparator:":"`

	// Sessions
	SessionIdle      time.Duration `env:"SESSION_IDLE" envDefault:"1h"`
	SessionSweepSpec string        `env:"SESSION_SWEEP_SPEC" envDefault:"@every 10m"`

	// Storage
	LogFilePath string `env:"LOG_FILE_PATH"`
}

// Load parses the environment and resolves the API key. The secrets file
// takes precedence over the environment variable.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	key, err := readSecret(cfg.SecretsFile, "NVIDIA_API_KEY")
	if err != nil {
		return nil, err
	}
	if key != "" {
		cfg.APIKey = key
	}
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.ContextMode {
	case ContextFull, ContextLatest:
	default:
		return fmt.Errorf("unknown context mode: %s", c.ContextMode)
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("history limit must be positive, got %d", c.HistoryLimit)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", c.MaxTokens)
	}
	return nil
}
