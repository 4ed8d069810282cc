package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
)

// Config holds all environment backed configuration for the gateway.
type Config struct {
	// HTTP Server
	HTTPPort  int `env:"HTTP_PORT" envDefault:"8080" validate:"min=1,max=65535"`
	PprofPort int `env:"PPROF_PORT" envDefault:"6060" validate:"min=1,max=65535"`
	// RateLimitPerMinute caps requests per client IP. Zero disables the
	// limiter.
	RateLimitPerMinute float64 `env:"RATE_LIMIT_PER_MINUTE" envDefault:"0" validate:"min=0"`

	// Provider bootstrap
	ProviderConfigPath string                   `env:"PROVIDER_CONFIG_PATH" envDefault:"config/providers.yml"`
	ProviderBootstrap  []ProviderBootstrapEntry `env:"-"`
	// DefaultProvider serves requests that name no provider. Empty means
	// the first configured provider.
	DefaultProvider string `env:"DEFAULT_PROVIDER"`

	// Per-provider credentials, used when no provider config file is
	// present.
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	GeminiAPIKey    string `env:"GEMINI_API_KEY"`
	GrokAPIKey      string `env:"GROK_API_KEY"`
	OllamaBaseURL   string `env:"OLLAMA_BASE_URL" envDefault:"http://localhost:11434"`

	// Model catalog sync
	ModelSyncIntervalMinutes int  `env:"MODEL_SYNC_INTERVAL_MINUTES" envDefault:"60" validate:"min=1"`
	ModelSyncEnabled         bool `env:"MODEL_SYNC_ENABLED" envDefault:"true"`

	// Observability / Logging
	HTTPTimeout      time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`
	OTLPEndpoint     string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPHeaders      string        `env:"OTEL_EXPORTER_OTLP_HEADERS"`
	ServiceName      string        `env:"SERVICE_NAME" envDefault:"llm-gateway"`
	ServiceNamespace string        `env:"SERVICE_NAMESPACE" envDefault:"llm"`
	Environment      string        `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat        string        `env:"LOG_FORMAT" envDefault:"console"`
}

// Load parses environment variables into Config and performs minimal
// validation. A missing provider config file is not an error; the
// built-in provider set takes over.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	path := strings.TrimSpace(cfg.ProviderConfigPath)
	if path != "" {
		entries, err := LoadProviderBootstrap(path)
		switch {
		case err == nil:
			cfg.ProviderBootstrap = entries
		case errors.Is(err, os.ErrNotExist):
			// fall back to the built-in set below
		default:
			return nil, fmt.Errorf("load provider config: %w", err)
		}
	}
	if cfg.ProviderBootstrap == nil {
		cfg.ProviderBootstrap = cfg.defaultBootstrapEntries()
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	return cfg, nil
}

// ProviderBootstrapEntries returns the providers to construct at startup.
func (c *Config) ProviderBootstrapEntries() []ProviderBootstrapEntry {
	if c == nil {
		return nil
	}
	return c.ProviderBootstrap
}

// defaultBootstrapEntries builds the built-in provider set. Cloud
// providers stay disabled until a credential is present; the local
// runtime needs none.
func (c *Config) defaultBootstrapEntries() []ProviderBootstrapEntry {
	return []ProviderBootstrapEntry{
		{Name: "openai", APIKey: c.OpenAIAPIKey, Enabled: c.OpenAIAPIKey != ""},
		{Name: "anthropic", APIKey: c.AnthropicAPIKey, Enabled: c.AnthropicAPIKey != ""},
		{Name: "gemini", APIKey: c.GeminiAPIKey, Enabled: c.GeminiAPIKey != ""},
		{Name: "grok", APIKey: c.GrokAPIKey, Enabled: c.GrokAPIKey != ""},
		{Name: "ollama", BaseURL: c.OllamaBaseURL, Enabled: true},
	}
}

var Version = "dev"

func IsDev() bool {
	return strings.HasPrefix(Version, "dev")
}
