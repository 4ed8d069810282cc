package provider

import (
	"context"

	"llm-gateway/internal/domain/chat"
)

// Config is the merged construction config for one backend handle.
// Explicit caller values win over descriptor defaults.
type Config map[string]any

// Well-known config keys.
const (
	ConfigAPIKey  = "api_key"
	ConfigModel   = "model"
	ConfigBaseURL = "base_url"
)

// String reads a string config value, returning "" when the key is absent
// or holds a non-string.
func (c Config) String(key string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return ""
}

// Backend is the minimal chat capability every provider adapter exposes.
type Backend interface {
	Chat(ctx context.Context, req chat.Request) (*chat.Response, error)
}

// StreamBackend produces completions incrementally. The returned channel
// is closed after the final delta (Done true) or when ctx is cancelled.
type StreamBackend interface {
	ChatStream(ctx context.Context, req chat.Request) (<-chan chat.Delta, error)
}

// ModelLister is implemented by backends that can enumerate the models
// available behind them.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Closer is implemented by backends holding connections that need an
// explicit release.
type Closer interface {
	Close() error
}
