package backend

import "llm-gateway/internal/domain/provider"

// Register wires every adapter into the two registries. Providers with a
// native streaming protocol appear in both namespaces; anthropic and
// gemini register blocking chat only.
func Register(chatReg *provider.ChatRegistry, streamReg *provider.StreamRegistry) {
	chatReg.MustRegister(provider.Descriptor[provider.Backend]{
		Name:         "openai",
		DefaultModel: "gpt-4",
		New: func(cfg provider.Config) (provider.Backend, error) {
			return NewOpenAI(cfg)
		},
	})
	chatReg.MustRegister(provider.Descriptor[provider.Backend]{
		Name:         "anthropic",
		DefaultModel: "claude-3-opus-20240229",
		New: func(cfg provider.Config) (provider.Backend, error) {
			return NewAnthropic(cfg)
		},
	})
	chatReg.MustRegister(provider.Descriptor[provider.Backend]{
		Name:         "gemini",
		DefaultModel: "gemini-pro",
		New: func(cfg provider.Config) (provider.Backend, error) {
			return NewGemini(cfg)
		},
	})
	chatReg.MustRegister(provider.Descriptor[provider.Backend]{
		Name:          "grok",
		DefaultModel:  "grok-beta",
		ExtraDefaults: map[string]any{provider.ConfigBaseURL: grokBaseURL},
		New: func(cfg provider.Config) (provider.Backend, error) {
			return NewGrok(cfg)
		},
	})
	chatReg.MustRegister(provider.Descriptor[provider.Backend]{
		Name:          "ollama",
		DefaultModel:  "llama3",
		ExtraDefaults: map[string]any{provider.ConfigBaseURL: ollamaBaseURL},
		New: func(cfg provider.Config) (provider.Backend, error) {
			return NewOllama(cfg)
		},
	})

	streamReg.MustRegister(provider.Descriptor[provider.StreamBackend]{
		Name:         "openai",
		DefaultModel: "gpt-4",
		New: func(cfg provider.Config) (provider.StreamBackend, error) {
			return NewOpenAI(cfg)
		},
	})
	streamReg.MustRegister(provider.Descriptor[provider.StreamBackend]{
		Name:          "grok",
		DefaultModel:  "grok-beta",
		ExtraDefaults: map[string]any{provider.ConfigBaseURL: grokBaseURL},
		New: func(cfg provider.Config) (provider.StreamBackend, error) {
			return NewGrok(cfg)
		},
	})
	streamReg.MustRegister(provider.Descriptor[provider.StreamBackend]{
		Name:          "ollama",
		DefaultModel:  "llama3",
		ExtraDefaults: map[string]any{provider.ConfigBaseURL: ollamaBaseURL},
		New: func(cfg provider.Config) (provider.StreamBackend, error) {
			return NewOllama(cfg)
		},
	})
}
