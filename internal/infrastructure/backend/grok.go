package backend

import "llm-gateway/internal/domain/provider"

const grokBaseURL = "https://api.x.ai/v1"

// NewGrok builds the adapter for the xAI API, which speaks the OpenAI
// chat completions protocol under its own base URL and key prefix.
func NewGrok(cfg provider.Config) (*OpenAI, error) {
	return newOpenAICompatible("grok", grokBaseURL, cfg)
}
