package gateway

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"llm-gateway/internal/domain/chat"
	"llm-gateway/internal/security"
)

// callLogger emits the informational telemetry around provider calls.
// Detail maps pass through the redactor before they reach the sink.
type callLogger struct {
	logger zerolog.Logger
}

func (l callLogger) ProviderInit(providerName, model string, hasCredential bool) {
	l.logger.Info().
		Str("provider", providerName).
		Str("model", model).
		Bool("has_credential", hasCredential).
		Msg("provider initialized")
}

func (l callLogger) CallStart(providerName, model string, messageCount int) {
	l.logger.Debug().
		Str("provider", providerName).
		Str("model", model).
		Int("message_count", messageCount).
		Msg("chat call started")
}

func (l callLogger) CallEnd(providerName, model string, elapsed time.Duration) {
	l.logger.Debug().
		Str("provider", providerName).
		Str("model", model).
		Dur("duration", elapsed).
		Msg("chat call completed")
}

func (l callLogger) TokenUsage(providerName, model string, usage *chat.Usage, cost decimal.Decimal) {
	detail := security.Redact(map[string]any{
		"prompt_tokens":      usage.PromptTokens,
		"completion_tokens":  usage.CompletionTokens,
		"total_tokens":       usage.TotalTokens,
		"estimated_cost_usd": cost.String(),
	})
	l.logger.Info().
		Str("provider", providerName).
		Str("model", model).
		Interface("usage", detail).
		Msg("token usage")
}
