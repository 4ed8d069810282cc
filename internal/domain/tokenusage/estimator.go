package tokenusage

import (
	"github.com/shopspring/decimal"

	"llm-gateway/internal/domain/chat"
)

// ModelPricing holds USD prices per 1K tokens for one model.
type ModelPricing struct {
	PromptUSDPer1K     decimal.Decimal
	CompletionUSDPer1K decimal.Decimal
}

var oneThousand = decimal.NewFromInt(1000)

// defaultPricing covers the models the built-in providers default to.
// Local models cost nothing.
var defaultPricing = map[string]ModelPricing{
	"gpt-4": {
		PromptUSDPer1K:     decimal.RequireFromString("0.03"),
		CompletionUSDPer1K: decimal.RequireFromString("0.06"),
	},
	"gpt-4o": {
		PromptUSDPer1K:     decimal.RequireFromString("0.0025"),
		CompletionUSDPer1K: decimal.RequireFromString("0.01"),
	},
	"gpt-3.5-turbo": {
		PromptUSDPer1K:     decimal.RequireFromString("0.0005"),
		CompletionUSDPer1K: decimal.RequireFromString("0.0015"),
	},
	"claude-3-opus-20240229": {
		PromptUSDPer1K:     decimal.RequireFromString("0.015"),
		CompletionUSDPer1K: decimal.RequireFromString("0.075"),
	},
	"gemini-pro": {
		PromptUSDPer1K:     decimal.RequireFromString("0.0005"),
		CompletionUSDPer1K: decimal.RequireFromString("0.0015"),
	},
	"grok-beta": {
		PromptUSDPer1K:     decimal.RequireFromString("0.005"),
		CompletionUSDPer1K: decimal.RequireFromString("0.015"),
	},
}

// Estimator computes the estimated USD cost of a completion from its
// token usage. Models without a price entry estimate to zero.
type Estimator struct {
	pricing map[string]ModelPricing
}

// NewEstimator returns an estimator with the default price table.
func NewEstimator() *Estimator {
	return &Estimator{pricing: defaultPricing}
}

// NewEstimatorWithPricing returns an estimator using the given table.
func NewEstimatorWithPricing(pricing map[string]ModelPricing) *Estimator {
	return &Estimator{pricing: pricing}
}

// EstimateCost returns the estimated USD cost for one completion.
func (e *Estimator) EstimateCost(model string, usage *chat.Usage) decimal.Decimal {
	if usage == nil {
		return decimal.Zero
	}
	p, ok := e.pricing[model]
	if !ok {
		return decimal.Zero
	}
	promptCost := decimal.NewFromInt(int64(usage.PromptTokens)).Mul(p.PromptUSDPer1K).Div(oneThousand)
	completionCost := decimal.NewFromInt(int64(usage.CompletionTokens)).Mul(p.CompletionUSDPer1K).Div(oneThousand)
	return promptCost.Add(completionCost)
}
