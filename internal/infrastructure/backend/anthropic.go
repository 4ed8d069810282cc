package backend

import (
	"context"
	"strings"

	"resty.dev/v3"

	"llm-gateway/internal/domain/chat"
	"llm-gateway/internal/domain/provider"
)

const (
	anthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"

	// the messages API rejects requests without max_tokens
	defaultAnthropicMaxTokens = 1024
)

// Anthropic adapts the messages API. System turns are hoisted into the
// dedicated system field (last one wins) and user turns are concatenated
// into a single user message.
type Anthropic struct {
	name    string
	client  *resty.Client
	baseURL string
	apiKey  string
}

func NewAnthropic(cfg provider.Config) (*Anthropic, error) {
	baseURL := cfg.String(provider.ConfigBaseURL)
	if baseURL == "" {
		baseURL = anthropicBaseURL
	}
	return &Anthropic{
		name:    "anthropic",
		client:  newRestyClient("anthropic"),
		baseURL: normalizeBaseURL(baseURL),
		apiKey:  cfg.String(provider.ConfigAPIKey),
	}, nil
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature *float64           `json:"temperature,omitempty"`
	TopP        *float64           `json:"top_p,omitempty"`
	TopK        *int               `json:"top_k,omitempty"`
}

type anthropicResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (b *Anthropic) Chat(ctx context.Context, req chat.Request) (*chat.Response, error) {
	var respBody anthropicResponse
	resp, err := b.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-api-key", b.apiKey).
		SetHeader("anthropic-version", anthropicVersion).
		SetBody(b.messageRequest(req)).
		SetResult(&respBody).
		Post(endpoint(b.baseURL, "/v1/messages"))
	if err != nil {
		return nil, transportError(b.name, req.Model, err)
	}
	if resp.IsError() {
		return nil, httpError(b.name, req.Model, resp)
	}
	if len(respBody.Content) == 0 {
		return nil, badResponseError(b.name, req.Model, "response carries no content blocks")
	}

	model := respBody.Model
	if model == "" {
		model = req.Model
	}
	return &chat.Response{
		Provider: b.name,
		Model:    model,
		Content:  respBody.Content[0].Text,
		Usage: &chat.Usage{
			PromptTokens:     respBody.Usage.InputTokens,
			CompletionTokens: respBody.Usage.OutputTokens,
			TotalTokens:      respBody.Usage.InputTokens + respBody.Usage.OutputTokens,
		},
	}, nil
}

func (b *Anthropic) Close() error {
	return b.client.Close()
}

func (b *Anthropic) messageRequest(req chat.Request) anthropicRequest {
	var system string
	var userPrompt strings.Builder
	for _, m := range req.Messages {
		switch m.Role {
		case chat.RoleSystem:
			system = m.Content
		case chat.RoleUser:
			userPrompt.WriteString(m.Content)
			userPrompt.WriteString("\n")
		}
	}

	out := anthropicRequest{
		Model:     req.Model,
		MaxTokens: defaultAnthropicMaxTokens,
		System:    system,
		Messages:  []anthropicMessage{{Role: "user", Content: userPrompt.String()}},
	}
	if v, ok := req.Params.Int(chat.ParamMaxTokens); ok {
		out.MaxTokens = v
	}
	if v, ok := req.Params.Float(chat.ParamTemperature); ok {
		out.Temperature = &v
	}
	if v, ok := req.Params.Float(chat.ParamTopP); ok {
		out.TopP = &v
	}
	if v, ok := req.Params.Int(chat.ParamTopK); ok {
		out.TopK = &v
	}
	return out
}
