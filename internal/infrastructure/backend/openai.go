package backend

import (
	"context"
	"errors"
	"io"

	"github.com/sashabaranov/go-openai"

	"llm-gateway/internal/domain/chat"
	"llm-gateway/internal/domain/provider"
	"llm-gateway/internal/gateway"
)

// OpenAI adapts the chat completions protocol through the official client.
// The same adapter serves every OpenAI compatible vendor; only the base
// URL and the provider name differ.
type OpenAI struct {
	name   string
	client *openai.Client
}

// NewOpenAI builds the adapter against api.openai.com, or against
// base_url when the config overrides it.
func NewOpenAI(cfg provider.Config) (*OpenAI, error) {
	return newOpenAICompatible("openai", "", cfg)
}

func newOpenAICompatible(name, defaultBaseURL string, cfg provider.Config) (*OpenAI, error) {
	clientCfg := openai.DefaultConfig(cfg.String(provider.ConfigAPIKey))
	baseURL := cfg.String(provider.ConfigBaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if baseURL != "" {
		clientCfg.BaseURL = normalizeBaseURL(baseURL)
	}
	return &OpenAI{name: name, client: openai.NewClientWithConfig(clientCfg)}, nil
}

func (b *OpenAI) Chat(ctx context.Context, req chat.Request) (*chat.Response, error) {
	resp, err := b.client.CreateChatCompletion(ctx, b.completionRequest(req, false))
	if err != nil {
		return nil, b.wrapErr(req.Model, err)
	}
	if len(resp.Choices) == 0 {
		return nil, badResponseError(b.name, req.Model, "response carries no choices")
	}

	model := resp.Model
	if model == "" {
		model = req.Model
	}
	return &chat.Response{
		Provider: b.name,
		Model:    model,
		Content:  resp.Choices[0].Message.Content,
		Usage: &chat.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func (b *OpenAI) ChatStream(ctx context.Context, req chat.Request) (<-chan chat.Delta, error) {
	stream, err := b.client.CreateChatCompletionStream(ctx, b.completionRequest(req, true))
	if err != nil {
		return nil, b.wrapErr(req.Model, err)
	}

	out := make(chan chat.Delta, channelBufferSize)
	go func() {
		defer close(out)
		defer stream.Close()
		for {
			chunk, recvErr := stream.Recv()
			if errors.Is(recvErr, io.EOF) {
				sendDelta(ctx, out, chat.Delta{Done: true})
				return
			}
			if recvErr != nil {
				sendDelta(ctx, out, chat.Delta{Err: b.wrapErr(req.Model, recvErr)})
				return
			}
			for _, choice := range chunk.Choices {
				if choice.Delta.Content == "" {
					continue
				}
				if !sendDelta(ctx, out, chat.Delta{Content: choice.Delta.Content}) {
					return
				}
			}
		}
	}()
	return out, nil
}

// ListModels enumerates the model identifiers the vendor exposes.
func (b *OpenAI) ListModels(ctx context.Context) ([]string, error) {
	list, err := b.client.ListModels(ctx)
	if err != nil {
		return nil, b.wrapErr("", err)
	}
	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (b *OpenAI) completionRequest(req chat.Request, stream bool) openai.ChatCompletionRequest {
	out := openai.ChatCompletionRequest{Model: req.Model, Stream: stream}
	for _, m := range req.Messages {
		out.Messages = append(out.Messages, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	if v, ok := req.Params.Float(chat.ParamTemperature); ok {
		out.Temperature = float32(v)
	}
	if v, ok := req.Params.Int(chat.ParamMaxTokens); ok {
		out.MaxTokens = v
	}
	if v, ok := req.Params.Float(chat.ParamTopP); ok {
		out.TopP = float32(v)
	}
	if stream {
		// usage arrives on the final chunk
		out.StreamOptions = &openai.StreamOptions{IncludeUsage: true}
	}
	return out
}

func (b *OpenAI) wrapErr(model string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &gateway.BackendError{
			Provider: b.name,
			Model:    model,
			Category: statusCategory(apiErr.HTTPStatusCode),
			Status:   apiErr.HTTPStatusCode,
			Err:      err,
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &gateway.BackendError{
			Provider: b.name,
			Model:    model,
			Category: statusCategory(reqErr.HTTPStatusCode),
			Status:   reqErr.HTTPStatusCode,
			Err:      err,
		}
	}
	return transportError(b.name, model, err)
}
