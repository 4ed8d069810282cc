package backend

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"llm-gateway/internal/domain/chat"
	"llm-gateway/internal/domain/provider"
	"llm-gateway/internal/gateway"
)

// Gemini adapts the Google generative language API. User turns are joined
// into a single prompt; multi-part candidates collapse to their
// concatenated text parts.
type Gemini struct {
	name   string
	client *genai.Client
}

// NewGemini dials the generative language service. Construction does not
// verify the credential; the first call surfaces auth failures.
func NewGemini(cfg provider.Config) (*Gemini, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.String(provider.ConfigAPIKey)))
	if err != nil {
		return nil, err
	}
	return &Gemini{name: "gemini", client: client}, nil
}

func (b *Gemini) Chat(ctx context.Context, req chat.Request) (*chat.Response, error) {
	model := b.client.GenerativeModel(req.Model)
	applyGenerationParams(model, req.Params)

	resp, err := model.GenerateContent(ctx, genai.Text(joinUserTurns(req.Messages)))
	if err != nil {
		return nil, b.wrapErr(req.Model, err)
	}

	content, ok := candidateText(resp)
	if !ok {
		return nil, badResponseError(b.name, req.Model, "response carries no text candidates")
	}

	out := &chat.Response{Provider: b.name, Model: req.Model, Content: content}
	if resp.UsageMetadata != nil {
		out.Usage = &chat.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return out, nil
}

func (b *Gemini) Close() error {
	return b.client.Close()
}

func (b *Gemini) wrapErr(model string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &gateway.BackendError{
			Provider: b.name,
			Model:    model,
			Category: statusCategory(apiErr.Code),
			Status:   apiErr.Code,
			Err:      err,
		}
	}
	return transportError(b.name, model, err)
}

func applyGenerationParams(model *genai.GenerativeModel, p chat.Params) {
	if v, ok := p.Float(chat.ParamTemperature); ok {
		model.SetTemperature(float32(v))
	}
	if v, ok := p.Int(chat.ParamMaxTokens); ok {
		model.SetMaxOutputTokens(int32(v))
	}
	if v, ok := p.Float(chat.ParamTopP); ok {
		model.SetTopP(float32(v))
	}
	if v, ok := p.Int(chat.ParamTopK); ok {
		model.SetTopK(int32(v))
	}
}

func joinUserTurns(messages []chat.Message) string {
	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		if m.Role == chat.RoleUser {
			parts = append(parts, m.Content)
		}
	}
	return strings.Join(parts, "\n")
}

func candidateText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", false
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if sb.Len() == 0 {
		return "", false
	}
	return sb.String(), true
}
