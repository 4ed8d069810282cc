package backend

import (
	"bufio"
	"context"
	"encoding/json"
	"strings"

	"resty.dev/v3"

	"llm-gateway/internal/domain/chat"
	"llm-gateway/internal/domain/provider"
)

const ollamaBaseURL = "http://localhost:11434"

// Ollama adapts a local Ollama server. The conversation is flattened into
// a single role-prefixed prompt; a trailing "Assistant:" cues the model to
// answer. No credential is involved.
type Ollama struct {
	name    string
	client  *resty.Client
	baseURL string
}

func NewOllama(cfg provider.Config) (*Ollama, error) {
	baseURL := cfg.String(provider.ConfigBaseURL)
	if baseURL == "" {
		baseURL = ollamaBaseURL
	}
	return &Ollama{
		name:    "ollama",
		client:  newRestyClient("ollama"),
		baseURL: normalizeBaseURL(baseURL),
	}, nil
}

type ollamaRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options"`
}

type ollamaChunk struct {
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

func (b *Ollama) Chat(ctx context.Context, req chat.Request) (*chat.Response, error) {
	var respBody ollamaChunk
	resp, err := b.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(b.generateRequest(req, false)).
		SetResult(&respBody).
		Post(endpoint(b.baseURL, "/api/generate"))
	if err != nil {
		return nil, transportError(b.name, req.Model, err)
	}
	if resp.IsError() {
		return nil, httpError(b.name, req.Model, resp)
	}
	if respBody.Response == "" && !respBody.Done {
		return nil, badResponseError(b.name, req.Model, "unexpected response shape")
	}

	out := &chat.Response{
		Provider: b.name,
		Model:    req.Model,
		Content:  strings.TrimSpace(respBody.Response),
	}
	if respBody.EvalCount > 0 {
		out.Usage = &chat.Usage{
			PromptTokens:     respBody.PromptEvalCount,
			CompletionTokens: respBody.EvalCount,
			TotalTokens:      respBody.PromptEvalCount + respBody.EvalCount,
		}
	}
	return out, nil
}

// ChatStream reads the newline-delimited JSON chunks the server emits
// when stream is on.
func (b *Ollama) ChatStream(ctx context.Context, req chat.Request) (<-chan chat.Delta, error) {
	resp, err := b.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(b.generateRequest(req, true)).
		SetDoNotParseResponse(true).
		Post(endpoint(b.baseURL, "/api/generate"))
	if err != nil {
		return nil, transportError(b.name, req.Model, err)
	}
	if resp.IsError() {
		return nil, httpError(b.name, req.Model, resp)
	}
	if resp.RawResponse == nil || resp.RawResponse.Body == nil {
		return nil, badResponseError(b.name, req.Model, "empty streaming response body")
	}

	out := make(chan chat.Delta, channelBufferSize)
	go func() {
		defer close(out)
		defer resp.RawResponse.Body.Close()

		scanner := bufio.NewScanner(resp.RawResponse.Body)
		scanner.Buffer(make([]byte, 0, scannerInitialBuffer), scannerMaxBuffer)

		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			var chunk ollamaChunk
			if err := json.Unmarshal([]byte(line), &chunk); err != nil {
				sendDelta(ctx, out, chat.Delta{Err: badResponseError(b.name, req.Model, "undecodable stream chunk")})
				return
			}
			if chunk.Response != "" {
				if !sendDelta(ctx, out, chat.Delta{Content: chunk.Response}) {
					return
				}
			}
			if chunk.Done {
				sendDelta(ctx, out, chat.Delta{Done: true})
				return
			}
		}
		if err := scanner.Err(); err != nil {
			sendDelta(ctx, out, chat.Delta{Err: transportError(b.name, req.Model, err)})
		}
	}()
	return out, nil
}

// ListModels enumerates models installed on the server.
func (b *Ollama) ListModels(ctx context.Context) ([]string, error) {
	var respBody struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	resp, err := b.client.R().
		SetContext(ctx).
		SetResult(&respBody).
		Get(endpoint(b.baseURL, "/api/tags"))
	if err != nil {
		return nil, transportError(b.name, "", err)
	}
	if resp.IsError() {
		return nil, httpError(b.name, "", resp)
	}

	names := make([]string, 0, len(respBody.Models))
	for _, m := range respBody.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

func (b *Ollama) Close() error {
	return b.client.Close()
}

func (b *Ollama) generateRequest(req chat.Request, stream bool) ollamaRequest {
	options := map[string]any{}
	if v, ok := req.Params.Float(chat.ParamTemperature); ok {
		options["temperature"] = v
	}
	if v, ok := req.Params.Int(chat.ParamMaxTokens); ok {
		options["num_predict"] = v
	}
	if v, ok := req.Params.Float(chat.ParamTopP); ok {
		options["top_p"] = v
	}
	if v, ok := req.Params.Int(chat.ParamTopK); ok {
		options["top_k"] = v
	}
	return ollamaRequest{
		Model:   req.Model,
		Prompt:  flattenConversation(req.Messages),
		Stream:  stream,
		Options: options,
	}
}

// flattenConversation renders role-prefixed turns separated by blank
// lines, ending with an "Assistant:" cue.
func flattenConversation(messages []chat.Message) string {
	parts := make([]string, 0, len(messages)+1)
	for _, m := range messages {
		switch m.Role {
		case chat.RoleSystem:
			parts = append(parts, "System: "+m.Content)
		case chat.RoleUser:
			parts = append(parts, "Human: "+m.Content)
		case chat.RoleAssistant:
			parts = append(parts, "Assistant: "+m.Content)
		default:
			parts = append(parts, string(m.Role)+": "+m.Content)
		}
	}
	parts = append(parts, "Assistant:")
	return strings.Join(parts, "\n\n")
}
