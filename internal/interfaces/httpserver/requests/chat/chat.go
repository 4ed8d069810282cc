package chatrequests

import (
	"llm-gateway/internal/domain/chat"
)

// ChatCompletionRequest is the JSON body for POST /v1/chat/completions.
// Provider and Model are optional; unset values fall back to the default
// provider and its configured model. Generation parameters are pointers
// so that absent and zero are distinguishable.
type ChatCompletionRequest struct {
	Provider string         `json:"provider,omitempty"`
	Model    string         `json:"model,omitempty"`
	Messages []chat.Message `json:"messages"`
	Stream   bool           `json:"stream,omitempty"`

	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	TopK        *int     `json:"top_k,omitempty"`
	// Timeout bounds the backend call, in seconds.
	Timeout *float64 `json:"timeout,omitempty"`
}

// Params collects the set generation parameters into the domain shape.
// Range checking happens downstream, not here.
func (r *ChatCompletionRequest) Params() chat.Params {
	params := chat.Params{}
	if r.Temperature != nil {
		params[chat.ParamTemperature] = *r.Temperature
	}
	if r.MaxTokens != nil {
		params[chat.ParamMaxTokens] = *r.MaxTokens
	}
	if r.TopP != nil {
		params[chat.ParamTopP] = *r.TopP
	}
	if r.TopK != nil {
		params[chat.ParamTopK] = *r.TopK
	}
	if r.Timeout != nil {
		params[chat.ParamTimeout] = *r.Timeout
	}
	if len(params) == 0 {
		return nil
	}
	return params
}
