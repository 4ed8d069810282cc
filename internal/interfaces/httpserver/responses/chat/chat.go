package chatresponses

import (
	"llm-gateway/internal/domain/chat"
)

// ChatCompletionChunk is one SSE frame of a streamed completion. The
// terminal frame is the literal [DONE] marker, not a chunk.
type ChatCompletionChunk struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Content  string `json:"content"`
}

func NewChunk(provider, model string, delta chat.Delta) ChatCompletionChunk {
	return ChatCompletionChunk{
		Provider: provider,
		Model:    model,
		Content:  delta.Content,
	}
}
