package modelresponses

import (
	"llm-gateway/internal/domain/catalog"
)

// ModelResponse is one catalog entry in the OpenAI-compatible list shape.
type ModelResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	OwnedBy string `json:"owned_by"`
}

type ModelResponseList struct {
	Object string          `json:"object"`
	Data   []ModelResponse `json:"data"`
}

// BuildModelResponseList converts catalog entries to the wire shape.
// Entries arrive already sorted by provider then model ID.
func BuildModelResponseList(entries []catalog.Entry) ModelResponseList {
	data := make([]ModelResponse, 0, len(entries))
	for _, e := range entries {
		data = append(data, ModelResponse{
			ID:      e.ID,
			Object:  "model",
			OwnedBy: e.Provider,
		})
	}
	return ModelResponseList{Object: "list", Data: data}
}
