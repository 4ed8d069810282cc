package chathandler

import (
	"context"

	"github.com/rs/zerolog"

	"llm-gateway/internal/domain/chat"
	"llm-gateway/internal/gateway"
	chatrequests "llm-gateway/internal/interfaces/httpserver/requests/chat"
)

// ChatHandler resolves the requested provider handle and dispatches chat
// completions through the gateway.
type ChatHandler struct {
	gw      *gateway.Gateway
	handles *gateway.HandleSet
	logger  zerolog.Logger
}

func NewChatHandler(gw *gateway.Gateway, handles *gateway.HandleSet, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		gw:      gw,
		handles: handles,
		logger:  logger,
	}
}

// StreamResult carries a started stream together with the provider and
// model that serve it, resolved from the request defaults.
type StreamResult struct {
	Provider string
	Model    string
	Deltas   <-chan chat.Delta
}

// Complete runs a non-streaming completion against the requested
// provider, or the default provider when the request names none.
func (h *ChatHandler) Complete(ctx context.Context, request chatrequests.ChatCompletionRequest) (*chat.Response, error) {
	handle, err := h.handles.Chat(request.Provider)
	if err != nil {
		return nil, err
	}
	return h.gw.Chat(ctx, handle.WithModel(request.Model), request.Messages, request.Params())
}

// StreamCompletion starts a streaming completion. Validation failures
// surface as the returned error; the channel only opens once the backend
// call is underway.
func (h *ChatHandler) StreamCompletion(ctx context.Context, request chatrequests.ChatCompletionRequest) (*StreamResult, error) {
	handle, err := h.handles.Stream(request.Provider)
	if err != nil {
		return nil, err
	}
	handle = handle.WithModel(request.Model)
	deltas, err := h.gw.ChatStream(ctx, handle, request.Messages, request.Params())
	if err != nil {
		return nil, err
	}
	return &StreamResult{
		Provider: handle.Provider,
		Model:    handle.Model,
		Deltas:   deltas,
	}, nil
}

// Providers lists the providers configured for chat completions.
func (h *ChatHandler) Providers() []string {
	return h.handles.Providers()
}
