package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"llm-gateway/internal/interfaces/httpserver/handlers/chathandler"
	"llm-gateway/internal/interfaces/httpserver/middlewares"
	chatrequests "llm-gateway/internal/interfaces/httpserver/requests/chat"
	"llm-gateway/internal/interfaces/httpserver/responses"
	chatresponses "llm-gateway/internal/interfaces/httpserver/responses/chat"
)

// ChatCompletionRoute handles chat completion requests with streaming
// support by delegating to the chat handler.
type ChatCompletionRoute struct {
	chatHandler *chathandler.ChatHandler
	logger      zerolog.Logger
}

func NewChatCompletionRoute(chatHandler *chathandler.ChatHandler, logger zerolog.Logger) *ChatCompletionRoute {
	return &ChatCompletionRoute{
		chatHandler: chatHandler,
		logger:      logger,
	}
}

func (route *ChatCompletionRoute) RegisterRouter(router gin.IRouter) {
	chatRouter := router.Group("/chat")
	chatRouter.POST("/completions", route.PostCompletion)
}

// PostCompletion generates a completion for the given conversation.
// With stream=false it answers one JSON body; with stream=true it
// answers Server-Sent Events ending in a [DONE] marker.
func (route *ChatCompletionRoute) PostCompletion(reqCtx *gin.Context) {
	var request chatrequests.ChatCompletionRequest
	if err := reqCtx.ShouldBindJSON(&request); err != nil {
		responses.HandleBadRequest(reqCtx, "invalid request body: "+err.Error())
		return
	}

	route.logger.Info().
		Str("route", "/v1/chat/completions").
		Str("provider", request.Provider).
		Str("model", request.Model).
		Int("messages", len(request.Messages)).
		Bool("stream", request.Stream).
		Msg("chat completion request received")

	if request.Stream {
		route.streamCompletion(reqCtx, request)
		return
	}

	resp, err := route.chatHandler.Complete(reqCtx.Request.Context(), request)
	if err != nil {
		responses.HandleError(reqCtx, err)
		return
	}
	reqCtx.JSON(http.StatusOK, resp)
}

func (route *ChatCompletionRoute) streamCompletion(reqCtx *gin.Context, request chatrequests.ChatCompletionRequest) {
	result, err := route.chatHandler.StreamCompletion(reqCtx.Request.Context(), request)
	if err != nil {
		// The stream has not started, so a plain JSON error still works.
		responses.HandleError(reqCtx, err)
		return
	}

	flusher, ok := middlewares.PrepareSSE(reqCtx)
	if !ok {
		responses.HandleError(reqCtx, errStreamingUnsupported)
		return
	}

	for delta := range result.Deltas {
		if delta.Err != nil {
			// Headers are gone; the error has to travel in-band.
			route.writeSSEEvent(reqCtx, responses.ErrorResponse{
				Error:     delta.Err.Error(),
				Kind:      responses.KindBackendError,
				RequestID: middlewares.RequestIDFromContext(reqCtx),
			})
			flusher.Flush()
			return
		}
		if delta.Done {
			break
		}
		route.writeSSEEvent(reqCtx, chatresponses.NewChunk(result.Provider, result.Model, delta))
		flusher.Flush()
	}

	if _, err := reqCtx.Writer.WriteString("data: [DONE]\n\n"); err != nil {
		route.logger.Warn().Err(err).Msg("unable to write stream terminator")
		return
	}
	flusher.Flush()
}

func (route *ChatCompletionRoute) writeSSEEvent(reqCtx *gin.Context, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		route.logger.Warn().Err(err).Msg("unable to marshal SSE event")
		return
	}
	if _, err := reqCtx.Writer.WriteString("data: " + string(data) + "\n\n"); err != nil {
		route.logger.Warn().Err(err).Msg("unable to write SSE event")
	}
}

var errStreamingUnsupported = errors.New("response writer does not support streaming")
