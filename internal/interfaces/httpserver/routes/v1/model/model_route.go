package model

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	modelhandler "llm-gateway/internal/interfaces/httpserver/handlers/modelhandler"
	modelresponses "llm-gateway/internal/interfaces/httpserver/responses/model"
)

type ModelRoute struct {
	modelHandler *modelhandler.ModelHandler
}

func NewModelRoute(modelHandler *modelhandler.ModelHandler) *ModelRoute {
	return &ModelRoute{
		modelHandler: modelHandler,
	}
}

func (modelRoute *ModelRoute) RegisterRouter(router *gin.RouterGroup) {
	modelsRoute := router.Group("models")
	modelsRoute.GET("", modelRoute.GetModels)
}

// GetModels lists the models known across all configured providers in
// the OpenAI-compatible list shape. Passing ?refresh=true re-syncs the
// catalog from the providers before answering.
func (modelRoute *ModelRoute) GetModels(reqCtx *gin.Context) {
	refresh := strings.EqualFold(reqCtx.Query("refresh"), "true")

	entries := modelRoute.modelHandler.List(reqCtx.Request.Context(), refresh)
	reqCtx.JSON(http.StatusOK, modelresponses.BuildModelResponseList(entries))
}
