package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"llm-gateway/internal/config"
	"llm-gateway/internal/interfaces/httpserver/routes/v1/chat"
	"llm-gateway/internal/interfaces/httpserver/routes/v1/model"
)

type V1Route struct {
	model *model.ModelRoute
	chat  *chat.ChatCompletionRoute
}

func NewV1Route(
	model *model.ModelRoute,
	chat *chat.ChatCompletionRoute,
) *V1Route {
	return &V1Route{
		model,
		chat,
	}
}

func (v1Route *V1Route) RegisterRouter(router gin.IRouter) {
	v1Router := router.Group("/v1")
	v1Router.GET("/version", GetVersion)
	v1Router.GET("/healthz", GetHealthz)
	v1Router.GET("/readyz", GetReadyz)

	v1Route.model.RegisterRouter(v1Router)
	v1Route.chat.RegisterRouter(v1Router)
}

// GetVersion returns the build version of the gateway.
func GetVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version": config.Version,
	})
}

// GetHealthz reports liveness for orchestrators and monitors.
func GetHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetReadyz reports readiness to accept traffic.
func GetReadyz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
