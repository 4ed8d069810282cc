package httpserver

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"llm-gateway/internal/config"
	middleware "llm-gateway/internal/interfaces/httpserver/middlewares"
	v1 "llm-gateway/internal/interfaces/httpserver/routes/v1"
)

type HTTPServer struct {
	engine  *gin.Engine
	v1Route *v1.V1Route
	config  *config.Config
}

func NewHttpServer(
	v1Route *v1.V1Route,
	cfg *config.Config,
	logger zerolog.Logger,
) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)
	server := HTTPServer{
		gin.New(),
		v1Route,
		cfg,
	}
	server.engine.Use(middleware.RequestID())
	server.engine.Use(middleware.TracingMiddleware(cfg.ServiceName))
	server.engine.Use(middleware.LoggingMiddleware(logger))
	server.engine.Use(middleware.MetricsMiddleware())
	server.engine.Use(middleware.CORSMiddleware())
	if cfg.RateLimitPerMinute > 0 {
		server.engine.Use(middleware.RateLimitMiddleware(cfg.RateLimitPerMinute))
	}

	// Root health check (for orchestrator probes)
	server.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	server.engine.GET("/readyz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	server.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	server.v1Route.RegisterRouter(server.engine.Group("/"))
	return &server
}

// Engine exposes the router, mostly for tests.
func (httpServer *HTTPServer) Engine() *gin.Engine {
	return httpServer.engine
}

func (httpServer *HTTPServer) Run() error {
	return httpServer.engine.Run(fmt.Sprintf(":%d", httpServer.config.HTTPPort))
}
