package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"

	"llm-gateway/internal/infrastructure/metrics"
)

// MetricsMiddleware times each request and feeds the HTTP counters once
// the handler chain finishes.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}
		metrics.RecordRequest(c.Request.Method, endpoint, c.Writer.Status(), time.Since(start).Seconds())
	}
}
