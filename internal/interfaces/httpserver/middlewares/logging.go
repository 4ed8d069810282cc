package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"llm-gateway/internal/infrastructure/observability"
)

// LoggingMiddleware emits one structured line per request after the
// handler chain finishes. Level follows the response status: 5xx logs
// at error, 4xx at warn, everything else at info. Trace and request
// ids are attached when present so log lines join up with spans.
func LoggingMiddleware(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()

		var event *zerolog.Event
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		default:
			event = logger.Info()
		}

		ctx := c.Request.Context()
		if traceID := observability.TraceID(ctx); traceID != "" {
			event = event.
				Str("trace_id", traceID).
				Str("span_id", observability.SpanID(ctx))
		}
		if id := RequestIDFromContext(c); id != "" {
			event = event.Str("request_id", id)
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Msg(c.Errors.ByType(gin.ErrorTypePrivate).String())
	}
}
