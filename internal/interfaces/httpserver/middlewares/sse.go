package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PrepareSSE stamps the response headers for a Server-Sent Events
// stream and returns the flusher used to push each event out. The
// second return is false when the underlying writer cannot flush, in
// which case the caller should answer with a plain error instead.
func PrepareSSE(c *gin.Context) (http.Flusher, bool) {
	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	// Tells nginx-style proxies not to buffer the stream.
	header.Set("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	return flusher, ok
}
