package middlewares

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestIDGeneratesWhenMissing(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID())

	var seen string
	engine.GET("/ping", func(c *gin.Context) {
		seen = RequestIDFromContext(c)
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if seen == "" {
		t.Fatal("handler saw no request id")
	}
	if got := rec.Header().Get("X-Request-Id"); got != seen {
		t.Errorf("response header = %q, context id = %q", got, seen)
	}
}

func TestRequestIDKeepsIncoming(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-Id", "req-abc-123")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-Id"); got != "req-abc-123" {
		t.Errorf("response header = %q, want req-abc-123", got)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	engine := gin.New()
	engine.Use(RateLimitMiddleware(2))
	engine.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		engine.ServeHTTP(rec, req)
		statuses = append(statuses, rec.Code)
	}

	if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK {
		t.Fatalf("first two requests = %v, want 200s", statuses[:2])
	}
	if statuses[2] != http.StatusTooManyRequests {
		t.Fatalf("third request = %d, want 429", statuses[2])
	}
}

func TestRateLimitIsolatesClients(t *testing.T) {
	engine := gin.New()
	engine.Use(RateLimitMiddleware(1))
	engine.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(addr string) int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = addr
		engine.ServeHTTP(rec, req)
		return rec.Code
	}

	if got := send("10.0.0.1:1"); got != http.StatusOK {
		t.Fatalf("first client first call = %d", got)
	}
	if got := send("10.0.0.1:1"); got != http.StatusTooManyRequests {
		t.Fatalf("first client second call = %d, want 429", got)
	}
	if got := send("10.0.0.2:1"); got != http.StatusOK {
		t.Fatalf("second client should not share the first client's bucket, got %d", got)
	}
}

func TestRateBucketRefills(t *testing.T) {
	limiter := &ipLimiter{
		buckets:  make(map[string]*tokenBucket),
		capacity: 60,
		perSec:   1,
	}

	now := time.Now()
	for i := 0; i < 60; i++ {
		if !limiter.allow("k", now) {
			t.Fatalf("request %d within capacity was rejected", i)
		}
	}
	if limiter.allow("k", now) {
		t.Fatal("request beyond capacity was allowed")
	}
	if !limiter.allow("k", now.Add(2*time.Second)) {
		t.Fatal("bucket did not refill after the window advanced")
	}
}

func TestCORSPreflight(t *testing.T) {
	engine := gin.New()
	engine.Use(CORSMiddleware())
	engine.POST("/v1/chat/completions", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/v1/chat/completions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("allow-origin = %q", got)
	}
	if !strings.Contains(rec.Header().Get("Access-Control-Allow-Methods"), "POST") {
		t.Errorf("allow-methods = %q, want POST included", rec.Header().Get("Access-Control-Allow-Methods"))
	}
}

func TestCORSUnknownOriginGetsNoAllowOrigin(t *testing.T) {
	engine := gin.New()
	engine.Use(CORSMiddleware())
	engine.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("allow-origin = %q, want empty for unknown origin", got)
	}
}

func TestPrepareSSE(t *testing.T) {
	engine := gin.New()
	engine.GET("/stream", func(c *gin.Context) {
		flusher, ok := PrepareSSE(c)
		if !ok {
			t.Error("recorder should support flushing")
		}
		if flusher == nil {
			t.Error("flusher is nil")
		}
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stream", nil))

	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-cache" {
		t.Errorf("Cache-Control = %q", got)
	}
}
