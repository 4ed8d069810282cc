// Package backend holds the provider adapters. Every adapter maps the
// normalized chat request onto one vendor wire format and maps the vendor
// response and its failures back; vendor types never leave this package.
package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"resty.dev/v3"

	"llm-gateway/internal/domain/chat"
	"llm-gateway/internal/gateway"
	"llm-gateway/internal/infrastructure/logger"
)

const (
	channelBufferSize    = 100
	dataPrefix           = "data: "
	doneMarker           = "[DONE]"
	scannerInitialBuffer = 12 * 1024        // 12KB
	scannerMaxBuffer     = 10 * 1024 * 1024 // 10MB
)

type httpClientStartsAt struct{}

// newRestyClient builds the shared HTTP client for adapters that speak a
// vendor protocol directly. Every exchange is logged at debug level with
// latency and status, never with bodies or headers.
func newRestyClient(clientName string) *resty.Client {
	client := resty.New()
	client.AddRequestMiddleware(func(c *resty.Client, r *resty.Request) error {
		r.SetContext(context.WithValue(r.Context(), httpClientStartsAt{}, time.Now()))
		return nil
	})
	client.AddResponseMiddleware(func(c *resty.Client, r *resty.Response) error {
		log := logger.GetLogger()
		startTime, _ := r.Request.Context().Value(httpClientStartsAt{}).(time.Time)

		log.Debug().
			Str("client", clientName).
			Int("status", r.StatusCode()).
			Str("method", r.Request.RawRequest.Method).
			Str("path", r.Request.RawRequest.URL.Path).
			Dur("latency", time.Since(startTime)).
			Msg("HTTP client request")
		return nil
	})
	return client
}

// statusCategory maps an HTTP status onto the backend error taxonomy.
func statusCategory(status int) string {
	switch {
	case status == 401 || status == 403:
		return gateway.CategoryAuth
	case status == 429:
		return gateway.CategoryRateLimit
	case status == 408 || status == 504:
		return gateway.CategoryTimeout
	default:
		return gateway.CategoryAPI
	}
}

// transportCategory classifies failures that never produced an HTTP
// status.
func transportCategory(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return gateway.CategoryTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return gateway.CategoryTimeout
	}
	return gateway.CategoryConnection
}

// httpError turns a non-2xx resty response into a categorized backend
// error carrying the trimmed body text.
func httpError(providerName, model string, resp *resty.Response) error {
	status := statusCode(resp)
	err := fmt.Errorf("request failed with status %d", status)
	if detail := readErrorBody(resp); detail != "" {
		err = fmt.Errorf("request failed with status %d: %s", status, detail)
	}
	return &gateway.BackendError{
		Provider: providerName,
		Model:    model,
		Category: statusCategory(status),
		Status:   status,
		Err:      err,
	}
}

// transportError wraps a failure that happened before any HTTP status
// arrived.
func transportError(providerName, model string, err error) error {
	return &gateway.BackendError{
		Provider: providerName,
		Model:    model,
		Category: transportCategory(err),
		Err:      err,
	}
}

// badResponseError reports a 2xx reply whose body does not carry a usable
// completion.
func badResponseError(providerName, model, reason string) error {
	return &gateway.BackendError{
		Provider: providerName,
		Model:    model,
		Category: gateway.CategoryBadResponse,
		Err:      errors.New(reason),
	}
}

func readErrorBody(resp *resty.Response) string {
	if resp == nil || resp.RawResponse == nil || resp.RawResponse.Body == nil {
		return ""
	}
	defer resp.RawResponse.Body.Close()
	body, err := io.ReadAll(resp.RawResponse.Body)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(body))
}

func statusCode(resp *resty.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode()
}

// sendDelta forwards one delta unless ctx ends first. It reports whether
// the consumer is still listening.
func sendDelta(ctx context.Context, out chan<- chat.Delta, d chat.Delta) bool {
	select {
	case out <- d:
		return true
	case <-ctx.Done():
		return false
	}
}

func normalizeBaseURL(base string) string {
	trimmed := strings.TrimSpace(base)
	trimmed = strings.TrimRight(trimmed, "/")
	return trimmed
}

func endpoint(baseURL, path string) string {
	if path == "" {
		return baseURL
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if baseURL == "" {
		return path
	}
	if strings.HasPrefix(path, "/") {
		return baseURL + path
	}
	return baseURL + "/" + path
}
