package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	domainchat "llm-gateway/internal/domain/chat"
	"llm-gateway/internal/domain/provider"
	"llm-gateway/internal/domain/tokenusage"
	"llm-gateway/internal/gateway"
	"llm-gateway/internal/interfaces/httpserver/handlers/chathandler"
	"llm-gateway/internal/interfaces/httpserver/responses"
	"llm-gateway/internal/security"
)

type stubBackend struct {
	resp *domainchat.Response
	err  error
}

func (s *stubBackend) Chat(ctx context.Context, req domainchat.Request) (*domainchat.Response, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.resp != nil {
		return s.resp, nil
	}
	return &domainchat.Response{Provider: "stub", Model: req.Model, Content: "ok"}, nil
}

type stubStreamBackend struct {
	chunks    []string
	midErr    error
	dialErr   error
	sentModel string
}

func (s *stubStreamBackend) ChatStream(ctx context.Context, req domainchat.Request) (<-chan domainchat.Delta, error) {
	if s.dialErr != nil {
		return nil, s.dialErr
	}
	s.sentModel = req.Model
	out := make(chan domainchat.Delta)
	go func() {
		defer close(out)
		for _, c := range s.chunks {
			out <- domainchat.Delta{Content: c}
		}
		if s.midErr != nil {
			out <- domainchat.Delta{Err: s.midErr}
			return
		}
		out <- domainchat.Delta{Done: true}
	}()
	return out, nil
}

func newTestRouter(t *testing.T, backends map[string]provider.Backend, streams map[string]provider.StreamBackend) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zerolog.New(io.Discard)

	chatReg := provider.NewChatRegistry()
	for name, b := range backends {
		b := b
		chatReg.MustRegister(provider.Descriptor[provider.Backend]{
			Name:         name,
			DefaultModel: name + "-model",
			New: func(cfg provider.Config) (provider.Backend, error) {
				return b, nil
			},
		})
	}
	streamReg := provider.NewStreamRegistry()
	for name, s := range streams {
		s := s
		streamReg.MustRegister(provider.Descriptor[provider.StreamBackend]{
			Name:         name,
			DefaultModel: name + "-model",
			New: func(cfg provider.Config) (provider.StreamBackend, error) {
				return s, nil
			},
		})
	}

	gw := gateway.New(chatReg, streamReg, security.NewEvents(logger), tokenusage.NewEstimator(), logger)

	handles := gateway.NewHandleSet()
	for name := range backends {
		h, err := gw.Create(name, nil)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		handles.AddChat(h)
	}
	for name := range streams {
		h, err := gw.CreateStream(name, nil)
		if err != nil {
			t.Fatalf("create stream %s: %v", name, err)
		}
		handles.AddStream(h)
	}

	engine := gin.New()
	route := NewChatCompletionRoute(chathandler.NewChatHandler(gw, handles, logger), logger)
	route.RegisterRouter(engine.Group("/v1"))
	return engine
}

func postCompletion(engine *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestPostCompletionReturnsResponse(t *testing.T) {
	backend := &stubBackend{resp: &domainchat.Response{
		Provider: "ollama",
		Model:    "ollama-model",
		Content:  "hello there",
		Usage:    &domainchat.Usage{PromptTokens: 2, CompletionTokens: 3, TotalTokens: 5},
	}}
	engine := newTestRouter(t, map[string]provider.Backend{"ollama": backend}, nil)

	rec := postCompletion(engine, `{"messages":[{"role":"user","content":"hi"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp domainchat.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Content != "hello there" {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 5 {
		t.Errorf("usage lost in transit: %+v", resp.Usage)
	}
}

func TestPostCompletionRejectsEmptyMessages(t *testing.T) {
	engine := newTestRouter(t, map[string]provider.Backend{"ollama": &stubBackend{}}, nil)

	rec := postCompletion(engine, `{"messages":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var errResp responses.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if errResp.Kind != responses.KindInvalidMessages {
		t.Errorf("kind = %q, want %q", errResp.Kind, responses.KindInvalidMessages)
	}
}

func TestPostCompletionRejectsOutOfRangeParameter(t *testing.T) {
	engine := newTestRouter(t, map[string]provider.Backend{"ollama": &stubBackend{}}, nil)

	rec := postCompletion(engine, `{"messages":[{"role":"user","content":"hi"}],"temperature":7.5}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var errResp responses.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if errResp.Kind != responses.KindInvalidParameter {
		t.Errorf("kind = %q, want %q", errResp.Kind, responses.KindInvalidParameter)
	}
	if !strings.Contains(errResp.Error, "temperature") {
		t.Errorf("error should name the parameter: %s", errResp.Error)
	}
}

func TestPostCompletionUnconfiguredProvider(t *testing.T) {
	engine := newTestRouter(t, map[string]provider.Backend{"ollama": &stubBackend{}}, nil)

	rec := postCompletion(engine, `{"provider":"anthropic","messages":[{"role":"user","content":"hi"}]}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var errResp responses.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if errResp.Kind != responses.KindUnknownProvider {
		t.Errorf("kind = %q, want %q", errResp.Kind, responses.KindUnknownProvider)
	}
	if !strings.Contains(errResp.Error, "ollama") {
		t.Errorf("error should list configured providers: %s", errResp.Error)
	}
}

func TestPostCompletionMalformedBody(t *testing.T) {
	engine := newTestRouter(t, map[string]provider.Backend{"ollama": &stubBackend{}}, nil)

	rec := postCompletion(engine, `{"messages":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var errResp responses.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if errResp.Kind != responses.KindBadRequest {
		t.Errorf("kind = %q, want %q", errResp.Kind, responses.KindBadRequest)
	}
}

func TestPostCompletionMapsBackendErrors(t *testing.T) {
	tests := []struct {
		name       string
		category   string
		wantStatus int
	}{
		{"rate limit", gateway.CategoryRateLimit, http.StatusTooManyRequests},
		{"timeout", gateway.CategoryTimeout, http.StatusGatewayTimeout},
		{"api", gateway.CategoryAPI, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &stubBackend{err: &gateway.BackendError{
				Provider: "ollama",
				Model:    "ollama-model",
				Category: tt.category,
				Err:      errors.New("upstream unhappy"),
			}}
			engine := newTestRouter(t, map[string]provider.Backend{"ollama": backend}, nil)

			rec := postCompletion(engine, `{"messages":[{"role":"user","content":"hi"}]}`)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var errResp responses.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if errResp.Kind != responses.KindBackendError {
				t.Errorf("kind = %q, want %q", errResp.Kind, responses.KindBackendError)
			}
		})
	}
}

func TestPostCompletionStreamsSSE(t *testing.T) {
	stream := &stubStreamBackend{chunks: []string{"he", "llo"}}
	engine := newTestRouter(t,
		map[string]provider.Backend{"ollama": &stubBackend{}},
		map[string]provider.StreamBackend{"ollama": stream},
	)

	rec := postCompletion(engine, `{"stream":true,"model":"llama3:70b","messages":[{"role":"user","content":"hi"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("content type = %q", ct)
	}

	body := rec.Body.String()
	if !strings.HasSuffix(strings.TrimSpace(body), "data: [DONE]") {
		t.Errorf("stream should end with DONE marker: %q", body)
	}
	if stream.sentModel != "llama3:70b" {
		t.Errorf("model override not forwarded, backend saw %q", stream.sentModel)
	}

	var content strings.Builder
	for _, line := range strings.Split(body, "\n") {
		data, found := strings.CutPrefix(line, "data: ")
		if !found || data == "[DONE]" {
			continue
		}
		var chunk struct {
			Content string `json:"content"`
		}
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			t.Fatalf("decode chunk %q: %v", data, err)
		}
		content.WriteString(chunk.Content)
	}
	if content.String() != "hello" {
		t.Errorf("streamed content = %q, want hello", content.String())
	}
}

func TestPostCompletionStreamMidwayError(t *testing.T) {
	stream := &stubStreamBackend{chunks: []string{"partial"}, midErr: errors.New("connection reset")}
	engine := newTestRouter(t,
		map[string]provider.Backend{"ollama": &stubBackend{}},
		map[string]provider.StreamBackend{"ollama": stream},
	)

	rec := postCompletion(engine, `{"stream":true,"messages":[{"role":"user","content":"hi"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("headers already sent, status must stay 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	if strings.Contains(body, "[DONE]") {
		t.Errorf("failed stream must not carry the DONE marker: %q", body)
	}
	if !strings.Contains(body, "connection reset") {
		t.Errorf("error event missing from stream: %q", body)
	}
}

func TestPostCompletionStreamValidationFailsBeforeHeaders(t *testing.T) {
	stream := &stubStreamBackend{chunks: []string{"never"}}
	engine := newTestRouter(t,
		map[string]provider.Backend{"ollama": &stubBackend{}},
		map[string]provider.StreamBackend{"ollama": stream},
	)

	rec := postCompletion(engine, `{"stream":true,"messages":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("validation failure must answer plain JSON, got %q", ct)
	}
}
