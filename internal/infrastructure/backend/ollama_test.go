package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"llm-gateway/internal/domain/chat"
	"llm-gateway/internal/domain/provider"
	"llm-gateway/internal/gateway"
)

func newTestOllama(t *testing.T, handler http.HandlerFunc) (*Ollama, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	b, err := NewOllama(provider.Config{provider.ConfigBaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewOllama returned error: %v", err)
	}
	return b, srv
}

func TestOllamaChat(t *testing.T) {
	var gotBody ollamaRequest

	b, _ := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"response": " hi there ", "done": true, "prompt_eval_count": 5, "eval_count": 7}`)
	})

	resp, err := b.Chat(context.Background(), chat.Request{
		Model: "llama3",
		Messages: []chat.Message{
			{Role: chat.RoleSystem, Content: "Be brief."},
			{Role: chat.RoleUser, Content: "Say hi."},
		},
		Params: chat.Params{chat.ParamMaxTokens: 64, chat.ParamTemperature: 0.1},
	})
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}

	wantPrompt := "System: Be brief.\n\nHuman: Say hi.\n\nAssistant:"
	if gotBody.Prompt != wantPrompt {
		t.Errorf("prompt = %q, want %q", gotBody.Prompt, wantPrompt)
	}
	if gotBody.Stream {
		t.Error("stream flag should be off for blocking chat")
	}
	if gotBody.Options["num_predict"] != float64(64) {
		t.Errorf("num_predict = %v, want 64", gotBody.Options["num_predict"])
	}
	if gotBody.Options["temperature"] != 0.1 {
		t.Errorf("temperature = %v, want 0.1", gotBody.Options["temperature"])
	}

	if resp.Content != "hi there" {
		t.Errorf("content = %q, want trimmed text", resp.Content)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 12 {
		t.Errorf("unexpected usage %+v", resp.Usage)
	}
}

func TestOllamaChatStream(t *testing.T) {
	b, _ := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		var body ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if !body.Stream {
			t.Error("stream flag should be on")
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		flusher := w.(http.Flusher)
		for _, line := range []string{
			`{"response": "Hel", "done": false}`,
			`{"response": "lo", "done": false}`,
			`{"done": true, "prompt_eval_count": 4, "eval_count": 2}`,
		} {
			fmt.Fprintln(w, line)
			flusher.Flush()
		}
	})

	deltas, err := b.ChatStream(context.Background(), chat.Request{
		Model:    "llama3",
		Messages: []chat.Message{{Role: chat.RoleUser, Content: "Say hi."}},
	})
	if err != nil {
		t.Fatalf("ChatStream returned error: %v", err)
	}

	var content string
	var done bool
	for d := range deltas {
		if d.Err != nil {
			t.Fatalf("unexpected stream error: %v", d.Err)
		}
		if d.Done {
			done = true
			continue
		}
		content += d.Content
	}
	if content != "Hello" {
		t.Errorf("assembled content = %q, want Hello", content)
	}
	if !done {
		t.Error("stream ended without a done delta")
	}
}

func TestOllamaChatStreamBadChunk(t *testing.T) {
	b, _ := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"response": "ok", "done": false}`)
		fmt.Fprintln(w, `this is not json`)
	})

	deltas, err := b.ChatStream(context.Background(), chat.Request{
		Model:    "llama3",
		Messages: []chat.Message{{Role: chat.RoleUser, Content: "Say hi."}},
	})
	if err != nil {
		t.Fatalf("ChatStream returned error: %v", err)
	}

	var streamErr error
	for d := range deltas {
		if d.Err != nil {
			streamErr = d.Err
		}
	}

	var be *gateway.BackendError
	if !errors.As(streamErr, &be) || be.Category != gateway.CategoryBadResponse {
		t.Fatalf("expected bad_response stream error, got %v", streamErr)
	}
}

func TestOllamaListModels(t *testing.T) {
	b, _ := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"models": [{"name": "llama3:latest"}, {"name": "mistral"}]}`)
	})

	names, err := b.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels returned error: %v", err)
	}
	if len(names) != 2 || names[0] != "llama3:latest" || names[1] != "mistral" {
		t.Errorf("unexpected model names %v", names)
	}
}

func TestOllamaHTTPError(t *testing.T) {
	b, _ := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error": "model not found"}`)
	})

	_, err := b.Chat(context.Background(), chat.Request{
		Model:    "nope",
		Messages: []chat.Message{{Role: chat.RoleUser, Content: "hi"}},
	})
	if err == nil {
		t.Fatal("expected error")
	}

	var be *gateway.BackendError
	if !errors.As(err, &be) {
		t.Fatalf("expected BackendError, got %T", err)
	}
	if be.Category != gateway.CategoryAPI || be.Status != http.StatusInternalServerError {
		t.Errorf("unexpected classification %q/%d", be.Category, be.Status)
	}
	if !strings.Contains(err.Error(), "model not found") {
		t.Errorf("error should carry the body detail: %v", err)
	}
}

func TestFlattenConversation(t *testing.T) {
	got := flattenConversation([]chat.Message{
		{Role: chat.RoleSystem, Content: "S"},
		{Role: chat.RoleUser, Content: "U1"},
		{Role: chat.RoleAssistant, Content: "A1"},
		{Role: chat.RoleUser, Content: "U2"},
	})
	want := "System: S\n\nHuman: U1\n\nAssistant: A1\n\nHuman: U2\n\nAssistant:"
	if got != want {
		t.Errorf("flattenConversation = %q, want %q", got, want)
	}
}
