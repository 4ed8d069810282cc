package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"llm-gateway/internal/domain/chat"
	"llm-gateway/internal/domain/provider"
	"llm-gateway/internal/domain/tokenusage"
	"llm-gateway/internal/infrastructure/metrics"
	"llm-gateway/internal/infrastructure/observability"
	"llm-gateway/internal/security"
)

const tracerName = "llm-gateway"

// Gateway fronts every backend call with the validation gate and the
// security event sink. It holds no cross-call state; registries are
// read-only after startup and each handle owns its backend.
type Gateway struct {
	chatReg   *provider.ChatRegistry
	streamReg *provider.StreamRegistry
	events    *security.Events
	calls     callLogger
	estimator *tokenusage.Estimator
}

// New wires a gateway. The logger is injected; the gateway never reaches
// for an ambient global.
func New(
	chatReg *provider.ChatRegistry,
	streamReg *provider.StreamRegistry,
	events *security.Events,
	estimator *tokenusage.Estimator,
	logger zerolog.Logger,
) *Gateway {
	return &Gateway{
		chatReg:   chatReg,
		streamReg: streamReg,
		events:    events,
		calls:     callLogger{logger: logger},
		estimator: estimator,
	}
}

// Handle is a constructed provider handle for blocking chat calls.
type Handle struct {
	Provider string
	Model    string
	backend  provider.Backend
}

// Backend exposes the underlying backend, for capability probing such as
// model listing.
func (h *Handle) Backend() provider.Backend {
	return h.backend
}

// Close releases the backend when it holds a connection.
func (h *Handle) Close() error {
	if c, ok := h.backend.(provider.Closer); ok {
		return c.Close()
	}
	return nil
}

// WithModel returns a copy of the handle targeting a different model on
// the same backend. An empty model keeps the configured one.
func (h *Handle) WithModel(model string) *Handle {
	if model == "" || model == h.Model {
		return h
	}
	clone := *h
	clone.Model = model
	return &clone
}

// StreamHandle is a constructed provider handle for streaming calls.
type StreamHandle struct {
	Provider string
	Model    string
	backend  provider.StreamBackend
}

// Close releases the backend when it holds a connection.
func (h *StreamHandle) Close() error {
	if c, ok := h.backend.(provider.Closer); ok {
		return c.Close()
	}
	return nil
}

// WithModel returns a copy of the handle targeting a different model on
// the same backend. An empty model keeps the configured one.
func (h *StreamHandle) WithModel(model string) *StreamHandle {
	if model == "" || model == h.Model {
		return h
	}
	clone := *h
	clone.Model = model
	return &clone
}

// Create resolves a provider in the chat namespace, merges the caller
// config over the descriptor defaults, checks the credential shape and
// constructs the backend. No network call happens before the credential
// check passes.
func (g *Gateway) Create(providerName string, cfg provider.Config) (*Handle, error) {
	d, err := g.chatReg.Lookup(providerName)
	if err != nil {
		return nil, err
	}
	merged := mergeConfig(d.DefaultModel, d.ExtraDefaults, cfg)
	apiKey := merged.String(provider.ConfigAPIKey)
	if err := g.checkCredential(providerName, apiKey); err != nil {
		return nil, err
	}
	backend, err := d.New(merged)
	if err != nil {
		return nil, fmt.Errorf("construct %s backend: %w", providerName, err)
	}
	h := &Handle{
		Provider: providerName,
		Model:    merged.String(provider.ConfigModel),
		backend:  backend,
	}
	g.calls.ProviderInit(providerName, h.Model, apiKey != "")
	return h, nil
}

// CreateStream is Create against the stream namespace.
func (g *Gateway) CreateStream(providerName string, cfg provider.Config) (*StreamHandle, error) {
	d, err := g.streamReg.Lookup(providerName)
	if err != nil {
		return nil, err
	}
	merged := mergeConfig(d.DefaultModel, d.ExtraDefaults, cfg)
	apiKey := merged.String(provider.ConfigAPIKey)
	if err := g.checkCredential(providerName, apiKey); err != nil {
		return nil, err
	}
	backend, err := d.New(merged)
	if err != nil {
		return nil, fmt.Errorf("construct %s stream backend: %w", providerName, err)
	}
	h := &StreamHandle{
		Provider: providerName,
		Model:    merged.String(provider.ConfigModel),
		backend:  backend,
	}
	g.calls.ProviderInit(providerName, h.Model, apiKey != "")
	return h, nil
}

// Chat validates the request, delegates to the backend and routes
// telemetry and failures through the redacting sink. Backend errors are
// returned unchanged.
func (g *Gateway) Chat(ctx context.Context, h *Handle, messages []chat.Message, params chat.Params) (*chat.Response, error) {
	if err := g.checkRequest(h.Provider, messages, params); err != nil {
		return nil, err
	}

	ctx, span := observability.StartSpan(ctx, tracerName, "gateway.chat")
	defer span.End()
	observability.AddSpanAttributes(ctx,
		attribute.String("llm.provider", h.Provider),
		attribute.String("llm.model", h.Model),
	)

	if timeout, ok := params.Timeout(); ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	g.calls.CallStart(h.Provider, h.Model, len(messages))
	start := time.Now()
	resp, err := h.backend.Chat(ctx, chat.Request{Model: h.Model, Messages: messages, Params: params})
	elapsed := time.Since(start)
	if err != nil {
		observability.RecordError(ctx, err)
		g.recordFailure(h.Provider, h.Model, err)
		return nil, err
	}

	g.calls.CallEnd(h.Provider, h.Model, elapsed)
	metrics.RecordLLMDuration(h.Model, h.Provider, false, elapsed.Seconds())
	if resp.Usage != nil {
		g.recordUsage(h.Provider, resp.Model, resp.Usage)
	}
	return resp, nil
}

// ChatStream validates the request and opens a delta stream. The
// returned channel closes after the final delta or when ctx ends.
func (g *Gateway) ChatStream(ctx context.Context, h *StreamHandle, messages []chat.Message, params chat.Params) (<-chan chat.Delta, error) {
	if err := g.checkRequest(h.Provider, messages, params); err != nil {
		return nil, err
	}

	cancel := context.CancelFunc(func() {})
	if timeout, ok := params.Timeout(); ok {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	}

	g.calls.CallStart(h.Provider, h.Model, len(messages))
	start := time.Now()
	deltas, err := h.backend.ChatStream(ctx, chat.Request{Model: h.Model, Messages: messages, Params: params})
	if err != nil {
		cancel()
		g.recordFailure(h.Provider, h.Model, err)
		return nil, err
	}

	metrics.StreamStarted(h.Provider)
	out := make(chan chat.Delta)
	go func() {
		defer close(out)
		defer cancel()
		defer metrics.StreamEnded(h.Provider)
		first := true
		for d := range deltas {
			if d.Err == nil && first {
				metrics.RecordFirstToken(h.Model, h.Provider, time.Since(start).Seconds())
				first = false
			}
			if d.Err != nil {
				g.recordFailure(h.Provider, h.Model, d.Err)
			}
			select {
			case out <- d:
			case <-ctx.Done():
				return
			}
			if d.Err != nil {
				return
			}
		}
		g.calls.CallEnd(h.Provider, h.Model, time.Since(start))
		metrics.RecordLLMDuration(h.Model, h.Provider, true, time.Since(start).Seconds())
	}()
	return out, nil
}

func (g *Gateway) checkCredential(providerName, apiKey string) error {
	if security.CheckCredential(providerName, apiKey) {
		return nil
	}
	// The key itself stays out of the detail map.
	g.emit(security.EventInvalidAPIKey, map[string]any{
		"provider":       providerName,
		"api_key_format": "invalid",
	})
	return &CredentialFormatError{Provider: providerName}
}

func (g *Gateway) checkRequest(providerName string, messages []chat.Message, params chat.Params) error {
	if !security.CheckMessages(messages) {
		g.emit(security.EventInvalidMessages, map[string]any{
			"provider":      providerName,
			"message_count": len(messages),
		})
		return &MessageValidationError{Reason: "message list is empty, malformed or unsafe"}
	}
	if field, ok := security.CheckParams(params); !ok {
		g.emit(security.EventInvalidParameter, map[string]any{
			"provider":  providerName,
			"parameter": field,
		})
		return &ParameterRangeError{Field: field}
	}
	return nil
}

// recordFailure emits a redacted event about a backend failure. The error
// itself travels back to the caller untouched; only the detail map is
// masked. Raw error text never enters the detail, it may embed request
// content.
func (g *Gateway) recordFailure(providerName, model string, err error) {
	detail := map[string]any{
		"provider": providerName,
		"model":    model,
	}
	eventType := security.EventUnexpectedError
	category := "unexpected"
	var be *BackendError
	if errors.As(err, &be) {
		eventType = security.EventAPIError
		category = be.Category
		detail["category"] = be.Category
		if be.Status != 0 {
			detail["status"] = be.Status
		}
	} else {
		detail["error_type"] = fmt.Sprintf("%T", err)
	}
	g.emit(eventType, detail)
	metrics.RecordProviderError(providerName, category)
}

func (g *Gateway) recordUsage(providerName, model string, usage *chat.Usage) {
	cost := g.estimator.EstimateCost(model, usage)
	g.calls.TokenUsage(providerName, model, usage, cost)
	metrics.RecordTokens(model, providerName, usage.PromptTokens, usage.CompletionTokens)
	metrics.AddEstimatedCost(model, providerName, cost.InexactFloat64())
}

func (g *Gateway) emit(eventType string, detail map[string]any) {
	g.events.Emit(eventType, detail)
	metrics.RecordSecurityEvent(eventType)
}

// mergeConfig lays caller config over descriptor defaults; explicit
// caller values win.
func mergeConfig(defaultModel string, extraDefaults map[string]any, cfg provider.Config) provider.Config {
	merged := make(provider.Config, len(extraDefaults)+len(cfg)+1)
	if defaultModel != "" {
		merged[provider.ConfigModel] = defaultModel
	}
	for k, v := range extraDefaults {
		merged[k] = v
	}
	for k, v := range cfg {
		merged[k] = v
	}
	return merged
}
