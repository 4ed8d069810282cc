package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Gateway metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llm",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Token counters
	TokensPromptTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llm",
			Subsystem: "gateway",
			Name:      "tokens_prompt_total",
			Help:      "Total prompt tokens consumed",
		},
		[]string{"model", "provider"},
	)

	TokensCompletionTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llm",
			Subsystem: "gateway",
			Name:      "tokens_completion_total",
			Help:      "Total completion tokens generated",
		},
		[]string{"model", "provider"},
	)

	// Provider errors
	ProviderErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llm",
			Subsystem: "gateway",
			Name:      "provider_errors_total",
			Help:      "Total provider call failures",
		},
		[]string{"provider", "category"},
	)

	// Security events
	SecurityEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llm",
			Subsystem: "gateway",
			Name:      "security_events_total",
			Help:      "Security events emitted, by event type",
		},
		[]string{"event_type"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "llm",
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint", "status"},
	)

	// LLM inference duration
	LLMDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "llm",
			Subsystem: "gateway",
			Name:      "llm_duration_seconds",
			Help:      "LLM inference duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"model", "provider", "stream"},
	)

	// Time to first token (streaming)
	FirstTokenDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "llm",
			Subsystem: "gateway",
			Name:      "first_token_seconds",
			Help:      "Time to first token for streaming requests",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"model", "provider"},
	)

	// Tokens per request distribution
	TokensPerRequest = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "llm",
			Subsystem: "gateway",
			Name:      "tokens_per_request",
			Help:      "Distribution of tokens per request",
			Buckets:   []float64{10, 50, 100, 500, 1000, 5000, 10000},
		},
		[]string{"model", "type"},
	)

	// Active streaming connections gauge
	ActiveStreams = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "llm",
			Subsystem: "gateway",
			Name:      "active_streams",
			Help:      "Currently active streaming connections",
		},
		[]string{"provider"},
	)

	// Provider health gauge
	ProviderHealth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "llm",
			Subsystem: "gateway",
			Name:      "provider_health",
			Help:      "Provider health status (1=healthy, 0=unhealthy)",
		},
		[]string{"provider"},
	)

	// Estimated spend
	EstimatedCostTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llm",
			Subsystem: "gateway",
			Name:      "estimated_cost_usd_total",
			Help:      "Estimated USD spend derived from token usage",
		},
		[]string{"model", "provider"},
	)
)

// RecordRequest records an HTTP request with its duration
func RecordRequest(method, endpoint string, status int, durationSec float64) {
	code := strconv.Itoa(status)
	RequestsTotal.WithLabelValues(method, endpoint, code).Inc()
	RequestDuration.WithLabelValues(method, endpoint, code).Observe(durationSec)
}

// RecordTokens records token usage for a completion request
func RecordTokens(model, provider string, promptTokens, completionTokens int) {
	TokensPromptTotal.WithLabelValues(model, provider).Add(float64(promptTokens))
	TokensCompletionTotal.WithLabelValues(model, provider).Add(float64(completionTokens))
	TokensPerRequest.WithLabelValues(model, "prompt").Observe(float64(promptTokens))
	TokensPerRequest.WithLabelValues(model, "completion").Observe(float64(completionTokens))
}

// RecordLLMDuration records the duration of an LLM inference call
func RecordLLMDuration(model, provider string, stream bool, durationSec float64) {
	LLMDuration.WithLabelValues(model, provider, strconv.FormatBool(stream)).Observe(durationSec)
}

// RecordFirstToken records time to first token for streaming
func RecordFirstToken(model, provider string, durationSec float64) {
	FirstTokenDuration.WithLabelValues(model, provider).Observe(durationSec)
}

// RecordProviderError records a provider failure by category
func RecordProviderError(provider, category string) {
	ProviderErrorsTotal.WithLabelValues(provider, category).Inc()
}

// RecordSecurityEvent counts an emitted security event
func RecordSecurityEvent(eventType string) {
	SecurityEventsTotal.WithLabelValues(eventType).Inc()
}

// AddEstimatedCost accumulates estimated spend for a model
func AddEstimatedCost(model, provider string, usd float64) {
	if usd > 0 {
		EstimatedCostTotal.WithLabelValues(model, provider).Add(usd)
	}
}

// SetProviderHealth marks a provider healthy or unhealthy
func SetProviderHealth(provider string, healthy bool) {
	v := 0.0
	if healthy {
		v = 1.0
	}
	ProviderHealth.WithLabelValues(provider).Set(v)
}

// StreamStarted tracks a new active streaming connection
func StreamStarted(provider string) {
	ActiveStreams.WithLabelValues(provider).Inc()
}

// StreamEnded tracks a finished streaming connection
func StreamEnded(provider string) {
	ActiveStreams.WithLabelValues(provider).Dec()
}
