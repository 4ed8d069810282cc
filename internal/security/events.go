package security

import (
	"encoding/json"

	"github.com/rs/zerolog"
)

// Security event types.
const (
	EventInvalidAPIKey    = "INVALID_API_KEY"
	EventInvalidMessages  = "INVALID_MESSAGES"
	EventInvalidParameter = "INVALID_PARAMETER"
	EventAPIError         = "API_ERROR"
	EventUnexpectedError  = "UNEXPECTED_ERROR"
)

// Events emits structured security events through an injected logger.
// Every detail map passes through Redact before serialization, so this is
// the one place allowed to forward gateway detail to a log sink.
type Events struct {
	logger zerolog.Logger
}

func NewEvents(logger zerolog.Logger) *Events {
	return &Events{logger: logger}
}

// Emit redacts detail, serializes it with a deterministic key order and
// writes one warning line.
func (e *Events) Emit(eventType string, detail map[string]any) {
	masked := Redact(detail)
	payload, err := json.Marshal(masked)
	if err != nil {
		payload = []byte(`{"detail_marshal_failed":true}`)
	}
	e.logger.Warn().
		Str("event_type", eventType).
		RawJSON("detail", payload).
		Msg("security event")
}
