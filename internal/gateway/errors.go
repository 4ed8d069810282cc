package gateway

import "fmt"

// Backend error categories carried into security events.
const (
	CategoryAPI         = "api"
	CategoryAuth        = "auth"
	CategoryConnection  = "network"
	CategoryRateLimit   = "rate_limit"
	CategoryTimeout     = "timeout"
	CategoryBadResponse = "bad_response"
)

// CredentialFormatError reports a credential that fails the provider's
// shape check. Raised before any network attempt.
type CredentialFormatError struct {
	Provider string
}

func (e *CredentialFormatError) Error() string {
	return fmt.Sprintf("invalid api key format for provider %s", e.Provider)
}

// MessageValidationError reports an empty, malformed or unsafe message
// list. Raised before any network attempt.
type MessageValidationError struct {
	Reason string
}

func (e *MessageValidationError) Error() string {
	return fmt.Sprintf("invalid messages: %s", e.Reason)
}

// ParameterRangeError reports a recognized generation parameter outside
// its bound or of the wrong type.
type ParameterRangeError struct {
	Field string
}

func (e *ParameterRangeError) Error() string {
	return fmt.Sprintf("parameter %s is out of range or has the wrong type", e.Field)
}

// BackendError is any failure surfaced by a backend during the network
// call. The gateway logs a redacted event about it and returns it
// unchanged; it never reclassifies or swallows the underlying error.
type BackendError struct {
	Provider string
	Model    string
	Category string
	Status   int
	Err      error
}

func (e *BackendError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s backend error (%s, status %d): %v", e.Provider, e.Category, e.Status, e.Err)
	}
	return fmt.Sprintf("%s backend error (%s): %v", e.Provider, e.Category, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
