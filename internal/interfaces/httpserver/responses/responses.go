package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"llm-gateway/internal/domain/provider"
	"llm-gateway/internal/gateway"
	"llm-gateway/internal/interfaces/httpserver/middlewares"
)

// ErrorResponse is the JSON error body for every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	RequestID string `json:"request_id,omitempty"`
}

// Error kinds surfaced to HTTP callers. They mirror the gateway error
// taxonomy so clients can branch without parsing messages.
const (
	KindUnknownProvider  = "unknown_provider"
	KindInvalidAPIKey    = "invalid_api_key"
	KindInvalidMessages  = "invalid_messages"
	KindInvalidParameter = "invalid_parameter"
	KindBackendError     = "backend_error"
	KindBadRequest       = "bad_request"
	KindInternal         = "internal_error"
)

// HandleError maps a gateway error kind onto an HTTP status and aborts
// the request with the typed error body.
func HandleError(reqCtx *gin.Context, err error) {
	status, kind := classify(err)
	reqCtx.AbortWithStatusJSON(status, ErrorResponse{
		Error:     err.Error(),
		Kind:      kind,
		RequestID: middlewares.RequestIDFromContext(reqCtx),
	})
}

// HandleBadRequest reports a malformed request body or similar caller
// mistake detected before the gateway is involved.
func HandleBadRequest(reqCtx *gin.Context, message string) {
	reqCtx.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Error:     message,
		Kind:      KindBadRequest,
		RequestID: middlewares.RequestIDFromContext(reqCtx),
	})
}

func classify(err error) (int, string) {
	var unknown *provider.UnknownProviderError
	if errors.As(err, &unknown) {
		return http.StatusNotFound, KindUnknownProvider
	}
	var notCfg *gateway.NotConfiguredError
	if errors.As(err, &notCfg) {
		return http.StatusNotFound, KindUnknownProvider
	}
	var cred *gateway.CredentialFormatError
	if errors.As(err, &cred) {
		return http.StatusUnauthorized, KindInvalidAPIKey
	}
	var msgs *gateway.MessageValidationError
	if errors.As(err, &msgs) {
		return http.StatusBadRequest, KindInvalidMessages
	}
	var param *gateway.ParameterRangeError
	if errors.As(err, &param) {
		return http.StatusBadRequest, KindInvalidParameter
	}
	var backend *gateway.BackendError
	if errors.As(err, &backend) {
		switch backend.Category {
		case gateway.CategoryRateLimit:
			return http.StatusTooManyRequests, KindBackendError
		case gateway.CategoryTimeout:
			return http.StatusGatewayTimeout, KindBackendError
		default:
			return http.StatusBadGateway, KindBackendError
		}
	}
	return http.StatusInternalServerError, KindInternal
}
