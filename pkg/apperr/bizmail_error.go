package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Validation errors
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeBadRequest       = "BAD_REQUEST"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeMissingField     = "MISSING_FIELD"

	// Resource errors
	CodeNotFound = "NOT_FOUND"

	// LLM gateway errors
	CodeGatewayError       = "GATEWAY_ERROR"
	CodeGatewayTimeout     = "GATEWAY_TIMEOUT"
	CodeGatewayUnavailable = "GATEWAY_UNAVAILABLE"
	CodeModelUnavailable   = "MODEL_UNAVAILABLE"
	CodeMalformedResponse  = "MALFORMED_RESPONSE"

	// Internal errors
	CodeDatabaseError = "DATABASE_ERROR"
	CodeInternalError = "INTERNAL_ERROR"
	CodeConfigError   = "CONFIG_ERROR"
)

// Gateway failure kinds, reported in Details["kind"].
const (
	KindTimeout          = "timeout"
	KindTransport        = "transport"
	KindModelUnavailable = "model_unavailable"
	KindProviderError    = "provider_error"
	KindHTTPStatus       = "http_status"
	KindEmptyResponse    = "empty_response"
)

// AppError represents a structured application error
type AppError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Status  int            `json:"-"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// Kind returns the gateway failure kind, or "" for other errors.
func (e *AppError) Kind() string {
	k, _ := e.Details["kind"].(string)
	return k
}

// Validation errors
func BadRequest(message string) *AppError {
	return &AppError{
		Code:    CodeBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

func InvalidInput(field, reason string) *AppError {
	return &AppError{
		Code:    CodeInvalidInput,
		Message: fmt.Sprintf("invalid input for '%s': %s", field, reason),
		Status:  http.StatusBadRequest,
		Details: map[string]any{"field": field},
	}
}

func MissingField(field string) *AppError {
	return &AppError{
		Code:    CodeMissingField,
		Message: fmt.Sprintf("missing required field: %s", field),
		Status:  http.StatusBadRequest,
		Details: map[string]any{"field": field},
	}
}

// Resource errors
func NotFound(resource string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
	}
}

// Gateway errors

// GatewayTimeout is returned when every attempt timed out.
func GatewayTimeout(attempts int, err error) *AppError {
	return &AppError{
		Code:    CodeGatewayTimeout,
		Message: fmt.Sprintf("llm gateway timed out after %d attempts", attempts),
		Status:  http.StatusGatewayTimeout,
		Details: map[string]any{"kind": KindTimeout, "attempts": attempts},
		Err:     err,
	}
}

// GatewayUnavailable is returned when transient transport failures exhausted the retry budget.
func GatewayUnavailable(attempts int, err error) *AppError {
	return &AppError{
		Code:    CodeGatewayUnavailable,
		Message: fmt.Sprintf("llm gateway unreachable after %d attempts", attempts),
		Status:  http.StatusServiceUnavailable,
		Details: map[string]any{"kind": KindTransport, "attempts": attempts},
		Err:     err,
	}
}

func ModelUnavailable(model, providerMessage string) *AppError {
	return &AppError{
		Code:    CodeModelUnavailable,
		Message: fmt.Sprintf("model %s is not available in the account catalog: %s", model, providerMessage),
		Status:  http.StatusBadGateway,
		Details: map[string]any{"kind": KindModelUnavailable, "model": model},
	}
}

func ProviderError(code, message string) *AppError {
	return &AppError{
		Code:    CodeGatewayError,
		Message: fmt.Sprintf("llm provider error %s: %s", code, message),
		Status:  http.StatusBadGateway,
		Details: map[string]any{"kind": KindProviderError, "provider_code": code},
	}
}

func GatewayHTTPStatus(status int, body string) *AppError {
	return &AppError{
		Code:    CodeGatewayError,
		Message: fmt.Sprintf("llm provider returned HTTP %d: %s", status, body),
		Status:  http.StatusBadGateway,
		Details: map[string]any{"kind": KindHTTPStatus, "http_status": status},
	}
}

// MalformedResponse is returned when no text could be extracted from the provider payload.
func MalformedResponse(payload string) *AppError {
	return &AppError{
		Code:    CodeMalformedResponse,
		Message: "llm provider returned an empty response",
		Status:  http.StatusBadGateway,
		Details: map[string]any{"kind": KindEmptyResponse, "payload": payload},
	}
}

// Internal errors
func DatabaseError(operation string, err error) *AppError {
	return &AppError{
		Code:    CodeDatabaseError,
		Message: fmt.Sprintf("database error: %s", operation),
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

func InternalWithError(err error) *AppError {
	return &AppError{
		Code:    CodeInternalError,
		Message: "internal server error",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

func ConfigError(message string) *AppError {
	return &AppError{
		Code:    CodeConfigError,
		Message: message,
		Status:  http.StatusInternalServerError,
	}
}

// Helper functions
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return InternalWithError(err)
}

func GetHTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// IsValidation reports whether err is a caller input error.
func IsValidation(err error) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	switch appErr.Code {
	case CodeValidationFailed, CodeInvalidInput, CodeMissingField, CodeBadRequest:
		return true
	}
	return false
}

// IsGateway reports whether err originated at the LLM gateway.
func IsGateway(err error) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	switch appErr.Code {
	case CodeGatewayError, CodeGatewayTimeout, CodeGatewayUnavailable, CodeModelUnavailable, CodeMalformedResponse:
		return true
	}
	return false
}
