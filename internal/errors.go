package internal

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"

	// upstream admin API failures
	ErrorTypeNetwork ErrorType = "NETWORK_ERROR"
	ErrorTypeHTTP    ErrorType = "HTTP_ERROR"
	ErrorTypeParse   ErrorType = "PARSE_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeUnknownEntity    ErrorCode = "UNKNOWN_ENTITY"
	ErrCodeUnknownFilter    ErrorCode = "UNKNOWN_FILTER"
	ErrCodeInvalidPage      ErrorCode = "INVALID_PAGE"

	ErrCodeTokenRequestFailed ErrorCode = "TOKEN_REQUEST_FAILED"
	ErrCodeTokenMissing       ErrorCode = "TOKEN_MISSING"
	ErrCodeUpstreamStatus     ErrorCode = "UPSTREAM_STATUS"
	ErrCodeUpstreamNetwork    ErrorCode = "UPSTREAM_UNREACHABLE"
	ErrCodeUnexpectedEnvelope ErrorCode = "UNEXPECTED_ENVELOPE"
	ErrCodeMalformedBody      ErrorCode = "MALFORMED_BODY"

	ErrCodePresetNotFound ErrorCode = "PRESET_NOT_FOUND"
	ErrCodeRecordNotFound ErrorCode = "RECORD_NOT_FOUND"

	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
	ErrCodeInsufficientScope  ErrorCode = "INSUFFICIENT_PERMISSIONS"
	ErrCodeRateLimited        ErrorCode = "RATE_LIMITED"
	ErrCodeRequestInvalid     ErrorCode = "REQUEST_INVALID"
)

// fallback shown when the upstream fails without telling us why
const GenericServerMessage = "Error communicating with server. Please check your connection and try again."

// AppError is the error every package returns across its boundary. The
// gateway serialises it as {"error": {...}}; the CLI prints ToastMessage.
type AppError struct {
	Type       ErrorType `json:"type"`
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    any       `json:"details,omitempty"`
	StatusCode int       `json:"-"`
	Cause      error     `json:"-"`
}

// Error prefers the first field message of a validation failure, which is
// what a form shows next to the field.
func (e *AppError) Error() string {
	if fields := e.fieldErrors(); len(fields) > 0 {
		return fields[0].Message
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// GetDetailedMessage joins every field message, or falls back to Message.
func (e *AppError) GetDetailedMessage() string {
	fields := e.fieldErrors()
	if len(fields) == 0 {
		return e.Message
	}
	messages := make([]string, 0, len(fields))
	for _, f := range fields {
		messages = append(messages, f.Message)
	}
	return strings.Join(messages, "; ")
}

func (e *AppError) fieldErrors() []ValidationError {
	if v, ok := e.Details.(ValidationErrors); ok {
		return v.Errors
	}
	return nil
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func newError(t ErrorType, code ErrorCode, status int, message string) *AppError {
	return &AppError{Type: t, Code: code, Message: message, StatusCode: status}
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return newError(ErrorTypeValidation, code, http.StatusBadRequest, message)
}

// NewValidationFieldError reports one invalid field. The top-level code is
// always VALIDATION_FAILED; code describes the field failure.
func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return newError(ErrorTypeValidation, ErrCodeValidationFailed, http.StatusBadRequest, "Validation failed").
		WithDetails(ValidationErrors{Errors: []ValidationError{{Field: field, Message: message, Code: string(code)}}})
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return newError(ErrorTypeNotFound, code, http.StatusNotFound, message)
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return newError(ErrorTypeUnauthorized, code, http.StatusUnauthorized, message)
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return newError(ErrorTypeForbidden, code, http.StatusForbidden, message)
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return newError(ErrorTypeConflict, code, http.StatusConflict, message)
}

func NewInternalError(message string, cause error) *AppError {
	return newError(ErrorTypeInternal, "INTERNAL_ERROR", http.StatusInternalServerError, message).WithCause(cause)
}

// NewNetworkError reports a transport failure talking to the admin API.
func NewNetworkError(message string, cause error) *AppError {
	return newError(ErrorTypeNetwork, ErrCodeUpstreamNetwork, http.StatusBadGateway, message).WithCause(cause)
}

// NewHTTPError wraps a non-2xx upstream response. StatusCode carries the
// upstream status; an empty message becomes "HTTP error! status: N".
func NewHTTPError(status int, message string, code ErrorCode) *AppError {
	if message == "" {
		message = fmt.Sprintf("HTTP error! status: %d", status)
	}
	return newError(ErrorTypeHTTP, code, status, message)
}

// NewParseError reports an upstream body that is not the expected shape.
func NewParseError(message string, code ErrorCode, cause error) *AppError {
	return newError(ErrorTypeParse, code, http.StatusBadGateway, message).WithCause(cause)
}

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err carries an AppError of the given type.
func IsType(err error, t ErrorType) bool {
	appErr, ok := IsAppError(err)
	return ok && appErr.Type == t
}

// ToastMessage renders err the way an operator should see it.
func ToastMessage(err error) string {
	if err == nil {
		return ""
	}
	appErr, ok := IsAppError(err)
	if !ok {
		return GenericServerMessage
	}
	switch appErr.Type {
	case ErrorTypeValidation:
		return appErr.GetDetailedMessage()
	case ErrorTypeNetwork:
		return GenericServerMessage
	case ErrorTypeParse:
		return "Unexpected response from server: " + appErr.Message
	default:
		return appErr.Message
	}
}

type Response struct {
	Error *AppError `json:"error"`
}

// ToHTTPResponse picks the status for the gateway. Upstream statuses outside
// the error range collapse to 502.
func (e *AppError) ToHTTPResponse() (int, any) {
	status := e.StatusCode
	switch {
	case status == 0:
		status = http.StatusInternalServerError
	case status < http.StatusBadRequest:
		status = http.StatusBadGateway
	}
	return status, Response{Error: e}
}
