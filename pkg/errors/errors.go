// Package errors provides structured error handling for the application.
// Every failure that reaches the HTTP boundary is an *AppError whose code
// decides the response status.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// ErrorCode represents an error code
type ErrorCode string

const (
	// Client errors (4xx)
	CodeBadRequest         ErrorCode = "BAD_REQUEST"
	CodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	CodeNotFound           ErrorCode = "NOT_FOUND"
	CodeTooManyRequests    ErrorCode = "TOO_MANY_REQUESTS"
	CodeGenerationBlocked  ErrorCode = "GENERATION_BLOCKED"

	// Server errors (5xx)
	CodeInternal             ErrorCode = "INTERNAL_ERROR"
	CodeConfiguration        ErrorCode = "CONFIGURATION_ERROR"
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// AppError represents an application error with structured information
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// StatusCode returns the appropriate HTTP status code
func (e *AppError) StatusCode() int {
	switch e.Code {
	case CodeBadRequest, CodeValidationFailed, CodeGenerationBlocked:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeInvalidCredentials:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// WithMetadata adds metadata to the error
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// WithCause adds a cause error
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message, details string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Details:    details,
		StackTrace: getStackTrace(),
	}
}

// NewBadRequestError creates a bad request error
func NewBadRequestError(message string) *AppError {
	return NewAppError(CodeBadRequest, message, "")
}

// NewValidationError creates a validation error carrying a user-facing message
func NewValidationError(message string) *AppError {
	return NewAppError(CodeValidationFailed, message, "")
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError(message string) *AppError {
	if message == "" {
		message = "Authentication required"
	}
	return NewAppError(CodeUnauthorized, message, "")
}

// NewInvalidCredentialsError creates an invalid credentials error
func NewInvalidCredentialsError() *AppError {
	return NewAppError(CodeInvalidCredentials, "Invalid username or password", "")
}

// NewNotFoundError creates a not found error
func NewNotFoundError(message string) *AppError {
	if message == "" {
		message = "Resource not found"
	}
	return NewAppError(CodeNotFound, message, "")
}

// NewTooManyRequestsError creates a rate limit error
func NewTooManyRequestsError() *AppError {
	return NewAppError(CodeTooManyRequests, "Too many requests, slow down", "")
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *AppError {
	if message == "" {
		message = "An unexpected error occurred"
	}
	return NewAppError(CodeInternal, message, "")
}

// NewConfigurationError creates an error for a missing server-side setting
func NewConfigurationError(message string) *AppError {
	return NewAppError(CodeConfiguration, message, "")
}

// NewExternalServiceError creates an external service error. The message is
// what callers see; the cause is only logged.
func NewExternalServiceError(service, message string, cause error) *AppError {
	return NewAppError(
		CodeExternalServiceError,
		message,
		fmt.Sprintf("Failed to communicate with %s", service),
	).WithCause(cause).WithMetadata("service", service)
}

// NewGenerationBlockedError reports a generation refused by the backend's
// safety policies.
func NewGenerationBlockedError(reason string) *AppError {
	if reason == "" {
		reason = "unspecified"
	}
	return NewAppError(
		CodeGenerationBlocked,
		fmt.Sprintf("Recipe generation was blocked by safety policies. Reason: %s", reason),
		"",
	).WithMetadata("block_reason", reason)
}

// Wrap wraps an error as an internal error if it's not already an AppError
func Wrap(err error, message string) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	return NewInternalError(message).WithCause(err)
}

// Is checks if an error is of a specific error code
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// getStackTrace captures the current stack trace
func getStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var builder strings.Builder
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "pkg/errors") {
			builder.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	return builder.String()
}

// ErrorResponse is the JSON body written for failed API calls
type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      ErrorCode `json:"code"`
	RequestID string    `json:"request_id,omitempty"`
}

// ToErrorResponse converts an AppError to an API error response
func ToErrorResponse(err *AppError, requestID string) ErrorResponse {
	return ErrorResponse{
		Error:     err.Message,
		Code:      err.Code,
		RequestID: requestID,
	}
}
