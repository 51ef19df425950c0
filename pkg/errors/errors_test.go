package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_StatusCode(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected int
	}{
		{"validation", NewValidationError("Category is required."), http.StatusBadRequest},
		{"blocked", NewGenerationBlockedError("SAFETY"), http.StatusBadRequest},
		{"credentials", NewInvalidCredentialsError(), http.StatusUnauthorized},
		{"not found", NewNotFoundError("Category not found"), http.StatusNotFound},
		{"rate limited", NewTooManyRequestsError(), http.StatusTooManyRequests},
		{"configuration", NewConfigurationError("missing key"), http.StatusInternalServerError},
		{"upstream", NewExternalServiceError("gemini", "failed", fmt.Errorf("boom")), http.StatusInternalServerError},
		{"internal", NewInternalError(""), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.StatusCode())
		})
	}
}

func TestNewGenerationBlockedError(t *testing.T) {
	err := NewGenerationBlockedError("SAFETY")
	assert.Equal(t, "Recipe generation was blocked by safety policies. Reason: SAFETY", err.Message)
	assert.Equal(t, "SAFETY", err.Metadata["block_reason"])

	err = NewGenerationBlockedError("")
	assert.Contains(t, err.Message, "Reason: unspecified")
}

func TestWrapAndInspect(t *testing.T) {
	cause := fmt.Errorf("disk on fire")

	wrapped := Wrap(cause, "Failed to save")
	require.NotNil(t, wrapped)
	assert.Equal(t, CodeInternal, wrapped.Code)
	assert.ErrorIs(t, wrapped, cause)

	notFound := NewNotFoundError("")
	assert.Same(t, notFound, Wrap(fmt.Errorf("ctx: %w", notFound), "ignored"))
	assert.True(t, Is(fmt.Errorf("ctx: %w", notFound), CodeNotFound))
	assert.Equal(t, CodeNotFound, GetCode(notFound))
	assert.Equal(t, CodeInternal, GetCode(cause))
	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestToErrorResponse(t *testing.T) {
	resp := ToErrorResponse(NewValidationError("Category is required."), "req-1")
	assert.Equal(t, "Category is required.", resp.Error)
	assert.Equal(t, CodeValidationFailed, resp.Code)
	assert.Equal(t, "req-1", resp.RequestID)
}
