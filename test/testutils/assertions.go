// Package testutils provides custom assertions and testing utilities
package testutils

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alchemorsel/recipegen/internal/domain/recipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// HTTPAssertions provides HTTP response assertions over recorded responses
type HTTPAssertions struct {
	t *testing.T
}

// NewHTTPAssertions creates a new HTTP assertions helper
func NewHTTPAssertions(t *testing.T) *HTTPAssertions {
	return &HTTPAssertions{t: t}
}

// StatusCode asserts the HTTP status code
func (ha *HTTPAssertions) StatusCode(rec *httptest.ResponseRecorder, expectedCode int, msgAndArgs ...interface{}) {
	require.NotNil(ha.t, rec, "Response should not be nil")
	assert.Equal(ha.t, expectedCode, rec.Code, msgAndArgs...)
}

// JSONResponse asserts that the response is valid JSON and unmarshals it
func (ha *HTTPAssertions) JSONResponse(rec *httptest.ResponseRecorder, target interface{}) {
	require.NotNil(ha.t, rec, "Response should not be nil")

	contentType := rec.Header().Get("Content-Type")
	assert.True(ha.t, strings.Contains(contentType, "application/json"),
		"Response should have JSON content type, got: %s", contentType)

	require.NoError(ha.t, json.Unmarshal(rec.Body.Bytes(), target), "Response should be valid JSON")
}

// ErrorResponse asserts the status and that the error message contains expectedMessage
func (ha *HTTPAssertions) ErrorResponse(rec *httptest.ResponseRecorder, expectedCode int, expectedMessage string) {
	ha.StatusCode(rec, expectedCode)

	var body map[string]interface{}
	ha.JSONResponse(rec, &body)

	errorMsg, exists := body["error"]
	require.True(ha.t, exists, "Response should contain error field")
	assert.Contains(ha.t, errorMsg, expectedMessage)
}

// Redirect asserts a redirect to location
func (ha *HTTPAssertions) Redirect(rec *httptest.ResponseRecorder, expectedCode int, location string) {
	ha.StatusCode(rec, expectedCode)
	assert.Equal(ha.t, location, rec.Header().Get("Location"))
}

// RecipeAssertions provides recipe-specific assertion methods
type RecipeAssertions struct {
	t *testing.T
}

// NewRecipeAssertions creates a new recipe assertions helper
func NewRecipeAssertions(t *testing.T) *RecipeAssertions {
	return &RecipeAssertions{t: t}
}

// IDs asserts the exact ID sequence of a recipe list
func (ra *RecipeAssertions) IDs(recipes []recipe.Recipe, expected ...string) {
	ids := make([]string, 0, len(recipes))
	for _, r := range recipes {
		ids = append(ids, r.ID)
	}
	if len(expected) == 0 {
		expected = []string{}
	}
	assert.Equal(ra.t, expected, ids)
}

// Favorites asserts which IDs are flagged as favorite
func (ra *RecipeAssertions) Favorites(recipes []recipe.Recipe, expected ...string) {
	var flagged []string
	for _, r := range recipes {
		if r.IsFavorite {
			flagged = append(flagged, r.ID)
		}
	}
	assert.ElementsMatch(ra.t, expected, flagged)
}
