// Package healthcheck unit tests
package healthcheck

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func staticChecker(status Status, message string) CheckerFunc {
	return func(ctx context.Context) Check {
		return Check{Status: status, Message: message, LastChecked: time.Now()}
	}
}

func TestNew(t *testing.T) {
	hc := New("1.0.0", zap.NewNop())

	assert.NotNil(t, hc)
	assert.Equal(t, "1.0.0", hc.version)
	assert.NotNil(t, hc.checkers)
	assert.Equal(t, 5*time.Second, hc.cacheTTL)
}

func TestHealthCheck_Check_NoCheckers(t *testing.T) {
	hc := New("1.0.0", zap.NewNop())

	response := hc.Check(context.Background())

	assert.Equal(t, StatusHealthy, response.Status)
	assert.Equal(t, "1.0.0", response.Version)
	assert.Empty(t, response.Checks)
}

func TestHealthCheck_Check_AggregatesStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses map[string]Status
		expected Status
	}{
		{"all healthy", map[string]Status{"store": StatusHealthy, "pdf": StatusHealthy}, StatusHealthy},
		{"one degraded", map[string]Status{"store": StatusHealthy, "pdf": StatusDegraded}, StatusDegraded},
		{"one unhealthy", map[string]Status{"store": StatusUnhealthy, "pdf": StatusDegraded}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := New("1.0.0", zap.NewNop())
			for name, status := range tt.statuses {
				hc.Register(name, staticChecker(status, ""))
			}

			response := hc.Check(context.Background())

			assert.Equal(t, tt.expected, response.Status)
			require.Len(t, response.Checks, len(tt.statuses))
			assert.Equal(t, "pdf", response.Checks[0].Name)
			assert.Equal(t, "store", response.Checks[1].Name)
		})
	}
}

func TestHealthCheck_Check_UsesCache(t *testing.T) {
	hc := New("1.0.0", zap.NewNop())
	calls := 0
	hc.Register("counter", CheckerFunc(func(ctx context.Context) Check {
		calls++
		return Check{Status: StatusHealthy}
	}))

	hc.Check(context.Background())
	hc.Check(context.Background())
	assert.Equal(t, 1, calls)

	hc.SetCacheTTL(0)
	hc.Check(context.Background())
	assert.Equal(t, 2, calls)
}

func TestHealthCheck_Handler(t *testing.T) {
	hc := New("1.0.0", zap.NewNop())
	hc.Register("generation", staticChecker(StatusUnhealthy, "no API key"))

	rec := httptest.NewRecorder()
	hc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var response Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, StatusUnhealthy, response.Status)
	require.Len(t, response.Checks, 1)
	assert.Equal(t, "no API key", response.Checks[0].Message)
}

func TestHealthCheck_LivenessHandler(t *testing.T) {
	hc := New("1.0.0", zap.NewNop())

	rec := httptest.NewRecorder()
	hc.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"alive"`)
}
