package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{Host: srv.URL, Model: "llama3.2:3b", MaxTokens: 512, Temperature: 0.7}, zap.NewNop())
}

func TestClient_Generate(t *testing.T) {
	var got GenerateRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(GenerateResponse{
			Model:    "llama3.2:3b",
			Response: "  # Tomato Soup\nSimmer.  ",
			Done:     true,
		})
	})

	gen, err := client.Generate(context.Background(), "a soup please")

	require.NoError(t, err)
	assert.False(t, gen.Blocked())
	assert.Equal(t, "# Tomato Soup\nSimmer.", gen.Text)
	assert.Equal(t, "llama3.2:3b", gen.Model)
	assert.Equal(t, "a soup please", got.Prompt)
	assert.False(t, got.Stream)
	assert.EqualValues(t, 512, got.Options["num_predict"])
}

func TestClient_Generate_EmptyResponseIsBlocked(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(GenerateResponse{Done: true, DoneReason: "stop"})
	})

	gen, err := client.Generate(context.Background(), "anything")

	require.NoError(t, err)
	assert.True(t, gen.Blocked())
	assert.Equal(t, "stop", gen.BlockReason)
}

func TestClient_Generate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr string
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "model not found", http.StatusNotFound)
			},
			wantErr: "API error 404",
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("{not json"))
			},
			wantErr: "unmarshal",
		},
		{
			name: "not done",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(GenerateResponse{Response: "partial"})
			},
			wantErr: "incomplete",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)

			_, err := client.Generate(context.Background(), "prompt")

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestClient_HealthCheck(t *testing.T) {
	healthy := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})
	assert.NoError(t, healthy.HealthCheck(context.Background()))

	broken := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	assert.Error(t, broken.HealthCheck(context.Background()))
}

func TestNewClient_NormalizesHost(t *testing.T) {
	assert.Equal(t, defaultHost, NewClient(Config{}, zap.NewNop()).baseURL)
	assert.Equal(t, "http://ollama:11434", NewClient(Config{Host: "ollama:11434/"}, zap.NewNop()).baseURL)
	assert.Equal(t, "ollama", NewClient(Config{}, zap.NewNop()).Name())
}
