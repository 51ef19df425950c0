package gemini

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
	return NewClient(Config{
		APIKey:      "test-key",
		Model:       "gemini-1.5-flash-latest",
		BaseURL:     srv.URL,
		MaxTokens:   1024,
		Temperature: 0.5,
	}, zap.NewNop())
}

func TestClient_Generate(t *testing.T) {
	var got GenerateContentRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-1.5-flash-latest:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"parts": [{"text": "## Pancakes\n"}, {"text": "Mix and fry."}]}, "finishReason": "STOP"}],
			"usageMetadata": {"promptTokenCount": 10, "candidatesTokenCount": 20, "totalTokenCount": 30}
		}`))
	})

	gen, err := client.Generate(context.Background(), "pancakes")

	require.NoError(t, err)
	assert.Equal(t, "## Pancakes\nMix and fry.", gen.Text)
	assert.False(t, gen.Blocked())
	require.Len(t, got.Contents, 1)
	assert.Equal(t, "pancakes", got.Contents[0].Parts[0].Text)
	assert.Equal(t, 1024, got.GenerationConfig.MaxOutputTokens)
	assert.Equal(t, 0.5, got.GenerationConfig.Temperature)
}

func TestClient_Generate_Blocked(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantReason string
	}{
		{
			name:       "prompt feedback",
			body:       `{"promptFeedback": {"blockReason": "SAFETY"}}`,
			wantReason: "SAFETY",
		},
		{
			name:       "candidate finish reason",
			body:       `{"candidates": [{"content": {"parts": []}, "finishReason": "RECITATION"}]}`,
			wantReason: "RECITATION",
		},
		{
			name:       "nothing at all",
			body:       `{}`,
			wantReason: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})

			gen, err := client.Generate(context.Background(), "prompt")

			require.NoError(t, err)
			assert.True(t, gen.Blocked())
			assert.Equal(t, tt.wantReason, gen.BlockReason)
		})
	}
}

func TestClient_Generate_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "API key not valid"}}`, http.StatusBadRequest)
	})

	_, err := client.Generate(context.Background(), "prompt")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "API error 400")
}

func TestClient_Generate_ContextCanceled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Generate(ctx, "prompt")

	assert.Error(t, err)
}
