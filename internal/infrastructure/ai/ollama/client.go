// Package ollama provides Ollama integration for local recipe generation
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alchemorsel/recipegen/internal/ports/outbound"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const defaultHost = "http://localhost:11434"

// Config holds the Ollama connection settings
type Config struct {
	Host        string
	Model       string
	MaxTokens   int
	Temperature float64
	// Timeout bounds a single call. Zero means no client-side limit.
	Timeout time.Duration
}

// Client implements outbound.AIService using the Ollama generate API
type Client struct {
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
	client      *http.Client
	logger      *zap.Logger
}

// NewClient creates a new Ollama client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	baseURL := strings.TrimRight(cfg.Host, "/")
	if baseURL == "" {
		baseURL = defaultHost
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}

	logger.Info("Ollama client initialized",
		zap.String("base_url", baseURL),
		zap.String("model", cfg.Model),
		zap.Duration("timeout", cfg.Timeout))

	return &Client{
		baseURL:     baseURL,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger.Named("ollama-client"),
	}
}

// GenerateRequest is the body of POST /api/generate
type GenerateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

// GenerateResponse is the non-streaming answer of /api/generate
type GenerateResponse struct {
	Model        string `json:"model"`
	Response     string `json:"response"`
	Done         bool   `json:"done"`
	DoneReason   string `json:"done_reason,omitempty"`
	EvalCount    int    `json:"eval_count,omitempty"`
	EvalDuration int64  `json:"eval_duration,omitempty"`
}

// Name returns the provider name
func (c *Client) Name() string {
	return "ollama"
}

// HealthCheck verifies the Ollama server answers
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama health check failed with status %d", resp.StatusCode)
	}
	return nil
}

// Generate sends the prompt as a single non-streaming completion
func (c *Client) Generate(ctx context.Context, prompt string) (*outbound.Generation, error) {
	options := map[string]interface{}{
		"temperature": c.temperature,
	}
	if c.maxTokens > 0 {
		options["num_predict"] = c.maxTokens
	}

	body, err := json.Marshal(GenerateRequest{
		Model:   c.model,
		Prompt:  prompt,
		Stream:  false,
		Options: options,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var genResp GenerateResponse
	if err := json.Unmarshal(raw, &genResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !genResp.Done {
		return nil, fmt.Errorf("incomplete response from Ollama")
	}

	c.logger.Debug("Ollama completion finished",
		zap.String("model", genResp.Model),
		zap.Int("eval_count", genResp.EvalCount),
		zap.Int64("eval_duration", genResp.EvalDuration))

	gen := &outbound.Generation{
		Text:  strings.TrimSpace(genResp.Response),
		Model: genResp.Model,
	}
	if gen.Text == "" {
		gen.BlockReason = genResp.DoneReason
		if gen.BlockReason == "" {
			gen.BlockReason = "empty response"
		}
	}
	return gen, nil
}

var _ outbound.AIService = (*Client)(nil)
