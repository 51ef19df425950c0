// Package gemini provides Google Gemini integration for recipe generation
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alchemorsel/recipegen/internal/ports/outbound"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// Config holds the Gemini connection settings
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// Client implements outbound.AIService using the Gemini REST API
type Client struct {
	apiKey      string
	model       string
	baseURL     string
	maxTokens   int
	temperature float64
	client      *http.Client
	logger      *zap.Logger
}

// NewClient creates a new Gemini client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	logger.Info("Gemini client initialized", zap.String("model", cfg.Model))

	return &Client{
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		baseURL:     baseURL,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger.Named("gemini-client"),
	}
}

// Gemini API structures
type GenerateContentRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type Part struct {
	Text string `json:"text"`
}

type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type GenerateContentResponse struct {
	Candidates     []Candidate     `json:"candidates"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
	UsageMetadata  UsageMetadata   `json:"usageMetadata"`
}

type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason"`
}

type PromptFeedback struct {
	BlockReason string `json:"blockReason"`
}

type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// Name returns the provider name
func (c *Client) Name() string {
	return "gemini"
}

// Generate sends the prompt as a single-turn generateContent call
func (c *Client) Generate(ctx context.Context, prompt string) (*outbound.Generation, error) {
	reqBody := GenerateContentRequest{
		Contents: []Content{{Role: "user", Parts: []Part{{Text: prompt}}}},
		GenerationConfig: &GenerationConfig{
			Temperature:     c.temperature,
			MaxOutputTokens: c.maxTokens,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var genResp GenerateContentResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	c.logger.Info("Gemini API call successful",
		zap.Int("prompt_tokens", genResp.UsageMetadata.PromptTokenCount),
		zap.Int("completion_tokens", genResp.UsageMetadata.CandidatesTokenCount),
		zap.Int("total_tokens", genResp.UsageMetadata.TotalTokenCount),
	)

	gen := &outbound.Generation{Model: c.model}
	if len(genResp.Candidates) > 0 {
		var sb strings.Builder
		for _, part := range genResp.Candidates[0].Content.Parts {
			sb.WriteString(part.Text)
		}
		gen.Text = sb.String()
	}

	if gen.Text == "" {
		gen.BlockReason = blockReason(genResp)
	}
	return gen, nil
}

// blockReason prefers the prompt feedback and falls back to the finish
// reason of the first candidate
func blockReason(resp GenerateContentResponse) string {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return resp.PromptFeedback.BlockReason
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "" {
		return resp.Candidates[0].FinishReason
	}
	return ""
}

var _ outbound.AIService = (*Client)(nil)
