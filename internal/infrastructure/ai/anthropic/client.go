// Package anthropic provides Claude integration for recipe generation
package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alchemorsel/recipegen/internal/ports/outbound"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Config holds the Anthropic connection settings
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// Client implements outbound.AIService on top of the Messages API
type Client struct {
	client      anthropic.Client
	model       anthropic.Model
	maxTokens   int64
	temperature float64
	logger      *zap.Logger
}

// NewClient creates a new Anthropic client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}),
		// A failed generation is reported to the caller, never repeated
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	logger.Info("Anthropic client initialized", zap.String("model", cfg.Model))

	return &Client{
		client:      anthropic.NewClient(opts...),
		model:       anthropic.Model(cfg.Model),
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		logger:      logger.Named("anthropic-client"),
	}
}

// Name returns the provider name
func (c *Client) Name() string {
	return "anthropic"
}

// Generate sends the prompt as a single user message
func (c *Client) Generate(ctx context.Context, prompt string) (*outbound.Generation, error) {
	params := anthropic.MessageNewParams{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(c.temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic messages call failed: %w", err)
	}

	c.logger.Info("Anthropic API call successful",
		zap.Int64("input_tokens", message.Usage.InputTokens),
		zap.Int64("output_tokens", message.Usage.OutputTokens),
		zap.String("stop_reason", string(message.StopReason)),
	)

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	gen := &outbound.Generation{
		Text:  sb.String(),
		Model: string(message.Model),
	}
	if message.StopReason == anthropic.StopReasonRefusal {
		gen.Text = ""
	}
	if gen.Text == "" {
		gen.BlockReason = string(message.StopReason)
	}
	return gen, nil
}

var _ outbound.AIService = (*Client)(nil)
