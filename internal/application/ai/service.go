// Package ai selects the generation backend the application talks to
package ai

import (
	"github.com/alchemorsel/recipegen/internal/infrastructure/ai/anthropic"
	"github.com/alchemorsel/recipegen/internal/infrastructure/ai/gemini"
	"github.com/alchemorsel/recipegen/internal/infrastructure/ai/ollama"
	"github.com/alchemorsel/recipegen/internal/infrastructure/config"
	"github.com/alchemorsel/recipegen/internal/ports/outbound"
	"go.uber.org/zap"
)

// NewAIService builds the backend named by cfg.Provider. It returns nil
// when the provider lacks its credentials, in which case generation fails
// with a configuration error instead of the server refusing to start.
// There is no fallback to another provider.
func NewAIService(cfg config.AIConfig, logger *zap.Logger) outbound.AIService {
	namedLogger := logger.Named("ai-service")

	switch cfg.Provider {
	case "gemini":
		if cfg.GeminiKey == "" {
			namedLogger.Warn("Gemini API key is not configured, generation is disabled")
			return nil
		}
		return gemini.NewClient(gemini.Config{
			APIKey:      cfg.GeminiKey,
			Model:       cfg.GeminiModel,
			BaseURL:     cfg.GeminiBaseURL,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, namedLogger)

	case "anthropic":
		if cfg.AnthropicKey == "" {
			namedLogger.Warn("Anthropic API key is not configured, generation is disabled")
			return nil
		}
		return anthropic.NewClient(anthropic.Config{
			APIKey:      cfg.AnthropicKey,
			Model:       cfg.AnthropicModel,
			BaseURL:     cfg.AnthropicBaseURL,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, namedLogger)

	case "ollama":
		if cfg.OllamaHost == "" {
			namedLogger.Warn("Ollama host is not configured, generation is disabled")
			return nil
		}
		return ollama.NewClient(ollama.Config{
			Host:        cfg.OllamaHost,
			Model:       cfg.OllamaModel,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, namedLogger)
	}

	namedLogger.Error("Unknown AI provider, generation is disabled", zap.String("provider", cfg.Provider))
	return nil
}
