// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/medivault/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/custodia-labs/medivault/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/medivault/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/medivault/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/medivault/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/medivault/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/medivault/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/medivault/internal/adapters/driven/llm/retry"
	"github.com/custodia-labs/medivault/internal/core/domain"
	"github.com/custodia-labs/medivault/internal/core/ports/driven"
	"github.com/custodia-labs/medivault/internal/metrics"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateEmbeddingService creates the embedding service selected by settings.
// Configuration problems wrap domain.ErrNotConfigured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: embedding settings are missing", domain.ErrNotConfigured)
	}

	switch settings.Provider {
	case domain.AIProviderHashing:
		return hashing.NewEmbeddingService(settings.Dimensions), nil

	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings), nil

	case domain.AIProviderOpenAI:
		return createOpenAIEmbedding(settings)

	case domain.AIProviderGemini, domain.AIProviderAnthropic:
		return nil, fmt.Errorf("%w: %s does not provide embeddings, use hashing, ollama or openai",
			domain.ErrUnsupportedType, settings.Provider)

	default:
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedType, settings.Provider)
	}
}

// CreateLLMService creates the generator selected by settings. Every
// generator shares one retry policy built from the LLM settings; m may be
// nil.
func CreateLLMService(settings *domain.LLMSettings, m *metrics.Metrics) (driven.LLMService, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: llm settings are missing", domain.ErrNotConfigured)
	}

	policy := RetryPolicy(settings, m)

	switch settings.Provider {
	case domain.AIProviderGemini:
		return geminillm.NewLLMService(geminillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Retry:   policy,
		})

	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Retry:   policy,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Retry:   policy,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Retry:   policy,
		})

	case domain.AIProviderHashing:
		return nil, fmt.Errorf("%w: hashing is an embedding provider only", domain.ErrUnsupportedType)

	default:
		return nil, fmt.Errorf("%w: llm provider %q", domain.ErrUnsupportedType, settings.Provider)
	}
}

// RetryPolicy builds the generator retry policy from settings. Retries are
// counted in m when it is non-nil.
func RetryPolicy(settings *domain.LLMSettings, m *metrics.Metrics) retry.Policy {
	policy := retry.DefaultPolicy()
	if settings.MaxRetries > 0 {
		policy.MaxAttempts = settings.MaxRetries
	}
	if settings.RateLimitDelaySeconds > 0 {
		policy.DefaultDelay = time.Duration(settings.RateLimitDelaySeconds) * time.Second
	}
	if settings.RequestsPerSecond > 0 {
		policy.Limiter = retry.NewLimiter(settings.RequestsPerSecond)
	}
	if m != nil {
		policy.OnRetry = func(reason string, _ int, _ time.Duration) {
			m.RecordRetry(reason)
		}
	}
	return policy
}

// ValidateEmbeddingConfig validates an embedding configuration by creating a service and pinging it.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: service unreachable (%w)", domain.ErrEmbeddingUnavailable, err)
	}
	return nil
}

// ValidateLLMConfig validates an LLM configuration by creating a service and pinging it.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	svc, err := CreateLLMService(settings, nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: service unreachable (%w)", domain.ErrLLMUnavailable, err)
	}
	return nil
}

// createOllamaEmbedding creates an Ollama embedding service.
func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	dimensions := settings.Dimensions
	if dimensions == 0 {
		dimensions = domain.EmbeddingDimensions()[settings.Model]
	}
	if dimensions == 0 {
		dimensions = ollamaembed.DefaultDimensions
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}

// createOpenAIEmbedding creates an OpenAI embedding service.
func createOpenAIEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: settings.Dimensions,
	})
}
