package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAIProvider_IsValid tests all valid and invalid providers
func TestAIProvider_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		provider AIProvider
		expected bool
	}{
		{"hashing is valid", AIProviderHashing, true},
		{"ollama is valid", AIProviderOllama, true},
		{"openai is valid", AIProviderOpenAI, true},
		{"gemini is valid", AIProviderGemini, true},
		{"anthropic is valid", AIProviderAnthropic, true},
		{"empty string is invalid", AIProvider(""), false},
		{"unknown provider is invalid", AIProvider("cohere"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.IsValid())
		})
	}
}

func TestAIProvider_RequiresAPIKey(t *testing.T) {
	assert.False(t, AIProviderHashing.RequiresAPIKey())
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
	assert.True(t, AIProviderGemini.RequiresAPIKey())
	assert.True(t, AIProviderAnthropic.RequiresAPIKey())
}

func TestAIProvider_APIKeyEnv(t *testing.T) {
	assert.Equal(t, "GEMINI_API_KEY", AIProviderGemini.APIKeyEnv())
	assert.Equal(t, "OPENAI_API_KEY", AIProviderOpenAI.APIKeyEnv())
	assert.Equal(t, "ANTHROPIC_API_KEY", AIProviderAnthropic.APIKeyEnv())
	assert.Empty(t, AIProviderOllama.APIKeyEnv())
}

func TestAIProvider_Description(t *testing.T) {
	for _, p := range append(AllEmbeddingProviders(), AllLLMProviders()...) {
		assert.NotEqual(t, unknownDescription, p.Description(), p)
	}
	assert.Equal(t, unknownDescription, AIProvider("x").Description())
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings EmbeddingSettings
		expected bool
	}{
		{"hashing needs nothing", EmbeddingSettings{Provider: AIProviderHashing, Dimensions: 384}, true},
		{"openai without key", EmbeddingSettings{Provider: AIProviderOpenAI, Dimensions: 1536}, false},
		{"openai with key", EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "k", Dimensions: 1536}, true},
		{"gemini cannot embed", EmbeddingSettings{Provider: AIProviderGemini, APIKey: "k", Dimensions: 384}, false},
		{"zero dimensions", EmbeddingSettings{Provider: AIProviderHashing}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsConfigured())
		})
	}
}

func TestLLMSettings_IsConfigured(t *testing.T) {
	assert.False(t, LLMSettings{Provider: AIProviderGemini}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderGemini, APIKey: "k"}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderOllama}.IsConfigured())
	assert.False(t, LLMSettings{Provider: AIProviderHashing}.IsConfigured())
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, 500, s.Chunker.Size)
	assert.Equal(t, 50, s.Chunker.Overlap)
	assert.Equal(t, 3, s.Retrieval.TopK)
	assert.Zero(t, s.Retrieval.MaxDistance)
	assert.Equal(t, AIProviderHashing, s.Embedding.Provider)
	assert.Equal(t, 384, s.Embedding.Dimensions)
	assert.Equal(t, AIProviderGemini, s.LLM.Provider)
	assert.Equal(t, "gemini-2.5-flash", s.LLM.Model)
	assert.Equal(t, 3, s.LLM.MaxRetries)
	assert.True(t, s.Embedding.IsConfigured())
}

func TestDefaultModels_CoverProviders(t *testing.T) {
	embeddings := DefaultEmbeddingModels()
	for _, p := range AllEmbeddingProviders() {
		model, ok := embeddings[p]
		require.True(t, ok, p)
		_, known := EmbeddingDimensions()[model]
		assert.True(t, known, model)
	}

	llms := DefaultLLMModels()
	for _, p := range AllLLMProviders() {
		assert.NotEmpty(t, llms[p], p)
	}
}
