package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/medivault/internal/core/domain"
	"github.com/custodia-labs/medivault/internal/core/ports/driven"
)

func TestNewConfigValidator(t *testing.T) {
	validator := NewConfigValidator()

	require.NotNil(t, validator)
}

func TestConfigValidator_ImplementsInterface(t *testing.T) {
	var _ driven.AIConfigValidator = (*ConfigValidator)(nil)
}

func TestConfigValidator_ValidateEmbedding_NilConfig(t *testing.T) {
	err := NewConfigValidator().ValidateEmbedding(nil)

	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestConfigValidator_ValidateEmbedding_Hashing(t *testing.T) {
	err := NewConfigValidator().ValidateEmbedding(&domain.EmbeddingSettings{
		Provider:   domain.AIProviderHashing,
		Dimensions: 64,
	})

	assert.NoError(t, err)
}

func TestConfigValidator_ValidateLLM_NilConfig(t *testing.T) {
	err := NewConfigValidator().ValidateLLM(nil)

	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestConfigValidator_ValidateLLM_UnknownProvider(t *testing.T) {
	err := NewConfigValidator().ValidateLLM(&domain.LLMSettings{
		Provider: "",
		Model:    "test-model",
	})

	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}
