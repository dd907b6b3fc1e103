package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/medivault/internal/app"
	"github.com/custodia-labs/medivault/internal/core/domain"
)

// Test helper functions in settings.go

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Very long key",
			input:    "sk-proj-1234567890abcdefghijklmnop",
			expected: "sk-p...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSettingsCmd_Show(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	_, _, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("settings")

	require.NoError(t, err)
	assert.Contains(t, out, "Current Settings")
	assert.Contains(t, out, "[Records]")
	assert.Contains(t, out, "Directory: (default)")
	assert.Contains(t, out, "Chunk size: 500")
	assert.Contains(t, out, "Top K: 3")
	assert.Contains(t, out, "Max distance: (disabled)")
	assert.Contains(t, out, "[Embedding]")
	assert.Contains(t, out, "API Key: (not set, GEMINI_API_KEY)")
	assert.Contains(t, out, "Warning:")
}

func TestSettingsCmd_ShowValid(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "AIzaSyExampleKey123")
	_, _, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "API Key: AIza...y123")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestSettingsCmd_Set(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("settings", "set", "retrieval.top_k", "5")

	require.NoError(t, err)
	assert.Contains(t, out, "retrieval.top_k = 5")
	assert.NotContains(t, out, "ingest --rebuild")

	settings, err := settingsService.Get()
	require.NoError(t, err)
	assert.Equal(t, 5, settings.Retrieval.TopK)
}

func TestSettingsCmd_Set_RebuildHint(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("settings", "set", "chunker.size", "800")

	require.NoError(t, err)
	assert.Contains(t, out, "medivault ingest --rebuild")
}

func TestSettingsCmd_Set_InvalidValue(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("settings", "set", "retrieval.top_k", "many")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsCmd_Set_UnknownKey(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("settings", "set", "nope.key", "1")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsCmd_Set_MissingValue(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("settings", "set", "retrieval.top_k")

	assert.EqualError(t, err, "missing value for retrieval.top_k")
}

func TestSettingsCmd_Set_PromptsForAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	_, _, cleanup := setupTestServices()
	defer cleanup()
	settingsInput = strings.NewReader("sk-abcdef123456\n")

	out, err := execute("settings", "set", "llm.api_key")

	require.NoError(t, err)
	assert.Contains(t, out, "Enter API key: ")
	assert.Contains(t, out, "llm.api_key = sk-a...3456")
	assert.NotContains(t, out, "sk-abcdef123456")

	settings, err := settingsService.Get()
	require.NoError(t, err)
	assert.Equal(t, "sk-abcdef123456", settings.LLM.APIKey)
}

func TestSettingsCmd_Keys(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("settings", "keys")

	require.NoError(t, err)
	assert.Contains(t, out, "corpus.dir")
	assert.Contains(t, out, "embedding.provider")
	assert.Contains(t, out, "llm.requests_per_second")
}

func TestSettingsCmd_LLM_Ollama(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()
	// Provider 2 (Ollama), default model.
	settingsInput = strings.NewReader("2\n\n")

	out, err := execute("settings", "llm")

	require.NoError(t, err)
	assert.Contains(t, out, "Select LLM Provider")
	assert.Contains(t, out, "Validating configuration... OK")
	assert.Contains(t, out, "LLM provider configured")

	settings, err := settingsService.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, settings.LLM.Provider)
	assert.Equal(t, "llama3.2", settings.LLM.Model)
}

func TestSettingsCmd_LLM_MissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, _, cleanup := setupTestServices()
	defer cleanup()
	// Provider 3 (OpenAI), default model, no key.
	settingsInput = strings.NewReader("3\n\n\n")

	_, err := execute("settings", "llm")

	assert.EqualError(t, err, "API key is required for this provider")
}

func TestSettingsCmd_LLM_KeyFromEnvironmentNotStored(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-environment-1234")
	_, _, cleanup := setupTestServices()
	defer cleanup()
	// Provider 3 (OpenAI), custom model, keep the environment key.
	settingsInput = strings.NewReader("3\ngpt-4o\n\n")

	out, err := execute("settings", "llm")

	require.NoError(t, err)
	assert.Contains(t, out, "from OPENAI_API_KEY")

	settings, err := settingsService.Get()
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", settings.LLM.Model)
	assert.Equal(t, "sk-from-environment-1234", settings.LLM.APIKey)

	t.Setenv("OPENAI_API_KEY", "")
	settings, err = settingsService.Get()
	require.NoError(t, err)
	assert.Empty(t, settings.LLM.APIKey, "key taken from the environment must not be persisted")
}

func TestSettingsCmd_Embedding(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()
	// Provider 2 (Ollama), nomic model.
	settingsInput = strings.NewReader("2\nnomic-embed-text\n")

	out, err := execute("settings", "embedding")

	require.NoError(t, err)
	assert.Contains(t, out, "768 dimensions")
	assert.Contains(t, out, "medivault ingest --rebuild")

	settings, err := settingsService.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, 768, settings.Embedding.Dimensions)
}

func TestSettingsCmd_NotConfigured(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()
	settingsService = nil
	// Keep initServices from opening an app.
	origOpen := openApp
	openApp = func(app.Options) (*app.App, error) { return nil, errors.New("unavailable") }
	defer func() { openApp = origOpen }()

	_, err := execute("settings", "keys")

	assert.EqualError(t, err, "unavailable")
}
