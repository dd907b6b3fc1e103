package services

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/custodia-labs/medivault/internal/core/domain"
	"github.com/custodia-labs/medivault/internal/core/ports/driven"
	"github.com/custodia-labs/medivault/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyCorpusDir         = "corpus.dir"
	keyIndexDir          = "index.dir"
	keyChunkSize         = "chunker.size"
	keyChunkOverlap      = "chunker.overlap"
	keyTopK              = "retrieval.top_k"
	keyMaxDistance       = "retrieval.max_distance"
	keyEmbedProvider     = "embedding.provider"
	keyEmbedModel        = "embedding.model"
	keyEmbedBaseURL      = "embedding.base_url"
	keyEmbedAPIKey       = "embedding.api_key"
	keyEmbedDims         = "embedding.dimensions"
	keyEmbedBatchSize    = "embedding.batch_size"
	keyLLMProvider       = "llm.provider"
	keyLLMModel          = "llm.model"
	keyLLMBaseURL        = "llm.base_url"
	keyLLMAPIKey         = "llm.api_key"
	keyLLMMaxRetries     = "llm.max_retries"
	keyLLMRateLimitDelay = "llm.rate_limit_delay_seconds"
	keyLLMRequestsPerSec = "llm.requests_per_second"
)

type keyKind int

const (
	kindString keyKind = iota
	kindInt
	kindFloat
	kindEmbedProvider
	kindLLMProvider
)

type settingKey struct {
	key  string
	kind keyKind
}

// settingKeys lists every settable key in display order.
var settingKeys = []settingKey{
	{keyCorpusDir, kindString},
	{keyIndexDir, kindString},
	{keyChunkSize, kindInt},
	{keyChunkOverlap, kindInt},
	{keyTopK, kindInt},
	{keyMaxDistance, kindFloat},
	{keyEmbedProvider, kindEmbedProvider},
	{keyEmbedModel, kindString},
	{keyEmbedBaseURL, kindString},
	{keyEmbedAPIKey, kindString},
	{keyEmbedDims, kindInt},
	{keyEmbedBatchSize, kindInt},
	{keyLLMProvider, kindLLMProvider},
	{keyLLMModel, kindString},
	{keyLLMBaseURL, kindString},
	{keyLLMAPIKey, kindString},
	{keyLLMMaxRetries, kindInt},
	{keyLLMRateLimitDelay, kindInt},
	{keyLLMRequestsPerSec, kindFloat},
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
// The aiValidator parameter is optional (can be nil).
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings. API keys fall back to the
// provider's environment variable when none is configured.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	embedProvider := s.getProvider(keyEmbedProvider, defaults.Embedding.Provider, domain.AllEmbeddingProviders())
	embedModel := s.getString(keyEmbedModel, domain.DefaultEmbeddingModels()[embedProvider])
	embedDims := s.configStore.GetInt(keyEmbedDims)
	if embedDims <= 0 {
		embedDims = domain.EmbeddingDimensions()[embedModel]
	}
	if embedDims <= 0 {
		embedDims = defaults.Embedding.Dimensions
	}

	llmProvider := s.getProvider(keyLLMProvider, defaults.LLM.Provider, domain.AllLLMProviders())

	settings := &domain.AppSettings{
		Corpus: domain.CorpusSettings{
			Dir:      s.configStore.GetString(keyCorpusDir),
			IndexDir: s.configStore.GetString(keyIndexDir),
		},
		Chunker: domain.ChunkerSettings{
			Size:    s.getInt(keyChunkSize, defaults.Chunker.Size),
			Overlap: s.getInt(keyChunkOverlap, defaults.Chunker.Overlap),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:        s.getInt(keyTopK, defaults.Retrieval.TopK),
			MaxDistance: s.configStore.GetFloat(keyMaxDistance),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:   embedProvider,
			Model:      embedModel,
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL), // No default - adapters pick their endpoint
			APIKey:     s.apiKey(keyEmbedAPIKey, embedProvider),
			Dimensions: embedDims,
			BatchSize:  s.getInt(keyEmbedBatchSize, defaults.Embedding.BatchSize),
		},
		LLM: domain.LLMSettings{
			Provider:              llmProvider,
			Model:                 s.getString(keyLLMModel, domain.DefaultLLMModels()[llmProvider]),
			BaseURL:               s.configStore.GetString(keyLLMBaseURL),
			APIKey:                s.apiKey(keyLLMAPIKey, llmProvider),
			MaxRetries:            s.getInt(keyLLMMaxRetries, defaults.LLM.MaxRetries),
			RateLimitDelaySeconds: s.getInt(keyLLMRateLimitDelay, defaults.LLM.RateLimitDelaySeconds),
			RequestsPerSecond:     s.getFloat(keyLLMRequestsPerSec, defaults.LLM.RequestsPerSecond),
		},
	}

	return settings, nil
}

// Save persists application settings. API keys are only written when they
// differ from the environment value.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyCorpusDir, settings.Corpus.Dir},
		{keyIndexDir, settings.Corpus.IndexDir},
		{keyChunkSize, settings.Chunker.Size},
		{keyChunkOverlap, settings.Chunker.Overlap},
		{keyTopK, settings.Retrieval.TopK},
		{keyMaxDistance, settings.Retrieval.MaxDistance},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDims, settings.Embedding.Dimensions},
		{keyEmbedBatchSize, settings.Embedding.BatchSize},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMMaxRetries, settings.LLM.MaxRetries},
		{keyLLMRateLimitDelay, settings.LLM.RateLimitDelaySeconds},
		{keyLLMRequestsPerSec, settings.LLM.RequestsPerSecond},
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	if err := s.saveAPIKey(keyEmbedAPIKey, settings.Embedding.Provider, settings.Embedding.APIKey); err != nil {
		return err
	}
	return s.saveAPIKey(keyLLMAPIKey, settings.LLM.Provider, settings.LLM.APIKey)
}

// Set updates a single setting by dotted key. The value is parsed to the
// key's type and rejected with domain.ErrInvalidInput when it does not fit.
func (s *SettingsService) Set(key, value string) error {
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)

	idx := slices.IndexFunc(settingKeys, func(k settingKey) bool { return k.key == key })
	if idx < 0 {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var parsed any
	switch settingKeys[idx].kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, key)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidInput, key)
		}
		parsed = f
	case kindEmbedProvider:
		p := domain.AIProvider(value)
		if !slices.Contains(domain.AllEmbeddingProviders(), p) {
			return fmt.Errorf("%w: %q is not an embedding provider", domain.ErrInvalidInput, value)
		}
		parsed = value
	case kindLLMProvider:
		p := domain.AIProvider(value)
		if !slices.Contains(domain.AllLLMProviders(), p) {
			return fmt.Errorf("%w: %q is not an llm provider", domain.ErrInvalidInput, value)
		}
		parsed = value
	default:
		parsed = value
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns every settable key in display order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKeys))
	for _, k := range settingKeys {
		keys = append(keys, k.key)
	}
	return keys
}

// Validate checks that the current settings can build the pipeline.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	switch {
	case settings.Chunker.Size <= 0:
		return fmt.Errorf("%w: chunker.size must be positive", domain.ErrInvalidInput)
	case settings.Chunker.Overlap >= settings.Chunker.Size:
		return fmt.Errorf("%w: chunker.overlap must be smaller than chunker.size", domain.ErrInvalidInput)
	case settings.Retrieval.TopK <= 0:
		return fmt.Errorf("%w: retrieval.top_k must be positive", domain.ErrInvalidInput)
	case settings.Embedding.BatchSize <= 0:
		return fmt.Errorf("%w: embedding.batch_size must be positive", domain.ErrInvalidInput)
	}

	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %s needs an API key (set embedding.api_key or %s)",
			domain.ErrNotConfigured, settings.Embedding.Provider, settings.Embedding.Provider.APIKeyEnv())
	}
	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: llm provider %s needs an API key (set llm.api_key or %s)",
			domain.ErrNotConfigured, settings.LLM.Provider, settings.LLM.Provider.APIKeyEnv())
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider, allowed []domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(key))
	if !slices.Contains(allowed, provider) {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) apiKey(key string, provider domain.AIProvider) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	if env := provider.APIKeyEnv(); env != "" {
		return s.getenv(env)
	}
	return ""
}

func (s *SettingsService) saveAPIKey(key string, provider domain.AIProvider, value string) error {
	if value == "" {
		return nil
	}
	if env := provider.APIKeyEnv(); env != "" && s.getenv(env) == value {
		return nil
	}
	if err := s.configStore.Set(key, value); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
