// Package gemini provides an LLM service adapter for the Google Gemini
// generateContent API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/medivault/internal/adapters/driven/llm/retry"
	"github.com/custodia-labs/medivault/internal/core/domain"
	"github.com/custodia-labs/medivault/internal/core/ports/driven"
	"github.com/custodia-labs/medivault/internal/logger"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "https://generativelanguage.googleapis.com"
	DefaultLLMModel   = "gemini-2.5-flash"
	DefaultLLMTimeout = 120 * time.Second
)

// apiVersions are tried in order; a 404 moves on to the next one.
var apiVersions = []string{"v1beta", "v1"}

const retryInfoType = "type.googleapis.com/google.rpc.RetryInfo"

var errModelNotFound = errors.New("model not found")

// LLMConfig holds configuration for the Gemini LLM service.
type LLMConfig struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// BaseURL is the API host (default: https://generativelanguage.googleapis.com).
	BaseURL string

	// Model is the model to use (default: gemini-2.5-flash).
	Model string

	// Timeout is the per-request timeout (default: 120s).
	Timeout time.Duration

	// Retry controls retries on rate limits and transient failures.
	Retry retry.Policy
}

// LLMService generates text with Gemini.
type LLMService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
	policy  retry.Policy

	// version is the index into apiVersions that last answered.
	version atomic.Int32
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generationConfig struct {
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
	Temperature     *float64 `json:"temperature,omitempty"`
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Details []struct {
			Type       string `json:"@type"`
			RetryDelay string `json:"retryDelay"`
		} `json:"details"`
	} `json:"error"`
}

// NewLLMService creates a new Gemini LLM service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini: API key is required", domain.ErrNotConfigured)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	return &LLMService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		policy:  cfg.Retry,
	}, nil
}

// Generate produces text for prompt. The system instruction, when set, is
// prepended to the prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	full := prompt
	if opts.SystemInstruction != "" {
		full = opts.SystemInstruction + "\n\n" + prompt
	}

	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: full}}}},
	}
	if opts.MaxTokens > 0 || opts.Temperature > 0 {
		gc := &generationConfig{MaxOutputTokens: opts.MaxTokens}
		if opts.Temperature > 0 {
			temp := opts.Temperature
			gc.Temperature = &temp
		}
		reqBody.GenerationConfig = gc
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	return s.policy.Do(ctx, func(ctx context.Context) (string, error) {
		return s.generate(ctx, jsonBody)
	})
}

// generate sends one attempt, walking the API versions on 404.
func (s *LLMService) generate(ctx context.Context, body []byte) (string, error) {
	start := int(s.version.Load())
	for i := start; i < len(apiVersions); i++ {
		text, err := s.post(ctx, apiVersions[i], body)
		if errors.Is(err, errModelNotFound) {
			logger.Debug("gemini: model %s not found in %s", s.model, apiVersions[i])
			continue
		}
		if err == nil && i != start {
			s.version.Store(int32(i))
		}
		return text, err
	}
	return "", fmt.Errorf("gemini: model %s not found in API versions %s",
		s.model, strings.Join(apiVersions[start:], ", "))
}

func (s *LLMService) post(ctx context.Context, version string, body []byte) (string, error) {
	url := fmt.Sprintf("%s/%s/models/%s:generateContent", s.baseURL, version, s.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-goog-api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", retry.Transient(fmt.Errorf("gemini: %w: %w", domain.ErrLLMUnavailable, err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", retry.Transient(fmt.Errorf("gemini: read response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return parseResponse(respBody)
	case resp.StatusCode == http.StatusNotFound:
		return "", errModelNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		msg, delay := parseError(respBody)
		return "", &retry.RateLimitError{RetryAfter: delay, Message: msg}
	case resp.StatusCode >= 500:
		msg, _ := parseError(respBody)
		return "", retry.Transient(fmt.Errorf("gemini error (status %d): %s", resp.StatusCode, msg))
	default:
		msg, _ := parseError(respBody)
		return "", fmt.Errorf("gemini error (status %d): %s", resp.StatusCode, msg)
	}
}

func parseResponse(body []byte) (string, error) {
	var gr generateResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return "", fmt.Errorf("gemini: decode response: %w", err)
	}
	if len(gr.Candidates) == 0 {
		return "", fmt.Errorf("gemini: unexpected response format")
	}
	c := gr.Candidates[0]
	if c.FinishReason != "" && c.FinishReason != "STOP" {
		logger.Warn("gemini: finish reason is %s", c.FinishReason)
	}
	if len(c.Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: unexpected response format")
	}
	return c.Content.Parts[0].Text, nil
}

// parseError extracts the API message and any RetryInfo delay.
func parseError(body []byte) (string, time.Duration) {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err != nil || er.Error.Message == "" {
		return strings.TrimSpace(string(body)), 0
	}
	var delay time.Duration
	for _, d := range er.Error.Details {
		if d.Type != retryInfoType {
			continue
		}
		if v, err := time.ParseDuration(d.RetryDelay); err == nil {
			delay = v
		}
	}
	return er.Error.Message, delay
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the API key by fetching the model description.
func (s *LLMService) Ping(ctx context.Context) error {
	url := fmt.Sprintf("%s/%s/models/%s", s.baseURL, apiVersions[s.version.Load()], s.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("gemini: failed to create ping request: %w", err)
	}
	req.Header.Set("X-goog-api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("gemini: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("gemini: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		msg, _ := parseError(body)
		return fmt.Errorf("gemini: API returned status %d: %s", resp.StatusCode, msg)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
