package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/medivault/internal/adapters/driven/corpus/filesystem"
	"github.com/custodia-labs/medivault/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/medivault/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/medivault/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/medivault/internal/core/domain"
	"github.com/custodia-labs/medivault/internal/core/ports/driven"
	"github.com/custodia-labs/medivault/internal/postprocessors/chunker"
)

const testDims = 64

// mockLLM records every call and replies with a fixed text or error.
type mockLLM struct {
	mu       sync.Mutex
	response string
	err      error
	prompts  []string
	opts     []driven.GenerateOptions
}

func (m *mockLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

func (m *mockLLM) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

func (m *mockLLM) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

func (m *mockLLM) lastSystem() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.opts) == 0 {
		return ""
	}
	return m.opts[len(m.opts)-1].SystemInstruction
}

// mapPromptStore serves short templates so tests can assert rendered prompts.
type mapPromptStore map[string]string

func (m mapPromptStore) Load(name string) (string, error) {
	p, ok := m[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (m mapPromptStore) Reload() {}

func testPrompts() mapPromptStore {
	return mapPromptStore{
		driven.PromptAnswerSystem:     "answer-system",
		driven.PromptAnswerGrounded:   "grounded|{{.Question}}|{{.Context}}",
		driven.PromptAnswerUngrounded: "ungrounded|{{.Question}}",
		driven.PromptRecommendSystem:  "recommend-system",
		driven.PromptRecommendRecords: "records|{{.Question}}|{{.Context}}",
		driven.PromptRecommendGeneral: "general|{{.Question}}",
		driven.PromptSummariseSystem:  "summarise-system",
		driven.PromptSummarise:        "summarise|{{.Records}}",
	}
}

// countingEmbedder wraps an embedder and counts batch calls.
type countingEmbedder struct {
	driven.EmbeddingService
	mu      sync.Mutex
	batches int
	err     error
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.mu.Lock()
	c.batches++
	c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return c.EmbeddingService.EmbedBatch(ctx, texts)
}

// failingLedger rejects every write.
type failingLedger struct {
	*memory.Ledger
}

func (failingLedger) RecordRun(context.Context, *domain.IngestRun, []domain.DocumentRecord) error {
	return errors.New("disk full")
}

// fixture wires real adapters around a temporary corpus and index.
type fixture struct {
	corpusDir string
	embedder  *countingEmbedder
	index     *flat.Index
	llm       *mockLLM
	ledger    *memory.Ledger
	svc       *AssistantService
}

func newFixture(t *testing.T, cfg AssistantConfig) *fixture {
	t.Helper()

	root := t.TempDir()
	f := &fixture{
		corpusDir: filepath.Join(root, "records"),
		embedder:  &countingEmbedder{EmbeddingService: hashing.NewEmbeddingService(testDims)},
		llm:       &mockLLM{response: "Your blood pressure was 120/80."},
		ledger:    memory.NewLedger(),
	}
	require.NoError(t, os.MkdirAll(f.corpusDir, 0700))

	index, err := flat.New(filepath.Join(root, "index"), testDims)
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	f.index = index

	svc, err := NewAssistantService(AssistantDeps{
		Corpus:   filesystem.New(f.corpusDir),
		Chunker:  chunker.New(),
		Embedder: f.embedder,
		Index:    index,
		LLM:      f.llm,
		Prompts:  testPrompts(),
		Ledger:   f.ledger,
	}, cfg)
	require.NoError(t, err)
	f.svc = svc

	return f
}

func (f *fixture) writeRecord(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.corpusDir, name), []byte(content), 0600))
}
