package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/medivault/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/medivault/internal/core/domain"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")

	a, err := New(Options{ConfigDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func useOllama(t *testing.T, a *App) {
	t.Helper()
	require.NoError(t, a.Settings().Set("llm.provider", "ollama"))
	require.NoError(t, a.Settings().Set("llm.base_url", "http://127.0.0.1:1"))
}

func TestNew_UsesConfigDir(t *testing.T) {
	dir := t.TempDir()

	a, err := New(Options{ConfigDir: dir})
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, dir, a.Home())
	assert.NotNil(t, a.Settings())
	assert.NotNil(t, a.Registry())
	assert.NotNil(t, a.Metrics())
}

func TestNew_HomeFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MEDIVAULT_HOME", dir)

	a, err := New(Options{})
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, dir, a.Home())
}

func TestPaths_Defaults(t *testing.T) {
	a := newTestApp(t)
	settings, err := a.Settings().Get()
	require.NoError(t, err)

	corpusDir, indexDir := a.Paths(settings)
	assert.Equal(t, filepath.Join(a.Home(), RecordsDir), corpusDir)
	assert.Equal(t, filepath.Join(a.Home(), IndexDir), indexDir)
}

func TestPaths_Configured(t *testing.T) {
	a := newTestApp(t)
	records := t.TempDir()
	require.NoError(t, a.Settings().Set("corpus.dir", records))

	settings, err := a.Settings().Get()
	require.NoError(t, err)

	corpusDir, _ := a.Paths(settings)
	assert.Equal(t, records, corpusDir)
}

func TestCorpus_CreatesDirectory(t *testing.T) {
	a := newTestApp(t)

	corpus, err := a.Corpus()
	require.NoError(t, err)

	info, err := os.Stat(corpus.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	again, err := a.Corpus()
	require.NoError(t, err)
	assert.Same(t, corpus, again)
}

func TestAssistant_MissingAPIKey(t *testing.T) {
	a := newTestApp(t)

	_, err := a.Assistant()
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestAssistant_IngestsWithLedger(t *testing.T) {
	a := newTestApp(t)
	useOllama(t, a)

	corpus, err := a.Corpus()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(
		filepath.Join(corpus.Dir(), "checkup_2024-01-10.txt"),
		[]byte("Blood pressure: 120/80, normal."), 0o600))

	assistant, err := a.Assistant()
	require.NoError(t, err)

	same, err := a.Assistant()
	require.NoError(t, err)
	assert.Same(t, assistant, same)

	result, err := assistant.Ingest(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, domain.IngestStatusSuccess, result.Status)
	assert.Equal(t, 1, result.DocumentsProcessed)

	status, err := assistant.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, status.IndexCount)
	require.NotNil(t, status.LastRun)
	assert.Empty(t, status.Changed)

	assert.FileExists(t, filepath.Join(a.Home(), DataDir, sqlite.DBName))
	assert.FileExists(t, filepath.Join(a.Home(), IndexDir, "index.vec"))
}

func TestAssistant_DimensionsFollowSettings(t *testing.T) {
	a := newTestApp(t)
	useOllama(t, a)
	require.NoError(t, a.Settings().Set("embedding.dimensions", "64"))

	assistant, err := a.Assistant()
	require.NoError(t, err)

	status, err := assistant.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 64, status.Dimensions)
}

func TestAssistant_InvalidChunker(t *testing.T) {
	a := newTestApp(t)
	useOllama(t, a)
	require.NoError(t, a.Settings().Set("chunker.overlap", "600"))

	_, err := a.Assistant()
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestClose_Idempotent(t *testing.T) {
	a := newTestApp(t)
	useOllama(t, a)

	_, err := a.Assistant()
	require.NoError(t, err)

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())

	_, err = a.Assistant()
	assert.Error(t, err)
	_, err = a.Corpus()
	assert.Error(t, err)
}
