// Package app assembles medivault's adapters and services.
//
// An App is created once per process. Settings are available immediately;
// the retrieval pipeline (embedder, index, generator, ledger) is built on
// first use so that configuration commands work before providers are set up.
package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/custodia-labs/medivault/internal/adapters/driven/ai"
	"github.com/custodia-labs/medivault/internal/adapters/driven/config/file"
	"github.com/custodia-labs/medivault/internal/adapters/driven/corpus/filesystem"
	"github.com/custodia-labs/medivault/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/medivault/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/medivault/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/medivault/internal/core/domain"
	"github.com/custodia-labs/medivault/internal/core/ports/driven"
	"github.com/custodia-labs/medivault/internal/core/services"
	"github.com/custodia-labs/medivault/internal/logger"
	"github.com/custodia-labs/medivault/internal/metrics"
	"github.com/custodia-labs/medivault/internal/postprocessors/chunker"
)

// Directory names under the home directory.
const (
	RecordsDir = "records"
	IndexDir   = "vector_db"
	DataDir    = "data"
	PromptsDir = "prompts"
)

// Options configures New.
type Options struct {
	// ConfigDir is the home directory. Empty uses file.DefaultHome.
	ConfigDir string
}

// App owns every long-lived component.
type App struct {
	home     string
	config   *file.ConfigStore
	settings *services.SettingsService
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	mu        sync.Mutex
	closed    bool
	corpus    *filesystem.Store
	embedder  driven.EmbeddingService
	index     driven.VectorIndex
	llm       driven.LLMService
	ledger    driven.IngestionLedger
	assistant *services.AssistantService
}

// New opens the configuration in opts.ConfigDir.
func New(opts Options) (*App, error) {
	home := opts.ConfigDir
	if home == "" {
		dir, err := file.DefaultHome()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		home = dir
	}

	config, err := file.NewConfigStore(home)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &App{
		home:     home,
		config:   config,
		settings: services.NewSettingsService(config, ai.NewConfigValidator()),
		registry: registry,
		metrics:  metrics.New(registry),
	}, nil
}

// Home returns the resolved home directory.
func (a *App) Home() string {
	return a.home
}

// Settings returns the settings service.
func (a *App) Settings() *services.SettingsService {
	return a.settings
}

// Registry returns the Prometheus registry the pipeline reports to.
func (a *App) Registry() *prometheus.Registry {
	return a.registry
}

// Metrics returns the pipeline metrics.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

// Paths returns the corpus and index directories for the given settings.
func (a *App) Paths(settings *domain.AppSettings) (corpusDir, indexDir string) {
	corpusDir = settings.Corpus.Dir
	if corpusDir == "" {
		corpusDir = filepath.Join(a.home, RecordsDir)
	}
	indexDir = settings.Corpus.IndexDir
	if indexDir == "" {
		indexDir = filepath.Join(a.home, IndexDir)
	}
	return corpusDir, indexDir
}

// Corpus returns the record store. It does not need any provider.
func (a *App) Corpus() (*filesystem.Store, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil, errors.New("app is closed")
	}
	if a.corpus != nil {
		return a.corpus, nil
	}

	settings, err := a.settings.Get()
	if err != nil {
		return nil, err
	}
	corpusDir, _ := a.Paths(settings)
	if err := os.MkdirAll(corpusDir, 0o700); err != nil {
		return nil, fmt.Errorf("create records directory: %w", err)
	}
	a.corpus = filesystem.New(corpusDir)
	return a.corpus, nil
}

// Assistant builds the retrieval pipeline on first call and returns it.
// Configuration problems are reported as domain.ErrNotConfigured.
func (a *App) Assistant() (*services.AssistantService, error) {
	corpus, err := a.Corpus()
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil, errors.New("app is closed")
	}
	if a.assistant != nil {
		return a.assistant, nil
	}

	if err := a.settings.Validate(); err != nil {
		return nil, err
	}
	settings, err := a.settings.Get()
	if err != nil {
		return nil, err
	}
	_, indexDir := a.Paths(settings)

	if err := a.build(settings, corpus, indexDir); err != nil {
		_ = a.release()
		return nil, err
	}
	return a.assistant, nil
}

// build creates every pipeline component. On error the caller releases
// whatever was created.
func (a *App) build(settings *domain.AppSettings, corpus *filesystem.Store, indexDir string) error {
	embedder, err := ai.CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	a.embedder = embedder

	index, err := flat.New(indexDir, embedder.Dimensions())
	if err != nil {
		return fmt.Errorf("vector index: %w", err)
	}
	a.index = index

	llm, err := ai.CreateLLMService(&settings.LLM, a.metrics)
	if err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	a.llm = llm

	prompts, err := file.NewPromptStore(filepath.Join(a.home, PromptsDir))
	if err != nil {
		return fmt.Errorf("prompts: %w", err)
	}

	a.ledger = a.openLedger()

	assistant, err := services.NewAssistantService(services.AssistantDeps{
		Corpus: corpus,
		Chunker: chunker.New(
			chunker.WithChunkSize(settings.Chunker.Size),
			chunker.WithOverlap(settings.Chunker.Overlap),
		),
		Embedder: embedder,
		Index:    index,
		LLM:      llm,
		Prompts:  prompts,
		Ledger:   a.ledger,
		Metrics:  a.metrics,
	}, services.AssistantConfig{
		TopK:        settings.Retrieval.TopK,
		MaxDistance: settings.Retrieval.MaxDistance,
		BatchSize:   settings.Embedding.BatchSize,
	})
	if err != nil {
		return err
	}
	a.assistant = assistant

	logger.Debug("Pipeline ready: embedder=%s dims=%d llm=%s index=%s",
		embedder.ModelName(), embedder.Dimensions(), llm.ModelName(), indexDir)
	return nil
}

// openLedger opens the SQLite ledger, falling back to an in-memory one
// so that a broken database never blocks ingestion.
func (a *App) openLedger() driven.IngestionLedger {
	store, err := sqlite.NewStore(filepath.Join(a.home, DataDir))
	if err != nil {
		logger.Warn("Ingestion ledger unavailable, history will not persist: %v", err)
		return memory.NewLedger()
	}
	return store
}

// release closes pipeline components. The caller holds mu.
func (a *App) release() error {
	var errs []error
	if a.ledger != nil {
		errs = append(errs, a.ledger.Close())
	}
	if a.llm != nil {
		errs = append(errs, a.llm.Close())
	}
	if a.index != nil {
		errs = append(errs, a.index.Close())
	}
	if a.embedder != nil {
		errs = append(errs, a.embedder.Close())
	}
	a.ledger, a.llm, a.index, a.embedder, a.assistant = nil, nil, nil, nil, nil
	return errors.Join(errs...)
}

// Close releases every component. Further calls are no-ops.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true

	err := a.release()
	if a.corpus != nil {
		err = errors.Join(err, a.corpus.Close())
	}
	return err
}
