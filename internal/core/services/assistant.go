package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/medivault/internal/core/domain"
	"github.com/custodia-labs/medivault/internal/core/ports/driven"
	"github.com/custodia-labs/medivault/internal/core/ports/driving"
	"github.com/custodia-labs/medivault/internal/logger"
	"github.com/custodia-labs/medivault/internal/metrics"
)

// Ensure AssistantService implements the interface.
var _ driving.AssistantService = (*AssistantService)(nil)

// Result messages.
const (
	msgNoDocuments  = "No medical records found to ingest"
	msgNoChunks     = "No chunks created from documents"
	msgIngested     = "Successfully ingested %d documents"
	msgNoRecords    = "No medical records found."
	msgEmptyAnswer  = "No answer was generated. Please try rephrasing your question."
	errAnswerPrefix = "Error generating answer: "
	errRecsPrefix   = "Error generating recommendations: "
	errSummaryPfx   = "Error generating summary: "
)

// Retrieval defaults.
const (
	DefaultTopK      = 3
	DefaultBatchSize = 32
)

// AssistantDeps are the collaborators of AssistantService.
// Ledger and Metrics are optional.
type AssistantDeps struct {
	Corpus   driven.CorpusStore
	Chunker  driven.Chunker
	Embedder driven.EmbeddingService
	Index    driven.VectorIndex
	LLM      driven.LLMService
	Prompts  driven.PromptStore
	Ledger   driven.IngestionLedger
	Metrics  *metrics.Metrics
}

// AssistantConfig tunes retrieval.
type AssistantConfig struct {
	// TopK is the number of chunks retrieved per question.
	TopK int

	// MaxDistance drops hits farther than this. 0 disables the cutoff.
	MaxDistance float64

	// BatchSize is the number of chunk texts per embedding request.
	BatchSize int
}

// AssistantService is the retrieval orchestrator.
//
// Ingestions are serialised by ingestMu. Queries never hold it across a
// generator call; only the lazy bootstrap takes it.
type AssistantService struct {
	corpus   driven.CorpusStore
	chunker  driven.Chunker
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	llm      driven.LLMService
	prompts  driven.PromptStore
	ledger   driven.IngestionLedger
	metrics  *metrics.Metrics
	cfg      AssistantConfig

	ingestMu sync.Mutex

	now   func() time.Time
	newID func() string
}

// NewAssistantService creates the orchestrator. It fails when a required
// collaborator is missing or the embedder and index disagree on dimensions.
func NewAssistantService(deps AssistantDeps, cfg AssistantConfig) (*AssistantService, error) {
	switch {
	case deps.Corpus == nil:
		return nil, fmt.Errorf("%w: corpus store is required", domain.ErrNotConfigured)
	case deps.Chunker == nil:
		return nil, fmt.Errorf("%w: chunker is required", domain.ErrNotConfigured)
	case deps.Embedder == nil:
		return nil, fmt.Errorf("%w: embedding service is required", domain.ErrNotConfigured)
	case deps.Index == nil:
		return nil, fmt.Errorf("%w: vector index is required", domain.ErrNotConfigured)
	case deps.LLM == nil:
		return nil, fmt.Errorf("%w: llm service is required", domain.ErrNotConfigured)
	case deps.Prompts == nil:
		return nil, fmt.Errorf("%w: prompt store is required", domain.ErrNotConfigured)
	}

	if deps.Embedder.Dimensions() != deps.Index.Dimensions() {
		return nil, fmt.Errorf("%w: embedder %s produces %d dimensions, index holds %d",
			domain.ErrDimensionMismatch, deps.Embedder.ModelName(),
			deps.Embedder.Dimensions(), deps.Index.Dimensions())
	}

	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.MaxDistance < 0 {
		cfg.MaxDistance = 0
	}

	deps.Metrics.SetIndexedChunks(deps.Index.Count())

	return &AssistantService{
		corpus:   deps.Corpus,
		chunker:  deps.Chunker,
		embedder: deps.Embedder,
		index:    deps.Index,
		llm:      deps.LLM,
		prompts:  deps.Prompts,
		ledger:   deps.Ledger,
		metrics:  deps.Metrics,
		cfg:      cfg,
		now:      time.Now,
		newID:    uuid.NewString,
	}, nil
}

// Ingest converts the corpus into indexed vectors. A second call while one
// is running fails with domain.ErrIngestionInProgress.
func (s *AssistantService) Ingest(ctx context.Context, rebuild bool) (*domain.IngestResult, error) {
	if !s.ingestMu.TryLock() {
		return nil, domain.ErrIngestionInProgress
	}
	defer s.ingestMu.Unlock()

	return s.ingest(ctx, rebuild, false)
}

// ingest runs one ingestion. The caller holds ingestMu. Bootstrap runs over an
// empty corpus are not recorded, since every question would repeat them.
func (s *AssistantService) ingest(ctx context.Context, rebuild, bootstrap bool) (*domain.IngestResult, error) {
	if !bootstrap {
		logger.Section("Ingestion")
	}
	run := &domain.IngestRun{
		ID:        s.newID(),
		StartedAt: s.now(),
		Rebuild:   rebuild,
	}

	result, records, err := s.runIngest(ctx, rebuild)
	run.CompletedAt = s.now()
	if err != nil {
		run.Status = domain.IngestStatusFailed
		run.Error = err.Error()
		s.recordRun(ctx, run, nil)
		s.metrics.RecordIngestion(string(domain.IngestStatusFailed), s.index.Count(), run.CompletedAt.Sub(run.StartedAt))
		return nil, err
	}

	if bootstrap && result.Status == domain.IngestStatusNoDocuments {
		logger.Debug("Bootstrap found no records to ingest")
		return result, nil
	}

	run.Status = result.Status
	run.DocumentsProcessed = result.DocumentsProcessed
	run.ChunksCreated = result.ChunksCreated
	s.recordRun(ctx, run, records)
	s.metrics.RecordIngestion(string(result.Status), s.index.Count(), run.CompletedAt.Sub(run.StartedAt))

	logger.Info("Ingestion finished: %s (%d documents, %d chunks)",
		result.Status, result.DocumentsProcessed, result.ChunksCreated)
	return result, nil
}

func (s *AssistantService) runIngest(
	ctx context.Context, rebuild bool,
) (*domain.IngestResult, []domain.DocumentRecord, error) {
	if rebuild {
		logger.Info("Clearing vector index for rebuild")
		if err := s.index.Clear(ctx); err != nil {
			return nil, nil, fmt.Errorf("clear index: %w", err)
		}
	}

	docs, err := s.corpus.ListRecords(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list records: %w", err)
	}
	if len(docs) == 0 {
		return &domain.IngestResult{Status: domain.IngestStatusNoDocuments, Message: msgNoDocuments}, nil, nil
	}
	logger.Info("Chunking %d documents", len(docs))

	var chunks []domain.Chunk
	records := make([]domain.DocumentRecord, 0, len(docs))
	for i := range docs {
		docChunks, err := s.chunker.Process(ctx, &docs[i])
		if err != nil {
			return nil, nil, fmt.Errorf("chunk %s: %w", docs[i].ID, err)
		}
		chunks = append(chunks, docChunks...)
		records = append(records, domain.DocumentRecord{
			Name:        docs[i].ID,
			ContentHash: docs[i].ContentHash,
			RecordDate:  docs[i].DateString(),
			ChunkCount:  len(docChunks),
		})
	}
	if len(chunks) == 0 {
		return &domain.IngestResult{
			Status:             domain.IngestStatusNoChunks,
			Message:            msgNoChunks,
			DocumentsProcessed: len(docs),
		}, records, nil
	}

	logger.Info("Embedding %d chunks", len(chunks))
	vectors, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return nil, nil, err
	}

	if err := s.index.Add(ctx, chunks, vectors); err != nil {
		return nil, nil, fmt.Errorf("index chunks: %w", err)
	}

	return &domain.IngestResult{
		Status:             domain.IngestStatusSuccess,
		Message:            fmt.Sprintf(msgIngested, len(docs)),
		DocumentsProcessed: len(docs),
		ChunksCreated:      len(chunks),
		IndexCount:         s.index.Count(),
	}, records, nil
}

// embedChunks embeds chunk texts in batches, preserving order.
func (s *AssistantService) embedChunks(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(chunks))

		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Content)
		}

		batch, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks %d-%d: %w", start, end-1, err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("%w: embedder returned %d vectors for %d texts",
				domain.ErrCountMismatch, len(batch), len(texts))
		}
		vectors = append(vectors, batch...)
		logger.Debug("Embedded %d/%d chunks", end, len(chunks))
	}
	return vectors, nil
}

// recordRun writes the run to the ledger. Failures are logged only.
func (s *AssistantService) recordRun(ctx context.Context, run *domain.IngestRun, records []domain.DocumentRecord) {
	if s.ledger == nil {
		return
	}
	for i := range records {
		records[i].RunID = run.ID
		records[i].IngestedAt = run.CompletedAt
	}
	if err := s.ledger.RecordRun(ctx, run, records); err != nil {
		logger.Warn("Failed to record ingestion run %s: %v", run.ID, err)
	}
}

// bootstrap ingests the corpus when the index is empty. Concurrent callers
// wait for the first and then see a populated index.
func (s *AssistantService) bootstrap(ctx context.Context) {
	if s.index.Count() > 0 {
		return
	}

	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()

	if s.index.Count() > 0 {
		return
	}

	logger.Debug("Vector index is empty, ingesting corpus")
	if _, err := s.ingest(ctx, false, true); err != nil {
		logger.Warn("Bootstrap ingestion failed, answering without records: %v", err)
	}
}

// retrieve embeds the question and returns the nearest chunks within the
// distance cutoff.
func (s *AssistantService) retrieve(ctx context.Context, question string) ([]domain.SearchHit, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveRetrieval(time.Since(start)) }()

	vec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	hits, err := s.index.Search(ctx, vec, s.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	if s.cfg.MaxDistance > 0 {
		kept := hits[:0]
		for _, h := range hits {
			if float64(h.Distance) <= s.cfg.MaxDistance {
				kept = append(kept, h)
			}
		}
		if dropped := len(hits) - len(kept); dropped > 0 {
			logger.Debug("Dropped %d hits beyond distance %.3f", dropped, s.cfg.MaxDistance)
		}
		hits = kept
	}

	return hits, nil
}

// generate renders the system and user prompts and calls the generator.
func (s *AssistantService) generate(ctx context.Context, systemName, promptName string, data promptData) (string, error) {
	system, err := renderPrompt(s.prompts, systemName, data)
	if err != nil {
		return "", err
	}
	prompt, err := renderPrompt(s.prompts, promptName, data)
	if err != nil {
		return "", err
	}
	return s.llm.Generate(ctx, prompt, driven.GenerateOptions{SystemInstruction: system})
}

// Query answers a question from the records when retrieval finds anything,
// and from general knowledge otherwise.
func (s *AssistantService) Query(ctx context.Context, question string) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}

	logger.Section("Query")
	s.bootstrap(ctx)

	hits, err := s.retrieve(ctx, question)
	if err != nil {
		return nil, err
	}

	contextText, sources := buildContext(hits)
	grounded := len(hits) > 0
	logger.Debug("Retrieved %d chunks, grounded=%t", len(hits), grounded)

	promptName := driven.PromptAnswerUngrounded
	if grounded {
		promptName = driven.PromptAnswerGrounded
	}

	text, err := s.generate(ctx, driven.PromptAnswerSystem, promptName, promptData{
		Question: question,
		Context:  contextText,
	})
	if err != nil {
		logger.Error(err, "Answer generation failed")
		s.metrics.RecordGenerationFailure("answer")
		text = errAnswerPrefix + err.Error()
	}
	if strings.TrimSpace(text) == "" {
		text = msgEmptyAnswer
	}

	s.metrics.RecordQuery(grounded)

	return &domain.Answer{
		Text:            text,
		Recommendations: []string{},
		Sources:         sources,
		NeedsFollowup:   NeedsFollowup(text),
		Grounded:        grounded,
	}, nil
}

// Recommend produces recommendations for a question. With fromRecords the
// retrieved sections and the whole corpus are given to the generator.
func (s *AssistantService) Recommend(
	ctx context.Context, question string, fromRecords bool,
) (*domain.Recommendations, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}

	logger.Section("Recommendations")

	data := promptData{Question: question}
	promptName := driven.PromptRecommendGeneral
	sources := []string{}

	if fromRecords {
		hits, err := s.retrieve(ctx, question)
		if err != nil {
			return nil, err
		}

		var retrieved string
		retrieved, sources = buildContext(hits)

		all, err := s.corpus.ReadAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("read records: %w", err)
		}

		data.Context = recommendationContext(retrieved, all)
		promptName = driven.PromptRecommendRecords
	}

	text, err := s.generate(ctx, driven.PromptRecommendSystem, promptName, data)
	if err != nil {
		logger.Error(err, "Recommendation generation failed")
		s.metrics.RecordGenerationFailure("recommend")
		return &domain.Recommendations{
			Items:   []string{errRecsPrefix + err.Error()},
			Sources: sources,
		}, nil
	}

	return &domain.Recommendations{
		Items:   ParseRecommendations(text),
		Sources: sources,
	}, nil
}

// Summarise summarises the whole corpus without retrieval.
func (s *AssistantService) Summarise(ctx context.Context) (*domain.Summary, error) {
	logger.Section("Summary")

	all, err := s.corpus.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	if strings.TrimSpace(all) == "" {
		return &domain.Summary{Text: msgNoRecords, HasRecords: false}, nil
	}

	text, err := s.generate(ctx, driven.PromptSummariseSystem, driven.PromptSummarise, promptData{Records: all})
	if err != nil {
		logger.Error(err, "Summary generation failed")
		s.metrics.RecordGenerationFailure("summarise")
		text = errSummaryPfx + err.Error()
	}

	return &domain.Summary{Text: text, HasRecords: true}, nil
}

// Status reports the index size and which records changed since they were
// last ingested.
func (s *AssistantService) Status(ctx context.Context) (*domain.IndexStatus, error) {
	docs, err := s.corpus.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	status := &domain.IndexStatus{
		IndexCount:      s.index.Count(),
		Dimensions:      s.index.Dimensions(),
		CorpusDocuments: len(docs),
		Changed:         []string{},
		Removed:         []string{},
	}
	s.metrics.SetIndexedChunks(status.IndexCount)

	if s.ledger == nil {
		return status, nil
	}

	run, err := s.ledger.LastRun(ctx)
	switch {
	case errors.Is(err, domain.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("read last run: %w", err)
	default:
		status.LastRun = run
	}

	ingested, err := s.ledger.Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("read ingested documents: %w", err)
	}

	known := make(map[string]string, len(ingested))
	for _, d := range ingested {
		known[d.Name] = d.ContentHash
	}
	onDisk := make(map[string]bool, len(docs))
	for _, d := range docs {
		onDisk[d.ID] = true
		if hash, ok := known[d.ID]; !ok || hash != d.ContentHash {
			status.Changed = append(status.Changed, d.ID)
		}
	}
	for _, d := range ingested {
		if !onDisk[d.Name] {
			status.Removed = append(status.Removed, d.Name)
		}
	}

	return status, nil
}
