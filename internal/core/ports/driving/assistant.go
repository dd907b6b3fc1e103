package driving

import (
	"context"

	"github.com/custodia-labs/medivault/internal/core/domain"
)

// AssistantService answers questions about the medical record corpus.
type AssistantService interface {
	// Ingest converts the corpus into indexed vectors. With rebuild the
	// index is cleared first. At most one ingestion runs at a time.
	Ingest(ctx context.Context, rebuild bool) (*domain.IngestResult, error)

	// Query answers a question, grounded in retrieved records when possible.
	// Generation failures are reported in the answer text, not as errors.
	Query(ctx context.Context, question string) (*domain.Answer, error)

	// Recommend produces a list of recommendations for a question.
	// fromRecords includes retrieved sections and the full corpus as context.
	Recommend(ctx context.Context, question string, fromRecords bool) (*domain.Recommendations, error)

	// Summarise summarises the entire corpus.
	Summarise(ctx context.Context) (*domain.Summary, error)

	// Status reports index size and staleness against the corpus.
	Status(ctx context.Context) (*domain.IndexStatus, error)
}
