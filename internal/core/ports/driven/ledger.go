package driven

import (
	"context"

	"github.com/custodia-labs/medivault/internal/core/domain"
)

// IngestionLedger records ingestion runs and the document versions they indexed.
type IngestionLedger interface {
	// RecordRun stores a run and the documents it indexed. A rebuild run
	// replaces the document set; otherwise documents are upserted.
	RecordRun(ctx context.Context, run *domain.IngestRun, docs []domain.DocumentRecord) error

	// LastRun returns the most recent run.
	// Returns domain.ErrNotFound if no run was recorded.
	LastRun(ctx context.Context) (*domain.IngestRun, error)

	// Documents returns the ingested document set ordered by name.
	Documents(ctx context.Context) ([]domain.DocumentRecord, error)

	// Close releases resources.
	Close() error
}
