package driven

import (
	"context"

	"github.com/custodia-labs/medivault/internal/core/domain"
)

// CorpusStore reads medical records from durable storage.
type CorpusStore interface {
	// ListRecords returns every readable, non-empty record ordered by name.
	// A missing or empty corpus yields an empty slice, not an error.
	ListRecords(ctx context.Context) ([]domain.Document, error)

	// ReadAll returns every record concatenated into one labelled block.
	// Returns "" when there are no records.
	ReadAll(ctx context.Context) (string, error)

	// Get returns a single record by filename.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, name string) (*domain.Document, error)

	// Dir returns the directory being read.
	Dir() string
}

// CorpusWatcher reports record changes in the corpus.
type CorpusWatcher interface {
	// Watch emits changes until ctx is done, then closes the channel.
	Watch(ctx context.Context) (<-chan domain.RecordChange, error)
}
