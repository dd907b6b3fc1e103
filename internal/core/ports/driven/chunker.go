package driven

import (
	"context"

	"github.com/custodia-labs/medivault/internal/core/domain"
)

// Chunker splits a document into overlapping windows.
type Chunker interface {
	// Name returns the chunker identifier (e.g., "chunker").
	Name() string

	// Process splits the document content. Every returned chunk carries the
	// document's metadata and the final chunk count.
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
