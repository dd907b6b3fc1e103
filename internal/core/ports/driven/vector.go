package driven

import (
	"context"

	"github.com/custodia-labs/medivault/internal/core/domain"
)

// VectorIndex is an append-only flat similarity index.
// Each stored vector is paired with one chunk's metadata by position.
//
// Every mutating call persists both vectors and metadata before returning.
// Add and Clear are serialised against each other; Search and Count may run
// concurrently but never observe a half-written state.
type VectorIndex interface {
	// Add appends vectors and their chunks in input order.
	// Fails with domain.ErrCountMismatch or domain.ErrDimensionMismatch
	// without committing anything.
	Add(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error

	// Search returns up to k nearest entries by ascending squared Euclidean
	// distance. Ties go to the earliest-added entry. An empty index yields
	// an empty slice.
	Search(ctx context.Context, query []float32, k int) ([]domain.SearchHit, error)

	// Clear discards all entries and persists the empty state.
	Clear(ctx context.Context) error

	// Count returns the number of stored entries.
	Count() int

	// Dimensions returns the configured vector length.
	Dimensions() int

	// Close releases resources.
	Close() error
}
