package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotConfigured indicates a required credential or path is missing.
	// Returned at construction time and never retried.
	ErrNotConfigured = errors.New("not configured")

	// ErrUnsupportedType indicates an unknown provider name.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrIngestionInProgress indicates an ingestion is already running.
	ErrIngestionInProgress = errors.New("ingestion in progress")

	// Index Errors.

	// ErrDimensionMismatch indicates a vector length differs from the index dimension.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrCountMismatch indicates the number of vectors and chunks differ.
	ErrCountMismatch = errors.New("count mismatch")

	// ErrIndexCorrupt indicates persisted index files are unreadable or disagree.
	ErrIndexCorrupt = errors.New("index corrupt")

	// ErrIndexClosed indicates the index has been closed.
	ErrIndexClosed = errors.New("index closed")

	// External Service Errors.

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrGenerationFailed indicates the generator failed after all retries.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)
