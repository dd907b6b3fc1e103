// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - CorpusStore: Reads medical records from the corpus directory
//   - Chunker: Splits records into overlapping windows
//   - EmbeddingService: Turns text into fixed-length vectors
//   - VectorIndex: Flat similarity index with persistent storage
//   - LLMService: Text generation for answers, recommendations and summaries
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - IngestionLedger: Records ingestion runs. Without it, status cannot report staleness.
//   - PromptStore: User-editable prompts. Without it, built-in prompts are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
