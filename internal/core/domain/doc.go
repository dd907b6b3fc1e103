// Package domain defines the core business entities for medivault.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A medical record read from the corpus directory
//   - Chunk: An overlapping text window, the unit of embedding and retrieval
//   - IndexEntry: A chunk's persisted metadata, addressed by index position
//   - Answer, Recommendations, Summary: Results of the retrieval pipeline
//   - IngestResult, IngestRun: Outcomes of an ingestion run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
