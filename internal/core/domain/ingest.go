package domain

import "time"

// IngestStatus is the terminal state of an ingestion run.
type IngestStatus string

// Ingestion outcomes.
const (
	IngestStatusSuccess     IngestStatus = "success"
	IngestStatusNoDocuments IngestStatus = "no_documents"
	IngestStatusNoChunks    IngestStatus = "no_chunks"
	IngestStatusFailed      IngestStatus = "failed"
)

// IsValid returns true if the status is recognised.
func (s IngestStatus) IsValid() bool {
	switch s {
	case IngestStatusSuccess, IngestStatusNoDocuments, IngestStatusNoChunks, IngestStatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s IngestStatus) String() string {
	return string(s)
}

// IngestResult summarises one ingestion run.
type IngestResult struct {
	Status             IngestStatus `json:"status"`
	Message            string       `json:"message"`
	DocumentsProcessed int          `json:"documents_processed"`
	ChunksCreated      int          `json:"chunks_created"`

	// IndexCount is the entry count after the run. Only set on success.
	IndexCount int `json:"vector_store_count,omitempty"`
}

// IngestRun is the ledger record of an ingestion run.
type IngestRun struct {
	ID                 string       `json:"id"`
	StartedAt          time.Time    `json:"started_at"`
	CompletedAt        time.Time    `json:"completed_at"`
	Rebuild            bool         `json:"rebuild"`
	Status             IngestStatus `json:"status"`
	DocumentsProcessed int          `json:"documents_processed"`
	ChunksCreated      int          `json:"chunks_created"`
	Error              string       `json:"error,omitempty"`
}

// DocumentRecord is the ledger's view of an ingested document.
type DocumentRecord struct {
	Name        string
	ContentHash string
	RecordDate  string
	ChunkCount  int
	IngestedAt  time.Time
	RunID       string
}

// IndexStatus reports the state of the index against the corpus.
type IndexStatus struct {
	// IndexCount is the number of stored entries.
	IndexCount int `json:"index_count"`

	// Dimensions is the configured vector dimension.
	Dimensions int `json:"dimensions"`

	// CorpusDocuments is the number of readable records on disk.
	CorpusDocuments int `json:"corpus_documents"`

	// LastRun is the most recent ingestion run, if any.
	LastRun *IngestRun `json:"last_run,omitempty"`

	// Changed lists records that are new or modified since they were ingested.
	Changed []string `json:"changed"`

	// Removed lists ingested records that no longer exist on disk.
	Removed []string `json:"removed"`
}

// IsStale returns true if the index no longer reflects the corpus.
func (s IndexStatus) IsStale() bool {
	return len(s.Changed) > 0 || len(s.Removed) > 0
}
