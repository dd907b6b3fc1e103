package domain

import "time"

// DateLayout is the layout of record dates in filenames and metadata.
const DateLayout = "2006-01-02"

// Document is a single medical record read from the corpus directory.
// Documents are immutable once read; the index is rebuilt rather than edited.
type Document struct {
	// ID is the source filename, e.g. "checkup_2024-01-10.txt".
	ID string

	// Path is the absolute location on disk.
	Path string

	// Content is the whitespace-trimmed text of the file.
	Content string

	// Date is parsed from a trailing _YYYY-MM-DD token in the filename.
	// Nil when the name carries no valid date.
	Date *time.Time

	// ContentHash is the hex SHA-256 of Content.
	ContentHash string

	// ModifiedAt is the file modification time.
	ModifiedAt time.Time
}

// DateString returns the record date as YYYY-MM-DD, or "" when unknown.
func (d Document) DateString() string {
	if d.Date == nil {
		return ""
	}
	return d.Date.Format(DateLayout)
}

// MetadataVersion is the current version of the ChunkMetadata schema.
// Bump it whenever a field is added or its meaning changes.
const MetadataVersion = 1

// ChunkMetadata is the closed set of document attributes every chunk inherits.
type ChunkMetadata struct {
	// Version is the schema version the metadata was written with.
	Version int `json:"version"`

	// SourceFile is the ID of the originating Document.
	SourceFile string `json:"source_file"`

	// Date is the record date as YYYY-MM-DD, or empty.
	Date string `json:"date,omitempty"`

	// ContentHash is the hash of the document the chunk was cut from.
	ContentHash string `json:"content_hash,omitempty"`
}

// MetadataFor builds the chunk metadata for a document.
func MetadataFor(doc Document) ChunkMetadata {
	return ChunkMetadata{
		Version:     MetadataVersion,
		SourceFile:  doc.ID,
		Date:        doc.DateString(),
		ContentHash: doc.ContentHash,
	}
}

// Chunk is an overlapping text window derived from exactly one Document.
type Chunk struct {
	// DocumentID links to the parent Document.
	DocumentID string `json:"document_id"`

	// Content is the whitespace-trimmed text of this window.
	Content string `json:"text"`

	// Position is the zero-based sequence index within the document.
	Position int `json:"chunk_index"`

	// Total is the number of chunks the document produced.
	Total int `json:"total_chunks"`

	// StartOffset and EndOffset are character offsets into the trimmed document text.
	StartOffset int `json:"start_char"`
	EndOffset   int `json:"end_char"`

	// Metadata is inherited from the parent document.
	Metadata ChunkMetadata `json:"metadata"`
}

// Source returns the filename the chunk came from.
func (c Chunk) Source() string {
	if c.Metadata.SourceFile != "" {
		return c.Metadata.SourceFile
	}
	if c.DocumentID != "" {
		return c.DocumentID
	}
	return "unknown"
}

// RecordChangeType classifies a corpus change.
type RecordChangeType string

// Change types reported by a corpus watcher.
const (
	RecordCreated RecordChangeType = "created"
	RecordUpdated RecordChangeType = "updated"
	RecordDeleted RecordChangeType = "deleted"
)

// RecordChange is a single record-level event in the corpus directory.
type RecordChange struct {
	Type RecordChangeType
	Name string
}
