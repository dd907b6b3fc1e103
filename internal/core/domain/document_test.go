package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDocument_DateString(t *testing.T) {
	date := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "2024-01-10", Document{Date: &date}.DateString())
	assert.Equal(t, "", Document{}.DateString())
}

func TestMetadataFor(t *testing.T) {
	date := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	doc := Document{ID: "checkup_2024-01-10.txt", Date: &date, ContentHash: "abc"}

	meta := MetadataFor(doc)

	assert.Equal(t, MetadataVersion, meta.Version)
	assert.Equal(t, "checkup_2024-01-10.txt", meta.SourceFile)
	assert.Equal(t, "2024-01-10", meta.Date)
	assert.Equal(t, "abc", meta.ContentHash)
}

func TestChunk_Source(t *testing.T) {
	tests := []struct {
		name     string
		chunk    Chunk
		expected string
	}{
		{"metadata wins", Chunk{DocumentID: "a.txt", Metadata: ChunkMetadata{SourceFile: "b.txt"}}, "b.txt"},
		{"falls back to document id", Chunk{DocumentID: "a.txt"}, "a.txt"},
		{"unknown when empty", Chunk{}, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.chunk.Source())
		})
	}
}

func TestIngestStatus_IsValid(t *testing.T) {
	assert.True(t, IngestStatusSuccess.IsValid())
	assert.True(t, IngestStatusNoDocuments.IsValid())
	assert.True(t, IngestStatusNoChunks.IsValid())
	assert.True(t, IngestStatusFailed.IsValid())
	assert.False(t, IngestStatus("partial").IsValid())
}

func TestIndexStatus_IsStale(t *testing.T) {
	assert.False(t, IndexStatus{}.IsStale())
	assert.True(t, IndexStatus{Changed: []string{"a.txt"}}.IsStale())
	assert.True(t, IndexStatus{Removed: []string{"b.txt"}}.IsStale())
}
