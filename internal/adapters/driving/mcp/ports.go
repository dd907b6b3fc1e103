package mcp

import (
	"context"

	"github.com/custodia-labs/medivault/internal/core/domain"
	"github.com/custodia-labs/medivault/internal/core/ports/driving"
)

// RecordReader gives read access to the record directory.
type RecordReader interface {
	ListRecords(ctx context.Context) ([]domain.Document, error)
	Get(ctx context.Context, name string) (*domain.Document, error)
}

// Ports aggregates everything the MCP server needs.
type Ports struct {
	// Assistant answers questions and runs ingestion.
	Assistant driving.AssistantService

	// Records backs the record resources. Optional.
	Records RecordReader
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Assistant == nil {
		return ErrMissingAssistantService
	}
	return nil
}
