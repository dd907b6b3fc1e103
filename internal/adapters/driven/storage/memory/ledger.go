package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/medivault/internal/core/domain"
	"github.com/custodia-labs/medivault/internal/core/ports/driven"
)

// Ensure Ledger implements the interface.
var _ driven.IngestionLedger = (*Ledger)(nil)

// Ledger is an in-memory implementation of driven.IngestionLedger.
// It is used in tests and as a fallback when the SQLite ledger cannot be opened.
type Ledger struct {
	mu   sync.RWMutex
	runs []domain.IngestRun
	docs map[string]domain.DocumentRecord
}

// NewLedger creates an empty in-memory ledger.
func NewLedger() *Ledger {
	return &Ledger{
		docs: make(map[string]domain.DocumentRecord),
	}
}

// RecordRun stores a run and its documents.
func (l *Ledger) RecordRun(_ context.Context, run *domain.IngestRun, docs []domain.DocumentRecord) error {
	if run == nil {
		return domain.ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.runs = append(l.runs, *run)
	if run.Rebuild {
		l.docs = make(map[string]domain.DocumentRecord, len(docs))
	}
	for _, d := range docs {
		l.docs[d.Name] = d
	}
	return nil
}

// LastRun returns the most recently started run.
func (l *Ledger) LastRun(_ context.Context) (*domain.IngestRun, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.runs) == 0 {
		return nil, domain.ErrNotFound
	}
	last := l.runs[0]
	for _, r := range l.runs[1:] {
		if !r.StartedAt.Before(last.StartedAt) {
			last = r
		}
	}
	return &last, nil
}

// Documents returns the ingested documents ordered by name.
func (l *Ledger) Documents(_ context.Context) ([]domain.DocumentRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.DocumentRecord, 0, len(l.docs))
	for _, d := range l.docs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Close releases resources.
func (l *Ledger) Close() error {
	return nil
}
