// Package watcher rebuilds the vector index when the record directory
// changes. Bursts of file events are coalesced into one rebuild.
package watcher

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/medivault/internal/core/domain"
	"github.com/custodia-labs/medivault/internal/core/ports/driven"
	"github.com/custodia-labs/medivault/internal/logger"
)

// DefaultDebounce is the quiet period after the last change before a rebuild.
const DefaultDebounce = 2 * time.Second

// Ingester runs an ingestion. Satisfied by driving.AssistantService.
type Ingester interface {
	Ingest(ctx context.Context, rebuild bool) (*domain.IngestResult, error)
}

// ResultHandler is called after every triggered ingestion.
type ResultHandler func(result *domain.IngestResult, err error)

// Watcher drives rebuilds from corpus change notifications.
type Watcher struct {
	source   driven.CorpusWatcher
	ingester Ingester
	debounce time.Duration
	onResult ResultHandler
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period. Non-positive values are ignored.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithResultHandler registers a callback for ingestion outcomes.
func WithResultHandler(h ResultHandler) Option {
	return func(w *Watcher) {
		w.onResult = h
	}
}

// New creates a watcher.
func New(source driven.CorpusWatcher, ingester Ingester, opts ...Option) *Watcher {
	w := &Watcher{
		source:   source,
		ingester: ingester,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Debounce returns the configured quiet period.
func (w *Watcher) Debounce() time.Duration {
	return w.debounce
}

// Run blocks until ctx is cancelled or the change stream ends. A change
// that arrives while a rebuild is running schedules another one.
func (w *Watcher) Run(ctx context.Context) error {
	changes, err := w.source.Watch(ctx)
	if err != nil {
		return err
	}

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			logger.Debug("Record %s: %s", change.Type, change.Name)
			timer.Reset(w.debounce)
		case <-timer.C:
			if w.rebuild(ctx) {
				timer.Reset(w.debounce)
			}
		}
	}
}

// rebuild runs one ingestion and reports whether it must be retried.
func (w *Watcher) rebuild(ctx context.Context) bool {
	logger.Info("Records changed, rebuilding index")
	result, err := w.ingester.Ingest(ctx, true)
	if errors.Is(err, domain.ErrIngestionInProgress) {
		logger.Debug("Ingestion already running, retrying in %s", w.debounce)
		return true
	}
	if err != nil {
		logger.Error(err, "Rebuild after record change failed")
	}
	if w.onResult != nil {
		w.onResult(result, err)
	}
	return false
}
