package filesystem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/medivault/internal/core/domain"
	"github.com/custodia-labs/medivault/internal/core/ports/driven"
	"github.com/custodia-labs/medivault/internal/logger"
)

// Verify interface compliance at compile time.
var _ driven.CorpusWatcher = (*Store)(nil)

// Watch reports record changes in the corpus directory until ctx is done.
// The returned channel is closed when watching stops.
func (s *Store) Watch(ctx context.Context) (<-chan domain.RecordChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.New("corpus store is closed")
	}

	info, err := os.Stat(s.dir)
	if err != nil {
		return nil, fmt.Errorf("corpus directory error: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus directory error: %s is not a directory", s.dir)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(s.dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", s.dir, err)
	}
	s.watcher = w

	changes := make(chan domain.RecordChange)
	go func() {
		defer close(changes)
		defer w.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				change := s.handleFsEvent(event)
				if change == nil {
					continue
				}
				select {
				case changes <- *change:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("corpus watcher: %v", err)
			}
		}
	}()

	return changes, nil
}

// handleFsEvent maps an fsnotify event to a record change, or nil when the
// event does not concern a record.
func (s *Store) handleFsEvent(event fsnotify.Event) *domain.RecordChange {
	name := filepath.Base(event.Name)
	if !isRecordName(name) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return &domain.RecordChange{Type: domain.RecordDeleted, Name: name}
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			return nil
		}
		return &domain.RecordChange{Type: domain.RecordCreated, Name: name}
	case event.Has(fsnotify.Write):
		return &domain.RecordChange{Type: domain.RecordUpdated, Name: name}
	default:
		return nil
	}
}
