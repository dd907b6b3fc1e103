// Package filesystem reads medical records from a directory of UTF-8 text files.
package filesystem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/medivault/internal/core/domain"
	"github.com/custodia-labs/medivault/internal/core/ports/driven"
	"github.com/custodia-labs/medivault/internal/logger"
)

// Verify interface compliance at compile time.
var _ driven.CorpusStore = (*Store)(nil)

// recordExt is the only extension treated as a record (case-insensitive).
const recordExt = ".txt"

// Store lists records from a single directory. Subdirectories and hidden
// files are ignored.
type Store struct {
	dir string

	mu      sync.Mutex
	closed  bool
	watcher watcherCloser
}

// watcherCloser is the subset of fsnotify.Watcher the store needs to stop.
type watcherCloser interface {
	Close() error
}

// New creates a store for dir. The directory does not need to exist yet.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the directory being read.
func (s *Store) Dir() string {
	return s.dir
}

// ListRecords returns every readable, non-empty record ordered by filename.
// Unreadable files are logged and skipped.
func (s *Store) ListRecords(ctx context.Context) ([]domain.Document, error) {
	names, err := s.recordNames()
	if err != nil {
		return nil, err
	}

	docs := make([]domain.Document, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := s.read(name)
		if err != nil {
			logger.Warn("skipping record %s: %v", name, err)
			continue
		}
		if doc.Content == "" {
			continue
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

// ReadAll concatenates every record under a "=== name ===" header.
func (s *Store) ReadAll(ctx context.Context) (string, error) {
	docs, err := s.ListRecords(ctx)
	if err != nil {
		return "", err
	}
	return FormatRecords(docs), nil
}

// FormatRecords renders documents as one labelled block.
func FormatRecords(docs []domain.Document) string {
	if len(docs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(docs)*2)
	for _, doc := range docs {
		parts = append(parts, fmt.Sprintf("\n\n=== %s ===\n\n", doc.ID), doc.Content)
	}
	return strings.Join(parts, "\n")
}

// Get returns a single record by filename.
func (s *Store) Get(ctx context.Context, name string) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if name != filepath.Base(name) || !isRecordName(name) {
		return nil, fmt.Errorf("%w: record %q", domain.ErrNotFound, name)
	}

	doc, err := s.read(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: record %q", domain.ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// recordNames lists candidate filenames in sorted order. A missing
// directory yields no names.
func (s *Store) recordNames() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read corpus directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !isRecordName(e.Name()) {
			continue
		}
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) read(name string) (*domain.Document, error) {
	path := filepath.Join(s.dir, name)

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("not valid UTF-8")
	}

	content := strings.TrimSpace(string(raw))
	sum := sha256.Sum256([]byte(content))

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	return &domain.Document{
		ID:          name,
		Path:        abs,
		Content:     content,
		Date:        ParseRecordDate(name),
		ContentHash: hex.EncodeToString(sum[:]),
		ModifiedAt:  info.ModTime(),
	}, nil
}

// isRecordName reports whether name looks like a visible text record.
func isRecordName(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(name), recordExt)
}

// ParseRecordDate extracts the date from a name of the form
// <name>_<YYYY-MM-DD>.txt. Returns nil when absent or invalid.
func ParseRecordDate(name string) *time.Time {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	idx := strings.LastIndex(stem, "_")
	if idx < 0 {
		return nil
	}

	date, err := time.Parse(domain.DateLayout, stem[idx+1:])
	if err != nil {
		return nil
	}
	return &date
}

// Close stops any active watch.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}
