// Package flat provides an exact, linear-scan vector index persisted as two
// companion files: a binary vector file and a bbolt metadata file.
package flat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.etcd.io/bbolt"

	"github.com/custodia-labs/medivault/internal/core/domain"
	"github.com/custodia-labs/medivault/internal/core/ports/driven"
	"github.com/custodia-labs/medivault/internal/logger"
)

// Verify interface compliance at compile time.
var _ driven.VectorIndex = (*Index)(nil)

const (
	// VectorFile holds the raw float32 vectors.
	VectorFile = "index.vec"

	// MetaFile holds the chunk metadata in position order.
	MetaFile = "index.meta"
)

// Index is a flat L2 index. Add and Clear hold the write lock across the
// whole mutate-and-persist sequence; Search and Count take the read lock.
type Index struct {
	mu      sync.RWMutex
	dir     string
	dim     int
	vectors []float32 // count*dim values, row-major
	chunks  []domain.Chunk
	meta    *metaStore
	closed  bool
}

// New opens the index stored in dir, creating it if needed. Persisted state
// that is missing, unreadable or inconsistent is discarded with a warning
// and replaced by a fresh empty index.
func New(dir string, dim int) (*Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: vector dimension must be positive, got %d", domain.ErrInvalidInput, dim)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}

	idx := &Index{dir: dir, dim: dim}

	meta, err := openMetaStore(idx.metaPath())
	if err != nil {
		if errors.Is(err, os.ErrPermission) || errors.Is(err, bbolt.ErrTimeout) {
			return nil, fmt.Errorf("open index metadata: %w", err)
		}
		logger.Warn("index metadata unreadable, recreating: %v", err)
		if rmErr := os.Remove(idx.metaPath()); rmErr != nil && !os.IsNotExist(rmErr) {
			return nil, fmt.Errorf("remove corrupt index metadata: %w", rmErr)
		}
		if meta, err = openMetaStore(idx.metaPath()); err != nil {
			return nil, fmt.Errorf("open index metadata: %w", err)
		}
	}
	idx.meta = meta

	if err := idx.load(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("no persisted index in %s, creating", dir)
		} else {
			logger.Warn("index at %s could not be loaded, starting empty: %v", dir, err)
		}
		if err := idx.resetFiles(); err != nil {
			_ = meta.close()
			return nil, err
		}
	}

	logger.Debug("vector index opened: dir=%s dim=%d entries=%d", dir, dim, len(idx.chunks))
	return idx, nil
}

func (i *Index) vectorPath() string { return filepath.Join(i.dir, VectorFile) }
func (i *Index) metaPath() string   { return filepath.Join(i.dir, MetaFile) }

// load reads both files and accepts them only if they agree.
func (i *Index) load() error {
	vectors, count, err := readVectorFile(i.vectorPath(), i.dim)
	if err != nil {
		return err
	}
	chunks, err := i.meta.load()
	if err != nil {
		return err
	}
	if len(chunks) != count {
		return fmt.Errorf("%w: %d vectors, %d metadata entries", domain.ErrCountMismatch, count, len(chunks))
	}

	i.vectors = vectors
	i.chunks = chunks
	return nil
}

// resetFiles persists an empty index and clears memory. The vector file is
// written first; on any failure memory and metadata keep the previous entries.
func (i *Index) resetFiles() error {
	if err := writeVectorFile(i.vectorPath(), i.dim, nil); err != nil {
		return fmt.Errorf("reset vector file: %w", err)
	}
	if err := i.meta.reset(); err != nil {
		if rbErr := writeVectorFile(i.vectorPath(), i.dim, i.vectors); rbErr != nil {
			logger.Error(rbErr, "rollback of vector file failed; index will reset on next open")
		}
		return fmt.Errorf("reset index metadata: %w", err)
	}
	i.vectors = nil
	i.chunks = nil
	return nil
}

// Add appends vectors and chunks in input order and persists both files.
// Nothing is committed if validation or either write fails.
func (i *Index) Add(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: %d chunks, %d vectors", domain.ErrCountMismatch, len(chunks), len(vectors))
	}
	for n, v := range vectors {
		if len(v) != i.dim {
			return fmt.Errorf("%w: vector %d has length %d, index dimension is %d",
				domain.ErrDimensionMismatch, n, len(v), i.dim)
		}
	}
	if len(chunks) == 0 {
		return nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return domain.ErrIndexClosed
	}

	next := make([]float32, len(i.vectors), len(i.vectors)+len(vectors)*i.dim)
	copy(next, i.vectors)
	for _, v := range vectors {
		next = append(next, v...)
	}

	if err := writeVectorFile(i.vectorPath(), i.dim, next); err != nil {
		return fmt.Errorf("persist vectors: %w", err)
	}
	start := len(i.chunks)
	if err := i.meta.append(start, chunks); err != nil {
		// Put the previous vector file back so the pair stays consistent.
		if rbErr := writeVectorFile(i.vectorPath(), i.dim, i.vectors); rbErr != nil {
			logger.Error(rbErr, "rollback of vector file failed; index will reset on next open")
		}
		return fmt.Errorf("persist metadata: %w", err)
	}

	i.vectors = next
	i.chunks = append(i.chunks, chunks...)
	return nil
}

// Search returns the k nearest entries by squared Euclidean distance.
func (i *Index) Search(ctx context.Context, query []float32, k int) ([]domain.SearchHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(query) != i.dim {
		return nil, fmt.Errorf("%w: query has length %d, index dimension is %d",
			domain.ErrDimensionMismatch, len(query), i.dim)
	}

	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return nil, domain.ErrIndexClosed
	}

	n := len(i.chunks)
	if k > n {
		k = n
	}
	if k <= 0 {
		return []domain.SearchHit{}, nil
	}

	type scored struct {
		pos  int
		dist float32
	}
	all := make([]scored, n)
	for pos := 0; pos < n; pos++ {
		all[pos] = scored{pos: pos, dist: squaredL2(query, i.vectors[pos*i.dim:(pos+1)*i.dim])}
	}
	// Stable keeps insertion order among equal distances.
	sort.SliceStable(all, func(a, b int) bool { return all[a].dist < all[b].dist })

	hits := make([]domain.SearchHit, k)
	for j := range hits {
		s := all[j]
		hits[j] = domain.SearchHit{
			IndexEntry: domain.IndexEntry{Position: s.pos, Chunk: i.chunks[s.pos]},
			Distance:   s.dist,
		}
	}
	return hits, nil
}

// Clear discards all entries and persists the empty state.
func (i *Index) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return domain.ErrIndexClosed
	}
	return i.resetFiles()
}

// Count returns the number of stored entries.
func (i *Index) Count() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.chunks)
}

// Dimensions returns the configured vector length.
func (i *Index) Dimensions() int {
	return i.dim
}

// Dir returns the directory holding the index files.
func (i *Index) Dir() string {
	return i.dir
}

// Close releases the metadata file lock.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return nil
	}
	i.closed = true
	return i.meta.close()
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for n := range a {
		d := a[n] - b[n]
		sum += d * d
	}
	return sum
}
