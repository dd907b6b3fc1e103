package flat

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/medivault/internal/core/domain"
)

const testDim = 3

// setupTestIndex opens an index in a fresh temp directory.
func setupTestIndex(t *testing.T) (*Index, string) {
	t.Helper()
	dir := t.TempDir()
	idx, err := New(dir, testDim)
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx, dir
}

func reopen(t *testing.T, idx *Index, dir string, dim int) *Index {
	t.Helper()
	require.NoError(t, idx.Close())
	again, err := New(dir, dim)
	require.NoError(t, err)
	t.Cleanup(func() { _ = again.Close() })
	return again
}

func chunk(source string, pos int, text string) domain.Chunk {
	return domain.Chunk{
		DocumentID: source,
		Content:    text,
		Position:   pos,
		Total:      1,
		EndOffset:  len(text),
		Metadata: domain.ChunkMetadata{
			Version:    domain.MetadataVersion,
			SourceFile: source,
			Date:       "2024-01-10",
		},
	}
}

func seed(t *testing.T, idx *Index) {
	t.Helper()
	chunks := []domain.Chunk{
		chunk("a.txt", 0, "alpha"),
		chunk("b.txt", 0, "bravo"),
		chunk("c.txt", 0, "charlie"),
	}
	vectors := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
	require.NoError(t, idx.Add(context.Background(), chunks, vectors))
}

func TestNew_CreatesEmptyIndex(t *testing.T) {
	idx, dir := setupTestIndex(t)

	assert.Equal(t, 0, idx.Count())
	assert.Equal(t, testDim, idx.Dimensions())
	assert.FileExists(t, filepath.Join(dir, VectorFile))
	assert.FileExists(t, filepath.Join(dir, MetaFile))
}

func TestNew_InvalidDimension(t *testing.T) {
	_, err := New(t.TempDir(), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAdd_AndSearch(t *testing.T) {
	idx, _ := setupTestIndex(t)
	seed(t, idx)

	hits, err := idx.Search(context.Background(), []float32{0.9, 0.1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "alpha", hits[0].Chunk.Content)
	assert.Equal(t, 0, hits[0].Position)
	assert.Equal(t, "bravo", hits[1].Chunk.Content)
	assert.InDelta(t, 0.02, hits[0].Distance, 1e-6)
	assert.LessOrEqual(t, hits[0].Distance, hits[1].Distance)
}

func TestSearch_KLargerThanCountReturnsAll(t *testing.T) {
	idx, _ := setupTestIndex(t)
	seed(t, idx)

	hits, err := idx.Search(context.Background(), []float32{0, 0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 3)
}

func TestSearch_EmptyIndex(t *testing.T) {
	idx, _ := setupTestIndex(t)

	hits, err := idx.Search(context.Background(), []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	assert.NotNil(t, hits)
	assert.Empty(t, hits)
}

func TestSearch_NonPositiveK(t *testing.T) {
	idx, _ := setupTestIndex(t)
	seed(t, idx)

	hits, err := idx.Search(context.Background(), []float32{1, 0, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearch_TiesPreferEarliest(t *testing.T) {
	idx, _ := setupTestIndex(t)
	same := []float32{0.5, 0.5, 0}
	chunks := []domain.Chunk{chunk("first.txt", 0, "one"), chunk("second.txt", 0, "two"), chunk("third.txt", 0, "three")}
	require.NoError(t, idx.Add(context.Background(), chunks, [][]float32{same, same, same}))

	hits, err := idx.Search(context.Background(), []float32{1, 0, 0}, 3)
	require.NoError(t, err)

	require.Len(t, hits, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{hits[0].Position, hits[1].Position, hits[2].Position})
}

func TestSearch_DimensionMismatch(t *testing.T) {
	idx, _ := setupTestIndex(t)
	seed(t, idx)

	_, err := idx.Search(context.Background(), []float32{1, 0}, 1)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestAdd_DimensionMismatchCommitsNothing(t *testing.T) {
	idx, dir := setupTestIndex(t)
	seed(t, idx)

	err := idx.Add(context.Background(),
		[]domain.Chunk{chunk("d.txt", 0, "delta"), chunk("e.txt", 0, "echo")},
		[][]float32{{1, 1, 1}, {1, 1}})

	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Equal(t, 3, idx.Count())
	assert.Equal(t, 3, reopen(t, idx, dir, testDim).Count())
}

func TestAdd_CountMismatchCommitsNothing(t *testing.T) {
	idx, _ := setupTestIndex(t)

	err := idx.Add(context.Background(),
		[]domain.Chunk{chunk("d.txt", 0, "delta")},
		[][]float32{{1, 1, 1}, {0, 0, 0}})

	assert.ErrorIs(t, err, domain.ErrCountMismatch)
	assert.Equal(t, 0, idx.Count())
}

func TestAdd_EmptyIsNoop(t *testing.T) {
	idx, _ := setupTestIndex(t)
	require.NoError(t, idx.Add(context.Background(), nil, nil))
	assert.Equal(t, 0, idx.Count())
}

func TestAdd_AppendsInOrder(t *testing.T) {
	idx, _ := setupTestIndex(t)
	seed(t, idx)

	require.NoError(t, idx.Add(context.Background(),
		[]domain.Chunk{chunk("d.txt", 0, "delta")},
		[][]float32{{1, 1, 1}}))

	hits, err := idx.Search(context.Background(), []float32{1, 1, 1}, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, idx.Count())
	assert.Equal(t, 3, hits[0].Position)
	assert.Equal(t, "delta", hits[0].Chunk.Content)
}

func TestPersistence_RoundTrip(t *testing.T) {
	idx, dir := setupTestIndex(t)
	seed(t, idx)
	query := []float32{0.3, 0.6, 0.1}

	before, err := idx.Search(context.Background(), query, 3)
	require.NoError(t, err)

	again := reopen(t, idx, dir, testDim)
	after, err := again.Search(context.Background(), query, 3)
	require.NoError(t, err)

	assert.Equal(t, 3, again.Count())
	assert.Equal(t, before, after)
	assert.Equal(t, "2024-01-10", after[0].Chunk.Metadata.Date)
	assert.Equal(t, domain.MetadataVersion, after[0].Chunk.Metadata.Version)
}

func TestClear(t *testing.T) {
	idx, dir := setupTestIndex(t)
	seed(t, idx)

	require.NoError(t, idx.Clear(context.Background()))
	assert.Equal(t, 0, idx.Count())

	hits, err := idx.Search(context.Background(), []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, hits)

	// The empty state survives a restart.
	assert.Equal(t, 0, reopen(t, idx, dir, testDim).Count())
}

func TestClear_ThenAdd(t *testing.T) {
	idx, dir := setupTestIndex(t)
	seed(t, idx)
	require.NoError(t, idx.Clear(context.Background()))
	seed(t, idx)

	assert.Equal(t, 3, reopen(t, idx, dir, testDim).Count())
}

func TestClear_VectorWriteFailureKeepsEntries(t *testing.T) {
	idx, dir := setupTestIndex(t)
	seed(t, idx)

	// A non-empty directory in place of the vector file makes the rename fail.
	vecPath := filepath.Join(dir, VectorFile)
	require.NoError(t, os.Remove(vecPath))
	require.NoError(t, os.Mkdir(vecPath, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(vecPath, "blocker"), []byte("x"), 0o600))

	err := idx.Clear(context.Background())
	require.Error(t, err)
	assert.Equal(t, 3, idx.Count())

	hits, err := idx.Search(context.Background(), []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	assert.Len(t, hits, 3)

	// Metadata was left untouched, so appending still lines up.
	require.NoError(t, os.RemoveAll(vecPath))
	seed(t, idx)
	assert.Equal(t, 6, idx.Count())
	assert.Equal(t, 6, reopen(t, idx, dir, testDim).Count())
}

func TestLoad_CorruptVectorFileStartsEmpty(t *testing.T) {
	idx, dir := setupTestIndex(t)
	seed(t, idx)
	require.NoError(t, idx.Close())

	path := filepath.Join(dir, VectorFile)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[headerSize] ^= 0xFF
	require.NoError(t, os.WriteFile(path, raw, 0600))

	again, err := New(dir, testDim)
	require.NoError(t, err)
	defer again.Close()

	assert.Equal(t, 0, again.Count())
	hits, err := again.Search(context.Background(), []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestLoad_TruncatedVectorFileStartsEmpty(t *testing.T) {
	idx, dir := setupTestIndex(t)
	seed(t, idx)
	require.NoError(t, idx.Close())

	path := filepath.Join(dir, VectorFile)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw[:headerSize+5], 0600))

	again, err := New(dir, testDim)
	require.NoError(t, err)
	defer again.Close()
	assert.Equal(t, 0, again.Count())
}

func TestLoad_MissingVectorFileDiscardsMetadata(t *testing.T) {
	idx, dir := setupTestIndex(t)
	seed(t, idx)
	require.NoError(t, idx.Close())
	require.NoError(t, os.Remove(filepath.Join(dir, VectorFile)))

	again, err := New(dir, testDim)
	require.NoError(t, err)
	defer again.Close()

	assert.Equal(t, 0, again.Count())
	// Both files are rewritten as a consistent empty pair.
	assert.Equal(t, 0, reopen(t, again, dir, testDim).Count())
}

func TestLoad_MissingMetadataDiscardsVectors(t *testing.T) {
	idx, dir := setupTestIndex(t)
	seed(t, idx)
	require.NoError(t, idx.Close())
	require.NoError(t, os.Remove(filepath.Join(dir, MetaFile)))

	again, err := New(dir, testDim)
	require.NoError(t, err)
	defer again.Close()
	assert.Equal(t, 0, again.Count())
}

func TestLoad_GarbageMetadataStartsEmpty(t *testing.T) {
	idx, dir := setupTestIndex(t)
	seed(t, idx)
	require.NoError(t, idx.Close())
	require.NoError(t, os.WriteFile(filepath.Join(dir, MetaFile), []byte("not a database"), 0600))

	again, err := New(dir, testDim)
	require.NoError(t, err)
	defer again.Close()
	assert.Equal(t, 0, again.Count())
}

func TestLoad_CountMismatchStartsEmpty(t *testing.T) {
	idx, dir := setupTestIndex(t)
	seed(t, idx)
	require.NoError(t, idx.Close())

	// Vector file with one row fewer than the metadata.
	require.NoError(t, writeVectorFile(filepath.Join(dir, VectorFile), testDim, []float32{1, 0, 0, 0, 1, 0}))

	again, err := New(dir, testDim)
	require.NoError(t, err)
	defer again.Close()
	assert.Equal(t, 0, again.Count())
}

func TestLoad_DimensionChangeStartsEmpty(t *testing.T) {
	idx, dir := setupTestIndex(t)
	seed(t, idx)

	again := reopen(t, idx, dir, 4)
	assert.Equal(t, 0, again.Count())
	assert.Equal(t, 4, again.Dimensions())
}

func TestClosed(t *testing.T) {
	idx, _ := setupTestIndex(t)
	require.NoError(t, idx.Close())
	require.NoError(t, idx.Close())

	_, err := idx.Search(context.Background(), []float32{1, 0, 0}, 1)
	assert.ErrorIs(t, err, domain.ErrIndexClosed)
	assert.ErrorIs(t, idx.Add(context.Background(), []domain.Chunk{chunk("a.txt", 0, "a")}, [][]float32{{1, 0, 0}}), domain.ErrIndexClosed)
	assert.ErrorIs(t, idx.Clear(context.Background()), domain.ErrIndexClosed)
}

func TestCancelledContext(t *testing.T) {
	idx, _ := setupTestIndex(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := idx.Search(ctx, []float32{1, 0, 0}, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, idx.Add(ctx, nil, nil), context.Canceled)
}

func TestConcurrentAddAndSearch(t *testing.T) {
	idx, _ := setupTestIndex(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for n := 0; n < 5; n++ {
				c := chunk(fmt.Sprintf("w%d-%d.txt", w, n), 0, "x")
				assert.NoError(t, idx.Add(ctx, []domain.Chunk{c}, [][]float32{{float32(w), float32(n), 1}}))
			}
		}(w)
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < 20; n++ {
				hits, err := idx.Search(ctx, []float32{0, 0, 1}, 100)
				assert.NoError(t, err)
				for _, h := range hits {
					assert.NotEmpty(t, h.Chunk.Metadata.SourceFile)
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, idx.Count())
}
