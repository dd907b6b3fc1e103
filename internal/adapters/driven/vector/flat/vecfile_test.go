package flat

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorFile_RoundTripIsExact(t *testing.T) {
	path := filepath.Join(t.TempDir(), VectorFile)
	data := []float32{
		0.1, -0.2, float32(math.Pi),
		math.SmallestNonzeroFloat32, math.MaxFloat32, -0,
	}

	require.NoError(t, writeVectorFile(path, 3, data))
	got, count, err := readVectorFile(path, 3)

	require.NoError(t, err)
	assert.Equal(t, 2, count)
	for i := range data {
		assert.Equal(t, math.Float32bits(data[i]), math.Float32bits(got[i]), "value %d", i)
	}
}

func TestVectorFile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), VectorFile)
	require.NoError(t, writeVectorFile(path, 384, nil))

	got, count, err := readVectorFile(path, 384)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, got)
}

func TestVectorFile_RejectsPartialRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), VectorFile)
	assert.Error(t, writeVectorFile(path, 3, []float32{1, 2}))
}

func TestVectorFile_BadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), VectorFile)
	require.NoError(t, writeVectorFile(path, 2, []float32{1, 2}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[0] = 'X'
	require.NoError(t, os.WriteFile(path, raw, 0600))

	_, _, err = readVectorFile(path, 2)
	assert.ErrorContains(t, err, "magic")
}

func TestVectorFile_DimensionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), VectorFile)
	require.NoError(t, writeVectorFile(path, 2, []float32{1, 2}))

	_, _, err := readVectorFile(path, 3)
	assert.ErrorContains(t, err, "dim")
}

func TestVectorFile_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, VectorFile)
	require.NoError(t, writeVectorFile(path, 1, []float32{1}))
	require.NoError(t, writeVectorFile(path, 1, []float32{1, 2}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, VectorFile, entries[0].Name())
}
