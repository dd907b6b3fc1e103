package hashing

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	s := NewEmbeddingService(0)
	assert.Equal(t, DefaultDimensions, s.Dimensions())
	assert.Equal(t, "hashing-v1", s.ModelName())
	assert.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, s.Close())
}

func TestEmbed_BlankIsZeroVector(t *testing.T) {
	s := NewEmbeddingService(16)
	for _, text := range []string{"", "   ", "\n\t"} {
		v, err := s.Embed(context.Background(), text)
		require.NoError(t, err)
		assert.Len(t, v, 16)
		assert.Zero(t, norm(v))
	}
}

func TestEmbed_UnitLengthAndDeterministic(t *testing.T) {
	s := NewEmbeddingService(64)
	a, err := s.Embed(context.Background(), "Blood pressure 120/80, cholesterol slightly elevated.")
	require.NoError(t, err)
	b, err := s.Embed(context.Background(), "Blood pressure 120/80, cholesterol slightly elevated.")
	require.NoError(t, err)

	assert.InDelta(t, 1.0, norm(a), 1e-5)
	assert.Equal(t, a, b)
}

func TestEmbed_LexicalSimilarity(t *testing.T) {
	s := NewEmbeddingService(384)
	ctx := context.Background()
	record, err := s.Embed(ctx, "Annual checkup. Blood pressure normal. Cholesterol elevated, recommend diet changes.")
	require.NoError(t, err)
	related, err := s.Embed(ctx, "What was my cholesterol at the checkup?")
	require.NoError(t, err)
	unrelated, err := s.Embed(ctx, "Fractured wrist treated with a cast in the emergency room.")
	require.NoError(t, err)

	assert.Greater(t, dot(record, related), dot(record, unrelated))
}

func TestEmbed_OnlyStopwords(t *testing.T) {
	s := NewEmbeddingService(8)
	v, err := s.Embed(context.Background(), "the and of")
	require.NoError(t, err)
	assert.Zero(t, norm(v))
}

func TestEmbed_CancelledContext(t *testing.T) {
	s := NewEmbeddingService(8)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Embed(ctx, "text")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEmbedBatch_PreservesOrder(t *testing.T) {
	s := NewEmbeddingService(32)
	ctx := context.Background()
	texts := []string{"ibuprofen dosage", "", "migraine history"}
	batch, err := s.EmbedBatch(ctx, texts)
	require.NoError(t, err)
	require.Len(t, batch, 3)
	for i, text := range texts {
		single, err := s.Embed(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, single, batch[i])
	}
}

