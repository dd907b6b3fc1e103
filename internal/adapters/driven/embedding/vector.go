// Package embedding holds helpers shared by the embedding adapters.
package embedding

import (
	"math"
	"strings"
)

// IsBlank reports whether text has no content worth embedding.
func IsBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

// Zero returns an all-zero vector of the given size.
func Zero(dim int) []float32 {
	return make([]float32, dim)
}

// Normalize scales v to unit length in place. A zero vector is left as is.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

// FromFloat64 converts a provider response vector to float32.
func FromFloat64(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}
