// Package embeddings defines the sentence embedding contract shared by the
// keyword extractor and the term relevance engine.
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Embedder maps texts to fixed-length vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ErrDimensionMismatch is returned when two vectors cannot be compared.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// ErrNonFinite is returned when a vector or the similarity is NaN or Inf.
var ErrNonFinite = errors.New("non-finite embedding value")

// CosineSimilarity returns the cosine of the angle between a and b, in [-1, 1].
// A zero-norm vector has similarity 0 with everything.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("%w: empty vector", ErrDimensionMismatch)
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		if !isFinite(x) || !isFinite(y) {
			return 0, fmt.Errorf("%w at index %d", ErrNonFinite, i)
		}
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if !isFinite(sim) {
		return 0, fmt.Errorf("%w: similarity overflowed", ErrNonFinite)
	}
	// clamp rounding noise
	return math.Max(-1, math.Min(1, sim)), nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// EmbedOne embeds a single text.
func EmbedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(vecs))
	}
	return vecs[0], nil
}

// CheckCount verifies a provider returned one vector per input.
func CheckCount(inputs int, vecs [][]float32) error {
	if len(vecs) != inputs {
		return fmt.Errorf("expected %d embeddings, got %d", inputs, len(vecs))
	}
	for i, v := range vecs {
		if len(v) == 0 {
			return fmt.Errorf("empty embedding at index %d", i)
		}
	}
	return nil
}
