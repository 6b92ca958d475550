// Package fallback provides the deterministic, dependency-free embedding and
// reranking implementations used when no real model provider is available.
// Both are total functions: every input, including empty strings and empty
// document lists, has a defined output and the error return is always nil.
package fallback

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/ragstudio/embedgate/internal/domain"
)

// Dimensions is the fallback vector width, matching all-MiniLM-L6-v2 output.
const Dimensions = 384

// ModelName identifies the deterministic engine in API responses.
const ModelName = "fallback-hash-v1"

// dimStride spreads the text hash across dimensions.
const dimStride = 37

// Embedder deterministically maps text to a 384-dimensional unit vector.
// It is stateless and safe for concurrent use.
type Embedder struct{}

// NewEmbedder creates a fallback embedder.
func NewEmbedder() *Embedder {
	return &Embedder{}
}

var _ domain.Embedder = (*Embedder)(nil)

// Embed implements domain.Embedder. The returned error is always nil.
//
// Each component is derived from an FNV-1a hash of the UTF-8 bytes of text:
// seed_i = hash + i*37, raw_i = (seed_i mod 2000 - 1000) / 1000, giving values
// in [-1, 1). The vector is then unit-normalized. Unsigned arithmetic keeps the
// modulo non-negative regardless of the hash value.
func (e *Embedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text)) // fnv never errors
	hash := h.Sum64()

	vec := make([]float64, Dimensions)
	var sumSquares float64
	for i := range vec {
		seed := hash + uint64(i)*dimStride
		raw := (float64(seed%2000) - 1000.0) / 1000.0
		vec[i] = raw
		sumSquares += raw * raw
	}

	// Unit-normalize. A zero norm means every component is exactly zero;
	// leave the vector as-is rather than dividing by zero.
	if norm := math.Sqrt(sumSquares); norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}

	return domain.EmbeddingResult{Embedding: vec}, nil
}

// BatchEmbed implements domain.BatchEmbedder. The returned error is always nil.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	embeddings := make([][]float64, len(texts))
	for i, text := range texts {
		res, _ := e.Embed(ctx, text)
		embeddings[i] = res.Embedding
	}
	return domain.BatchEmbeddingResult{Embeddings: embeddings}, nil
}
