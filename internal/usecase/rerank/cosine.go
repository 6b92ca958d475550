// Package rerank implements the primary reranking path: documents are scored
// by cosine similarity between their embeddings and the query embedding.
package rerank

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/ragstudio/embedgate/internal/domain"
	"github.com/ragstudio/embedgate/internal/metrics"
)

// embedder is the consumer interface for batch vectorization (ISP).
type embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// CosineReranker ranks documents by embedding similarity to the query.
// Errors from the underlying embedder propagate so the gateway can fall back.
type CosineReranker struct {
	embedder embedder
	provider string
	logger   *zap.Logger
}

// NewCosineReranker creates a reranker on top of a batch embedder.
func NewCosineReranker(e embedder, provider string, logger *zap.Logger) *CosineReranker {
	return &CosineReranker{embedder: e, provider: provider, logger: logger}
}

var _ domain.Reranker = (*CosineReranker)(nil)

// Rerank embeds the query and every document in one batch call and sorts by
// cosine similarity, descending. Ties keep input order; top-k policy matches
// the fallback reranker.
func (r *CosineReranker) Rerank(
	ctx context.Context, query string, documents []string, topK int,
) (domain.RerankResult, error) {
	if len(documents) == 0 {
		return domain.RerankResult{Documents: []domain.RankedDocument{}}, nil
	}

	texts := make([]string, 0, len(documents)+1)
	texts = append(texts, query)
	texts = append(texts, documents...)

	start := time.Now()

	res, err := r.embedder.BatchEmbed(ctx, texts)
	if err != nil {
		metrics.RerankRequestsTotal.WithLabelValues(r.provider, "error").Inc()
		return domain.RerankResult{}, fmt.Errorf("rerank embed: %w", err)
	}
	if len(res.Embeddings) != len(texts) {
		metrics.RerankRequestsTotal.WithLabelValues(r.provider, "error").Inc()
		return domain.RerankResult{}, fmt.Errorf(
			"rerank embed returned %d vectors for %d texts: %w",
			len(res.Embeddings), len(texts), domain.ErrRerankProviderError)
	}

	queryVec := res.Embeddings[0]
	ranked := make([]domain.RankedDocument, len(documents))
	for i := range documents {
		ranked[i] = domain.RankedDocument{
			Index: i,
			Score: cosine(queryVec, res.Embeddings[i+1]),
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	metrics.RerankRequestsTotal.WithLabelValues(r.provider, "success").Inc()
	metrics.RerankRequestDuration.WithLabelValues(r.provider).Observe(time.Since(start).Seconds())

	r.logger.Debug("Rerank completed",
		zap.String("provider", r.provider),
		zap.Int("documents", len(documents)),
		zap.Duration("duration", time.Since(start)),
	)

	return domain.RerankResult{Documents: domain.TruncateTopK(ranked, topK)}, nil
}

// cosine computes cosine similarity. Zero-norm vectors score 0.
func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
