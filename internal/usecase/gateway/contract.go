package gateway

import (
	"context"

	"github.com/ragstudio/embedgate/internal/domain"
)

// Embedder vectorizes a single text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// Reranker orders documents by relevance to a query.
type Reranker interface {
	Rerank(ctx context.Context, query string, documents []string, topK int) (domain.RerankResult, error)
}
