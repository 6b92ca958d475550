package domain

import "context"

// TopKAll requests all documents from a Reranker, in ranked order.
const TopKAll = -1

// Reranker orders documents by relevance to a query. topK truncates the
// result: 0 means empty, negative means no limit.
type Reranker interface {
	Rerank(ctx context.Context, query string, documents []string, topK int) (RerankResult, error)
}

// RankedDocument pairs an input document index with its relevance score.
type RankedDocument struct {
	Index int
	Score float64
}

// RerankResult holds documents sorted by score descending. Ties keep the
// input order.
type RerankResult struct {
	Documents []RankedDocument
}

// TruncateTopK applies the shared top-k policy to an already sorted slice.
func TruncateTopK(docs []RankedDocument, topK int) []RankedDocument {
	if topK < 0 || topK >= len(docs) {
		return docs
	}
	return docs[:topK]
}
