package domain

import "errors"

var (
	// ErrEmbeddingQuotaExceeded signals an exhausted embedding token budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrRerankProviderError signals a reranking provider failure.
	ErrRerankProviderError = errors.New("rerank provider error")
	// ErrNoProvider signals that no primary model provider is configured.
	ErrNoProvider = errors.New("no model provider configured")
)
