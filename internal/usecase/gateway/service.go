// Package gateway routes embedding and reranking requests between the
// configured primary provider and the deterministic fallback engine.
package gateway

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ragstudio/embedgate/internal/domain"
	"github.com/ragstudio/embedgate/internal/metrics"
)

// Mode selects the routing policy.
type Mode string

const (
	// ModeAuto prefers the primary provider and falls back on any primary error.
	ModeAuto Mode = "auto"
	// ModePrimaryOnly never falls back; primary errors propagate to the caller.
	ModePrimaryOnly Mode = "primary_only"
	// ModeFallbackOnly serves everything from the deterministic engine.
	ModeFallbackOnly Mode = "fallback_only"
)

const (
	reasonConfigured   = "configured"
	reasonPrimaryError = "primary_error"
)

// EmbedOutput is an embedding result annotated with the path that produced it.
type EmbedOutput struct {
	Result   domain.EmbeddingResult
	Model    string
	Fallback bool
}

// BatchEmbedOutput is a batch embedding result annotated with the producing path.
type BatchEmbedOutput struct {
	Result   domain.BatchEmbeddingResult
	Model    string
	Fallback bool
}

// RerankOutput is a rerank result annotated with the producing path.
type RerankOutput struct {
	Result   domain.RerankResult
	Model    string
	Fallback bool
}

// Service implements the routing policy. The fallback embedder and reranker
// are always present; the primary pair is nil when no provider is configured.
type Service struct {
	mode Mode

	primaryEmbedder Embedder
	primaryReranker Reranker
	primaryModel    string

	fallbackEmbedder Embedder
	fallbackReranker Reranker
	fallbackModel    string

	logger *zap.Logger
}

// New creates a gateway Service. When primaryEmbedder is nil the mode is
// forced to ModeFallbackOnly regardless of configuration.
func New(
	mode Mode,
	primaryEmbedder Embedder, primaryReranker Reranker, primaryModel string,
	fallbackEmbedder Embedder, fallbackReranker Reranker, fallbackModel string,
	logger *zap.Logger,
) *Service {
	if primaryEmbedder == nil {
		mode = ModeFallbackOnly
	}
	return &Service{
		mode:             mode,
		primaryEmbedder:  primaryEmbedder,
		primaryReranker:  primaryReranker,
		primaryModel:     primaryModel,
		fallbackEmbedder: fallbackEmbedder,
		fallbackReranker: fallbackReranker,
		fallbackModel:    fallbackModel,
		logger:           logger,
	}
}

// Mode reports the effective routing mode.
func (s *Service) Mode() Mode {
	return s.mode
}

// PrimaryModel reports the configured primary model name, empty when absent.
func (s *Service) PrimaryModel() string {
	return s.primaryModel
}

// FallbackModel reports the deterministic engine's model identifier.
func (s *Service) FallbackModel() string {
	return s.fallbackModel
}

// Embed vectorizes a single text through the active path.
func (s *Service) Embed(ctx context.Context, text string) (EmbedOutput, error) {
	if s.mode == ModeFallbackOnly {
		return s.embedFallback(ctx, text, reasonConfigured)
	}

	result, err := s.primaryEmbedder.Embed(ctx, text)
	if err == nil {
		return EmbedOutput{Result: result, Model: s.primaryModel}, nil
	}
	if s.mode == ModePrimaryOnly {
		return EmbedOutput{}, fmt.Errorf("primary embed: %w", err)
	}

	s.logger.Warn("Primary embedding failed, using fallback",
		zap.String("model", s.primaryModel),
		zap.Error(err),
	)
	return s.embedFallback(ctx, text, reasonPrimaryError)
}

func (s *Service) embedFallback(ctx context.Context, text, reason string) (EmbedOutput, error) {
	metrics.GatewayFallbackTotal.WithLabelValues("embed", reason).Inc()

	result, err := s.fallbackEmbedder.Embed(ctx, text)
	if err != nil {
		return EmbedOutput{}, fmt.Errorf("fallback embed: %w", err)
	}
	return EmbedOutput{Result: result, Model: s.fallbackModel, Fallback: true}, nil
}

// BatchEmbed vectorizes many texts through the active path. In auto mode a
// primary failure reroutes the whole batch so all vectors share one space.
func (s *Service) BatchEmbed(ctx context.Context, texts []string) (BatchEmbedOutput, error) {
	if s.mode == ModeFallbackOnly {
		return s.batchEmbedFallback(ctx, texts, reasonConfigured)
	}

	result, err := s.primaryEmbedder.BatchEmbed(ctx, texts)
	if err == nil {
		return BatchEmbedOutput{Result: result, Model: s.primaryModel}, nil
	}
	if s.mode == ModePrimaryOnly {
		return BatchEmbedOutput{}, fmt.Errorf("primary batch embed: %w", err)
	}

	s.logger.Warn("Primary batch embedding failed, using fallback",
		zap.String("model", s.primaryModel),
		zap.Int("texts", len(texts)),
		zap.Error(err),
	)
	return s.batchEmbedFallback(ctx, texts, reasonPrimaryError)
}

func (s *Service) batchEmbedFallback(ctx context.Context, texts []string, reason string) (BatchEmbedOutput, error) {
	metrics.GatewayFallbackTotal.WithLabelValues("embed", reason).Inc()

	result, err := s.fallbackEmbedder.BatchEmbed(ctx, texts)
	if err != nil {
		return BatchEmbedOutput{}, fmt.Errorf("fallback batch embed: %w", err)
	}
	return BatchEmbedOutput{Result: result, Model: s.fallbackModel, Fallback: true}, nil
}

// Rerank orders documents through the active path.
func (s *Service) Rerank(ctx context.Context, query string, documents []string, topK int) (RerankOutput, error) {
	if s.mode == ModeFallbackOnly {
		return s.rerankFallback(ctx, query, documents, topK, reasonConfigured)
	}

	result, err := s.primaryReranker.Rerank(ctx, query, documents, topK)
	if err == nil {
		return RerankOutput{Result: result, Model: s.primaryModel}, nil
	}
	if s.mode == ModePrimaryOnly {
		return RerankOutput{}, fmt.Errorf("primary rerank: %w", err)
	}

	s.logger.Warn("Primary rerank failed, using fallback",
		zap.String("model", s.primaryModel),
		zap.Int("documents", len(documents)),
		zap.Error(err),
	)
	return s.rerankFallback(ctx, query, documents, topK, reasonPrimaryError)
}

func (s *Service) rerankFallback(
	ctx context.Context, query string, documents []string, topK int, reason string,
) (RerankOutput, error) {
	metrics.GatewayFallbackTotal.WithLabelValues("rerank", reason).Inc()

	result, err := s.fallbackReranker.Rerank(ctx, query, documents, topK)
	if err != nil {
		return RerankOutput{}, fmt.Errorf("fallback rerank: %w", err)
	}
	return RerankOutput{Result: result, Model: s.fallbackModel, Fallback: true}, nil
}
