// Package chi implements the HTTP API on top of the chi router.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ragstudio/embedgate/internal/domain"
	"github.com/ragstudio/embedgate/internal/fallback"
	gatewayuc "github.com/ragstudio/embedgate/internal/usecase/gateway"
	healthuc "github.com/ragstudio/embedgate/internal/usecase/health"
)

const maxBatchInputs = 1024

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers for the v1 API.
type Server struct {
	gateway           *gatewayuc.Service
	health            *healthuc.Service
	primaryDimensions int
	logger            *zap.Logger
	errorHandlers     []errorHandler
}

// NewServer creates an HTTP API server. primaryDimensions is the configured
// vector size of the primary model, 0 when no provider is configured.
func NewServer(
	gateway *gatewayuc.Service,
	health *healthuc.Service,
	primaryDimensions int,
	logger *zap.Logger,
) *Server {
	s := &Server{
		gateway:           gateway,
		health:            health,
		primaryDimensions: primaryDimensions,
		logger:            logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmbeddingQuotaExceeded, http.StatusPaymentRequired, CodeQuotaExceeded),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeProviderError),
		sentinelHandler(domain.ErrRerankProviderError, http.StatusBadGateway, CodeRerankProviderError),
		sentinelHandler(domain.ErrNoProvider, http.StatusServiceUnavailable, CodeProviderError),
	}
	return s
}

// RegisterRoutes mounts all API routes onto the router.
func (s *Server) RegisterRoutes(r chirouter.Router) {
	r.Post("/v1/embeddings", s.Embed)
	r.Post("/v1/embeddings/batch", s.BatchEmbed)
	r.Post("/v1/rerank", s.Rerank)
	r.Get("/v1/models", s.Models)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Embed handles POST /v1/embeddings.
func (s *Server) Embed(w http.ResponseWriter, r *http.Request) {
	var req EmbedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	out, err := s.gateway.Embed(r.Context(), req.Input)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, EmbedResponse{
		Embedding:  out.Result.Embedding,
		Dimensions: len(out.Result.Embedding),
		Model:      out.Model,
		Fallback:   out.Fallback,
		Usage: Usage{
			PromptTokens: out.Result.PromptTokens,
			TotalTokens:  out.Result.TotalTokens,
		},
	})
}

// BatchEmbed handles POST /v1/embeddings/batch.
func (s *Server) BatchEmbed(w http.ResponseWriter, r *http.Request) {
	var req BatchEmbedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if len(req.Inputs) > maxBatchInputs {
		writeError(w, http.StatusBadRequest, CodeValidationFailed,
			fmt.Sprintf("inputs count must not exceed %d", maxBatchInputs))
		return
	}

	out, err := s.gateway.BatchEmbed(r.Context(), req.Inputs)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	dims := 0
	if len(out.Result.Embeddings) > 0 {
		dims = len(out.Result.Embeddings[0])
	}
	if out.Result.Embeddings == nil {
		out.Result.Embeddings = [][]float64{}
	}

	writeJSON(w, http.StatusOK, BatchEmbedResponse{
		Embeddings: out.Result.Embeddings,
		Dimensions: dims,
		Model:      out.Model,
		Fallback:   out.Fallback,
		Usage: Usage{
			PromptTokens: out.Result.PromptTokens,
			TotalTokens:  out.Result.TotalTokens,
		},
	})
}

// Rerank handles POST /v1/rerank.
func (s *Server) Rerank(w http.ResponseWriter, r *http.Request) {
	var req RerankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	topK := domain.TopKAll
	if req.TopK != nil {
		if *req.TopK < 0 {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, "top_k must not be negative")
			return
		}
		topK = *req.TopK
	}

	out, err := s.gateway.Rerank(r.Context(), req.Query, req.Documents, topK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	results := make([]RankedDocumentItem, len(out.Result.Documents))
	for i, d := range out.Result.Documents {
		results[i] = RankedDocumentItem{Index: d.Index, Score: d.Score}
	}

	writeJSON(w, http.StatusOK, RerankResponse{
		Results:  results,
		Model:    out.Model,
		Fallback: out.Fallback,
	})
}

// Models handles GET /v1/models.
func (s *Server) Models(w http.ResponseWriter, r *http.Request) {
	resp := ModelsResponse{
		Mode: string(s.gateway.Mode()),
		Fallback: ModelInfo{
			Name:          s.gateway.FallbackModel(),
			Dimensions:    fallback.Dimensions,
			Deterministic: true,
			Available:     true,
		},
	}

	if s.gateway.PrimaryModel() != "" {
		resp.Primary = &ModelInfo{
			Name:       s.gateway.PrimaryModel(),
			Dimensions: s.primaryDimensions,
			Available:  s.gateway.Mode() != gatewayuc.ModeFallbackOnly,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	// Degraded still serves requests through the fallback path.
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmbeddingQuotaExceeded,
		domain.ErrEmbeddingProviderError,
		domain.ErrRerankProviderError,
		domain.ErrNoProvider,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
