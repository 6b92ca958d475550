package chi

// Request and response bodies for the v1 HTTP API.

// ErrorCode identifies a machine-readable error class.
type ErrorCode string

const (
	CodeBadRequest          ErrorCode = "bad_request"
	CodeValidationFailed    ErrorCode = "validation_failed"
	CodeUnauthorized        ErrorCode = "unauthorized"
	CodeQuotaExceeded       ErrorCode = "embedding_quota_exceeded"
	CodeProviderError       ErrorCode = "embedding_provider_error"
	CodeRerankProviderError ErrorCode = "rerank_provider_error"
	CodeInternalError       ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// Usage reports token consumption. Zero on the fallback path.
type Usage struct {
	PromptTokens int `json:"prompt_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// EmbedRequest is the body of POST /v1/embeddings.
type EmbedRequest struct {
	Input string `json:"input"`
}

// EmbedResponse is the body of a successful POST /v1/embeddings.
type EmbedResponse struct {
	Embedding  []float64 `json:"embedding"`
	Dimensions int       `json:"dimensions"`
	Model      string    `json:"model"`
	Fallback   bool      `json:"fallback"`
	Usage      Usage     `json:"usage"`
}

// BatchEmbedRequest is the body of POST /v1/embeddings/batch.
type BatchEmbedRequest struct {
	Inputs []string `json:"inputs"`
}

// BatchEmbedResponse is the body of a successful POST /v1/embeddings/batch.
type BatchEmbedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
	Dimensions int         `json:"dimensions"`
	Model      string      `json:"model"`
	Fallback   bool        `json:"fallback"`
	Usage      Usage       `json:"usage"`
}

// RerankRequest is the body of POST /v1/rerank. TopK is optional; absent
// means all documents are returned.
type RerankRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopK      *int     `json:"top_k,omitempty"`
}

// RankedDocumentItem is one scored document in a rerank response.
type RankedDocumentItem struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// RerankResponse is the body of a successful POST /v1/rerank.
type RerankResponse struct {
	Results  []RankedDocumentItem `json:"results"`
	Model    string               `json:"model"`
	Fallback bool                 `json:"fallback"`
}

// ModelInfo describes one serving path in GET /v1/models.
type ModelInfo struct {
	Name          string `json:"name"`
	Dimensions    int    `json:"dimensions"`
	Deterministic bool   `json:"deterministic"`
	Available     bool   `json:"available"`
}

// ModelsResponse is the body of GET /v1/models.
type ModelsResponse struct {
	Mode     string     `json:"mode"`
	Primary  *ModelInfo `json:"primary,omitempty"`
	Fallback ModelInfo  `json:"fallback"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
