package embedgate

// TopKAll requests all documents from Rerank, in ranked order.
const TopKAll = -1

// Usage reports token consumption. Zero on the fallback path.
type Usage struct {
	PromptTokens int `json:"prompt_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// EmbedResult is the outcome of a single embedding request.
type EmbedResult struct {
	Embedding  []float64 `json:"embedding"`
	Dimensions int       `json:"dimensions"`
	Model      string    `json:"model"`
	Fallback   bool      `json:"fallback"`
	Usage      Usage     `json:"usage"`
}

// BatchEmbedResult is the outcome of a batch embedding request.
type BatchEmbedResult struct {
	Embeddings [][]float64 `json:"embeddings"`
	Dimensions int         `json:"dimensions"`
	Model      string      `json:"model"`
	Fallback   bool        `json:"fallback"`
	Usage      Usage       `json:"usage"`
}

// RankedDocument is one scored document in a rerank result. Index refers to
// the position in the submitted documents slice.
type RankedDocument struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// RerankResult is the outcome of a rerank request.
type RerankResult struct {
	Results  []RankedDocument `json:"results"`
	Model    string           `json:"model"`
	Fallback bool             `json:"fallback"`
}

// ModelInfo describes one serving path.
type ModelInfo struct {
	Name          string `json:"name"`
	Dimensions    int    `json:"dimensions"`
	Deterministic bool   `json:"deterministic"`
	Available     bool   `json:"available"`
}

// Models describes the gateway's serving paths and routing mode.
type Models struct {
	Mode     string     `json:"mode"`
	Primary  *ModelInfo `json:"primary,omitempty"`
	Fallback ModelInfo  `json:"fallback"`
}

// Health is the aggregated service health report.
type Health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type embedRequest struct {
	Input string `json:"input"`
}

type batchEmbedRequest struct {
	Inputs []string `json:"inputs"`
}

type rerankRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopK      *int     `json:"top_k,omitempty"`
}
