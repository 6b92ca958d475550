package embedgate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultTimeout = 30 * time.Second

// Client is the embedgate SDK entry point. Safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates an embedgate Client for the given base URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("embedgate: base URL required")
	}

	cfg := &clientConfig{timeout: defaultTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.timeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     cfg.apiKey,
		httpClient: hc,
	}, nil
}

// Embed vectorizes a single text.
func (c *Client) Embed(ctx context.Context, text string) (EmbedResult, error) {
	var out EmbedResult
	err := c.post(ctx, "/v1/embeddings", embedRequest{Input: text}, &out)
	return out, err
}

// BatchEmbed vectorizes many texts in one request.
func (c *Client) BatchEmbed(ctx context.Context, texts []string) (BatchEmbedResult, error) {
	var out BatchEmbedResult
	err := c.post(ctx, "/v1/embeddings/batch", batchEmbedRequest{Inputs: texts}, &out)
	return out, err
}

// Rerank orders documents by relevance to the query. Pass TopKAll for all
// documents or a non-negative topK to truncate the result.
func (c *Client) Rerank(ctx context.Context, query string, documents []string, topK int) (RerankResult, error) {
	req := rerankRequest{Query: query, Documents: documents}
	if topK >= 0 {
		req.TopK = &topK
	}

	var out RerankResult
	err := c.post(ctx, "/v1/rerank", req, &out)
	return out, err
}

// Models reports the gateway's serving paths and routing mode.
func (c *Client) Models(ctx context.Context) (Models, error) {
	var out Models
	err := c.get(ctx, "/v1/models", &out)
	return out, err
}

// Health reports the aggregated service health.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.get(ctx, "/health", &out)
	return out, err
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("embedgate: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("embedgate: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("embedgate: build request: %w", err)
	}

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("embedgate: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("embedgate: decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var apiErr struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Code == "" {
		return &APIError{
			Status:  resp.StatusCode,
			Code:    "internal_error",
			Message: strings.TrimSpace(string(body)),
		}
	}

	return &APIError{
		Status:  resp.StatusCode,
		Code:    apiErr.Code,
		Message: apiErr.Message,
	}
}
