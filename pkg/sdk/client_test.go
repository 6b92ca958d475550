package embedgate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(srv.URL, opts...)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	return client
}

func TestNew_RequiresBaseURL(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("expected error for empty base URL")
	}
}

func TestEmbed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("method: got %s", r.Method)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID header")
		}

		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Input != "hello" {
			t.Errorf("input: got %q", req.Input)
		}

		_ = json.NewEncoder(w).Encode(EmbedResult{
			Embedding:  []float64{0.1, 0.2},
			Dimensions: 2,
			Model:      "fallback-hash-v1",
			Fallback:   true,
		})
	})

	res, err := client.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embedding) != 2 {
		t.Errorf("expected 2 dims, got %d", len(res.Embedding))
	}
	if !res.Fallback {
		t.Error("expected fallback=true")
	}
}

func TestEmbed_SendsBearerToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("authorization: got %q", got)
		}
		_ = json.NewEncoder(w).Encode(EmbedResult{})
	}, WithAPIKey("secret"))

	if _, err := client.Embed(context.Background(), "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBatchEmbed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings/batch" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		var req batchEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Inputs) != 2 {
			t.Errorf("inputs: got %d", len(req.Inputs))
		}
		_ = json.NewEncoder(w).Encode(BatchEmbedResult{
			Embeddings: [][]float64{{1}, {2}},
		})
	})

	res, err := client.BatchEmbed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 2 {
		t.Errorf("expected 2 embeddings, got %d", len(res.Embeddings))
	}
}

func TestRerank_TopKAllOmitsField(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if _, ok := raw["top_k"]; ok {
			t.Error("top_k must be omitted for TopKAll")
		}
		_ = json.NewEncoder(w).Encode(RerankResult{
			Results: []RankedDocument{{Index: 0, Score: 1}},
		})
	})

	res, err := client.Rerank(context.Background(), "q", []string{"a"}, TopKAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Results) != 1 {
		t.Errorf("expected 1 result, got %d", len(res.Results))
	}
}

func TestRerank_TopKSent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req rerankRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.TopK == nil || *req.TopK != 3 {
			t.Errorf("top_k: got %v", req.TopK)
		}
		_ = json.NewEncoder(w).Encode(RerankResult{})
	})

	if _, err := client.Rerank(context.Background(), "q", []string{"a"}, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestModels(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(Models{
			Mode:     "auto",
			Fallback: ModelInfo{Name: "fallback-hash-v1", Dimensions: 384, Deterministic: true, Available: true},
		})
	})

	models, err := client.Models(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if models.Fallback.Dimensions != 384 {
		t.Errorf("fallback dimensions: got %d", models.Fallback.Dimensions)
	}
}

func TestHealth(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(Health{
			Status: "ok",
			Checks: map[string]string{"fallback": "ok"},
		})
	})

	h, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Status != "ok" {
		t.Errorf("status: got %q", h.Status)
	}
}

func TestAPIError_SentinelMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		code     string
		sentinel error
	}{
		{"quota", http.StatusPaymentRequired, "embedding_quota_exceeded", ErrQuotaExceeded},
		{"provider", http.StatusBadGateway, "embedding_provider_error", ErrProviderError},
		{"rerank provider", http.StatusBadGateway, "rerank_provider_error", ErrProviderError},
		{"unauthorized", http.StatusUnauthorized, "unauthorized", ErrUnauthorized},
		{"validation", http.StatusBadRequest, "validation_failed", ErrBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"code":    tt.code,
					"message": "boom",
				})
			})

			_, err := client.Embed(context.Background(), "x")
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("expected %v, got %v", tt.sentinel, err)
			}

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatal("expected *APIError")
			}
			if apiErr.Status != tt.status {
				t.Errorf("status: got %d, want %d", apiErr.Status, tt.status)
			}
		})
	}
}

func TestAPIError_NonJSONBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("upstream exploded"))
	})

	_, err := client.Embed(context.Background(), "x")
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatal("expected *APIError")
	}
	if apiErr.Status != http.StatusInternalServerError {
		t.Errorf("status: got %d", apiErr.Status)
	}
}
