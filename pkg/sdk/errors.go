package embedgate

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is() to check.
var (
	ErrUnauthorized  = errors.New("embedgate: unauthorized")
	ErrQuotaExceeded = errors.New("embedgate: embedding quota exceeded")
	ErrProviderError = errors.New("embedgate: provider error")
	ErrBadRequest    = errors.New("embedgate: bad request")
)

// APIError is a structured error returned by the service.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("embedgate: %s (status %d): %s", e.Code, e.Status, e.Message)
}

// Unwrap maps the error code to a sentinel so errors.Is works.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "unauthorized":
		return ErrUnauthorized
	case "embedding_quota_exceeded":
		return ErrQuotaExceeded
	case "embedding_provider_error", "rerank_provider_error":
		return ErrProviderError
	case "bad_request", "validation_failed":
		return ErrBadRequest
	default:
		return nil
	}
}
