package port

import (
	"errors"
	"fmt"
)

// Sentinel errors used across ports.
var (
	ErrNotFound        = errors.New("element not found")
	ErrNoEmbedEndpoint = errors.New("embedding endpoint not configured")
)

// ValidationError reports a missing or invalid required field on a request.
// Handlers map it to 400; it is never retried.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// ProviderError reports a non-2xx or malformed response from the embedding
// provider. Status and body are carried for diagnostics; the core never
// retries on its own.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("embedding provider error (%d): %s", e.StatusCode, e.Body)
}

// StoreError wraps a backing-store connectivity or operation failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
