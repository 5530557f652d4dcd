package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/arturoeanton/go-code-similarity-ollama/internal/port"
)

// OllamaEndpointConfig holds the configuration for an Ollama embed endpoint.
type OllamaEndpointConfig struct {
	BaseURL string // e.g. http://localhost:11434 or https://api.ollama.com
	Model   string // e.g. bge-m3
	Token   string // Bearer token for Ollama Cloud (empty = no auth)
	Timeout time.Duration
}

// OllamaProvider implements port.EmbeddingProvider using the Ollama REST API.
type OllamaProvider struct {
	cfg        OllamaEndpointConfig
	httpClient *http.Client
}

// DefaultRequestTimeout bounds a single embedding request. A timeout fails
// the request; the caller decides whether to retry.
const DefaultRequestTimeout = 30 * time.Second

// NewOllamaProvider creates a new Ollama-backed embedding provider.
func NewOllamaProvider(cfg OllamaEndpointConfig) *OllamaProvider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRequestTimeout
	}
	return &OllamaProvider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// ModelName returns the embedding model identifier.
func (o *OllamaProvider) ModelName() string {
	return o.cfg.Model
}

// Embed generates a vector embedding for the given text. It fails with
// port.ErrNoEmbedEndpoint when no endpoint is configured and with a
// port.ProviderError on a non-2xx or malformed provider response.
func (o *OllamaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if o.cfg.BaseURL == "" {
		return nil, port.ErrNoEmbedEndpoint
	}

	payload := map[string]interface{}{
		"model": o.cfg.Model,
		"input": text,
	}

	body, err := o.post(ctx, "/api/embed", payload)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}

	var resp struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("ollama embed decode: %w", &port.ProviderError{StatusCode: http.StatusOK, Body: err.Error()})
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("ollama embed: %w", &port.ProviderError{StatusCode: http.StatusOK, Body: "empty embedding in response"})
	}

	return resp.Embeddings[0], nil
}

// post is a helper for POST requests to the Ollama endpoint (with optional
// bearer token).
func (o *OllamaProvider) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL+path, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+o.cfg.Token)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &port.ProviderError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return io.ReadAll(resp.Body)
}
