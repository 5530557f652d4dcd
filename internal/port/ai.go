package port

import "context"

// EmbeddingProvider abstracts the embedding backend. Implementations can
// target Ollama or any compatible API; one call embeds one chunk of text.
type EmbeddingProvider interface {
	// ModelName returns the identifier of the embedding model being used.
	ModelName() string

	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)
}
