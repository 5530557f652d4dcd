package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/arturoeanton/go-code-similarity-ollama/internal/port"
)

// Defaults for the embedding pipeline.
const (
	DefaultChunkLimit  = 8000 // bytes per provider request
	DefaultConcurrency = 5    // concurrent outbound embedding calls in a batch
)

// EmbedService turns arbitrary text into a fixed-length vector. Oversized
// input is split into line-aligned chunks, each chunk embedded separately,
// and the results averaged element-wise.
type EmbedService struct {
	provider    port.EmbeddingProvider
	chunkLimit  int
	concurrency int
}

// NewEmbedService creates an embedding service over the given provider.
// Non-positive chunkLimit or concurrency fall back to the defaults.
func NewEmbedService(provider port.EmbeddingProvider, chunkLimit, concurrency int) *EmbedService {
	if chunkLimit <= 0 {
		chunkLimit = DefaultChunkLimit
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &EmbedService{provider: provider, chunkLimit: chunkLimit, concurrency: concurrency}
}

// ModelName returns the underlying provider's model identifier.
func (s *EmbedService) ModelName() string {
	return s.provider.ModelName()
}

// Embed generates a vector for text. Input over the chunk limit is split,
// each chunk embedded in its own request, and the chunk vectors averaged.
// A failed chunk fails the whole call; there is no partial mean.
func (s *EmbedService) Embed(ctx context.Context, text string) ([]float32, error) {
	chunks := chunkText(text, s.chunkLimit)
	if len(chunks) == 0 {
		chunks = []string{text}
	}

	if len(chunks) == 1 {
		return s.provider.Embed(ctx, chunks[0])
	}

	vectors := make([][]float32, len(chunks))
	for i, chunk := range chunks {
		vec, err := s.provider.Embed(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("embed chunk %d/%d: %w", i+1, len(chunks), err)
		}
		vectors[i] = vec
	}

	return meanVectors(vectors)
}

// EmbedBatch embeds many texts with a bounded worker pool. The result is
// position-aligned with the input regardless of completion order; any single
// item's failure fails the batch.
func (s *EmbedService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	if len(texts) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, text := range texts {
		g.Go(func() error {
			vec, err := s.Embed(gctx, text)
			if err != nil {
				return fmt.Errorf("embed batch item %d: %w", i, err)
			}
			results[i] = vec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// chunkText splits text into chunks of at most limit bytes. Lines are packed
// greedily; a single line longer than the limit is force-split at limit-byte
// boundaries with the remainder starting the next chunk. Chunks that are
// empty after trimming are dropped.
func chunkText(text string, limit int) []string {
	if len(text) <= limit {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{text}
	}

	var chunks []string
	emit := func(chunk string) {
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
	}

	current := ""
	for _, line := range strings.Split(text, "\n") {
		for len(line) > limit {
			emit(current)
			current = ""
			emit(line[:limit])
			line = line[limit:]
		}

		switch {
		case current == "":
			current = line
		case len(current)+1+len(line) > limit:
			emit(current)
			current = line
		default:
			current += "\n" + line
		}
	}
	emit(current)

	return chunks
}

// meanVectors computes the element-wise arithmetic mean. Chunk vectors of
// mismatched dimensionality fail fast rather than being truncated or padded.
func meanVectors(vectors [][]float32) ([]float32, error) {
	dim := len(vectors[0])
	for i, vec := range vectors {
		if len(vec) != dim {
			return nil, fmt.Errorf("chunk embedding dimensionality mismatch: chunk 0 has %d, chunk %d has %d", dim, i, len(vec))
		}
	}

	sums := make([]float64, dim)
	for _, vec := range vectors {
		for j, v := range vec {
			sums[j] += float64(v)
		}
	}

	mean := make([]float32, dim)
	n := float64(len(vectors))
	for j, sum := range sums {
		mean[j] = float32(sum / n)
	}
	return mean, nil
}
