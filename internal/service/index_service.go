package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/arturoeanton/go-code-similarity-ollama/internal/domain"
	"github.com/arturoeanton/go-code-similarity-ollama/internal/port"
)

// IndexService wires extraction output through the cache-or-embed decision
// into the record store. Cache entries and records have independent
// lifecycles: a cache hit seeds a brand-new record under a fresh id, and
// wiping records leaves the cache alone.
type IndexService struct {
	records port.RecordStore
	embed   *EmbedService
}

// NewIndexService creates an indexing coordinator.
func NewIndexService(records port.RecordStore, embed *EmbedService) *IndexService {
	return &IndexService{records: records, embed: embed}
}

// IndexElement embeds and stores a single element, consulting the embedding
// cache first when the element carries a file hash. Returns the new record's
// id.
func (s *IndexService) IndexElement(ctx context.Context, el domain.ElementData) (string, error) {
	if strings.TrimSpace(el.ElementString) == "" {
		return "", &port.ValidationError{Field: "elementString"}
	}

	var vec []float32
	var err error
	if el.Metadata.FileHash != "" {
		vec, err = s.records.GetCachedEmbedding(ctx, domain.CacheKeyFor(el))
		if err != nil {
			return "", err
		}
	}

	if vec == nil {
		vec, err = s.embed.Embed(ctx, el.ElementString)
		if err != nil {
			return "", err
		}
		if el.Metadata.FileHash != "" {
			if cerr := s.records.SetCachedEmbedding(ctx, domain.CacheKeyFor(el), vec); cerr != nil {
				// A dead cache write costs a re-embed later, nothing else.
				slog.Warn("embedding cache write failed", "element", el.Metadata.ElementName, "error", cerr)
			}
		}
	}

	rec := &domain.EmbeddingIndex{
		ID:          uuid.NewString(),
		ElementData: el,
		Embedding:   vec,
	}
	if err := s.records.StoreRecord(ctx, rec); err != nil {
		return "", err
	}
	return rec.ID, nil
}

// IndexElementBatch indexes many elements at once: cache hits and misses are
// partitioned, only misses are embedded (bounded concurrency), and all
// records land through one pipelined store write. The returned ids align
// with the input order. All-or-nothing: any item's failure fails the batch
// and nothing is stored.
func (s *IndexService) IndexElementBatch(ctx context.Context, els []domain.ElementData) ([]string, error) {
	if len(els) == 0 {
		return []string{}, nil
	}

	for _, el := range els {
		if strings.TrimSpace(el.ElementString) == "" {
			return nil, &port.ValidationError{Field: "elementString"}
		}
	}

	// Cache lookup, position-aligned. Elements without a file hash never
	// consult the cache.
	vectors := make([][]float32, len(els))
	var lookupKeys []domain.CacheKey
	var lookupIdx []int
	for i, el := range els {
		if el.Metadata.FileHash != "" {
			lookupKeys = append(lookupKeys, domain.CacheKeyFor(el))
			lookupIdx = append(lookupIdx, i)
		}
	}
	if len(lookupKeys) > 0 {
		cached, err := s.records.GetCachedEmbeddingBatch(ctx, lookupKeys)
		if err != nil {
			return nil, err
		}
		for pos, idx := range lookupIdx {
			vectors[idx] = cached[pos]
		}
	}

	// Embed only the misses.
	var missIdx []int
	var missTexts []string
	for i, vec := range vectors {
		if vec == nil {
			missIdx = append(missIdx, i)
			missTexts = append(missTexts, els[i].ElementString)
		}
	}
	if len(missTexts) > 0 {
		embedded, err := s.embed.EmbedBatch(ctx, missTexts)
		if err != nil {
			return nil, err
		}

		var cacheKeys []domain.CacheKey
		var cacheVecs [][]float32
		for pos, idx := range missIdx {
			vectors[idx] = embedded[pos]
			if els[idx].Metadata.FileHash != "" {
				cacheKeys = append(cacheKeys, domain.CacheKeyFor(els[idx]))
				cacheVecs = append(cacheVecs, embedded[pos])
			}
		}
		if len(cacheKeys) > 0 {
			if cerr := s.records.SetCachedEmbeddingBatch(ctx, cacheKeys, cacheVecs); cerr != nil {
				slog.Warn("embedding cache batch write failed", "entries", len(cacheKeys), "error", cerr)
			}
		}
	}

	recs := make([]domain.EmbeddingIndex, len(els))
	ids := make([]string, len(els))
	for i, el := range els {
		ids[i] = uuid.NewString()
		recs[i] = domain.EmbeddingIndex{
			ID:          ids[i],
			ElementData: el,
			Embedding:   vectors[i],
		}
	}
	if err := s.records.StoreRecordBatch(ctx, recs); err != nil {
		return nil, err
	}

	slog.Info("indexed element batch", "count", len(ids), "embedded", len(missTexts), "cache_hits", len(ids)-len(missTexts))
	return ids, nil
}

// DeleteAll wipes every indexed record and reports how many were removed.
// The embedding cache is deliberately untouched.
func (s *IndexService) DeleteAll(ctx context.Context) (int64, error) {
	return s.records.DeleteAllRecords(ctx)
}
