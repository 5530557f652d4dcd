package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/arturoeanton/go-code-similarity-ollama/internal/domain"
	"github.com/arturoeanton/go-code-similarity-ollama/internal/port"
)

// SimilarityService answers similarity queries over the stored records.
// All scans are exact brute-force over the full working set; at the scale of
// a single codebase's elements that beats maintaining an approximate index.
type SimilarityService struct {
	records port.RecordStore
	embed   *EmbedService
}

// NewSimilarityService creates a similarity service.
func NewSimilarityService(records port.RecordStore, embed *EmbedService) *SimilarityService {
	return &SimilarityService{records: records, embed: embed}
}

// CosineSimilarity returns the cosine of the angle between a and b in
// [-1, 1]. Vectors of different length, or with zero magnitude, score
// exactly 0 rather than erroring: records embedded under different provider
// configurations are simply "not similar".
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// FindSimilar returns the elements most similar to the record with targetID,
// descending by similarity, capped at limit. The target itself is excluded.
// Fails with port.ErrNotFound for an unknown id.
func (s *SimilarityService) FindSimilar(ctx context.Context, targetID string, threshold float64, limit int) ([]domain.ElementData, error) {
	target, err := s.records.GetRecord(ctx, targetID)
	if err != nil {
		return nil, err
	}

	recs, err := s.records.GetAllRecords(ctx)
	if err != nil {
		return nil, err
	}

	var hits []domain.SearchResult
	for _, rec := range recs {
		if rec.ID == targetID {
			continue
		}
		sim := CosineSimilarity(target.Embedding, rec.Embedding)
		if sim >= threshold {
			hits = append(hits, domain.SearchResult{Element: rec.ElementData, Similarity: sim})
		}
	}

	sortResults(hits)
	hits = truncateResults(hits, limit)

	elements := make([]domain.ElementData, len(hits))
	for i, hit := range hits {
		elements[i] = hit.Element
	}
	return elements, nil
}

// FindMostSimilarPairs computes similarity over all unordered record pairs
// and returns those at or above threshold, descending, capped at limit.
// Deliberately O(n²).
func (s *SimilarityService) FindMostSimilarPairs(ctx context.Context, threshold float64, limit int) ([]domain.SimilarPair, error) {
	recs, err := s.records.GetAllRecords(ctx)
	if err != nil {
		return nil, err
	}

	var pairs []domain.SimilarPair
	for i := 0; i < len(recs); i++ {
		for j := i + 1; j < len(recs); j++ {
			sim := CosineSimilarity(recs[i].Embedding, recs[j].Embedding)
			if sim >= threshold {
				pairs = append(pairs, domain.SimilarPair{
					Element1:   recs[i].ElementData,
					Element2:   recs[j].ElementData,
					Similarity: sim,
				})
			}
		}
	}

	// Stable sort over insertion-ordered pairs keeps equal scores
	// deterministic.
	sort.SliceStable(pairs, func(a, b int) bool {
		return pairs[a].Similarity > pairs[b].Similarity
	})
	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs, nil
}

// SearchByVector scans all records against an arbitrary query vector.
func (s *SimilarityService) SearchByVector(ctx context.Context, query []float32, threshold float64, limit int) ([]domain.SearchResult, error) {
	recs, err := s.records.GetAllRecords(ctx)
	if err != nil {
		return nil, err
	}

	var results []domain.SearchResult
	for _, rec := range recs {
		sim := CosineSimilarity(query, rec.Embedding)
		if sim >= threshold {
			results = append(results, domain.SearchResult{Element: rec.ElementData, Similarity: sim})
		}
	}

	sortResults(results)
	return truncateResults(results, limit), nil
}

// SearchText embeds a free-text query and searches by the resulting vector.
func (s *SimilarityService) SearchText(ctx context.Context, query string, threshold float64, limit int) ([]domain.SearchResult, error) {
	vec, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return s.SearchByVector(ctx, vec, threshold, limit)
}

func sortResults(results []domain.SearchResult) {
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Similarity > results[b].Similarity
	})
}

func truncateResults(results []domain.SearchResult, limit int) []domain.SearchResult {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}
