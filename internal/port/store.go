package port

import (
	"context"

	"github.com/arturoeanton/go-code-similarity-ollama/internal/domain"
)

// RecordStore is the contract for the backing store: keyed embedding records
// plus an independent content-addressed embedding cache. Any key-value
// product can sit behind it; per-key reads and writes are assumed atomic but
// no operation spans keys transactionally.
type RecordStore interface {
	// StoreRecord persists a single record.
	StoreRecord(ctx context.Context, rec *domain.EmbeddingIndex) error

	// StoreRecordBatch persists records through a single pipelined write.
	// Best-effort consistency: partial failure rolls back what the backend's
	// pipeline covers, nothing more.
	StoreRecordBatch(ctx context.Context, recs []domain.EmbeddingIndex) error

	// GetRecord returns the record for id, or ErrNotFound.
	GetRecord(ctx context.Context, id string) (*domain.EmbeddingIndex, error)

	// GetAllRecords returns every live record in insertion order. Records
	// deleted concurrently are silently skipped.
	GetAllRecords(ctx context.Context) ([]domain.EmbeddingIndex, error)

	// DeleteAllRecords removes every record and returns how many were
	// removed. The embedding cache is not touched.
	DeleteAllRecords(ctx context.Context) (int64, error)

	// GetCachedEmbedding returns the cached vector for key, or nil on a miss
	// or an expired entry. Reads never refresh the TTL.
	GetCachedEmbedding(ctx context.Context, key domain.CacheKey) ([]float32, error)

	// SetCachedEmbedding stores a vector under key, resetting its TTL.
	SetCachedEmbedding(ctx context.Context, key domain.CacheKey, vec []float32) error

	// GetCachedEmbeddingBatch looks up many keys at once. The result is
	// position-aligned with keys: a nil slot is a miss.
	GetCachedEmbeddingBatch(ctx context.Context, keys []domain.CacheKey) ([][]float32, error)

	// SetCachedEmbeddingBatch stores vectors under keys, position-aligned.
	// A nil vector slot is skipped.
	SetCachedEmbeddingBatch(ctx context.Context, keys []domain.CacheKey, vecs [][]float32) error
}
