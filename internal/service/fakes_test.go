package service

import (
	"context"
	"sync"

	"github.com/arturoeanton/go-code-similarity-ollama/internal/domain"
	"github.com/arturoeanton/go-code-similarity-ollama/internal/port"
)

// memStore is an in-memory port.RecordStore for tests. Records keep
// insertion order, the cache never expires.
type memStore struct {
	mu    sync.Mutex
	recs  []domain.EmbeddingIndex
	cache map[domain.CacheKey][]float32
}

func newMemStore() *memStore {
	return &memStore{cache: make(map[domain.CacheKey][]float32)}
}

func (m *memStore) StoreRecord(_ context.Context, rec *domain.EmbeddingIndex) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, *rec)
	return nil
}

func (m *memStore) StoreRecordBatch(_ context.Context, recs []domain.EmbeddingIndex) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, recs...)
	return nil
}

func (m *memStore) GetRecord(_ context.Context, id string) (*domain.EmbeddingIndex, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.recs {
		if rec.ID == id {
			r := rec
			return &r, nil
		}
	}
	return nil, port.ErrNotFound
}

func (m *memStore) GetAllRecords(_ context.Context) ([]domain.EmbeddingIndex, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.EmbeddingIndex, len(m.recs))
	copy(out, m.recs)
	return out, nil
}

func (m *memStore) DeleteAllRecords(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := int64(len(m.recs))
	m.recs = nil
	return count, nil
}

func (m *memStore) GetCachedEmbedding(_ context.Context, key domain.CacheKey) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache[key], nil
}

func (m *memStore) SetCachedEmbedding(_ context.Context, key domain.CacheKey, vec []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[key] = vec
	return nil
}

func (m *memStore) GetCachedEmbeddingBatch(_ context.Context, keys []domain.CacheKey) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]float32, len(keys))
	for i, key := range keys {
		out[i] = m.cache[key]
	}
	return out, nil
}

func (m *memStore) SetCachedEmbeddingBatch(_ context.Context, keys []domain.CacheKey, vecs [][]float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, key := range keys {
		if vecs[i] != nil {
			m.cache[key] = vecs[i]
		}
	}
	return nil
}

// fakeProvider is a scripted port.EmbeddingProvider counting its calls.
type fakeProvider struct {
	mu      sync.Mutex
	calls   int
	embedFn func(text string) ([]float32, error)
}

func (f *fakeProvider) ModelName() string { return "fake-embed" }

func (f *fakeProvider) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.embedFn(text)
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func constantProvider(vec []float32) *fakeProvider {
	return &fakeProvider{embedFn: func(string) ([]float32, error) {
		out := make([]float32, len(vec))
		copy(out, vec)
		return out, nil
	}}
}
