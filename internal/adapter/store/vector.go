package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/arturoeanton/go-code-similarity-ollama/internal/domain"
	"github.com/arturoeanton/go-code-similarity-ollama/internal/port"
)

// DefaultCacheTTL is the retention window for embedding cache entries.
// Refreshed on every write, never on read.
const DefaultCacheTTL = 7 * 24 * time.Hour

// RecordStore implements port.RecordStore on top of Postgres: one row per
// embedding record plus a separately-keyed embedding cache with expiry.
type RecordStore struct {
	store    *PostgresStore
	cacheTTL time.Duration
}

// NewRecordStore creates a record store backed by the given Postgres store.
// A non-positive ttl falls back to DefaultCacheTTL.
func NewRecordStore(store *PostgresStore, ttl time.Duration) *RecordStore {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RecordStore{store: store, cacheTTL: ttl}
}

// StoreRecord persists a single embedding record.
func (r *RecordStore) StoreRecord(ctx context.Context, rec *domain.EmbeddingIndex) error {
	query := `INSERT INTO element_records
	          (id, file_path, line_number, element_name, commit_hash, file_hash, base_path, element_string, vector)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	m := rec.ElementData.Metadata
	_, err := r.store.db.ExecContext(ctx, query,
		rec.ID, m.FilePath, m.LineNumber, m.ElementName, m.CommitHash, m.FileHash, m.BasePath,
		rec.ElementData.ElementString, vectorToString(rec.Embedding),
	)
	if err != nil {
		return &port.StoreError{Op: "store record", Err: err}
	}
	return nil
}

// StoreRecordBatch persists multiple records through a single transaction
// with a prepared statement. Best-effort pipeline: there is no cross-record
// guarantee beyond what the transaction provides.
func (r *RecordStore) StoreRecordBatch(ctx context.Context, recs []domain.EmbeddingIndex) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return &port.StoreError{Op: "begin batch", Err: err}
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO element_records
		 (id, file_path, line_number, element_name, commit_hash, file_hash, base_path, element_string, vector)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`)
	if err != nil {
		return &port.StoreError{Op: "prepare batch", Err: err}
	}
	defer stmt.Close()

	for _, rec := range recs {
		m := rec.ElementData.Metadata
		if _, err := stmt.ExecContext(ctx,
			rec.ID, m.FilePath, m.LineNumber, m.ElementName, m.CommitHash, m.FileHash, m.BasePath,
			rec.ElementData.ElementString, vectorToString(rec.Embedding),
		); err != nil {
			return &port.StoreError{Op: "insert record", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &port.StoreError{Op: "commit batch", Err: err}
	}
	return nil
}

// GetRecord returns the record for id, or port.ErrNotFound.
func (r *RecordStore) GetRecord(ctx context.Context, id string) (*domain.EmbeddingIndex, error) {
	query := `SELECT id, file_path, line_number, element_name, commit_hash, file_hash, base_path, element_string, vector
	          FROM element_records WHERE id = $1`

	rec, err := scanRecord(r.store.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, &port.StoreError{Op: "get record", Err: err}
	}
	return rec, nil
}

// GetAllRecords returns every live record in insertion order.
func (r *RecordStore) GetAllRecords(ctx context.Context) ([]domain.EmbeddingIndex, error) {
	query := `SELECT id, file_path, line_number, element_name, commit_hash, file_hash, base_path, element_string, vector
	          FROM element_records ORDER BY created_at, id`

	rows, err := r.store.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &port.StoreError{Op: "get all records", Err: err}
	}
	defer rows.Close()

	var recs []domain.EmbeddingIndex
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, &port.StoreError{Op: "scan record", Err: err}
		}
		recs = append(recs, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &port.StoreError{Op: "get all records", Err: err}
	}
	return recs, nil
}

// DeleteAllRecords removes every record and returns the removed count.
// The embedding cache keeps its own lifecycle and is untouched.
func (r *RecordStore) DeleteAllRecords(ctx context.Context) (int64, error) {
	res, err := r.store.db.ExecContext(ctx, `DELETE FROM element_records`)
	if err != nil {
		return 0, &port.StoreError{Op: "delete all records", Err: err}
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, &port.StoreError{Op: "delete all records", Err: err}
	}
	return count, nil
}

// GetCachedEmbedding returns the cached vector for key, or nil on a miss.
// Expired entries count as misses; reads never refresh the TTL.
func (r *RecordStore) GetCachedEmbedding(ctx context.Context, key domain.CacheKey) ([]float32, error) {
	query := `SELECT vector FROM embedding_cache
	          WHERE file_hash = $1 AND element_name = $2 AND line_number = $3 AND expires_at > NOW()`

	var vectorStr string
	err := r.store.db.QueryRowContext(ctx, query, key.FileHash, key.ElementName, key.LineNumber).Scan(&vectorStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &port.StoreError{Op: "get cached embedding", Err: err}
	}
	return parseVector(vectorStr)
}

// SetCachedEmbedding stores a vector under key, resetting its expiry.
func (r *RecordStore) SetCachedEmbedding(ctx context.Context, key domain.CacheKey, vec []float32) error {
	query := `INSERT INTO embedding_cache (file_hash, element_name, line_number, vector, expires_at)
	          VALUES ($1, $2, $3, $4, NOW() + $5::interval)
	          ON CONFLICT (file_hash, element_name, line_number) DO UPDATE SET
	              vector = EXCLUDED.vector,
	              expires_at = EXCLUDED.expires_at`

	_, err := r.store.db.ExecContext(ctx, query,
		key.FileHash, key.ElementName, key.LineNumber, vectorToString(vec), intervalString(r.cacheTTL),
	)
	if err != nil {
		return &port.StoreError{Op: "set cached embedding", Err: err}
	}
	return nil
}

// GetCachedEmbeddingBatch looks up many cache keys. The result is aligned
// with keys position by position; a nil slot is a miss.
func (r *RecordStore) GetCachedEmbeddingBatch(ctx context.Context, keys []domain.CacheKey) ([][]float32, error) {
	results := make([][]float32, len(keys))
	if len(keys) == 0 {
		return results, nil
	}

	stmt, err := r.store.db.PrepareContext(ctx,
		`SELECT vector FROM embedding_cache
		 WHERE file_hash = $1 AND element_name = $2 AND line_number = $3 AND expires_at > NOW()`)
	if err != nil {
		return nil, &port.StoreError{Op: "prepare cache batch", Err: err}
	}
	defer stmt.Close()

	for i, key := range keys {
		var vectorStr string
		err := stmt.QueryRowContext(ctx, key.FileHash, key.ElementName, key.LineNumber).Scan(&vectorStr)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, &port.StoreError{Op: "get cached embedding", Err: err}
		}
		vec, err := parseVector(vectorStr)
		if err != nil {
			return nil, err
		}
		results[i] = vec
	}
	return results, nil
}

// SetCachedEmbeddingBatch stores vectors under keys, position-aligned.
// Nil vector slots are skipped.
func (r *RecordStore) SetCachedEmbeddingBatch(ctx context.Context, keys []domain.CacheKey, vecs [][]float32) error {
	if len(keys) != len(vecs) {
		return &port.StoreError{Op: "set cache batch", Err: fmt.Errorf("keys/vectors length mismatch: %d != %d", len(keys), len(vecs))}
	}
	if len(keys) == 0 {
		return nil
	}

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return &port.StoreError{Op: "begin cache batch", Err: err}
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO embedding_cache (file_hash, element_name, line_number, vector, expires_at)
		 VALUES ($1, $2, $3, $4, NOW() + $5::interval)
		 ON CONFLICT (file_hash, element_name, line_number) DO UPDATE SET
		     vector = EXCLUDED.vector,
		     expires_at = EXCLUDED.expires_at`)
	if err != nil {
		return &port.StoreError{Op: "prepare cache batch", Err: err}
	}
	defer stmt.Close()

	for i, key := range keys {
		if vecs[i] == nil {
			continue
		}
		if _, err := stmt.ExecContext(ctx,
			key.FileHash, key.ElementName, key.LineNumber, vectorToString(vecs[i]), intervalString(r.cacheTTL),
		); err != nil {
			return &port.StoreError{Op: "set cached embedding", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &port.StoreError{Op: "commit cache batch", Err: err}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*domain.EmbeddingIndex, error) {
	var rec domain.EmbeddingIndex
	var vectorStr string
	m := &rec.ElementData.Metadata
	if err := row.Scan(
		&rec.ID, &m.FilePath, &m.LineNumber, &m.ElementName, &m.CommitHash, &m.FileHash, &m.BasePath,
		&rec.ElementData.ElementString, &vectorStr,
	); err != nil {
		return nil, err
	}
	vec, err := parseVector(vectorStr)
	if err != nil {
		return nil, err
	}
	rec.Embedding = vec
	return &rec, nil
}

func intervalString(d time.Duration) string {
	return fmt.Sprintf("%d seconds", int64(d.Seconds()))
}

// vectorToString serializes a float32 slice as [0.1,0.2,0.3].
func vectorToString(v []float32) string {
	parts := make([]string, len(v))
	for i, val := range v {
		parts[i] = fmt.Sprintf("%g", val)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// parseVector is the inverse of vectorToString.
func parseVector(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if s == "" {
		return []float32{}, nil
	}

	parts := strings.Split(s, ",")
	vec := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, &port.StoreError{Op: "parse vector", Err: err}
		}
		vec[i] = float32(f)
	}
	return vec, nil
}
