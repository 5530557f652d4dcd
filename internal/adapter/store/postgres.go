package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresStore owns the database connection used by the record store.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection, ensures the schema exists, and
// returns a store instance.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// ensureSchema creates the record and cache tables when missing. The two
// tables are independent namespaces with independent lifecycles.
func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS element_records (
			id             TEXT PRIMARY KEY,
			file_path      TEXT NOT NULL DEFAULT '',
			line_number    INT  NOT NULL DEFAULT 0,
			element_name   TEXT NOT NULL DEFAULT '',
			commit_hash    TEXT NOT NULL DEFAULT '',
			file_hash      TEXT NOT NULL DEFAULT '',
			base_path      TEXT NOT NULL DEFAULT '',
			element_string TEXT NOT NULL,
			vector         TEXT NOT NULL,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS embedding_cache (
			file_hash    TEXT NOT NULL,
			element_name TEXT NOT NULL,
			line_number  INT  NOT NULL,
			vector       TEXT NOT NULL,
			expires_at   TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (file_hash, element_name, line_number)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_embedding_cache_expires ON embedding_cache (expires_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
