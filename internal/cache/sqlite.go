package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS summaries (
	hash       TEXT PRIMARY KEY,
	summary    TEXT NOT NULL,
	provider   TEXT NOT NULL,
	model      TEXT NOT NULL,
	tokens     INTEGER NOT NULL DEFAULT 0,
	cost       REAL NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
);
`

// SQLiteStore is the persistent tier backed by a single-file database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the cache database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// WAL for concurrent readers, single writer connection.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Get loads one entry by hash.
func (s *SQLiteStore) Get(ctx context.Context, hash string) (*Entry, error) {
	query := `
		SELECT hash, summary, provider, model, tokens, cost
		FROM summaries
		WHERE hash = ?
	`
	var e Entry
	err := s.db.QueryRowContext(ctx, query, hash).Scan(
		&e.Hash, &e.Summary, &e.Provider, &e.Model, &e.Tokens, &e.Cost,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return &e, nil
}

// Put upserts one entry. Re-summarizing the same hash overwrites the old
// row so the cache always reflects the latest provider output.
func (s *SQLiteStore) Put(ctx context.Context, e *Entry) error {
	query := `
		INSERT INTO summaries (hash, summary, provider, model, tokens, cost, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET
			summary = excluded.summary,
			provider = excluded.provider,
			model = excluded.model,
			tokens = excluded.tokens,
			cost = excluded.cost,
			created_at = excluded.created_at
	`
	_, err := s.db.ExecContext(ctx, query,
		e.Hash, e.Summary, e.Provider, e.Model, e.Tokens, e.Cost, time.Now())
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
