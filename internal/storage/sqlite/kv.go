package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/weststar/helimx/pkg/logger"
)

// KV is a SQLite-backed key-value store. Every collection is one row; writes
// upsert the full payload.
type KV struct {
	db     *sql.DB
	logger *logger.Logger
}

// Open opens (creating if necessary) the database at the given path and
// returns a KV backed by it.
func Open(path string, log *logger.Logger) (*KV, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection avoids SQLITE_BUSY on concurrent writes
	db.SetMaxOpenConns(1)

	kv := &KV{
		db:     db,
		logger: log.Named("sqlite-kv"),
	}

	if err := kv.initDB(); err != nil {
		db.Close()
		return nil, err
	}

	return kv, nil
}

// NewKV wraps an existing database handle
func NewKV(db *sql.DB, log *logger.Logger) (*KV, error) {
	kv := &KV{
		db:     db,
		logger: log.Named("sqlite-kv"),
	}
	if err := kv.initDB(); err != nil {
		return nil, err
	}
	return kv, nil
}

// initDB initializes the database tables
func (s *KV) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS collections (
			key TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create collections table: %w", err)
	}
	return nil
}

// Get returns the payload stored under key
func (s *KV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM collections WHERE key = ?`, key,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query collection %q: %w", key, err)
	}
	return []byte(payload), true, nil
}

// Put stores the payload under key, replacing any previous value
func (s *KV) Put(ctx context.Context, key string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO collections (key, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		key,
		string(payload),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to store collection %q: %w", key, err)
	}
	return nil
}

// Delete removes the key
func (s *KV) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM collections WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete collection %q: %w", key, err)
	}
	return nil
}

// Keys returns all stored keys
func (s *KV) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM collections ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan collection key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Close closes the underlying database
func (s *KV) Close() error {
	return s.db.Close()
}
