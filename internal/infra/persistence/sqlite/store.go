// Package sqlite persists the exhibit collection as a JSON payload in a
// single-row SQLite state table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	sqldocs "exhibitcore/docs/schema/sql"
	"exhibitcore/internal/infra/persistence/snapshot"
	"exhibitcore/pkg/domain"
)

var _ domain.ClosableGateway = (*Store)(nil)

// DefaultPath is used when no database path is configured.
const DefaultPath = "exhibits.db"

// Store reads and writes the collection row in the state table.
type Store struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (creating if needed) the database at path and ensures the state table exists.
func NewStore(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer at a time keeps SQLITE_BUSY out of the save path
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqldocs.SQLite); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// LoadAll decodes the stored collection; a missing row means an empty collection.
func (s *Store) LoadAll(ctx context.Context) ([]domain.Exhibit, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM state WHERE bucket = ?`, snapshot.Bucket).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return []domain.Exhibit{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select state: %w", err)
	}
	return snapshot.Decode(payload)
}

// SaveAll upserts the collection row inside a transaction.
func (s *Store) SaveAll(ctx context.Context, exhibits []domain.Exhibit) (retErr error) {
	data, err := snapshot.Encode(exhibits)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, snapshot.Bucket, data); err != nil {
		return fmt.Errorf("upsert %s: %w", snapshot.Bucket, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
