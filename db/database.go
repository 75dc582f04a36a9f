package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrClosed is returned by operations on a closed Database.
var ErrClosed = errors.New("database connection is closed")

// Database owns the SQLite connection behind the embedding store and makes
// sure the schema is current before it is used.
//
//	store, err := Open(ctx, "embeddings.db")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
type Database struct {
	db   *sql.DB
	path string
	mu   sync.RWMutex
}

// Open creates the database file and its parent directories if needed,
// applies pending migrations and returns a ready Database.
func Open(ctx context.Context, path string) (*Database, error) {
	return openWithConfig(ctx, DefaultConnectionConfig(path))
}

// openWithConfig is Open with an explicit connection configuration.
func openWithConfig(ctx context.Context, config ConnectionConfig) (*Database, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	dir := filepath.Dir(config.Path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	if err := MigrateUp(ctx, config.Path); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	conn, err := NewSQLiteConnection(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	ok, err := schemaReady(ctx, conn)
	if err != nil || !ok {
		conn.Close()
		if err == nil {
			err = errors.New("embeddings table missing after migration")
		}
		return nil, fmt.Errorf("failed to verify schema: %w", err)
	}

	return &Database{db: conn, path: config.Path}, nil
}

// DB returns the underlying connection for the repository. Callers must
// not close it; use Database.Close.
func (d *Database) DB() *sql.DB {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.db
}

// Path returns the database file path.
func (d *Database) Path() string {
	return d.path
}

// Ping verifies the database connection is alive.
func (d *Database) Ping(ctx context.Context) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.db == nil {
		return ErrClosed
	}
	return d.db.PingContext(ctx)
}

// Stats returns connection pool statistics.
func (d *Database) Stats() sql.DBStats {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.db == nil {
		return sql.DBStats{}
	}
	return d.db.Stats()
}

// Close closes the connection. Safe to call more than once.
func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db == nil {
		return nil
	}
	if err := d.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	d.db = nil
	return nil
}

// conn returns the live connection or ErrClosed.
func (d *Database) conn() (*sql.DB, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.db == nil {
		return nil, ErrClosed
	}
	return d.db, nil
}
