package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

const snapshotBucket = "samples"

// SQLitePersister stores the snapshot as a single row in an embedded SQLite
// state table, mirroring the blob adapter's overwrite semantics.
type SQLitePersister struct {
	db   *sql.DB
	path string
}

// NewSQLitePersister opens (creating if needed) the SQLite file at path.
func NewSQLitePersister(path string) (*SQLitePersister, error) {
	if path == "" {
		path = "labcore.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	return &SQLitePersister{db: db, path: path}, nil
}

// Load reads the snapshot row, reporting ok=false when absent.
func (p *SQLitePersister) Load(ctx context.Context) ([]byte, bool, error) {
	var payload []byte
	err := p.db.QueryRowContext(ctx, `SELECT payload FROM state WHERE bucket = ?`, snapshotBucket).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select state: %w", err)
	}
	return payload, true, nil
}

// Save upserts the snapshot row.
func (p *SQLitePersister) Save(ctx context.Context, data []byte) error {
	if _, err := p.db.ExecContext(ctx,
		`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`,
		snapshotBucket, data); err != nil {
		return fmt.Errorf("upsert %s: %w", snapshotBucket, err)
	}
	return nil
}

// Close releases the database handle.
func (p *SQLitePersister) Close() error { return p.db.Close() }

// Path returns the configured database path.
func (p *SQLitePersister) Path() string { return p.path }
