package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

const defaultPostgresDSN = "postgres://localhost/labcore?sslmode=disable"

// PostgresPersister stores the snapshot as a single JSONB row in a Postgres
// state table.
type PostgresPersister struct {
	db *sql.DB
}

// NewPostgresPersister opens a Postgres connection using the provided DSN
// (falls back to a local default) and ensures the state table exists.
func NewPostgresPersister(ctx context.Context, dsn string) (*PostgresPersister, error) {
	if dsn == "" {
		dsn = defaultPostgresDSN
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("ensure state table: %w", err)
	}
	return &PostgresPersister{db: db}, nil
}

// Load reads the snapshot row, reporting ok=false when absent.
func (p *PostgresPersister) Load(ctx context.Context) ([]byte, bool, error) {
	var payload []byte
	err := p.db.QueryRowContext(ctx, `SELECT payload FROM state WHERE bucket = $1`, snapshotBucket).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select state: %w", err)
	}
	return payload, true, nil
}

// Save upserts the snapshot row.
func (p *PostgresPersister) Save(ctx context.Context, data []byte) error {
	if _, err := p.db.ExecContext(ctx,
		`INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload`,
		snapshotBucket, data); err != nil {
		return fmt.Errorf("upsert %s: %w", snapshotBucket, err)
	}
	return nil
}

// Close releases the database handle.
func (p *PostgresPersister) Close() error { return p.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (p *PostgresPersister) DB() *sql.DB { return p.db }
