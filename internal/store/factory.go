package store

import (
	"context"
	"fmt"
	"os"

	"labcore/internal/blob"
)

// StorageDriver identifies a concrete snapshot persistence implementation.
type StorageDriver string

const (
	StorageBlob     StorageDriver = "blob"     // blob adapter (fs / s3 / memory)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenPersister selects a backend using environment variables. Defaults to
// the blob adapter when unset.
//
//	LABCORE_STORAGE_DRIVER: blob|sqlite|postgres (default blob)
//	LABCORE_SQLITE_PATH: path to sqlite file (default ./labcore.db)
//	LABCORE_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenPersister(ctx context.Context) (Persister, error) {
	driver := os.Getenv("LABCORE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageBlob)
	}
	switch StorageDriver(driver) {
	case StorageBlob:
		return blob.Open(ctx)
	case StorageSQLite:
		return NewSQLitePersister(os.Getenv("LABCORE_SQLITE_PATH"))
	case StoragePostgres:
		return NewPostgresPersister(ctx, os.Getenv("LABCORE_POSTGRES_DSN"))
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
