// Package blob provides the snapshot blob adapter: a thin load/save
// abstraction over byte-level persistence backends. The sample store treats
// the persisted collection as one opaque blob; drivers only move bytes.
package blob

import (
	"context"
	"fmt"
	"os"
	"strconv"
)

// Driver identifies a concrete blob backend implementation.
type Driver string

const (
	// DriverFilesystem is the local filesystem driver (default, dev).
	DriverFilesystem Driver = "fs"
	// DriverS3 is an S3 / MinIO compatible driver.
	DriverS3 Driver = "s3"
	// DriverMemory is the in-memory driver used in tests.
	DriverMemory Driver = "memory"
)

// Store is the interface snapshot persistence backends implement. Load
// returns ok=false when no snapshot has been written yet; Save overwrites
// the full snapshot atomically from the caller's perspective.
type Store interface {
	Load(ctx context.Context) (data []byte, ok bool, err error)
	Save(ctx context.Context, data []byte) error
	Driver() Driver
}

// Open selects a Store implementation using environment variables.
//
//	LABCORE_BLOB_DRIVER: fs|s3|memory (default fs)
//	LABCORE_BLOB_FS_PATH: snapshot file path when driver=fs (default ./data/samples.json)
//	(S3 specific variables documented in s3.go)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("LABCORE_BLOB_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		return NewFilesystem(os.Getenv("LABCORE_BLOB_FS_PATH"))
	case DriverS3:
		return OpenS3FromEnv(ctx)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}

func envBool(name string) bool {
	v, err := strconv.ParseBool(os.Getenv(name))
	return err == nil && v
}
