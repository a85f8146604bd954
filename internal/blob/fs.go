package blob

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Filesystem implements Store against a single local snapshot file. Saves
// stream to a temp file in the same directory and rename into place, guarded
// by a sidecar flock so concurrent processes cannot interleave writes.
type Filesystem struct {
	path string
	lock *flock.Flock
}

// NewFilesystem returns a filesystem-backed store writing to path, creating
// parent directories as needed.
func NewFilesystem(path string) (*Filesystem, error) {
	if path == "" {
		path = filepath.Join("data", "samples.json")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &Filesystem{
		path: path,
		lock: flock.New(path + ".lock"),
	}, nil
}

// Driver returns the blob driver identifier.
func (s *Filesystem) Driver() Driver { return DriverFilesystem }

// Path returns the configured snapshot file path.
func (s *Filesystem) Path() string { return s.path }

// Load reads the snapshot file. A missing file is not an error; it reports
// ok=false so the caller starts from an empty collection.
func (s *Filesystem) Load(ctx context.Context) ([]byte, bool, error) {
	if err := s.lock.RLock(); err != nil {
		return nil, false, err
	}
	defer func() { _ = s.lock.Unlock() }()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Save replaces the snapshot file contents atomically.
func (s *Filesystem) Save(ctx context.Context, data []byte) error {
	if err := s.lock.Lock(); err != nil {
		return err
	}
	defer func() { _ = s.lock.Unlock() }()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".tmp-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
