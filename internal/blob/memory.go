package blob

import (
	"context"
	"sync"
)

// Memory implements Store backed by process memory. Intended for tests.
type Memory struct {
	mu   sync.RWMutex
	data []byte
	set  bool

	// SaveErr, when non-nil, makes every Save fail. Tests use it to exercise
	// persistence failure paths.
	SaveErr error
}

// NewMemory returns an empty in-memory blob store.
func NewMemory() *Memory { return &Memory{} }

// Driver returns the blob driver identifier.
func (s *Memory) Driver() Driver { return DriverMemory }

// Load returns the last saved snapshot, if any.
func (s *Memory) Load(_ context.Context) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.set {
		return nil, false, nil
	}
	cp := make([]byte, len(s.data))
	copy(cp, s.data)
	return cp, true, nil
}

// Save overwrites the stored snapshot.
func (s *Memory) Save(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.data = make([]byte, len(data))
	copy(s.data, data)
	s.set = true
	return nil
}
