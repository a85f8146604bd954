// Package store owns the canonical in-memory sample collection and persists
// it as a full snapshot through a pluggable Persister after every mutation.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"labcore/pkg/domain"
)

// Persister moves snapshot bytes to and from a durable backend. Load reports
// ok=false when no snapshot exists yet. Save overwrites the previous
// snapshot wholesale; re-invoking it is always safe.
type Persister interface {
	Load(ctx context.Context) (data []byte, ok bool, err error)
	Save(ctx context.Context, data []byte) error
}

// SampleStore holds the ordered sample collection. Samples are addressed by
// index; Number carries no uniqueness constraint. All mutations persist the
// full collection before returning.
type SampleStore struct {
	persister Persister
	samples   []domain.Sample
	nowFn     func() time.Time
	logger    *slog.Logger
}

// Option configures a SampleStore.
type Option func(*SampleStore)

// WithClock overrides the time source, primarily for tests.
func WithClock(now func() time.Time) Option {
	return func(s *SampleStore) { s.nowFn = now }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *SampleStore) { s.logger = logger }
}

// New constructs an empty store backed by the given persister.
func New(p Persister, opts ...Option) *SampleStore {
	s := &SampleStore{
		persister: p,
		nowFn:     func() time.Time { return time.Now().UTC() },
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Match pairs a sample with its position in the collection.
type Match struct {
	Index  int
	Sample domain.Sample
}

// Load replaces the in-memory collection with the persisted snapshot,
// applying legacy-schema migration: records lacking created_at are stamped
// with the load time (the original creation instant is irrecoverable), and
// tests lacking either timestamp default to absent.
func (s *SampleStore) Load(ctx context.Context) error {
	data, ok, err := s.persister.Load(ctx)
	if err != nil {
		return domain.PersistenceError{Op: "load", Err: err}
	}
	if !ok {
		s.samples = nil
		return nil
	}
	var samples []domain.Sample
	if err := json.Unmarshal(data, &samples); err != nil {
		return domain.PersistenceError{Op: "decode", Err: err}
	}
	now := s.nowFn()
	migrated := 0
	for i := range samples {
		if samples[i].CreatedAt.IsZero() {
			samples[i].CreatedAt = now
			migrated++
		}
	}
	if migrated > 0 {
		s.logger.Info("migrated legacy samples", slog.Int("count", migrated))
	}
	s.samples = samples
	return nil
}

// Save writes the full current collection to the persister.
func (s *SampleStore) Save(ctx context.Context) error {
	data, err := json.MarshalIndent(s.samples, "", "  ")
	if err != nil {
		return domain.PersistenceError{Op: "encode", Err: err}
	}
	if err := s.persister.Save(ctx, data); err != nil {
		return domain.PersistenceError{Op: "save", Err: err}
	}
	return nil
}

// Append validates and adds a new sample, then persists. Every test starts
// in progress with both timestamps absent.
func (s *SampleStore) Append(ctx context.Context, number string, dept domain.Department, testNames []domain.TestName) (domain.Sample, error) {
	if strings.TrimSpace(number) == "" {
		return domain.Sample{}, domain.ValidationError{Field: "number", Message: "must not be empty"}
	}
	if !dept.Valid() {
		return domain.Sample{}, domain.ValidationError{Field: "department", Message: fmt.Sprintf("unknown department %q", dept)}
	}
	if len(testNames) == 0 {
		return domain.Sample{}, domain.ValidationError{Field: "tests", Message: "at least one test required"}
	}
	tests := make([]domain.Test, 0, len(testNames))
	for _, name := range testNames {
		if !name.Valid() {
			return domain.Sample{}, domain.ValidationError{Field: "tests", Message: fmt.Sprintf("unknown test name %q", name)}
		}
		tests = append(tests, domain.NewTest(name))
	}
	sample := domain.Sample{
		Number:     number,
		Department: dept,
		Tests:      tests,
		CreatedAt:  s.nowFn(),
	}
	s.samples = append(s.samples, sample)
	if err := s.Save(ctx); err != nil {
		s.samples = s.samples[:len(s.samples)-1]
		return domain.Sample{}, err
	}
	return sample.Clone(), nil
}

// Remove deletes the sample at index and persists.
func (s *SampleStore) Remove(ctx context.Context, index int) (domain.Sample, error) {
	if index < 0 || index >= len(s.samples) {
		return domain.Sample{}, domain.NotFoundError{Kind: "sample", Ref: fmt.Sprintf("#%d", index)}
	}
	removed := s.samples[index]
	rest := append(append([]domain.Sample(nil), s.samples[:index]...), s.samples[index+1:]...)
	prev := s.samples
	s.samples = rest
	if err := s.Save(ctx); err != nil {
		s.samples = prev
		return domain.Sample{}, err
	}
	return removed.Clone(), nil
}

// Update applies mutator to the sample at index and persists. The mutation
// is reverted if the mutator errors or the snapshot write fails.
func (s *SampleStore) Update(ctx context.Context, index int, mutator func(*domain.Sample) error) (domain.Sample, error) {
	if index < 0 || index >= len(s.samples) {
		return domain.Sample{}, domain.NotFoundError{Kind: "sample", Ref: fmt.Sprintf("#%d", index)}
	}
	before := s.samples[index].Clone()
	current := s.samples[index].Clone()
	if err := mutator(&current); err != nil {
		return domain.Sample{}, err
	}
	s.samples[index] = current
	if err := s.Save(ctx); err != nil {
		s.samples[index] = before
		return domain.Sample{}, err
	}
	return current.Clone(), nil
}

// Get returns a copy of the sample at index.
func (s *SampleStore) Get(index int) (domain.Sample, error) {
	if index < 0 || index >= len(s.samples) {
		return domain.Sample{}, domain.NotFoundError{Kind: "sample", Ref: fmt.Sprintf("#%d", index)}
	}
	return s.samples[index].Clone(), nil
}

// List returns a copy of the full ordered collection.
func (s *SampleStore) List() []domain.Sample {
	out := make([]domain.Sample, len(s.samples))
	for i, sample := range s.samples {
		out[i] = sample.Clone()
	}
	return out
}

// Search returns samples whose number contains the query,
// case-insensitively, preserving collection order.
func (s *SampleStore) Search(query string) []Match {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []Match
	for i, sample := range s.samples {
		if strings.Contains(strings.ToLower(sample.Number), q) {
			out = append(out, Match{Index: i, Sample: sample.Clone()})
		}
	}
	return out
}

// Len reports the number of samples held.
func (s *SampleStore) Len() int { return len(s.samples) }
