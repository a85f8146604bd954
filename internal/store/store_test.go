package store

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"labcore/internal/blob"
	"labcore/pkg/domain"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestAppendDefaults(t *testing.T) {
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	st := New(blob.NewMemory(), WithClock(fixedClock(now)))

	sample, err := st.Append(context.Background(), "A1", "5", []domain.TestName{"рг", "хим"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if !sample.CreatedAt.Equal(now) {
		t.Fatalf("expected created_at %v, got %v", now, sample.CreatedAt)
	}
	for _, test := range sample.Tests {
		if test.Status != domain.StatusInProgress {
			t.Fatalf("expected initial status, got %q", test.Status)
		}
		if test.TransferredAt != nil || test.CompletedAt != nil {
			t.Fatalf("expected absent timestamps on creation")
		}
	}
	if sample.Urgent {
		t.Fatalf("expected new sample not urgent")
	}
}

func TestAppendValidation(t *testing.T) {
	st := New(blob.NewMemory())
	ctx := context.Background()
	cases := []struct {
		name   string
		number string
		dept   domain.Department
		tests  []domain.TestName
	}{
		{"empty number", "", "5", []domain.TestName{"рг"}},
		{"unknown department", "A1", "99", []domain.TestName{"рг"}},
		{"no tests", "A1", "5", nil},
		{"unknown test", "A1", "5", []domain.TestName{"рг", "spectral"}},
	}
	for _, tc := range cases {
		_, err := st.Append(ctx, tc.number, tc.dept, tc.tests)
		var ve domain.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("%s: expected ValidationError, got %v", tc.name, err)
		}
	}
	if st.Len() != 0 {
		t.Fatalf("validation failures must not mutate the collection")
	}
}

func TestRemovePreservesOrder(t *testing.T) {
	st := New(blob.NewMemory())
	ctx := context.Background()
	for _, n := range []string{"A1", "A2", "A3"} {
		if _, err := st.Append(ctx, n, "3", []domain.TestName{"рг"}); err != nil {
			t.Fatalf("append %s: %v", n, err)
		}
	}
	removed, err := st.Remove(ctx, 1)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if removed.Number != "A2" {
		t.Fatalf("expected to remove A2, got %s", removed.Number)
	}
	rest := st.List()
	if rest[0].Number != "A1" || rest[1].Number != "A3" {
		t.Fatalf("unexpected order after removal: %s, %s", rest[0].Number, rest[1].Number)
	}

	if _, err := st.Remove(ctx, 5); !domain.IsNotFound(err) {
		t.Fatalf("expected NotFound for bad index, got %v", err)
	}
	if _, err := st.Remove(ctx, -1); !domain.IsNotFound(err) {
		t.Fatalf("expected NotFound for negative index, got %v", err)
	}
}

func TestSearchCaseInsensitive(t *testing.T) {
	st := New(blob.NewMemory())
	ctx := context.Background()
	for _, n := range []string{"AB-1", "ab-2", "XY-3"} {
		if _, err := st.Append(ctx, n, "7", []domain.TestName{"уд"}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	matches := st.Search("ab")
	if len(matches) != 2 || matches[0].Index != 0 || matches[1].Index != 1 {
		t.Fatalf("unexpected matches %+v", matches)
	}
	if len(st.Search("zzz")) != 0 {
		t.Fatalf("expected no matches")
	}
	if len(st.Search("")) != 3 {
		t.Fatalf("empty query must match everything")
	}
}

func TestLoadMigratesMissingCreatedAt(t *testing.T) {
	loadTime := time.Date(2026, 8, 31, 9, 30, 0, 0, time.UTC)
	mem := blob.NewMemory()
	legacy := `[
		{"number":"L1","department":"5","tests":[{"name":"рг","status":"in progress"}],"urgent":false},
		{"number":"L2","department":"3","tests":[{"name":"хим","status":"tested"}],"urgent":true,"created_at":"2025-01-02T03:04:05Z"}
	]`
	if err := mem.Save(context.Background(), []byte(legacy)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	st := New(mem, WithClock(fixedClock(loadTime)))
	if err := st.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	samples := st.List()
	if !samples[0].CreatedAt.Equal(loadTime) {
		t.Fatalf("expected migrated created_at %v, got %v", loadTime, samples[0].CreatedAt)
	}
	if samples[1].CreatedAt.IsZero() || samples[1].CreatedAt.Equal(loadTime) {
		t.Fatalf("existing created_at must be preserved, got %v", samples[1].CreatedAt)
	}
	if samples[0].Tests[0].TransferredAt != nil || samples[0].Tests[0].CompletedAt != nil {
		t.Fatalf("legacy test timestamps must default to absent")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	mem := blob.NewMemory()
	ctx := context.Background()
	now := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)
	st := New(mem, WithClock(fixedClock(now)))
	if _, err := st.Append(ctx, "R1", "псэт", []domain.TestName{"рг", "нем"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := st.Update(ctx, 0, func(s *domain.Sample) error {
		at := now.Add(time.Hour)
		s.Tests[0].Status = domain.StatusCompleted
		s.Tests[0].CompletedAt = &at
		s.Urgent = true
		return nil
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	reloaded := New(mem, WithClock(fixedClock(now.Add(48*time.Hour))))
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	want := st.List()
	got := reloaded.List()
	if !reflect.DeepEqual(toJSON(t, want), toJSON(t, got)) {
		t.Fatalf("round trip mismatch:\n want %s\n got %s", toJSON(t, want), toJSON(t, got))
	}
}

func TestPersistFailureRevertsMutation(t *testing.T) {
	mem := blob.NewMemory()
	ctx := context.Background()
	st := New(mem)
	if _, err := st.Append(ctx, "P1", "10", []domain.TestName{"рг"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	mem.SaveErr = errors.New("backend down")

	if _, err := st.Append(ctx, "P2", "10", []domain.TestName{"рг"}); err == nil {
		t.Fatalf("expected append to surface persistence error")
	}
	if st.Len() != 1 {
		t.Fatalf("failed append must be reverted, len=%d", st.Len())
	}

	if _, err := st.Update(ctx, 0, func(s *domain.Sample) error {
		s.Urgent = true
		return nil
	}); err == nil {
		t.Fatalf("expected update to surface persistence error")
	}
	sample, _ := st.Get(0)
	if sample.Urgent {
		t.Fatalf("failed update must be reverted")
	}

	if _, err := st.Remove(ctx, 0); err == nil {
		t.Fatalf("expected remove to surface persistence error")
	}
	if st.Len() != 1 {
		t.Fatalf("failed remove must be reverted")
	}

	var pe domain.PersistenceError
	_, err := st.Update(ctx, 0, func(s *domain.Sample) error { return nil })
	if !errors.As(err, &pe) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
}

func TestUpdateMutatorErrorLeavesStateUntouched(t *testing.T) {
	st := New(blob.NewMemory())
	ctx := context.Background()
	if _, err := st.Append(ctx, "U1", "7", []domain.TestName{"уд"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	boom := errors.New("boom")
	if _, err := st.Update(ctx, 0, func(s *domain.Sample) error {
		s.Urgent = true
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected mutator error, got %v", err)
	}
	sample, _ := st.Get(0)
	if sample.Urgent {
		t.Fatalf("mutator failure must leave state untouched")
	}
}

func toJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}
