package notify

import (
	"context"
	"errors"
	"log/slog"
	"testing"
)

func TestBroadcastDeliversToAll(t *testing.T) {
	rec := NewRecorder()
	d := NewDispatcher(rec, slog.Default())

	d.Broadcast(context.Background(), []Target{"a", "b", "c"}, "hello")

	for _, target := range []Target{"a", "b", "c"} {
		got := rec.Sent(target)
		if len(got) != 1 || got[0] != "hello" {
			t.Fatalf("target %s: got %v", target, got)
		}
	}
	if rec.Total() != 3 {
		t.Fatalf("expected 3 deliveries, got %d", rec.Total())
	}
}

func TestBroadcastIsolatesFailures(t *testing.T) {
	rec := NewRecorder()
	rec.FailFor = map[Target]error{"b": errors.New("unreachable")}
	d := NewDispatcher(rec, slog.Default())

	d.Broadcast(context.Background(), []Target{"a", "b", "c"}, "urgent")

	if got := rec.Sent("a"); len(got) != 1 {
		t.Fatalf("target a must still receive, got %v", got)
	}
	if got := rec.Sent("c"); len(got) != 1 {
		t.Fatalf("target c must still receive, got %v", got)
	}
	if got := rec.Sent("b"); len(got) != 0 {
		t.Fatalf("failed target must record nothing, got %v", got)
	}
}

func TestBroadcastEmptyTargets(t *testing.T) {
	rec := NewRecorder()
	d := NewDispatcher(rec, nil)
	d.Broadcast(context.Background(), nil, "nobody listening")
	if rec.Total() != 0 {
		t.Fatalf("expected no deliveries, got %d", rec.Total())
	}
}

func TestSlogSenderNeverFails(t *testing.T) {
	var s SlogSender
	if err := s.Send(context.Background(), "t", "m"); err != nil {
		t.Fatalf("slog sender must not fail: %v", err)
	}
}
