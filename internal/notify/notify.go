// Package notify provides best-effort fan-out of a message to a set of
// delivery targets. A failure on one target never aborts delivery to the
// rest and never surfaces to the caller.
package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Target is an opaque delivery address registered by the auth session, e.g.
// a chat identifier from the conversational layer.
type Target string

// Sender delivers a single message to a single target.
type Sender interface {
	Send(ctx context.Context, target Target, message string) error
}

// Dispatcher fans a message out to delivery targets through a Sender.
type Dispatcher struct {
	sender Sender
	logger *slog.Logger
}

// NewDispatcher constructs a dispatcher over the given sender.
func NewDispatcher(sender Sender, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{sender: sender, logger: logger}
}

// Broadcast attempts delivery to each target independently. Per-target
// failures are logged and discarded; delivery order is unspecified; there is
// no retry or acknowledgment tracking at this layer.
func (d *Dispatcher) Broadcast(ctx context.Context, targets []Target, message string) {
	for _, target := range targets {
		if err := d.sender.Send(ctx, target, message); err != nil {
			d.logger.Debug("notification delivery failed",
				slog.String("target", string(target)),
				slog.String("error", err.Error()))
		}
	}
}

// SlogSender writes notifications to the structured log. Used when no
// external transport is configured.
type SlogSender struct {
	Logger *slog.Logger
}

// Send logs the notification.
func (s SlogSender) Send(_ context.Context, target Target, message string) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("notification", slog.String("target", string(target)), slog.String("message", message))
	return nil
}

// Recorder captures sent messages for tests. FailFor makes delivery to the
// listed targets fail.
type Recorder struct {
	mu      sync.Mutex
	sent    map[Target][]string
	FailFor map[Target]error
}

// NewRecorder returns an empty recording sender.
func NewRecorder() *Recorder {
	return &Recorder{sent: make(map[Target][]string)}
}

// Send records the message, or fails if the target is marked failing.
func (r *Recorder) Send(_ context.Context, target Target, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.FailFor[target]; ok {
		return err
	}
	r.sent[target] = append(r.sent[target], message)
	return nil
}

// Sent returns the messages delivered to target.
func (r *Recorder) Sent(target Target) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sent[target]...)
}

// Total returns the number of successful deliveries across all targets.
func (r *Recorder) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, msgs := range r.sent {
		n += len(msgs)
	}
	return n
}
