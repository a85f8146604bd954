// Package lifecycle enforces per-test status transitions and role
// permissions, mutating samples through the store and fanning out urgent
// notifications after the mutation is durably persisted.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"labcore/internal/notify"
	"labcore/internal/store"
	"labcore/pkg/domain"
)

// TargetSource resolves the delivery targets subscribed under the given
// roles. The auth session implements it.
type TargetSource interface {
	TargetsFor(roles ...domain.Role) []notify.Target
}

// Broadcaster fans a message out to targets. The notification dispatcher
// implements it.
type Broadcaster interface {
	Broadcast(ctx context.Context, targets []notify.Target, message string)
}

// Engine is the sample/test lifecycle state machine.
type Engine struct {
	store       *store.SampleStore
	subscribers TargetSource
	dispatcher  Broadcaster
	nowFn       func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source, primarily for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.nowFn = now }
}

// New constructs an engine over the store, subscriber registry, and
// dispatcher.
func New(st *store.SampleStore, subscribers TargetSource, dispatcher Broadcaster, opts ...Option) *Engine {
	e := &Engine{
		store:       st,
		subscribers: subscribers,
		dispatcher:  dispatcher,
		nowFn:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// allowedTargets returns the status values requester may move a test to from
// current. Directors may set any of the three values, including re-entering
// the current one. Lab technicians have a strict binary toggle: anything not
// yet tested may only become tested, and a tested result may only go back in
// progress.
func allowedTargets(role domain.Role, current domain.TestStatus) []domain.TestStatus {
	switch role {
	case domain.RoleDirector:
		return []domain.TestStatus{domain.StatusInProgress, domain.StatusTransferred, domain.StatusCompleted}
	case domain.RoleLabTech:
		if current != domain.StatusCompleted {
			return []domain.TestStatus{domain.StatusCompleted}
		}
		return []domain.TestStatus{domain.StatusInProgress}
	default:
		return nil
	}
}

// AllowedTransitions exposes the permitted target statuses for presentation
// layers building status menus.
func (e *Engine) AllowedTransitions(role domain.Role, current domain.TestStatus) []domain.TestStatus {
	return allowedTargets(role, current)
}

// SetTestStatus transitions the test at testIndex of the sample at
// sampleIndex to next on behalf of requester. Entering the transferred or
// tested state stamps the matching timestamp only if currently absent;
// returning to in progress clears neither. The snapshot is persisted before
// the call returns.
func (e *Engine) SetTestStatus(ctx context.Context, sampleIndex, testIndex int, next domain.TestStatus, requester domain.Role) (domain.Sample, error) {
	if !next.Valid() {
		return domain.Sample{}, domain.ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", next)}
	}
	if requester != domain.RoleDirector && requester != domain.RoleLabTech {
		return domain.Sample{}, domain.PermissionDeniedError{Role: requester, Action: "change test status"}
	}
	now := e.nowFn()
	return e.store.Update(ctx, sampleIndex, func(sample *domain.Sample) error {
		if testIndex < 0 || testIndex >= len(sample.Tests) {
			return domain.NotFoundError{Kind: "test", Ref: fmt.Sprintf("%s#%d", sample.Number, testIndex)}
		}
		test := &sample.Tests[testIndex]
		permitted := false
		for _, t := range allowedTargets(requester, test.Status) {
			if t == next {
				permitted = true
				break
			}
		}
		if !permitted {
			return domain.InvalidTransitionError{From: test.Status, To: next, Role: requester}
		}
		test.Status = next
		switch next {
		case domain.StatusTransferred:
			if test.TransferredAt == nil {
				at := now
				test.TransferredAt = &at
			}
		case domain.StatusCompleted:
			if test.CompletedAt == nil {
				at := now
				test.CompletedAt = &at
			}
		}
		return nil
	})
}

// ToggleUrgent flips the sample's urgent flag. Director only. Activation
// broadcasts a notice naming the sample to all director and lab technician
// subscribers, after the flip has been persisted; deactivation is silent.
func (e *Engine) ToggleUrgent(ctx context.Context, sampleIndex int, requester domain.Role) (domain.Sample, error) {
	if requester != domain.RoleDirector {
		return domain.Sample{}, domain.PermissionDeniedError{Role: requester, Action: "toggle urgent flag"}
	}
	updated, err := e.store.Update(ctx, sampleIndex, func(sample *domain.Sample) error {
		sample.Urgent = !sample.Urgent
		return nil
	})
	if err != nil {
		return domain.Sample{}, err
	}
	if updated.Urgent {
		targets := e.subscribers.TargetsFor(domain.RoleDirector, domain.RoleLabTech)
		e.dispatcher.Broadcast(ctx, targets, fmt.Sprintf("Срочный образец: %s", updated.Number))
	}
	return updated, nil
}
