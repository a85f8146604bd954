// Package service wires the sample store, auth session, lifecycle engine,
// dispatcher, and report aggregator into one application context. A single
// mutex serializes every state-mutating operation: validate, mutate, persist
// runs to completion before the next mutation is admitted.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"labcore/internal/auth"
	"labcore/internal/lifecycle"
	"labcore/internal/notify"
	"labcore/internal/report"
	"labcore/internal/store"
	"labcore/pkg/domain"
)

// Service is the application context constructed once at startup and
// injected into every operation.
type Service struct {
	mu      sync.Mutex
	store   *store.SampleStore
	session *auth.Session
	engine  *lifecycle.Engine
	reports *report.Aggregator
	metrics MetricsRecorder
	logger  *slog.Logger
	nowFn   func() time.Time
}

// Config collects the collaborators a Service needs.
type Config struct {
	Store      *store.SampleStore
	Session    *auth.Session
	Dispatcher *notify.Dispatcher
	Zone       *time.Location
	Metrics    MetricsRecorder
	Logger     *slog.Logger
	// Clock overrides the time source for the engine and aggregator.
	Clock func() time.Time
}

// New constructs the application context.
func New(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NopMetrics{}
	}
	nowFn := cfg.Clock
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}

	var engineOpts []lifecycle.Option
	var reportOpts []report.Option
	if cfg.Clock != nil {
		engineOpts = append(engineOpts, lifecycle.WithClock(cfg.Clock))
		reportOpts = append(reportOpts, report.WithClock(cfg.Clock))
	}

	return &Service{
		store:   cfg.Store,
		session: cfg.Session,
		engine:  lifecycle.New(cfg.Store, cfg.Session, cfg.Dispatcher, engineOpts...),
		reports: report.New(cfg.Store, cfg.Zone, reportOpts...),
		metrics: metrics,
		logger:  logger,
		nowFn:   nowFn,
	}
}

func (s *Service) observe(ctx context.Context, op string, started time.Time, err error) {
	s.metrics.Observe(ctx, op, err == nil, time.Since(started))
	if err != nil {
		s.logger.Debug("operation failed", slog.String("operation", op), slog.String("error", err.Error()))
	}
}

// Authenticate validates credentials and, on success, logs the principal in
// and registers its delivery target.
func (s *Service) Authenticate(ctx context.Context, identity, secret string, target notify.Target) (p domain.Principal, err error) {
	defer func(t time.Time) { s.observe(ctx, "authenticate", t, err) }(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err = s.session.Authenticate(identity, secret)
	if err != nil {
		return domain.Principal{}, err
	}
	s.session.Login(p, target)
	return p, nil
}

// Logout removes the identity's session and its subscriber target.
func (s *Service) Logout(ctx context.Context, identity string) {
	defer func(t time.Time) { s.observe(ctx, "logout", t, nil) }(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Logout(identity)
}

// RoleOf resolves the active role for identity.
func (s *Service) RoleOf(identity string) domain.Role {
	return s.session.RoleOf(identity)
}

// CreateSample registers a new sample. Director only.
func (s *Service) CreateSample(ctx context.Context, requester domain.Role, number string, dept domain.Department, tests []domain.TestName) (sample domain.Sample, err error) {
	defer func(t time.Time) { s.observe(ctx, "create_sample", t, err) }(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if requester != domain.RoleDirector {
		return domain.Sample{}, domain.PermissionDeniedError{Role: requester, Action: "create sample"}
	}
	return s.store.Append(ctx, number, dept, tests)
}

// SearchSamples returns samples whose number contains the query. Any
// authenticated role.
func (s *Service) SearchSamples(ctx context.Context, requester domain.Role, query string) (matches []store.Match, err error) {
	defer func(t time.Time) { s.observe(ctx, "search", t, err) }(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if !requester.Valid() {
		return nil, domain.PermissionDeniedError{Role: requester, Action: "search samples"}
	}
	return s.store.Search(query), nil
}

// GetSample returns the sample at index. Any authenticated role.
func (s *Service) GetSample(ctx context.Context, requester domain.Role, index int) (sample domain.Sample, err error) {
	defer func(t time.Time) { s.observe(ctx, "get_sample", t, err) }(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if !requester.Valid() {
		return domain.Sample{}, domain.PermissionDeniedError{Role: requester, Action: "view samples"}
	}
	return s.store.Get(index)
}

// DeleteSample removes the sample at index. Director only.
func (s *Service) DeleteSample(ctx context.Context, requester domain.Role, index int) (removed domain.Sample, err error) {
	defer func(t time.Time) { s.observe(ctx, "delete_sample", t, err) }(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if requester != domain.RoleDirector {
		return domain.Sample{}, domain.PermissionDeniedError{Role: requester, Action: "delete sample"}
	}
	return s.store.Remove(ctx, index)
}

// ToggleUrgent flips the urgent flag of the sample at index. Director only;
// activation broadcasts to director and lab technician subscribers.
func (s *Service) ToggleUrgent(ctx context.Context, requester domain.Role, index int) (sample domain.Sample, err error) {
	defer func(t time.Time) { s.observe(ctx, "toggle_urgent", t, err) }(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.ToggleUrgent(ctx, index, requester)
}

// ListTests returns the tests of the sample at index. Any authenticated
// role.
func (s *Service) ListTests(ctx context.Context, requester domain.Role, index int) (tests []domain.Test, err error) {
	defer func(t time.Time) { s.observe(ctx, "list_tests", t, err) }(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if !requester.Valid() {
		return nil, domain.PermissionDeniedError{Role: requester, Action: "view samples"}
	}
	sample, err := s.store.Get(index)
	if err != nil {
		return nil, err
	}
	return sample.Tests, nil
}

// SetTestStatus transitions a test's status on behalf of requester.
func (s *Service) SetTestStatus(ctx context.Context, requester domain.Role, index, testIndex int, next domain.TestStatus) (sample domain.Sample, err error) {
	defer func(t time.Time) { s.observe(ctx, "set_test_status", t, err) }(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.SetTestStatus(ctx, index, testIndex, next, requester)
}

// GenerateReport produces the structured daily report. Director and lab
// technician only.
func (s *Service) GenerateReport(ctx context.Context, requester domain.Role) (rep report.Report, err error) {
	defer func(t time.Time) { s.observe(ctx, "generate_report", t, err) }(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if requester != domain.RoleDirector && requester != domain.RoleLabTech {
		return report.Report{}, domain.PermissionDeniedError{Role: requester, Action: "generate report"}
	}
	return s.reports.Generate(), nil
}
