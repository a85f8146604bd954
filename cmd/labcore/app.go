package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"labcore/internal/auth"
	"labcore/internal/config"
	"labcore/internal/notify"
	"labcore/internal/service"
	"labcore/internal/store"
	"labcore/pkg/domain"
)

// app bundles the constructed application context for the CLI commands.
type app struct {
	cfg     config.Config
	svc     *service.Service
	logger  *slog.Logger
	closers []func()
}

// buildApp wires persistence, auth, notification, and service from the
// config file and environment.
func buildApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	persister, err := store.OpenPersister(ctx)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	st := store.New(persister, store.WithLogger(logger))
	if err := st.Load(ctx); err != nil {
		return nil, err
	}

	creds := make(auth.Credentials, len(cfg.Users))
	for identity, user := range cfg.Users {
		creds[identity] = auth.Credential{
			Secret:      user.Secret,
			Role:        domain.Role(user.Role),
			DisplayName: user.DisplayName,
		}
	}
	session := auth.NewSession(creds)

	a := &app{cfg: cfg, logger: logger}

	var sender notify.Sender
	if cfg.NATS.URL != "" {
		natsSender, err := notify.NewNATSSender(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, natsSender.Close)
		sender = natsSender
	} else {
		sender = notify.SlogSender{Logger: logger}
	}
	dispatcher := notify.NewDispatcher(sender, logger)

	zone, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}

	a.svc = service.New(service.Config{
		Store:      st,
		Session:    session,
		Dispatcher: dispatcher,
		Zone:       zone,
		Metrics:    service.NewPrometheusMetrics(prometheus.DefaultRegisterer),
		Logger:     logger,
	})
	return a, nil
}

func (a *app) close() {
	for _, fn := range a.closers {
		fn()
	}
}
