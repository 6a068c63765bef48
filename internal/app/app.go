// Package app assembles the support bot from configuration. The server and
// the operator CLI share it so both run the same exchange pipeline.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/janhvi2806/washing-machine-bot/internal/classifier"
	"github.com/janhvi2806/washing-machine-bot/internal/config"
	"github.com/janhvi2806/washing-machine-bot/internal/gateway"
	"github.com/janhvi2806/washing-machine-bot/internal/llm"
	"github.com/janhvi2806/washing-machine-bot/internal/mantis"
	"github.com/janhvi2806/washing-machine-bot/internal/store"
	"github.com/janhvi2806/washing-machine-bot/internal/support"
)

// App holds the wired components. Close releases them in reverse order.
type App struct {
	Config     *config.Config
	Store      *store.SQLiteStore
	Generator  llm.Generator
	Classifier *classifier.Classifier
	Tracker    *mantis.Client
	Gateway    *gateway.Gateway
	Service    *support.Service

	closers []func() error
}

// New builds every component described by cfg.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg}

	repo, err := store.NewSQLite(cfg.DBPath, store.WithHistoryLimit(cfg.Bot.HistoryLimit))
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}
	a.Store = repo
	a.closers = append(a.closers, repo.Close)

	if err := repo.Ping(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("database health check: %w", err)
	}

	// An unreachable backend degrades to the keyword fallback instead of
	// keeping the bot offline.
	gen, cleanup, err := llm.New(cfg.LLM, logger)
	switch {
	case err != nil:
		logger.Warn("Classifier backend unavailable, using keyword fallback", "provider", cfg.LLM.Provider, "error", err)
		gen = nil
	case gen == nil:
		logger.Info("No classifier backend configured, using keyword fallback")
	default:
		logger.Info("Classifier backend ready", "backend", llm.NameOf(gen))
	}
	a.Generator = gen
	a.closers = append(a.closers, func() error { cleanup(); return nil })

	a.Classifier, err = classifier.New(gen,
		classifier.WithTimeout(cfg.LLM.Timeout),
		classifier.WithLogger(logger),
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("initialize classifier: %w", err)
	}

	// A nil *mantis.Client must not reach the interface, or the gateway would
	// think a tracker is configured.
	var tracker gateway.IssueTracker
	if cfg.Mantis.Enabled() {
		a.Tracker, err = mantis.New(mantis.Config{
			Endpoint: cfg.Mantis.BaseURL,
			Username: cfg.Mantis.Username,
			Password: cfg.Mantis.Password,
			Timeout:  cfg.Mantis.Timeout,
		}, mantis.WithLogger(logger))
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("initialize issue tracker client: %w", err)
		}
		tracker = a.Tracker
		logger.Info("Issue tracker configured", "endpoint", cfg.Mantis.BaseURL, "project_id", cfg.Mantis.ProjectID)
	} else {
		logger.Info("Issue tracker disabled (MANTIS_BASE_URL not set)")
	}
	a.Gateway = gateway.New(tracker, cfg.Mantis.ProjectID,
		gateway.WithAttemptTimeout(cfg.Mantis.Timeout),
		gateway.WithLogger(logger),
	)

	convLog, err := support.NewConversationLogger(support.ConversationLogConfig{
		Enabled:   cfg.ConversationLog.Enabled,
		Dir:       cfg.ConversationLog.Dir,
		QueueSize: cfg.ConversationLog.QueueSize,
	}, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("initialize conversation logger: %w", err)
	}
	a.closers = append(a.closers, convLog.Close)

	a.Service, err = support.NewService(support.Deps{
		Sessions:   repo,
		Tickets:    repo,
		Classifier: a.Classifier,
		Gateway:    a.Gateway,
		ConvLog:    convLog,
		Logger:     logger,
	}, support.Options{
		CommandPrefix:    cfg.Bot.CommandPrefix,
		SupportChannelID: cfg.Bot.SupportChannelID,
		BotUserID:        cfg.Bot.BotUserID,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("initialize support service: %w", err)
	}
	return a, nil
}

// BackendName reports which classifier backend is in use.
func (a *App) BackendName() string {
	if a.Generator == nil {
		return "fallback"
	}
	return llm.NameOf(a.Generator)
}

// Close releases resources. It is safe to call more than once.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
