package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	db             Pinger
	backend        string
	backendCheck   func(ctx context.Context) error
	trackerEnabled bool
	timeout        time.Duration
}

// HealthOptions describes optional dependencies reported by the health check.
type HealthOptions struct {
	Backend        string
	BackendCheck   func(ctx context.Context) error
	TrackerEnabled bool
	Timeout        time.Duration
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db Pinger, opts HealthOptions) *HealthHandler {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.Backend == "" {
		opts.Backend = "fallback"
	}
	return &HealthHandler{
		db:             db,
		backend:        opts.Backend,
		backendCheck:   opts.BackendCheck,
		trackerEnabled: opts.TrackerEnabled,
		timeout:        opts.Timeout,
	}
}

// Health returns the health status of the API and its dependencies.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	checks := map[string]string{"api": "ok", "classifier": h.backend}
	status := map[string]interface{}{
		"status": "healthy",
		"checks": checks,
	}
	statusCode := http.StatusOK

	if err := h.db.Ping(ctx); err != nil {
		slog.Error("Health check failed", "error", err)
		status["status"] = "degraded"
		checks["database"] = "unreachable"
		statusCode = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	// The keyword fallback covers a sick backend, so it only degrades the report.
	if h.backendCheck != nil {
		if err := h.backendCheck(ctx); err != nil {
			slog.Warn("Classifier backend unhealthy", "error", err)
			checks["classifier_backend"] = "unreachable"
			status["status"] = "degraded"
		} else {
			checks["classifier_backend"] = "ok"
		}
	}

	if h.trackerEnabled {
		checks["issue_tracker"] = "configured"
	} else {
		checks["issue_tracker"] = "disabled"
	}

	JSON(w, statusCode, status)
}

// RegisterHealth registers the health check route.
func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/api/health", h.Health)
}
