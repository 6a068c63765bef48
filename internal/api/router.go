package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/janhvi2806/washing-machine-bot/internal/identity"
	"github.com/janhvi2806/washing-machine-bot/internal/middleware"
)

// RouterConfig wires the handlers into one router.
type RouterConfig struct {
	Assistant      Assistant
	Health         *HealthHandler
	Sessions       *ChatSessions
	Limiter        *RateLimiter
	AllowedOrigins []string
	IsDev          bool
	Static         http.Handler
	Logger         *slog.Logger
}

// NewRouter builds the HTTP handler for the server.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	if cfg.Health != nil {
		cfg.Health.RegisterHealth(r)
	}
	NewMessageHandler(cfg.Assistant, cfg.Limiter, cfg.Logger).RegisterRoutes(r)

	sessions := cfg.Sessions
	if sessions == nil {
		sessions = NewChatSessions()
	}
	chat := NewChatHandler(cfg.Assistant, sessions, cfg.Limiter, cfg.AllowedOrigins, cfg.IsDev, cfg.Logger)
	r.With(identity.Middleware(cfg.IsDev)).Get("/ws/chat", chat.ServeHTTP)

	if cfg.Static != nil {
		r.Handle("/*", cfg.Static)
	}
	return r
}
