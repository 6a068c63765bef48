// Washing machine support bot server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/janhvi2806/washing-machine-bot/internal/api"
	"github.com/janhvi2806/washing-machine-bot/internal/app"
	"github.com/janhvi2806/washing-machine-bot/internal/config"
	"github.com/janhvi2806/washing-machine-bot/internal/llm"
	"github.com/janhvi2806/washing-machine-bot/web"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	bot, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		slog.Error("Failed to initialize support bot", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := bot.Close(); closeErr != nil {
			slog.Error("Failed to close support bot", "error", closeErr)
		}
	}()
	slog.Info("Database connected", "path", cfg.DBPath)

	limiter := api.NewRateLimiter(cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.WindowDuration)
	defer limiter.Close()

	sessions := api.NewChatSessions()
	healthHandler := api.NewHealthHandler(bot.Store, api.HealthOptions{
		Backend:        bot.BackendName(),
		BackendCheck:   backendCheck(bot.Generator),
		TrackerEnabled: bot.Gateway.Enabled(),
	})

	router := api.NewRouter(api.RouterConfig{
		Assistant:      bot.Service,
		Health:         healthHandler,
		Sessions:       sessions,
		Limiter:        limiter,
		AllowedOrigins: cfg.AllowedOrigins,
		IsDev:          cfg.IsDevelopment(),
		Static:         web.SPAHandler(),
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // websocket connections are long-lived
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sessions.CloseAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}

func backendCheck(gen llm.Generator) func(ctx context.Context) error {
	if gen == nil {
		return nil
	}
	return llm.HealthCheck(gen)
}
