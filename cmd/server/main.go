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

	"github.com/google/uuid"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/serhq/estimator/internal/ai"
	"github.com/serhq/estimator/internal/auth"
	"github.com/serhq/estimator/internal/config"
	"github.com/serhq/estimator/internal/server"
	"github.com/serhq/estimator/internal/service"
	"github.com/serhq/estimator/internal/session"
	"github.com/serhq/estimator/internal/storage"
	"github.com/serhq/estimator/internal/storage/sqlite"
	"github.com/serhq/estimator/internal/webhook"
	"github.com/serhq/estimator/pkg/logging"
)

const (
	sessionTokenTTL  = 24 * time.Hour
	rememberTokenTTL = 7 * 24 * time.Hour
	shutdownTimeout  = 10 * time.Second
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	logging.Setup()

	cfg, err := config.Load(getEnv("CONFIG_PATH", ""))
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DB.Path)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The sqlite store doubles as the persistent key-value scope; the
	// session scope lives in memory and is gone after a restart.
	gate, err := session.Load(ctx, store, storage.NewMemoryKV())
	if err != nil {
		slog.Error("Failed to load session state", "error", err)
		os.Exit(1)
	}
	slog.Info("Session loaded",
		"authenticated", gate.Authenticated(),
		"pro", gate.Pro(),
		"project_count", gate.ProjectCount(),
	)

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		if cfg.App.Env == "production" {
			slog.Error("auth.jwt_secret must be set in production")
			os.Exit(1)
		}
		// Tokens won't survive a restart with an ephemeral secret.
		secret = uuid.NewString()
		slog.Warn("auth.jwt_secret not set, using an ephemeral secret")
	}
	tokens := auth.NewJWTManager(secret, sessionTokenTTL, rememberTokenTTL)
	authn := auth.NewPasswordAuthenticator(store)

	var aiClient *ai.Client
	if cfg.Gemini.APIKey != "" {
		aiClient, err = ai.NewClient(ctx, cfg.Gemini.APIKey)
		if err != nil {
			slog.Error("Failed to create AI client", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Warn("gemini.api_key not set, AI endpoints disabled")
	}

	projects := service.NewProjectService(store, gate, slog.Default())
	estimates := service.NewEstimateService(store, slog.Default())
	payments := webhook.NewHandler(slog.Default(), cfg.Square.SignatureKey, cfg.Square.NotificationURL, gate)

	srv := server.New(
		slog.Default(),
		projects,
		estimates,
		gate,
		authn,
		tokens,
		aiClient,
		payments,
		cfg.Metrics.Enabled,
	)

	// h2c allows HTTP/2 without TLS for clients behind a terminating proxy.
	handler := h2c.NewHandler(srv.Routes(), &http2.Server{})

	httpServer := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: handler,
	}

	go func() {
		slog.Info("Server starting", "address", cfg.HTTP.Addr, "env", cfg.App.Env)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Shutdown failed", "error", err)
	}
}
