// Copyright (c) 2026 Selvo. All rights reserved.
// Author: platform@selvo.store

// Command api is the entry point for the Selvo HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration (.env file, then environment variables).
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Parse the RS256 signing keys.
//  7. Wire HTTP handlers.
//  8. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
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

	"github.com/selvohq/selvo/internal/api"
	"github.com/selvohq/selvo/internal/platform/config"
	"github.com/selvohq/selvo/internal/platform/constants"
	"github.com/selvohq/selvo/internal/platform/migration"
	pgstore "github.com/selvohq/selvo/internal/platform/postgres"
	redisstore "github.com/selvohq/selvo/internal/platform/redis"
	"github.com/selvohq/selvo/internal/platform/sec"
	"github.com/selvohq/selvo/internal/users/account"
	"github.com/selvohq/selvo/internal/users/auth"
	"github.com/selvohq/selvo/internal/users/oauth"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", "selvo"))
	slog.SetDefault(log)

	log.Info("[Selvo] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	// A .env file is a development convenience; the environment always wins.
	if err := godotenv.Load(); err == nil {
		log.Info("dotenv_loaded")
	}

	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "selvo"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Token Service ──────────────────────────────────────────────────
	// Key parsing fails here, at startup, never on a request path.
	tokenService, err := sec.NewTokenService(sec.KeyConfig{
		AccessPrivateKey:  cfg.AccessTokenPrivateKey,
		AccessPublicKey:   cfg.AccessTokenPublicKey,
		RefreshPrivateKey: cfg.RefreshTokenPrivateKey,
		RefreshPublicKey:  cfg.RefreshTokenPublicKey,
		AccessTTL:         cfg.AccessTokenTTL(),
		RefreshTTL:        cfg.RefreshTokenTTL(),
		Issuer:            constants.AuthIssuer,
	})
	must(log, err, "initialize token service")

	// ── 7. Health Handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	secureCookies := cfg.IsProduction()

	userRepository := auth.NewUserRepository(pool)
	sessionCache := auth.NewSessionCache(rdb)
	refreshRegistry := auth.NewRefreshRegistry(rdb)
	authService := auth.NewService(userRepository, sessionCache, refreshRegistry, tokenService, cfg.PasswordCost)
	gate := auth.NewGate(authService, tokenService)
	authHandler := auth.NewHandler(authService, gate, tokenService, secureCookies)

	oauthClient := &http.Client{Timeout: constants.OAuthClientTimeout}
	googleProvider := oauth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleOAuthRedirect, oauthClient)
	githubProvider := oauth.NewGitHubProvider(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.GitHubOAuthRedirect, oauthClient)
	oauthService := oauth.NewService(userRepository, authService, googleProvider, githubProvider)
	oauthHandler := oauth.NewHandler(oauthService, tokenService, cfg.FrontendOrigin(), secureCookies)

	accountRepository := account.NewAccountRepository(pool)
	accountService := account.NewService(accountRepository, sessionCache, log)
	accountHandler := account.NewHandler(accountService, gate, secureCookies)

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      authHandler,
		OAuth:     oauthHandler,
		Account:   accountHandler,
	}

	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, gate, handlers)

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
