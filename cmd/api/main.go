// Copyright (c) 2026 Netrack. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Netrack HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire repositories, services, and HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
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

	"github.com/taibuivan/netrack/internal/api"
	"github.com/taibuivan/netrack/internal/audit"
	"github.com/taibuivan/netrack/internal/iam/permcache"
	"github.com/taibuivan/netrack/internal/iam/rbac"
	"github.com/taibuivan/netrack/internal/iam/session"
	"github.com/taibuivan/netrack/internal/iam/token"
	"github.com/taibuivan/netrack/internal/iam/user"
	"github.com/taibuivan/netrack/internal/inventory/device"
	"github.com/taibuivan/netrack/internal/inventory/subnet"
	"github.com/taibuivan/netrack/internal/inventory/tag"
	"github.com/taibuivan/netrack/internal/platform/config"
	"github.com/taibuivan/netrack/internal/platform/constants"
	"github.com/taibuivan/netrack/internal/platform/migration"
	pgstore "github.com/taibuivan/netrack/internal/platform/postgres"
	redisstore "github.com/taibuivan/netrack/internal/platform/redis"
	"github.com/taibuivan/netrack/internal/platform/sec"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("[Netrack] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
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

	// Application context, cancelled at shutdown. Background middleware
	// work (rate limiter cleanup) stops with it.
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

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
	jwtSvc, err := sec.NewTokenService(cfg.JWTSecret, constants.AuthIssuer)
	must(log, err, "initialize jwt service")

	// ── 7. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	userRepository := user.NewPostgresRepository(pool)
	rbacRepository := rbac.NewPostgresRepository(pool)
	auditRepository := audit.NewPostgresRepository(pool)
	deviceRepository := device.NewPostgresRepository(pool)
	subnetRepository := subnet.NewPostgresRepository(pool)
	tagRepository := tag.NewPostgresRepository(pool)
	sessionStore := session.NewRedisStore(rdb)

	permissionCache := permcache.NewCache(rbacRepository, log, permcache.Config{})

	auditService := audit.NewService(auditRepository, log)
	userService := user.NewService(userRepository, log)
	rbacService := rbac.NewService(rbacRepository, permissionCache, log)
	sessionService := session.NewService(userRepository, sessionStore, auditService, log)
	// Token issuance resolves permissions from the live directory, not the
	// cache: the claims freeze whatever is granted at that instant.
	tokenService := token.NewService(userRepository, rbacRepository, jwtSvc, auditService, log)
	deviceService := device.NewService(deviceRepository, log)
	subnetService := subnet.NewService(subnetRepository, log)
	tagService := tag.NewService(tagRepository, log)

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Session:   session.NewHandler(sessionService, permissionCache, cfg.IsProduction()),
		Token:     token.NewHandler(tokenService),
		User:      user.NewHandler(userService),
		RBAC:      rbac.NewHandler(rbacService),
		Audit:     audit.NewHandler(auditService),
		Device:    device.NewHandler(deviceService),
		Subnet:    subnet.NewHandler(subnetService),
		Tag:       tag.NewHandler(tagService),
	}

	server := api.NewServer(appCtx, cfg, log, jwtSvc, sessionService, permissionCache, handlers)

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
