// main is the entry point of the Student Management API.
//
// STARTUP SEQUENCE (serve):
//  1. Load configuration from a YAML file
//  2. Initialise the logger
//  3. Open the configured database and migrate it
//  4. Build services and the HTTP router
//  5. Start the HTTP server in a separate goroutine
//  6. Block until an OS signal (Ctrl+C / kill) arrives
//  7. Gracefully shut down: finish in-flight requests, then exit
//
// USAGE:
//
//	students-api --config=config/local.yaml
//	students-api migrate up|down|status --config=config/local.yaml
//	students-api seed-user --config=config/local.yaml --username=alice --password=secret
//
// CONFIG_PATH may replace --config in every form.
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

	"github.com/aanand-mishra/student-management-api/internal/auth"
	"github.com/aanand-mishra/student-management-api/internal/config"
	"github.com/aanand-mishra/student-management-api/internal/http/middleware"
	"github.com/aanand-mishra/student-management-api/internal/http/router"
	"github.com/aanand-mishra/student-management-api/internal/service/students"
)

const (
	serviceName     = "students-api"
	version         = "1.1.0"
	shutdownTimeout = 5 * time.Second
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			os.Exit(runMigrate(os.Args[2:]))
		case "seed-user":
			os.Exit(runSeedUser(os.Args[2:]))
		}
	}
	os.Exit(serve(config.MustLoad()))
}

// openStore is swapped in tests to observe the store's lifecycle.
var openStore = openStorage

// serve runs the HTTP server until a signal arrives. It returns the exit
// code so deferred cleanup runs before the process exits.
func serve(cfg *config.Config) int {
	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting students-api",
		slog.String("env", cfg.Env),
		slog.String("version", version),
		slog.String("storage", cfg.Storage.Driver),
	)

	ctx := context.Background()
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialise storage", slog.String("error", err.Error()))
		return 1
	}
	defer store.Close()

	authSvc, err := newAuthService(cfg, store, log)
	if err != nil {
		log.Error("failed to initialise auth", slog.String("error", err.Error()))
		return 1
	}

	limiter := newRateLimiter(cfg, log)
	defer limiter.Close()

	handler := router.New(router.Deps{
		Logger:          log,
		Students:        students.New(store, log),
		Auth:            authSvc,
		Health:          store.Ping,
		Limiter:         limiter,
		LoginPerMinute:  cfg.RateLimit.LoginPerMinute,
		ProtectStudents: cfg.Auth.ProtectStudents,
		Metrics:         middleware.NewMetrics(),
	})

	server := &http.Server{
		Addr:         cfg.HTTPServer.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	// ListenAndServe blocks, so it runs in its own goroutine and main
	// waits for a signal below.
	serveErr := make(chan error, 1)
	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	select {
	case <-done:
		log.Info("shutdown signal received, stopping server...")
	case err := <-serveErr:
		log.Error("server encountered an error", slog.String("error", err.Error()))
		return 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown server gracefully", slog.String("error", err.Error()))
		return 1
	}
	log.Info("server stopped gracefully")
	return 0
}

func newAuthService(cfg *config.Config, store auth.UserStore, log *slog.Logger) (*auth.Service, error) {
	mode, err := auth.ParsePasswordMode(cfg.Auth.PasswordMode)
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewTokenManager(cfg.JWT.Key, cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.TTL)
	if err != nil {
		return nil, err
	}
	return auth.New(store, tokens, mode, log), nil
}

// newRateLimiter prefers Redis when configured so replicas share counts,
// and falls back to process memory if Redis is unreachable at startup.
func newRateLimiter(cfg *config.Config, log *slog.Logger) middleware.RateLimiter {
	rl := cfg.RateLimit
	if rl.RedisAddr == "" {
		return middleware.NewMemoryRateLimiter()
	}
	limiter, err := middleware.NewRedisRateLimiter(rl.RedisAddr, rl.RedisPassword, rl.RedisDB, log)
	if err != nil {
		log.Warn("redis rate limiter unavailable, using in-memory limiter",
			slog.String("addr", rl.RedisAddr),
			slog.String("error", err.Error()),
		)
		return middleware.NewMemoryRateLimiter()
	}
	log.Info("rate limiter backed by redis", slog.String("addr", rl.RedisAddr))
	return limiter
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
// dev: human-readable text at DEBUG. staging: JSON at DEBUG. prod: JSON at
// INFO, easy to ingest by log aggregators.
func setupLogger(env string) *slog.Logger {
	var h slog.Handler
	switch env {
	case config.EnvProd:
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	case config.EnvStaging:
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	default:
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(h).With(slog.String("service", serviceName))
}
