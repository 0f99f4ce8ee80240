// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/auth"
	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/config"
	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/database"
	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/handler"
	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/live"
	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/repository"
	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/scheduler"
	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/service"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. Open the record store ─────────────────────────────────────────
	var store repository.Store
	switch cfg.Store {
	case config.StoreMemory:
		store = repository.NewMemory()
		logger.Warn("using in-memory store, data is lost on exit")
	default:
		pool, err := database.NewPool(ctx, cfg.DB, logger)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer pool.Close()
		logger.Info("connected to PostgreSQL")
		if cfg.Migrate {
			if err := database.Migrate(ctx, pool, logger); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
		}
		store = repository.NewPostgres(pool)
	}

	// ── 2. Token revocation ──────────────────────────────────────────────
	var revoker auth.Revoker = auth.NopRevoker{}
	if cfg.RedisURL != "" {
		rdb, err := auth.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rdb.Close()
		revoker = auth.NewRedisRevoker(rdb)
		logger.Info("connected to Redis")
	} else {
		logger.Warn("REDIS_URL not set, logout will not revoke tokens")
	}

	// ── 3. Wire up layers ────────────────────────────────────────────────
	hub := live.NewHub(logger, originChecker(cfg.CORSOrigins))
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)
	userSvc := service.NewUserService(store, tokens, revoker, logger)
	eventSvc := service.NewEventService(store, hub, logger)
	bookingSvc := service.NewBookingService(store, hub, logger)
	h := handler.New(userSvc, eventSvc, bookingSvc, hub, logger)

	if cfg.AdminEmail != "" {
		if _, err := userSvc.EnsureAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	if cfg.SweepInterval > 0 {
		sched, err := scheduler.NewSweeper(store, logger).Start(cfg.SweepInterval)
		if err != nil {
			return err
		}
		defer func() {
			if err := sched.Shutdown(); err != nil {
				logger.Error("scheduler shutdown", "err", err)
			}
		}()
	}

	// ── 4. Build the router ───────────────────────────────────────────────
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(handler.Logger(logger))  // structured access log
	r.Use(corsHandler(cfg.CORSOrigins))

	r.Get("/health", handler.HealthCheck)
	r.Mount("/api", h.Routes(handler.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthBurst)))

	// ── 5. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:        cfg.Addr,
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// Websocket streams are long-lived; handlers set their own deadlines.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Addr, "store", cfg.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Block until SIGINT or SIGTERM, or the listener fails.
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	wildcard := slices.Contains(origins, "*")
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: !wildcard,
		MaxAge:           300,
	}).Handler
}

// originChecker admits websocket upgrades from the configured CORS origins.
func originChecker(origins []string) func(*http.Request) bool {
	if len(origins) == 0 || slices.Contains(origins, "*") {
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(origins, origin)
	}
}
