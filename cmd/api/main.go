// Package main is the entry point for the group trips API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/pkordes/group-trips/backend/internal/config"
	"github.com/pkordes/group-trips/backend/internal/handler"
	"github.com/pkordes/group-trips/backend/internal/middleware"
	"github.com/pkordes/group-trips/backend/internal/notify"
	"github.com/pkordes/group-trips/backend/internal/repo"
	"github.com/pkordes/group-trips/backend/internal/scheduler"
	"github.com/pkordes/group-trips/backend/internal/service"
	"github.com/pkordes/group-trips/backend/migrations"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	// JSON handler writes machine-readable output suitable for log aggregators.
	// config.Load has already validated the level.
	var logLevel slog.Level
	_ = logLevel.UnmarshalText([]byte(cfg.LogLevel))
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Database ---------------------------------------------------------
	// pgxpool manages a pool of Postgres connections.
	// New() does not open connections immediately; the first query does.
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(context.Background()); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	if cfg.MigrateOnStart {
		sqlDB := stdlib.OpenDBFromPool(pool)
		applied, err := migrations.Up(context.Background(), sqlDB)
		_ = sqlDB.Close()
		if err != nil {
			slog.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("migrations applied", "count", applied)
	}

	store := repo.NewStore(pool)

	// --- Notifications ----------------------------------------------------
	// Every notification lands in the inbox table; Telegram is an optional
	// extra channel for users who linked a chat.
	var channels []notify.Channel
	if cfg.TelegramBotToken != "" {
		tg, err := notify.NewTelegram(cfg.TelegramBotToken, store.Repos().Users)
		if err != nil {
			slog.Warn("telegram channel disabled", "error", err)
		} else {
			channels = append(channels, tg)
		}
	}
	dispatcher := notify.NewDispatcher(store.Repos().Notifications, cfg.NotificationBuffer, logger, channels...)
	dispatcher.Start()

	// --- Services ---------------------------------------------------------
	trips := service.NewTripService(store, dispatcher)
	finance := service.NewFinanceService(store, dispatcher, time.Now, cfg.IsProd())
	payments := service.NewPaymentService(store, dispatcher, time.Now)
	notifications := service.NewNotificationService(store, time.Now)
	deadlines := service.NewDeadlineService(store, dispatcher, cfg.SchedulerInterval, logger)

	// --- Scheduler --------------------------------------------------------
	schedCtx, stopScheduler := context.WithCancel(context.Background())
	var schedWG sync.WaitGroup
	schedWG.Go(func() {
		_ = scheduler.New(deadlines, cfg.SchedulerInterval, logger).Run(schedCtx)
	})

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer → CORS → body limit.
	// RequestID generates a unique trace ID per request.
	// RealIP sets r.RemoteAddr from X-Forwarded-For / X-Real-IP (safe behind a proxy).
	// SlogLogger writes one structured JSON log line per request.
	// Recoverer catches panics and returns HTTP 500 instead of crashing.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	srv := handler.NewServer(trips, finance, payments, notifications, logger)
	r.Mount("/", srv.Handler(middleware.NewAuthHandler([]byte(cfg.JWTSecret))))

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr, "mode", cfg.AppMode)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	stopScheduler()
	schedWG.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	// Flush queued notifications after the last request has finished.
	dispatcher.Shutdown()
	slog.Info("server stopped")
}
