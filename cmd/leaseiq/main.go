package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"

	"github.com/neomorfeo/leaseiq/internal/adapter/fsm"
	"github.com/neomorfeo/leaseiq/internal/adapter/otel"
	riveradapter "github.com/neomorfeo/leaseiq/internal/adapter/river"
	"github.com/neomorfeo/leaseiq/internal/adapter/sqlite"
	"github.com/neomorfeo/leaseiq/internal/app"
	"github.com/neomorfeo/leaseiq/internal/config"
	"github.com/neomorfeo/leaseiq/internal/domain"

	handler "github.com/neomorfeo/leaseiq/internal/adapter/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("leaseiq exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Environment, level)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---
	providers, err := otel.Setup(ctx, cfg.OTel())
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Error("otel shutdown", "error", err)
		}
	}()

	// --- Adapters (out) ---
	db, err := openDB(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	client, err := riveradapter.Setup(ctx, db, riveradapter.Options{
		MaxWorkers: cfg.RiverMaxWorkers,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("river: %w", err)
	}
	publisher := riveradapter.NewPublisher(client)

	repo, err := sqlite.NewFromDB(db, sqlite.WithOutbox(publisher))
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}

	committer, err := newCommitter(cfg.CommitMode, repo, publisher, logger)
	if err != nil {
		return err
	}

	// --- Application ---
	svc := app.NewLeaseService(
		otel.NewTracingRepository(repo),
		repo,
		repo,
		fsm.New(),
		committer,
		app.WithLogger(logger),
	)

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(otelchi.Middleware(cfg.ServiceName, otelchi.WithChiRoutes(router)))

	api := humachi.New(router, huma.DefaultConfig("leaseiq", cfg.ServiceVersion))
	handler.Register(api, svc)

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// River stops itself when its start context is cancelled; shutdown is
	// driven explicitly below instead.
	if err := client.Start(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("river start: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("leaseiq listening", "port", cfg.Port, "docs", "http://localhost:"+cfg.Port+"/docs", "commit_mode", cfg.CommitMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		runErr = fmt.Errorf("server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	if err := client.Stop(shutdownCtx); err != nil {
		logger.Error("river shutdown", "error", err)
	}

	logger.Info("stopped")
	return runErr
}

// newLogger writes JSON outside development and human-readable text in it.
func newLogger(environment string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if environment == "development" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

func openDB(path string) (*sql.DB, error) {
	db, err := otel.OpenDB(path)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	if err := sqlite.Configure(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("database: %w", err)
	}
	return db, nil
}

// newCommitter selects the transition persistence strategy. Both strategies
// are wrapped with tracing and the committed-transitions counter.
func newCommitter(mode string, repo *sqlite.LeaseRepository, publisher domain.EventPublisher, logger *slog.Logger) (*otel.TracingCommitter, error) {
	var next domain.TransitionCommitter = repo
	if mode == config.CommitSequential {
		next = app.NewSequentialCommitter(repo, repo, otel.NewTracingPublisher(publisher), logger)
	}

	committer, err := otel.NewTracingCommitter(next)
	if err != nil {
		return nil, fmt.Errorf("committer: %w", err)
	}
	return committer, nil
}
