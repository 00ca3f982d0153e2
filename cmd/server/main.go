package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/formcraft-backend/internal/config"
	"github.com/stemsi/formcraft-backend/internal/database"
	"github.com/stemsi/formcraft-backend/internal/handler"
	"github.com/stemsi/formcraft-backend/internal/logger"
	"github.com/stemsi/formcraft-backend/internal/metrics"
	"github.com/stemsi/formcraft-backend/internal/middleware"
	"github.com/stemsi/formcraft-backend/internal/repository"
	"github.com/stemsi/formcraft-backend/internal/router"
	"github.com/stemsi/formcraft-backend/internal/service"
	"github.com/stemsi/formcraft-backend/internal/validator"
	"github.com/stemsi/formcraft-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("form_store", cfg.FormStore).
		Msg("Starting Formcraft Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL and Redis ───────────────────────────────
	conns, err := database.Connect(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to backing stores")
	}
	defer conns.Close()

	m := metrics.New(log)

	// ─── Initialize Repositories ───────────────────────────────────────
	var formRepo repository.FormRepository
	switch cfg.FormStore {
	case config.FormStorePostgres:
		formRepo = repository.NewPostgresFormRepository(conns.Pool)
	default:
		formRepo = repository.NewRedisFormRepository(conns.Redis)
	}
	sessionRepo := repository.NewRedisSessionRepository(conns.Redis, cfg.SessionTTL)
	submissionRepo := repository.NewSubmissionRepository(conns.Pool)
	submissionBuffer := repository.NewSubmissionBuffer(conns.Redis)

	// ─── Initialize Services ──────────────────────────────────────────
	formService := service.NewFormService(formRepo, m, log)
	builderService := service.NewBuilderService(sessionRepo, formService, service.NewRedisEventPublisher(conns.Redis), m, log)
	submissionService := service.NewSubmissionService(formService, submissionRepo, submissionBuffer, m, log)
	exportService := service.NewExportService(formService, submissionRepo, log)
	uploadService := service.NewUploadService(cfg)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Form:       handler.NewFormHandler(formService, cfg.FormPageSize),
		Builder:    handler.NewBuilderHandler(builderService, uploadService),
		Fill:       handler.NewFillHandler(formService, submissionService, uploadService, cfg.FormPageSize),
		Submission: handler.NewSubmissionHandler(submissionService, exportService, cfg.FormPageSize),
		WS:         handler.NewWSHandler(conns.Redis, builderService, log, cfg.AllowedOrigins),
		Health:     handler.NewHealthHandler(conns.Pool, conns.Redis),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workerDone := make(chan struct{})

	submissionWorker := worker.NewSubmissionWorker(conns.Redis, submissionBuffer, submissionRepo, m, log)
	go func() {
		defer close(workerDone)
		submissionWorker.Start(workerCtx)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	submitLimiter := middleware.NewRateLimiter(ctx, cfg.SubmitRatePerMinute, time.Minute).KeyBy("id")
	r := router.SetupRouter(handlers, cfg, router.Options{
		Metrics:       m,
		SubmitLimiter: submitLimiter,
		Log:           log,
	})

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the submission worker and wait for the queue to drain.
	workerCancel()
	select {
	case <-workerDone:
	case <-time.After(10 * time.Second):
		log.Warn().Msg("Submission worker did not drain in time")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
