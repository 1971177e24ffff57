package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/granite-erp/granite/internal/app"
	"github.com/granite-erp/granite/internal/fiscal"
	"github.com/granite-erp/granite/internal/ledger"
	"github.com/granite-erp/granite/internal/observability"
	"github.com/granite-erp/granite/internal/platform/db"
	"github.com/granite-erp/granite/internal/recurrence"
	"github.com/granite-erp/granite/internal/reports"
	"github.com/granite-erp/granite/internal/shared"
	"github.com/granite-erp/granite/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	auditLogger := shared.NewAuditLogger(pool)

	fiscalRepo := fiscal.NewRepository(pool)
	fiscalService := fiscal.NewService(fiscalRepo, auditLogger)
	fiscalHandler := fiscal.NewHandler(logger, fiscalService)

	sequences := ledger.NewSequenceRepository(pool)
	ledgerRepo := ledger.NewRepository(pool)
	ledgerService := ledger.NewService(ledgerRepo, sequences, auditLogger)
	ledgerHandler := ledger.NewHandler(logger, ledgerService)

	recurrenceRepo := recurrence.NewRepository(pool)
	recurrenceService := recurrence.NewService(recurrenceRepo, ledgerService)
	recurrenceHandler := recurrence.NewHandler(logger, recurrenceService)

	reportsRepo := reports.NewRepository(pool)
	reportsService := reports.NewService(reportsRepo, fiscalRepo)
	reportsHandler := reports.NewHandler(logger, reportsService)

	jobClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(logger, jobClient)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		FiscalHandler:     fiscalHandler,
		LedgerHandler:     ledgerHandler,
		RecurrenceHandler: recurrenceHandler,
		ReportsHandler:    reportsHandler,
		JobHandler:        jobHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
