package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/config"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     applog.DefaultConfig().Level,
		Component: applog.ComponentProjector,
	})
	applog.SetDefault(logger)

	logger.Info("Starting projector-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	svc := services.NewLedgerService(repo, services.CatchUpPolicy(cfg.CatchUpPolicy))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Recurrence projector configured",
		"interval", cfg.ProjectionInterval,
		applog.FieldPolicy, cfg.CatchUpPolicy,
		"sqlite_db", cfg.SQLiteDBPath)

	ticker := time.NewTicker(cfg.ProjectionInterval)
	defer ticker.Stop()

	// Run an initial pass on startup so overdue definitions catch up
	// without waiting a full interval.
	logger.Info("Running initial projection pass...")
	if fired, err := svc.RunProjection(ctx, core.Today()); err != nil {
		logger.Error("Initial projection failed", "error", err)
	} else {
		logger.Info("Initial projection complete", applog.FieldFired, fired)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				fired, err := svc.RunProjection(ctx, core.FormatDate(now))
				if err != nil {
					logger.Error("Periodic projection failed", "error", err)
				} else {
					logger.Info("Periodic projection complete",
						applog.FieldFired, fired,
						"next_check", now.Add(cfg.ProjectionInterval).Format("15:04:05"))
				}
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	cancel()
	logger.Info("Projector-worker shutdown complete")
}
