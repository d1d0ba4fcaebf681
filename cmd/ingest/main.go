// Package main provides the feed ingestion entry point. It plans the date
// range into windows, walks them through fetch, normalize and persist, and
// exits non-zero when the run aborts.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/neo-scanner/internal/adapter"
	"github.com/neo-scanner/internal/config"
	"github.com/neo-scanner/internal/logging"
	"github.com/neo-scanner/internal/models"
	"github.com/neo-scanner/internal/planner"
	"github.com/neo-scanner/internal/service"
	"github.com/neo-scanner/internal/storage"
)

func main() {
	resumeOffset := flag.Int("resume-offset", 0, "Window offset to resume from (0 starts fresh)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logging.InitGlobalLogger(
		logging.ParseLogLevel(cfg.Logging.Level),
		logging.ParseLogFormat(cfg.Logging.Format),
	)
	logger := logging.GetGlobalLogger()

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	plan, err := planner.New(cfg.Feed.StartDate, cfg.Feed.EndDate, cfg.Feed.WindowDays)
	if err != nil {
		logger.WithError(err).Fatal("Failed to plan date range")
	}

	client := adapter.NewNeoWsClient(&adapter.ClientConfig{
		APIKey:             cfg.Feed.APIKey,
		BaseURL:            cfg.Feed.BaseURL,
		MinRequestInterval: cfg.Feed.MinRequestInterval,
		MaxAttempts:        cfg.Feed.MaxFetchAttempts,
		RequestTimeout:     cfg.Feed.RequestTimeout,
	})

	svc, err := service.NewIngestService(&service.IngestConfig{
		Plan:            plan,
		Fetcher:         client,
		Store:           storage.NewRecordRepository(postgres),
		TargetAsteroids: cfg.Feed.TargetAsteroids,
		ResumeOffset:    *resumeOffset,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to build ingestion pipeline")
	}

	// A signal cancels the context; the run aborts at the next window boundary
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.WithFields(map[string]interface{}{
		"windows":         plan.Count(),
		"windowDays":      cfg.Feed.WindowDays,
		"targetAsteroids": cfg.Feed.TargetAsteroids,
		"resumeOffset":    *resumeOffset,
	}).Info("Starting ingestion run")

	report, runErr := svc.Run(ctx)

	if report.State == models.StateAborted {
		logger.WithError(runErr).WithField("cause", report.Cause).Error("Ingestion run aborted")
		os.Exit(1)
	}

	logger.WithFields(map[string]interface{}{
		"cause":             report.Cause,
		"windowsProcessed":  report.WindowsProcessed,
		"windowsSkipped":    report.WindowsSkipped,
		"distinctAsteroids": report.DistinctAsteroids,
		"newApproaches":     report.NewApproaches,
	}).Info("Ingestion run completed")
}
