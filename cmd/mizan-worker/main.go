package main

import (
	"context"
	"errors"
	"os"
	"time"

	"mizan/internal/amqp"
	"mizan/internal/cli"
	"mizan/internal/config"
	"mizan/internal/log"
	"mizan/internal/sheets"
	gsheet "mizan/internal/sheets/google"
	"mizan/internal/sheets/memory"
	"mizan/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker, os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting mizan-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the export worker")
		os.Exit(1)
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	res := cli.InitStore(startCtx, logger, cfg)
	exporter := setupExporter(startCtx, logger, cfg)
	cancelStart()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	exportWorker := worker.NewExportWorker(res.Store, exporter, cfg.ExportBatchSize)

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, func(context.Context) {
		if err := amqpClient.Close(); err != nil {
			logger.Error("AMQP close failed", log.FieldError, err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Store close failed", log.FieldError, err)
		}
	})

	// Recover events published while the worker was down.
	if err := exportWorker.StartupBackfill(ctx); err != nil {
		logger.Error("Startup backfill failed", log.FieldError, err)
	}

	go func() {
		if err := amqpClient.Consume(ctx, exportWorker.HandleMessage); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption stopped", log.FieldError, err)
		}
	}()

	logger.Info("Export worker running", "queue", cfg.AMQPQueue, "batch_size", cfg.ExportBatchSize)
	cli.WaitForShutdown(ctx, done)
}

// setupExporter returns the Google Sheets exporter when a spreadsheet is
// configured, otherwise an in-memory one so events are still drained.
func setupExporter(ctx context.Context, logger *log.Logger, cfg *config.Config) sheets.Exporter {
	if !cfg.ExportEnabled() {
		logger.Warn("GOOGLE_SPREADSHEET_ID not set, exporting to memory only")
		return memory.New()
	}
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
		CredentialsFile: cfg.GoogleCredentialsFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets exporter ready", log.FieldSpreadsheetID, cfg.GoogleSpreadsheetID)
	return client
}
