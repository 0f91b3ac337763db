package main

import (
	"context"
	"os"
	"time"

	"mizan/internal/amqp"
	"mizan/internal/cli"
	"mizan/internal/ledger"
	"mizan/internal/log"
	"mizan/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentRollover, os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting recurring-worker", "interval", cfg.RolloverInterval.String())

	res := cli.InitStore(context.Background(), logger, cfg)

	var (
		publisher  ledger.EventPublisher
		amqpClient *amqp.Client
	)
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, reset events will not be published", log.FieldError, err)
		} else {
			publisher, amqpClient = client, client
		}
	}

	processor := services.NewRolloverProcessor(res.Store, publisher, cfg.Location())

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, func(context.Context) {
		if amqpClient != nil {
			_ = amqpClient.Close()
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Store close failed", log.FieldError, err)
		}
	})

	run := func() {
		if _, err := processor.ProcessAll(ctx, time.Now()); err != nil && ctx.Err() == nil {
			logger.Error("Obligation rollover failed", log.FieldError, err)
		}
	}

	// Run once at start so a restart never waits a full interval.
	run()

	ticker := time.NewTicker(cfg.RolloverInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			<-done
			logger.Info("Recurring worker stopped")
			return
		case <-ticker.C:
			run()
		}
	}
}
