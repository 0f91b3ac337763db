package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"mizan/internal/amqp"
	"mizan/internal/backend"
	"mizan/internal/cli"
	"mizan/internal/config"
	apphttp "mizan/internal/http"
	"mizan/internal/ledger"
	"mizan/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp, os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting mizan", "port", cfg.Port, "backend", cfg.DataBackend, "timezone", cfg.CycleTimezone)

	res := cli.InitStore(context.Background(), logger, cfg)
	publisher, amqpClient := setupPublisher(logger, cfg)

	sessions := apphttp.NewSessionProvider(apphttp.SessionConfig{
		Store:           res.Store,
		Publisher:       publisher,
		Location:        cfg.Location(),
		DefaultStartDay: cfg.DefaultCycleStartDay,
		CacheSize:       cfg.SessionCacheSize,
		TTL:             cfg.SessionTTL,
		Logger:          logger.WithComponent(log.ComponentHTTP),
	})

	var ready func(context.Context) error
	if p, ok := res.Store.(backend.Pinger); ok {
		ready = p.Ping
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               net.JoinHostPort("", cfg.Port),
		Sessions:           sessions,
		Ready:              ready,
		Location:           cfg.Location(),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger.WithComponent(log.ComponentHTTP),
	})

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown failed", log.FieldError, err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP close failed", log.FieldError, err)
			}
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Store close failed", log.FieldError, err)
		}
	})

	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", log.FieldError, err)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
}

// setupPublisher connects to AMQP when configured. The API keeps serving
// without event fan-out if the broker is unreachable at start-up.
func setupPublisher(logger *log.Logger, cfg *config.Config) (ledger.EventPublisher, *amqp.Client) {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled, ledger events will not be published")
		return nil, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, ledger events will not be published", log.FieldError, err)
		return nil, nil
	}
	logger.Info("AMQP publisher ready", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client, client
}
