package main

import (
	"context"
	"errors"
	"os"
	"time"

	"financeflow/internal/amqp"
	"financeflow/internal/backend"
	"financeflow/internal/cli"
	applog "financeflow/internal/log"
	"financeflow/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	logger.Info("Starting ledger-mirror")

	cfg := cli.LoadAndValidateConfig(logger)
	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required for ledger-mirror")
		os.Exit(1)
	}

	bcfg, err := backend.FromAppConfig(cfg)
	cli.Fatal(logger, "Invalid backend configuration", err)

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, nil)

	mirror, err := backend.NewFactory(logger.Slog()).CreateMirror(ctx, bcfg)
	cli.Fatal(logger, "Failed to initialize ledger mirror", err)
	if mirror.Type == backend.MemoryMirror {
		logger.Warn("No GOOGLE_SPREADSHEET_ID configured, mirroring into memory only")
	}

	w := worker.NewMirrorWorker(mirror.Mirror)
	logger.Info("Consuming ledger events",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue,
		"mirror", mirror.Type)

	err = amqp.RunConsumer(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, w.HandleEvent)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Ledger event consumer stopped", applog.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Ledger-mirror shutdown complete", "mirrored", w.Mirrored())
}
