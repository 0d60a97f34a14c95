package main

import (
	"time"

	"financeflow/internal/cli"
	applog "financeflow/internal/log"
	"financeflow/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentRecurring)
	logger.Info("Starting recurring-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	ledger := cli.InitLedger(ctx, logger, cfg)
	defer func() {
		if err := ledger.Cleanup(); err != nil {
			logger.Error("Cleanup failed", applog.FieldError, err)
		}
	}()

	scheduler, err := services.NewCatchUpScheduler(ledger.Processor, ledger.Store, cfg.RecurringSchedule)
	cli.Fatal(logger, "Failed to configure recurring scheduler", err)

	logger.Info("Recurring processor configured",
		"schedule", cfg.RecurringSchedule,
		"sqlite_db", cfg.SQLiteDBPath,
		"events_enabled", cfg.AMQPEnabled())

	if cfg.RecurringOnStartup {
		logger.Info("Running initial catch-up pass")
		_, _ = scheduler.RunOnce(ctx)
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		if err := scheduler.Run(ctx); err != nil {
			logger.Error("Recurring scheduler failed", applog.FieldError, err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	<-stopped
	logger.Info("Recurring-worker shutdown complete")
}
