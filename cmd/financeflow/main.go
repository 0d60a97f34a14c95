package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"financeflow/internal/cli"
	apphttp "financeflow/internal/http"
	applog "financeflow/internal/log"
	"financeflow/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ledger := cli.InitLedger(ctx, logger, cfg)

	scheduler, err := services.NewCatchUpScheduler(ledger.Processor, ledger.Store, cfg.RecurringSchedule)
	cli.Fatal(logger, "Failed to configure recurring scheduler", err)

	srv := apphttp.NewServer(":"+cfg.Port, ledger, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	})
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting financeflow server",
			"port", cfg.Port,
			"db_path", cfg.SQLiteDBPath,
			"events_enabled", cfg.AMQPEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server", applog.FieldOperation, applog.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.RecurringOnStartup {
		g.Go(func() error {
			_, _ = scheduler.RunOnce(gctx)
			return nil
		})
	}

	g.Go(func() error {
		return scheduler.Run(gctx)
	})

	exitCode := 0
	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		exitCode = 1
	}
	if err := ledger.Cleanup(); err != nil {
		logger.Error("Cleanup failed", applog.FieldError, err)
	}
	logger.Info("Server stopped gracefully")
	os.Exit(exitCode)
}
