package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bierschi/comunioscore/internal/app"
	"github.com/bierschi/comunioscore/internal/config"
	"github.com/bierschi/comunioscore/internal/observability"
	"github.com/bierschi/comunioscore/internal/platform/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(logger)
	defer logger.Sync()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		os.Exit(1)
	}

	stopProfiler, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		logger.Error("init pyroscope", "error", err)
		os.Exit(1)
	}

	pprofSrv := observability.StartPprofServer(cfg, logger)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runErr := application.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	if pprofSrv != nil {
		_ = observability.StopPprofServer(pprofSrv, logger, 5*time.Second)
	}
	if stopProfiler != nil {
		_ = stopProfiler()
	}
	if shutdownTracing != nil {
		_ = shutdownTracing(shutdownCtx)
	}

	if runErr != nil {
		logger.Error("service failed", "error", runErr)
		os.Exit(1)
	}

	logger.Info("service stopped")
}
