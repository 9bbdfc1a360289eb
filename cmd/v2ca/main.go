package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/berfenger/v2ca/internal/config"
	"github.com/berfenger/v2ca/internal/core/factory"
	"github.com/berfenger/v2ca/internal/device"
	"github.com/berfenger/v2ca/internal/metrics"
	"github.com/berfenger/v2ca/internal/util/actorutil"

	"github.com/carlmjohnson/versioninfo"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const stopTimeout = 10 * time.Second

func main() {
	os.Exit(run())
}

func run() int {

	// load and print config
	cfg, err := config.Init()
	if err != nil {
		slog.Error("config errors", "error", err)
		return 1
	}
	slog.Info("Using", "config", cfg.Redacted())

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(zapCfg.Build())
	defer logger.Sync()

	logger.Info("starting v2ca", zap.String("version", versioninfo.Short()))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("could not register metrics", zap.Error(err))
		return 1
	}

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	defer as.Shutdown()

	device.RegisterAll(logger)

	svc, err := factory.NewExecutableServiceFactory(factory.Dependencies{
		Providers: device.Providers,
		Adapters:  device.Adapters,
		System:    as,
		HttpLog:   cfg.HttpLog,
		Logger:    logger,
	}).Create(cfg.Provider)
	if err != nil {
		logger.Error("could not build service", zap.Error(err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Start(ctx); err != nil {
		logger.Error("could not start service", zap.Error(err))
		return 1
	}

	<-ctx.Done()
	stop()
	logger.Info("shutting down gracefully, press Ctrl+C again to force")

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := svc.Stop(stopCtx); err != nil {
		logger.Error("service stopped with errors", zap.Error(err))
		return 1
	}
	logger.Info("graceful shutdown complete")
	return 0
}
