package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/bukubesar/internal/app"
	"github.com/odyssey-erp/bukubesar/internal/ledger"
	"github.com/odyssey-erp/bukubesar/internal/observability"
	"github.com/odyssey-erp/bukubesar/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)
	if cfg.RedisAddr == "" {
		logger.Error("REDIS_ADDR is required for the worker")
		os.Exit(1)
	}

	repo, closeRepo, err := app.OpenStore(ctx, cfg)
	if err != nil {
		logger.Error("open store", slog.Any("error", err))
		os.Exit(1)
	}
	if closeRepo != nil {
		defer func() {
			if err := closeRepo(); err != nil {
				logger.Warn("close store", slog.Any("error", err))
			}
		}()
	}
	if repo == nil {
		logger.Error("integrity checks need a store; STORE_DRIVER is none")
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	integrity := &jobs.IntegrityJob{
		Repository: repo,
		NewEngine: func() (*ledger.Engine, error) {
			return app.NewEngine(cfg, logger, nil, nil)
		},
		Logger:  logger,
		Metrics: metrics,
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:     asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:        logger,
		Integrity:     integrity,
		IntegrityCron: cfg.IntegrityCron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
