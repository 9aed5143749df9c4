package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/bukubesar/internal/app"
	ledgerhttp "github.com/odyssey-erp/bukubesar/internal/ledger/http"
	"github.com/odyssey-erp/bukubesar/internal/observability"
	"github.com/odyssey-erp/bukubesar/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping server startup")
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
	slog.SetDefault(logger)

	metrics := observability.NewMetrics()
	svc, err := app.Build(ctx, cfg, logger, metrics)
	if err != nil {
		logger.Error("bootstrap", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Warn("close services", slog.Any("error", err))
		}
	}()

	ledgerHandler, err := ledgerhttp.NewHandler(ledgerhttp.Options{
		Logger:     logger,
		Engine:     svc.Engine,
		Cache:      svc.Cache,
		Repository: svc.Repository,
		RateLimit:  cfg.MutationRateLimit,
	})
	if err != nil {
		logger.Error("init ledger handler", slog.Any("error", err))
		os.Exit(1)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:        logger,
		Config:        cfg,
		LedgerHandler: ledgerHandler,
		JobsHandler:   jobsHandler(cfg, logger),
		Metrics:       metrics,
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: cfg.AppReadTimeout,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server",
			slog.String("addr", cfg.AppAddr),
			slog.String("period", svc.Engine.Period().Label),
			slog.String("store", cfg.StoreDriver),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("http server", slog.Any("error", err))
		os.Exit(1)
	}
}

// jobsHandler exposes queue health when a broker is configured.
func jobsHandler(cfg *app.Config, logger *slog.Logger) *jobs.Handler {
	if cfg.RedisAddr == "" {
		return nil
	}
	return jobs.NewHandler(asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr}), logger)
}
