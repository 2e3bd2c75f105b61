package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"ipinsight/internal/api"
	"ipinsight/internal/api/handler/v1handler"
	"ipinsight/internal/config"
	"ipinsight/internal/worker"
	"ipinsight/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func setupServer(ctx context.Context, cfg *config.Config, a *app) func(ctx context.Context) {
	server, err := api.NewServer(api.Deps{
		Deps: v1handler.Deps{
			Analysis:    a.analysis,
			Cache:       a.cache,
			History:     a.history,
			Comparisons: a.comparisons,
			Storage:     a.storage,
			Janitor:     a.janitor,
		},
		Meter: a.meter,
	}, api.NewOptions(cfg))
	if err != nil {
		logger.Fatal(ctx, "could not create webserver", zap.Error(err))
	}

	go func() {
		logger.Info(ctx, "starting webserver...", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error(ctx, "could not start webserver", zap.Error(err))
			}
		}
	}()

	return func(ctx context.Context) {
		logger.Info(ctx, "stopping webserver...")
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(ctx, "could not stop webserver", zap.Error(err))
		}
	}
}

// setupMaintenance schedules the janitor: River periodic jobs on postgres,
// an in-process ticker on bolt.
func setupMaintenance(ctx context.Context, cfg *config.Config, a *app) func(ctx context.Context) {
	if a.pool != nil {
		riverClient, err := worker.Start(ctx, a.pool, a.janitor, worker.Options{
			Interval:   cfg.Maintenance.Interval,
			MaxWorkers: cfg.Maintenance.MaxWorkers,
		})
		if err != nil {
			logger.Fatal(ctx, "could not start maintenance workers", zap.Error(err))
		}

		return func(ctx context.Context) {
			logger.Info(ctx, "stopping maintenance workers...")
			if err := riverClient.Stop(ctx); err != nil {
				logger.Error(ctx, "could not stop maintenance workers", zap.Error(err))
			}
		}
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.janitor.Loop(loopCtx, cfg.Maintenance.Interval)
	}()

	return func(ctx context.Context) {
		cancel()
		select {
		case <-done:
		case <-ctx.Done():
		}
	}
}

func serveCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Starts API server and background maintenance",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, closeApp := newApp(ctx, cfg)
			defer closeApp()

			stopMaintenance := setupMaintenance(ctx, cfg, a)
			stopWebserver := setupServer(ctx, cfg, a)

			// wait for interrupt
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GracefulShutdownTimeout)
			defer cancel()

			stopWebserver(shutdownCtx)
			stopMaintenance(shutdownCtx)
		},
	}

	return cmd
}
