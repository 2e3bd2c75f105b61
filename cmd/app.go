package main

import (
	"context"
	"net/http"

	"ipinsight/internal/analysis"
	"ipinsight/internal/cache"
	"ipinsight/internal/comparison"
	"ipinsight/internal/config"
	"ipinsight/internal/history"
	"ipinsight/internal/worker"
	"ipinsight/pkg/backend/rest"
	"ipinsight/pkg/logger"
	"ipinsight/pkg/metrics"
	"ipinsight/pkg/storage"
	"ipinsight/pkg/storage/bolt"
	"ipinsight/pkg/storage/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// getPostgres creates a PostgreSQL client using configuration values and returns it
// along with a cleanup function to close the connection pool.
func getPostgres(ctx context.Context, cfg *config.Config) (*postgres.PgSQL, func()) {
	pgsql, err := postgres.New(ctx, postgres.Options{
		Username:           cfg.Database.Username,
		Password:           cfg.Database.Password,
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		Database:           cfg.Database.DatabaseName,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime:    cfg.Database.ConnMaxIdleTime,
		MaxOpenConnections: cfg.Database.MaxOpenConnections,
		MaxIdleConnections: cfg.Database.MaxIdleConnections,
		SslMode:            cfg.Database.SslMode,
	})
	if err != nil {
		logger.Fatal(ctx, "could not create postgres storage", zap.Error(err))
	}

	return pgsql, func() {
		logger.Info(ctx, "closing postgres client...")
		if err = pgsql.Close(); err != nil {
			logger.Warn(ctx, "could not close postgres connection", zap.Error(err))
		}
	}
}

// getStorage opens the storage selected by the config. The pool is only set
// for the postgres driver.
func getStorage(ctx context.Context, cfg *config.Config, meter metric.Meter) (storage.Storage, *pgxpool.Pool, func()) {
	if cfg.Storage.Driver == config.DriverPostgres {
		pgsql, closeFn := getPostgres(ctx, cfg)

		return pgsql, pgsql.Pool, closeFn
	}

	b, err := bolt.New(bolt.Options{
		Path:    cfg.Storage.Path,
		Timeout: cfg.Storage.Timeout,
		Meter:   meter,
	})
	if err != nil {
		logger.Fatal(ctx, "could not open bolt storage", zap.Error(err), zap.String("path", cfg.Storage.Path))
	}

	return b, nil, func() {
		if err := b.Close(); err != nil {
			logger.Warn(ctx, "could not close bolt storage", zap.Error(err))
		}
	}
}

// app holds the services shared by the commands.
type app struct {
	storage     storage.Storage
	pool        *pgxpool.Pool
	meter       metric.Meter
	cache       *cache.Cache
	history     *history.Service
	comparisons *comparison.Store
	analysis    *analysis.Service
	janitor     *worker.Janitor
}

// newApp opens the storage and builds the services on top of it. The
// startup cleanup configured by history.autoCleanDays runs before it returns.
func newApp(ctx context.Context, cfg *config.Config) (*app, func()) {
	mp, err := metrics.NewMeterProvider(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Fatal(ctx, "could not create meter provider", zap.Error(err))
	}
	meter := mp.Meter(metrics.MeterName)

	s, pool, closeStrg := getStorage(ctx, cfg, meter)

	a := &app{
		storage: s,
		pool:    pool,
		meter:   meter,
		cache:   cache.New(s, cache.Options{TTL: cfg.Cache.TTL}),
		history: history.New(s, history.Options{MaxEntries: cfg.History.MaxEntries}),
		comparisons: comparison.New(s, comparison.Options{
			ListLimit:  cfg.Comparison.ListLimit,
			MaxEntries: cfg.Comparison.MaxEntries,
		}),
	}

	opts := analysis.NewOptions(cfg)
	opts.Meter = meter
	a.analysis = analysis.New(rest.New(&http.Client{}, cfg.Backend.BaseURL), a.cache, a.history, opts)

	a.janitor = worker.NewJanitor(a.cache, a.history, cfg.History.RetentionDays)
	if cfg.History.AutoCleanDays >= 0 {
		r := a.janitor.AutoClean(ctx, cfg.History.AutoCleanDays)
		if r.ExpiredCacheEntries > 0 || r.OldHistoryEntries > 0 {
			logger.Info(ctx, "startup cleanup done",
				zap.Int("expiredCacheEntries", r.ExpiredCacheEntries),
				zap.Int("oldHistoryEntries", r.OldHistoryEntries))
		}
	}

	return a, func() {
		closeStrg()
		if err := mp.Shutdown(context.Background()); err != nil {
			logger.Warn(ctx, "could not shut down meter provider", zap.Error(err))
		}
	}
}
