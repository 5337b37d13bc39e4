package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/shelfplanner/api/routes"
	"github.com/angelmondragon/shelfplanner/internal/catalog"
	"github.com/angelmondragon/shelfplanner/internal/dragdrop"
	"github.com/angelmondragon/shelfplanner/internal/products"
	"github.com/angelmondragon/shelfplanner/pkg/config"
	"github.com/angelmondragon/shelfplanner/pkg/db"
	"github.com/angelmondragon/shelfplanner/pkg/enums"
	"github.com/angelmondragon/shelfplanner/pkg/instance"
	"github.com/angelmondragon/shelfplanner/pkg/logger"
	"github.com/angelmondragon/shelfplanner/pkg/metrics"
	"github.com/angelmondragon/shelfplanner/pkg/migrate"
	"github.com/angelmondragon/shelfplanner/pkg/redis"
	"github.com/angelmondragon/shelfplanner/pkg/storage"
	"github.com/angelmondragon/shelfplanner/pkg/storage/memory"
	"github.com/angelmondragon/shelfplanner/pkg/storage/redisstore"
	"github.com/angelmondragon/shelfplanner/pkg/storage/sqlstore"
)

const shutdownTimeout = 10 * time.Second

// backend is a storage adapter plus its health check and release hook.
type backend struct {
	adapter storage.Adapter
	pinger  storage.Pinger
	close   func() error
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"storage":  cfg.Storage.Driver,
		"instance": instance.GetID(),
	})

	store, err := openStorage(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap storage", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.close(); err != nil {
			logg.Error(context.Background(), "error closing storage", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	catalogMetrics := metrics.NewCatalogMetrics(registry)

	adapter := storage.Instrument(storage.WithQuota(store.adapter, cfg.Storage.QuotaBytes), catalogMetrics)

	defaultSort, err := enums.ParseSortKey(cfg.Catalog.DefaultSort)
	if err != nil {
		logg.Error(ctx, "invalid default sort", err)
		os.Exit(1)
	}

	cat := catalog.New(catalog.Options{
		Adapter:     adapter,
		Logger:      logg,
		Metrics:     catalogMetrics,
		Locale:      cfg.Catalog.CollationLocale,
		DefaultSort: defaultSort,
	})
	if err := cat.Restore(ctx); err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "persisted catalog state partially restored")
	}

	if path := cfg.Catalog.ProductsFile; path != "" {
		batch, err := products.ReadBatchFile(path)
		if err != nil {
			logg.Error(ctx, "failed to read products file", err)
			os.Exit(1)
		}
		report := cat.Ingest(ctx, batch)
		logg.Info(logg.WithFields(ctx, map[string]any{
			"file":     path,
			"accepted": report.Accepted,
			"dropped":  len(report.Dropped),
		}), "products file ingested")
	}

	coordinator := dragdrop.NewCoordinator(cat, logg, catalogMetrics)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithField(ctx, "addr", addr)
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, store.pinger, registry, cat, coordinator),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
		logg.Info(ctx, "api server stopped")
	}
}

func openStorage(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*backend, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		mem := memory.New()
		return &backend{adapter: mem, pinger: mem, close: func() error { return nil }}, nil

	case config.StorageDriverRedis:
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, err
		}
		store := redisstore.New(client, redis.ErrNil)
		return &backend{adapter: store, pinger: store, close: client.Close}, nil

	default:
		client, err := db.New(ctx, cfg.Storage.Driver, cfg.DB, logg)
		if err != nil {
			return nil, err
		}
		store := sqlstore.New(client.DB(), cfg.Storage.Timeout)
		if err := migrate.MaybeAutoRun(ctx, cfg, logg, client); err != nil {
			client.Close()
			return nil, err
		}
		if !cfg.FeatureFlags.AutoMigrate && client.Driver() == config.StorageDriverSQLite {
			if err := store.AutoMigrate(ctx); err != nil {
				client.Close()
				return nil, err
			}
		}
		return &backend{adapter: store, pinger: client, close: client.Close}, nil
	}
}
