// Command api serves streamflow predictions over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	httpadapter "github.com/headwaters-hydrology/streamflow-api/internal/adapter/http"
	kafkaadapter "github.com/headwaters-hydrology/streamflow-api/internal/adapter/kafka"
	"github.com/headwaters-hydrology/streamflow-api/internal/adapter/postgres"
	"github.com/headwaters-hydrology/streamflow-api/internal/basin"
	"github.com/headwaters-hydrology/streamflow-api/internal/config"
	"github.com/headwaters-hydrology/streamflow-api/internal/observability"
	"github.com/headwaters-hydrology/streamflow-api/internal/parquetstore"
	"github.com/headwaters-hydrology/streamflow-api/internal/service"
)

func main() {
	godotenv.Load() //nolint:errcheck // .env is optional

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	catalog, err := basin.Load(cfg.BasinsPath)
	if err != nil {
		logger.Error("failed to load basin catalog", "path", cfg.BasinsPath, "error", err)
		os.Exit(1)
	}
	logger.Info("basin catalog loaded", "basins", catalog.Len())

	clock := clockwork.NewRealClock()
	historical, err := parquetstore.NewView(cfg.FlowDataDir, parquetstore.ByLocation, cfg.RefreshInterval, clock, logger)
	if err != nil {
		logger.Error("failed to open historical store", "root", cfg.FlowDataDir, "error", err)
		os.Exit(1)
	}
	current, err := parquetstore.NewView(cfg.CurrentDataDir, parquetstore.ByDate, cfg.RefreshInterval, clock, logger)
	if err != nil {
		logger.Error("failed to open current store", "root", cfg.CurrentDataDir, "error", err)
		os.Exit(1)
	}

	// The write path is feature-flagged via DATABASE_URL / KAFKA_BROKERS.
	var db service.Pinger
	ingest := httpadapter.IngestOptions{APIKey: cfg.APIKey}
	var publisher *kafkaadapter.Publisher
	if cfg.IngestEnabled() {
		store, err := postgres.New(cfg.DatabaseURL, logger)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		db = store
		ingest.Store = store
		if cfg.KafkaEnabled() {
			publisher = kafkaadapter.NewPublisher(cfg, logger)
			ingest.Publisher = publisher
			logger.Info("kafka mirroring enabled", "topic", cfg.KafkaTopic)
		}
		logger.Info("ingest enabled")
	} else {
		logger.Info("ingest disabled")
	}

	svc := service.New(historical, current, catalog, db, cfg.DefaultVersion, cfg.MaxLocations, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, ingest, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
