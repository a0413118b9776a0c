// Command gateway serves the open-data JSON endpoints.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/open-data-gateway/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/open-data-gateway/internal/adapter/kafka"
	"github.com/couchcryptid/open-data-gateway/internal/adapter/catalog"
	"github.com/couchcryptid/open-data-gateway/internal/adapter/memory"
	"github.com/couchcryptid/open-data-gateway/internal/adapter/postgres"
	"github.com/couchcryptid/open-data-gateway/internal/adapter/soap"
	"github.com/couchcryptid/open-data-gateway/internal/config"
	"github.com/couchcryptid/open-data-gateway/internal/domain"
	"github.com/couchcryptid/open-data-gateway/internal/gateway"
	"github.com/couchcryptid/open-data-gateway/internal/observability"
	"github.com/joho/godotenv"
)

func main() {
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, metrics, logger)
	if err != nil {
		logger.Error("failed to open record store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	catalogClient := catalog.NewClient(cfg.RestURI, cfg.UpstreamTimeout, metrics, logger)
	soapClient := soap.NewClient(cfg.SOAPURI, cfg.SOAPNamespace, cfg.UpstreamTimeout, metrics, logger)
	svc := gateway.New(store, catalogClient, soapClient, logger, metrics)

	opts := httpadapter.Options{AllowedOrigins: cfg.CORSAllowedOrigins}
	var accessLog *kafkaadapter.AccessLog
	if cfg.AccessLogEnabled() {
		accessLog = kafkaadapter.NewAccessLog(cfg, metrics, logger)
		opts.AccessLog = accessLog
		logger.Info("access log enabled", "topic", cfg.AccessLogTopic, "brokers", cfg.AccessLogBrokers)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, metrics, logger, opts)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if accessLog != nil {
		if err := accessLog.Close(); err != nil {
			logger.Error("access log close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

func openStore(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (domain.RecordStore, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		store, err := memory.Load(cfg.StoreSeedFile)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using in-memory record store", "seed_file", cfg.StoreSeedFile)
		return store, func() {}, nil
	}

	store, err := postgres.New(ctx, postgres.Config{
		DatabaseURL:  cfg.DatabaseURL,
		MaxConns:     cfg.DBMaxConns,
		QueryTimeout: cfg.DBQueryTimeout,
	}, metrics, logger)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}
