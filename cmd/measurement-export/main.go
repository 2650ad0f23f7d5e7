package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"

	httpadapter "github.com/couchcryptid/envirocar-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/envirocar-etl/internal/adapter/kafka"
	"github.com/couchcryptid/envirocar-etl/internal/adapter/mongo"
	"github.com/couchcryptid/envirocar-etl/internal/adapter/postgres"
	"github.com/couchcryptid/envirocar-etl/internal/config"
	"github.com/couchcryptid/envirocar-etl/internal/observability"
	"github.com/couchcryptid/envirocar-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	source := mongo.NewSource(cfg, logger, metrics)
	loader := postgres.NewLoader(cfg, logger)
	transformer := pipeline.NewTransformer(cfg.SRID)

	p := pipeline.New(source, transformer, loader, logger, metrics, pipeline.Options{
		Table:            cfg.TableName,
		Filter:           cfg.Filter(),
		ProgressInterval: cfg.ProgressInterval,
	})

	// The run is not cancellable; the HTTP server only observes it.
	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	runErr := p.Run(context.Background())

	if cfg.ReportsEnabled() {
		publishReport(cfg, p.Report(), logger)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}

	if runErr != nil {
		cancel()
		os.Exit(1)
	}
	logger.Info("export complete", "table", cfg.TableName)
}

func publishReport(cfg *config.Config, report pipeline.Report, logger *slog.Logger) {
	notifier := kafkaadapter.NewNotifier(cfg, logger)
	defer func() {
		if err := notifier.Close(); err != nil {
			logger.Error("kafka notifier close error", "error", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := notifier.Notify(ctx, report); err != nil {
		logger.Error("publish run report failed", "error", err)
	}
}
