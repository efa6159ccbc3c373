package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lexilocal/lexilocal/internal/bootstrap"
	"github.com/lexilocal/lexilocal/internal/config"
	"github.com/lexilocal/lexilocal/internal/observability/logging"
	"github.com/lexilocal/lexilocal/internal/observability/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("info", "indexer").Error("config_load_failed", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, "indexer")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	indexerMetrics := metrics.NewIndexer(app.Registry)
	indexerMetrics.IndexSize.Set(float64(app.VectorIndex.Len()))

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{}))
	metricsServer := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux}
	go func() {
		logger.Info("metrics_listening", "addr", cfg.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics_server_failed", "error", err)
		}
	}()

	handle := func(msgCtx context.Context, documentID string) error {
		docCtx, cancel := context.WithTimeout(msgCtx, cfg.Indexing.DocumentTimeout)
		defer cancel()

		start := time.Now()
		sizeBefore := app.VectorIndex.Len()
		err := app.Indexer.IndexByID(docCtx, documentID)
		indexerMetrics.IndexingDuration.Observe(time.Since(start).Seconds())

		if err != nil {
			indexerMetrics.DocumentsProcessed.WithLabelValues("failed").Inc()
			return err
		}
		indexerMetrics.DocumentsProcessed.WithLabelValues("ready").Inc()
		indexerMetrics.ChunksIndexed.Add(float64(app.VectorIndex.Len() - sizeBefore))
		indexerMetrics.IndexSize.Set(float64(app.VectorIndex.Len()))
		return nil
	}

	logger.Info("indexer_started")
	if err := app.Queue.SubscribeDocumentPending(ctx, handle); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("subscribe_failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("metrics_shutdown_incomplete", "error", err)
	}
	logger.Info("indexer_stopped")
}
