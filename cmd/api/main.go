package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpadapter "github.com/lexilocal/lexilocal/internal/adapters/http"
	"github.com/lexilocal/lexilocal/internal/bootstrap"
	"github.com/lexilocal/lexilocal/internal/config"
	"github.com/lexilocal/lexilocal/internal/observability/logging"
	"github.com/lexilocal/lexilocal/internal/observability/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("info", "api").Error("config_load_failed", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, "api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	apiMetrics := metrics.NewAPI(app.Registry)
	handlers := httpadapter.NewHandlers(app.Ingestor, app.Ingestor, app.Reader, app.Retriever, app.Answerer, apiMetrics, logger)
	router := httpadapter.NewRouter(handlers, apiMetrics, logger, httpadapter.RouterConfig{
		RateLimitRPS:   cfg.HTTP.RateLimitRPS,
		RateLimitBurst: cfg.HTTP.RateLimitBurst,
		MaxConcurrent:  cfg.HTTP.MaxConcurrent,
		MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{}))
	metricsServer := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("api_listening", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		logger.Info("metrics_listening", "addr", cfg.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown_signal")
	case err := <-errCh:
		logger.Error("server_failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown_incomplete", "error", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("metrics_shutdown_incomplete", "error", err)
	}
	logger.Info("api_stopped")
}
