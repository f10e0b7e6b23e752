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

	httpadapter "github.com/docucompare/backend/internal/adapters/http"
	"github.com/docucompare/backend/internal/bootstrap"
	"github.com/docucompare/backend/internal/config"
	"github.com/docucompare/backend/internal/core/domain"
	"github.com/docucompare/backend/internal/observability/logging"
)

const jobTimeout = 5 * time.Minute

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("extractor", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewExtractor(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	jobServer := &http.Server{
		Addr:         ":" + cfg.ExtractorPort,
		Handler:      httpadapter.NewExtractorRouter(app.Queue).Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		slog.Info("extractor listening", "port", cfg.ExtractorPort)
		if err := jobServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("extractor server failed", "error", err)
			stop()
		}
	}()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", app.Metrics.Handler())
	metricsServer := &http.Server{
		Addr:    ":" + cfg.ExtractorMetricsPort,
		Handler: metricsMux,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "error", err)
		}
	}()

	go func() {
		slog.Info("extractor subscribed", "subject", cfg.NATSSubject)
		err := app.Queue.SubscribeExtractionJobs(ctx, func(jobCtx context.Context, job domain.ExtractionJob) error {
			app.Metrics.StartJob()
			start := time.Now()

			processCtx, cancel := context.WithTimeout(jobCtx, jobTimeout)
			defer cancel()
			processErr := app.ProcessUC.Process(processCtx, job)

			app.Metrics.FinishJob("extractor", time.Since(start), processErr)
			return processErr
		})
		if err != nil {
			slog.Error("extractor subscribe failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := jobServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("extractor shutdown failed", "error", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("metrics shutdown failed", "error", err)
	}
}
