package bootstrap

import (
	"context"
	"fmt"

	"github.com/docucompare/backend/internal/config"
	"github.com/docucompare/backend/internal/core/ports"
	"github.com/docucompare/backend/internal/core/usecase"
	"github.com/docucompare/backend/internal/infrastructure/callback"
	"github.com/docucompare/backend/internal/infrastructure/extractor"
	"github.com/docucompare/backend/internal/infrastructure/queue/nats"
	"github.com/docucompare/backend/internal/infrastructure/resilience"
	"github.com/docucompare/backend/internal/infrastructure/storage/miniostore"
	"github.com/docucompare/backend/internal/observability/metrics"
)

const extractorServiceName = "extractor"

// ExtractorApp holds the wired extraction worker service.
type ExtractorApp struct {
	Config  config.Config
	Metrics *metrics.WorkerMetrics

	Queue     ports.ExtractionQueue
	ProcessUC ports.ExtractionProcessor

	closeFn func()
}

func NewExtractor(ctx context.Context, cfg config.Config) (*ExtractorApp, error) {
	storage, err := miniostore.New(ctx, miniostore.Config{
		Endpoint:   cfg.BlobEndpoint,
		AccessKey:  cfg.BlobAccessKey,
		SecretKey:  cfg.BlobSecretKey,
		BucketName: cfg.BlobBucketName,
		UseSSL:     cfg.BlobUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		return nil, fmt.Errorf("init job queue: %w", err)
	}

	workerMetrics := metrics.NewWorkerMetrics(extractorServiceName)
	texts := &meteredExtractor{
		inner:   extractor.New(storage),
		metrics: workerMetrics,
		service: extractorServiceName,
	}
	deliverer := callback.NewDeliverer(resilience.NewExecutor(resilience.DefaultPolicy()))

	return &ExtractorApp{
		Config:    cfg,
		Metrics:   workerMetrics,
		Queue:     queue,
		ProcessUC: usecase.NewExtractUseCase(texts, deliverer),
		closeFn: func() {
			queue.Close()
		},
	}, nil
}

func (a *ExtractorApp) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

type meteredExtractor struct {
	inner   ports.TextExtractor
	metrics *metrics.WorkerMetrics
	service string
}

func (e *meteredExtractor) Extract(ctx context.Context, blobPath string) (string, error) {
	text, err := e.inner.Extract(ctx, blobPath)
	if err == nil {
		e.metrics.ObserveExtractedText(e.service, len(text))
	}
	return text, err
}
