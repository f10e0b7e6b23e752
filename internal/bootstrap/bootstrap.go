// Package bootstrap wires configuration, infrastructure and usecases
// into runnable services.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/docucompare/backend/internal/config"
	"github.com/docucompare/backend/internal/core/domain"
	"github.com/docucompare/backend/internal/core/ports"
	"github.com/docucompare/backend/internal/core/usecase"
	"github.com/docucompare/backend/internal/infrastructure/extraction"
	"github.com/docucompare/backend/internal/infrastructure/repository/postgres"
	"github.com/docucompare/backend/internal/infrastructure/storage/miniostore"
	"github.com/docucompare/backend/internal/observability/metrics"
)

const apiServiceName = "ingestion-api"

// App holds the wired ingestion API service.
type App struct {
	Config  config.Config
	Metrics *metrics.HTTPServerMetrics

	UploadUC   ports.FileIngestor
	CallbackUC ports.CallbackApplier
	QueryUC    *usecase.FileQueryUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	fileRepo := postgres.NewFileRepository(db)
	if err := fileRepo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure files schema: %w", err)
	}
	conversationRepo := postgres.NewConversationRepository(db)
	if err := conversationRepo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure conversations schema: %w", err)
	}

	storage, err := miniostore.New(ctx, miniostore.Config{
		Endpoint:   cfg.BlobEndpoint,
		AccessKey:  cfg.BlobAccessKey,
		SecretKey:  cfg.BlobSecretKey,
		BucketName: cfg.BlobBucketName,
		UseSSL:     cfg.BlobUseSSL,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	httpMetrics := metrics.NewHTTPServerMetrics(apiServiceName)
	trigger := &meteredTrigger{
		inner:   extraction.NewClient(cfg.ExtractionServiceURL, cfg.ExtractionCallbackURL, cfg.ExtractionMockMode()),
		metrics: httpMetrics,
		service: apiServiceName,
	}

	uploadUC, err := usecase.NewBatchUploadUseCase(fileRepo, conversationRepo, storage, trigger, cfg.UploadConcurrency)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init upload usecase: %w", err)
	}

	return &App{
		Config:     cfg,
		Metrics:    httpMetrics,
		UploadUC:   uploadUC,
		CallbackUC: usecase.NewApplyCallbackUseCase(fileRepo),
		QueryUC:    usecase.NewFileQueryUseCase(fileRepo),
		closeFn: func() {
			uploadUC.Release()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// meteredTrigger counts trigger outcomes without the client knowing
// about metrics.
type meteredTrigger struct {
	inner   ports.ExtractionTrigger
	metrics *metrics.HTTPServerMetrics
	service string
}

func (t *meteredTrigger) TriggerExtraction(ctx context.Context, fileID, blobPath string) domain.TriggerOutcome {
	outcome := t.inner.TriggerExtraction(ctx, fileID, blobPath)
	t.metrics.RecordTrigger(t.service, outcome.String())
	return outcome
}
