package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/docucompare/backend/internal/core/domain"
	"github.com/docucompare/backend/internal/core/ports"
)

// ExtractUseCase is the extractor service's work loop body: pull the blob,
// extract plain text, report the outcome to the backend callback. An
// extraction failure is a business outcome delivered via the callback, not
// an error of this use case; only an undeliverable callback is.
type ExtractUseCase struct {
	extractor ports.TextExtractor
	deliverer ports.CallbackDeliverer
}

func NewExtractUseCase(extractor ports.TextExtractor, deliverer ports.CallbackDeliverer) *ExtractUseCase {
	return &ExtractUseCase{extractor: extractor, deliverer: deliverer}
}

func (uc *ExtractUseCase) Process(ctx context.Context, job domain.ExtractionJob) error {
	callback := domain.ExtractionCallback{
		FileID:  job.FileID,
		Outcome: domain.CallbackSuccess,
	}

	text, err := uc.extractor.Extract(ctx, job.BlobPath)
	switch {
	case err != nil:
		slog.Warn("text extraction failed",
			"file_id", job.FileID, "blob_path", job.BlobPath, "error", err)
		callback.Outcome = domain.CallbackFailure
	case strings.TrimSpace(text) == "":
		slog.Warn("text extraction produced no content",
			"file_id", job.FileID, "blob_path", job.BlobPath)
		callback.Outcome = domain.CallbackFailure
	default:
		callback.ExtractedText = text
	}

	if err := uc.deliverer.Deliver(ctx, job.CallbackURL, callback); err != nil {
		return fmt.Errorf("deliver extraction callback: %w", err)
	}
	return nil
}
