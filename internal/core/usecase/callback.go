package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/docucompare/backend/internal/core/domain"
	"github.com/docucompare/backend/internal/core/ports"
)

// ApplyCallbackUseCase advances a file from PROCESSING to its terminal
// outcome when the extraction service reports back. The PROCESSING
// precondition is the race-resolution mechanism against late, replayed or
// duplicate callbacks.
type ApplyCallbackUseCase struct {
	files ports.FileRepository
}

func NewApplyCallbackUseCase(files ports.FileRepository) *ApplyCallbackUseCase {
	return &ApplyCallbackUseCase{files: files}
}

func (uc *ApplyCallbackUseCase) Apply(ctx context.Context, callback domain.ExtractionCallback) error {
	if callback.FileID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "apply callback", fmt.Errorf("file id is required"))
	}
	if callback.Outcome != domain.CallbackSuccess && callback.Outcome != domain.CallbackFailure {
		return domain.WrapError(domain.ErrInvalidInput, "apply callback",
			fmt.Errorf("unknown outcome %q", callback.Outcome))
	}

	record, err := uc.files.GetByID(ctx, callback.FileID)
	if err != nil {
		if domain.IsKind(err, domain.ErrFileNotFound) {
			return domain.WrapError(domain.ErrOutOfOrderCallback, "apply callback", err)
		}
		return fmt.Errorf("fetch file for callback: %w", err)
	}

	// Redelivered success for an already extracted file is a no-op.
	if callback.Outcome == domain.CallbackSuccess && record.Status == domain.StatusExtracted {
		return nil
	}

	target := domain.StatusExtracted
	if callback.Outcome == domain.CallbackFailure {
		target = domain.StatusFailedExtraction
	}
	if !record.Status.CanTransition(target) {
		return domain.WrapError(domain.ErrOutOfOrderCallback, "apply callback",
			fmt.Errorf("file %s cannot move from %s to %s", record.ID, record.Status, target))
	}

	if callback.Outcome == domain.CallbackSuccess && callback.ExtractedText != "" {
		if err := uc.files.SaveExtractedText(ctx, record.ID, callback.ExtractedText); err != nil {
			return fmt.Errorf("save extracted text: %w", err)
		}
	}

	modified, err := uc.files.UpdateStatus(ctx, record.ID, target, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set status=%s: %w", target, err)
	}
	if !modified {
		return domain.WrapError(domain.ErrOutOfOrderCallback, "apply callback",
			fmt.Errorf("file %s vanished before status write", record.ID))
	}
	return nil
}
