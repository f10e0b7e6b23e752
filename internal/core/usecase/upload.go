package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/docucompare/backend/internal/core/domain"
	"github.com/docucompare/backend/internal/core/ports"
)

// BatchUploadUseCase turns each uploaded file into a tracked FileRecord via
// a best-effort saga: object store write, then metadata write, then the
// extraction trigger. Files in a batch are isolated from each other and run
// concurrently on a bounded pool.
type BatchUploadUseCase struct {
	files         ports.FileRepository
	conversations ports.ConversationRepository
	storage       ports.ObjectStorage
	trigger       ports.ExtractionTrigger
	pool          *ants.Pool
}

func NewBatchUploadUseCase(
	files ports.FileRepository,
	conversations ports.ConversationRepository,
	storage ports.ObjectStorage,
	trigger ports.ExtractionTrigger,
	concurrency int,
) (*BatchUploadUseCase, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	pool, err := ants.NewPool(concurrency)
	if err != nil {
		return nil, fmt.Errorf("create upload pool: %w", err)
	}
	return &BatchUploadUseCase{
		files:         files,
		conversations: conversations,
		storage:       storage,
		trigger:       trigger,
		pool:          pool,
	}, nil
}

func (uc *BatchUploadUseCase) Release() {
	if uc.pool != nil {
		uc.pool.Release()
	}
}

func (uc *BatchUploadUseCase) UploadBatch(ctx context.Context, input domain.BatchUploadInput) (*domain.BatchUploadResult, error) {
	if len(input.Files) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload batch", fmt.Errorf("no files provided"))
	}

	conversation, err := uc.resolveConversation(ctx, input.UserID, input.ConversationID)
	if err != nil {
		return nil, err
	}

	results := make([]domain.FileUploadResult, len(input.Files))
	var wg sync.WaitGroup
	for i := range input.Files {
		idx := i
		file := input.Files[i]
		wg.Add(1)
		task := func() {
			defer wg.Done()
			results[idx] = uc.ingestOne(ctx, conversation, file)
		}
		if err := uc.pool.Submit(task); err != nil {
			wg.Done()
			results[idx] = domain.FileUploadResult{
				Err: domain.WrapError(domain.ErrTemporary, "schedule ingestion", err),
			}
		}
	}
	wg.Wait()

	return &domain.BatchUploadResult{
		ConversationID: conversation.ID,
		Results:        results,
	}, nil
}

// resolveConversation finds the owning conversation or creates a fresh one.
// A missing conversation with no known user is the only condition that
// aborts the batch before any file is processed.
func (uc *BatchUploadUseCase) resolveConversation(ctx context.Context, userID, conversationID string) (*domain.Conversation, error) {
	if conversationID != "" {
		conversation, err := uc.conversations.GetByID(ctx, conversationID)
		if err == nil {
			return conversation, nil
		}
		if !domain.IsKind(err, domain.ErrConversationNotFound) {
			return nil, fmt.Errorf("resolve conversation: %w", err)
		}
	}

	if userID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "resolve conversation",
			fmt.Errorf("user id is required when no valid conversation is provided"))
	}

	now := time.Now().UTC()
	conversation := &domain.Conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.conversations.Create(ctx, conversation); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return conversation, nil
}

// ingestOne runs the three-stage pipeline for a single file. Ordering is
// strict: the blob must be durable before the metadata record exists, and
// the record must exist before the trigger fires.
func (uc *BatchUploadUseCase) ingestOne(ctx context.Context, conversation *domain.Conversation, file domain.FileUpload) domain.FileUploadResult {
	fileID := uuid.NewString()
	blobPath := domain.BlobPathFor(fileID, file.FileName)

	if err := uc.storage.Upload(ctx, file.Content, file.Size, file.ContentType, blobPath); err != nil {
		slog.Error("blob upload failed",
			"file_id", fileID, "blob_path", blobPath, "stage", "blob_upload", "error", err)
		return domain.FileUploadResult{Err: fmt.Errorf("upload blob: %w", err)}
	}

	now := time.Now().UTC()
	record := &domain.FileRecord{
		ID:             fileID,
		UserID:         conversation.UserID,
		ConversationID: conversation.ID,
		FileName:       file.FileName,
		FileSize:       file.Size,
		BlobPath:       blobPath,
		Status:         domain.StatusUploaded,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.files.Create(ctx, record); err != nil {
		// The blob is already durable; nothing reconciles it yet.
		slog.Error("metadata write failed, blob orphaned",
			"file_id", fileID, "blob_path", blobPath, "stage", "metadata_create", "error", err)
		return domain.FileUploadResult{Err: fmt.Errorf("create file metadata: %w", err)}
	}

	next := domain.StatusProcessing
	outcome := uc.trigger.TriggerExtraction(ctx, fileID, blobPath)
	if outcome != domain.TriggerAccepted {
		slog.Warn("extraction trigger not accepted",
			"file_id", fileID, "outcome", outcome.String(), "stage", "trigger")
		next = domain.StatusFailedTrigger
	}
	statusTime := time.Now().UTC()
	modified, err := uc.files.UpdateStatus(ctx, fileID, next, statusTime)
	if err != nil {
		return domain.FileUploadResult{Err: fmt.Errorf("set status=%s: %w", next, err)}
	}
	if !modified {
		return domain.FileUploadResult{Err: domain.WrapError(domain.ErrMetadataWrite, "set status",
			fmt.Errorf("record %s disappeared before status write", fileID))}
	}

	// A failed trigger is not an ingestion failure: the record stays
	// visible in FAILED_TRIGGER and the blob is kept for re-upload.
	return domain.FileUploadResult{File: &domain.UploadedFile{
		ID:             record.ID,
		ConversationID: record.ConversationID,
		UserID:         record.UserID,
		FileName:       record.FileName,
		FileSize:       record.FileSize,
		CreatedAt:      record.CreatedAt,
		UpdatedAt:      statusTime,
	}}
}
