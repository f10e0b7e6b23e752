package usecase

import (
	"context"
	"fmt"

	"github.com/docucompare/backend/internal/core/domain"
	"github.com/docucompare/backend/internal/core/ports"
)

// FileQueryUseCase serves the metadata read and delete paths. File content
// and extracted text are never returned here.
type FileQueryUseCase struct {
	files ports.FileRepository
}

func NewFileQueryUseCase(files ports.FileRepository) *FileQueryUseCase {
	return &FileQueryUseCase{files: files}
}

func (uc *FileQueryUseCase) ListByConversation(ctx context.Context, conversationID string) ([]domain.FileRecord, error) {
	if conversationID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "list files", fmt.Errorf("conversation id is required"))
	}
	records, err := uc.files.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list files by conversation: %w", err)
	}
	return records, nil
}

func (uc *FileQueryUseCase) Get(ctx context.Context, conversationID, fileID string) (*domain.FileRecord, error) {
	record, err := uc.files.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if record.ConversationID != conversationID {
		return nil, domain.WrapError(domain.ErrFileNotFound, "get file",
			fmt.Errorf("file %s does not belong to conversation %s", fileID, conversationID))
	}
	return record, nil
}

// Delete removes the metadata record only; the blob stays in the object
// store. The bool reports whether a record existed.
func (uc *FileQueryUseCase) Delete(ctx context.Context, fileID string) (bool, error) {
	deleted, err := uc.files.Delete(ctx, fileID)
	if err != nil {
		return false, fmt.Errorf("delete file: %w", err)
	}
	return deleted, nil
}
