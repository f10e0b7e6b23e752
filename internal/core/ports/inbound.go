package ports

import (
	"context"

	"github.com/docucompare/backend/internal/core/domain"
)

// FileIngestor is the inbound contract for batch file upload orchestration.
type FileIngestor interface {
	UploadBatch(ctx context.Context, input domain.BatchUploadInput) (*domain.BatchUploadResult, error)
}

// CallbackApplier advances a file to its terminal outcome when the
// extraction service reports completion.
type CallbackApplier interface {
	Apply(ctx context.Context, callback domain.ExtractionCallback) error
}

// FileReader is the inbound read model for file metadata.
type FileReader interface {
	ListByConversation(ctx context.Context, conversationID string) ([]domain.FileRecord, error)
	Get(ctx context.Context, conversationID, fileID string) (*domain.FileRecord, error)
}

// FileDeleter removes file metadata. The stored blob is intentionally
// left in place.
type FileDeleter interface {
	Delete(ctx context.Context, fileID string) (bool, error)
}

// ExtractionProcessor is the inbound contract for asynchronous extraction
// work inside the extractor service.
type ExtractionProcessor interface {
	Process(ctx context.Context, job domain.ExtractionJob) error
}
