package ports

import (
	"context"
	"io"
	"time"

	"github.com/docucompare/backend/internal/core/domain"
)

// FileRepository persists and reads file metadata. All operations are
// single-document point writes; there is no cross-record transaction.
type FileRepository interface {
	Create(ctx context.Context, record *domain.FileRecord) error
	GetByID(ctx context.Context, id string) (*domain.FileRecord, error)
	// UpdateStatus sets the status and stamps updated_at with at, so the
	// caller can echo the exact stored timestamp. The bool reports whether
	// a record was actually modified; false means the id does not exist
	// and is a logic error on the caller's side.
	UpdateStatus(ctx context.Context, id string, status domain.FileStatus, at time.Time) (bool, error)
	ListByConversation(ctx context.Context, conversationID string) ([]domain.FileRecord, error)
	Delete(ctx context.Context, id string) (bool, error)
	SaveExtractedText(ctx context.Context, id, text string) error
}

// ConversationRepository resolves and creates the owning conversations.
type ConversationRepository interface {
	Create(ctx context.Context, conversation *domain.Conversation) error
	GetByID(ctx context.Context, id string) (*domain.Conversation, error)
}

// ObjectStorage stores raw uploaded bytes under caller-supplied keys.
type ObjectStorage interface {
	Upload(ctx context.Context, content io.Reader, size int64, contentType, key string) error
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// ExtractionTrigger starts asynchronous extraction for a stored file.
// Implementations never retry; a failed trigger is visible in file status
// and recoverable by re-upload.
type ExtractionTrigger interface {
	TriggerExtraction(ctx context.Context, fileID, blobPath string) domain.TriggerOutcome
}

// ExtractionQueue carries extraction jobs inside the extractor service.
type ExtractionQueue interface {
	PublishExtractionJob(ctx context.Context, job domain.ExtractionJob) error
	SubscribeExtractionJobs(ctx context.Context, handler func(context.Context, domain.ExtractionJob) error) error
}

// TextExtractor turns stored bytes into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, blobPath string) (string, error)
}

// CallbackDeliverer posts an extraction result to the backend callback URL.
type CallbackDeliverer interface {
	Deliver(ctx context.Context, callbackURL string, callback domain.ExtractionCallback) error
}
