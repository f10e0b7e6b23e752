package domain

import (
	"io"
	"time"
)

// FileUpload is one file payload inside a batch upload request.
type FileUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// BatchUploadInput carries a whole upload request. ConversationID may be
// empty or stale; the orchestrator resolves or creates the conversation
// before any file is processed.
type BatchUploadInput struct {
	UserID         string
	ConversationID string
	Files          []FileUpload
}

// UploadedFile is the per-file success descriptor returned to the caller.
type UploadedFile struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	FileName       string    `json:"file_name"`
	FileSize       int64     `json:"file_size"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// FileUploadResult holds either the descriptor or the per-file failure.
// One file's failure never aborts its batch siblings.
type FileUploadResult struct {
	File *UploadedFile
	Err  error
}

// BatchUploadResult keeps results in submission order.
type BatchUploadResult struct {
	ConversationID string
	Results        []FileUploadResult
}
