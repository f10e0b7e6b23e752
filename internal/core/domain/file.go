package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

type FileStatus string

const (
	StatusUploaded         FileStatus = "UPLOADED"
	StatusProcessing       FileStatus = "PROCESSING"
	StatusExtracted        FileStatus = "EXTRACTED"
	StatusFailedTrigger    FileStatus = "FAILED_TRIGGER"
	StatusFailedExtraction FileStatus = "FAILED_EXTRACTION"
)

// IsTerminal reports whether no further automatic transition leaves s.
func (s FileStatus) IsTerminal() bool {
	switch s {
	case StatusExtracted, StatusFailedTrigger, StatusFailedExtraction:
		return true
	}
	return false
}

// CanTransition encodes the only legal status edges:
// UPLOADED -> PROCESSING | FAILED_TRIGGER, PROCESSING -> EXTRACTED | FAILED_EXTRACTION.
func (s FileStatus) CanTransition(to FileStatus) bool {
	switch s {
	case StatusUploaded:
		return to == StatusProcessing || to == StatusFailedTrigger
	case StatusProcessing:
		return to == StatusExtracted || to == StatusFailedExtraction
	}
	return false
}

// FileRecord is the metadata document for one uploaded file. The status field
// and updated_at are the only mutable fields after creation.
type FileRecord struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	ConversationID string     `json:"conversation_id"`
	FileName       string     `json:"file_name"`
	FileSize       int64      `json:"file_size"`
	BlobPath       string     `json:"blob_path"`
	Status         FileStatus `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// BlobPathFor builds the object store key for a file. The key is namespaced
// by file id, so two files can never collide even with identical names.
func BlobPathFor(fileID, fileName string) string {
	return fmt.Sprintf("raw/%s/%s", fileID, SanitizeFileName(fileName))
}

func SanitizeFileName(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "file.bin"
	}
	return base
}
