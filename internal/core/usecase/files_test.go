package usecase

import (
	"context"
	"testing"

	"github.com/docucompare/backend/internal/core/domain"
)

func TestGetRejectsConversationMismatch(t *testing.T) {
	files := newFileRepoFake()
	seedFile(t, files, "f1", domain.StatusProcessing)
	uc := NewFileQueryUseCase(files)

	if _, err := uc.Get(context.Background(), "conv-1", "f1"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	_, err := uc.Get(context.Background(), "another-conv", "f1")
	if !domain.IsKind(err, domain.ErrFileNotFound) {
		t.Fatalf("expected not found for foreign conversation, got %v", err)
	}
}

func TestListByConversation(t *testing.T) {
	files := newFileRepoFake()
	seedFile(t, files, "f1", domain.StatusProcessing)
	seedFile(t, files, "f2", domain.StatusFailedTrigger)
	uc := NewFileQueryUseCase(files)

	records, err := uc.ListByConversation(context.Background(), "conv-1")
	if err != nil {
		t.Fatalf("ListByConversation() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	if _, err := uc.ListByConversation(context.Background(), ""); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty conversation id, got %v", err)
	}
}

func TestDeleteMissingFileReportsNoModification(t *testing.T) {
	uc := NewFileQueryUseCase(newFileRepoFake())

	deleted, err := uc.Delete(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if deleted {
		t.Fatalf("expected no record to be deleted")
	}
}

func TestDeleteExistingFile(t *testing.T) {
	files := newFileRepoFake()
	seedFile(t, files, "f1", domain.StatusExtracted)
	uc := NewFileQueryUseCase(files)

	deleted, err := uc.Delete(context.Background(), "f1")
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !deleted {
		t.Fatalf("expected deletion")
	}
	if files.count() != 0 {
		t.Fatalf("expected empty repo, got %d records", files.count())
	}
}
