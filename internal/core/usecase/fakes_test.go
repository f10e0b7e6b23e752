package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/docucompare/backend/internal/core/domain"
)

type fileRepoFake struct {
	mu        sync.Mutex
	records   map[string]*domain.FileRecord
	texts     map[string]string
	createErr error
	updateErr error
}

func newFileRepoFake() *fileRepoFake {
	return &fileRepoFake{
		records: make(map[string]*domain.FileRecord),
		texts:   make(map[string]string),
	}
}

func (f *fileRepoFake) Create(_ context.Context, record *domain.FileRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	copied := *record
	f.records[record.ID] = &copied
	return nil
}

func (f *fileRepoFake) GetByID(_ context.Context, id string) (*domain.FileRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrFileNotFound, "get file", fmt.Errorf("id %s", id))
	}
	copied := *record
	return &copied, nil
}

func (f *fileRepoFake) UpdateStatus(_ context.Context, id string, status domain.FileStatus, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return false, f.updateErr
	}
	record, ok := f.records[id]
	if !ok {
		return false, nil
	}
	record.Status = status
	record.UpdatedAt = at
	return true, nil
}

func (f *fileRepoFake) ListByConversation(_ context.Context, conversationID string) ([]domain.FileRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.FileRecord
	for _, record := range f.records {
		if record.ConversationID == conversationID {
			out = append(out, *record)
		}
	}
	return out, nil
}

func (f *fileRepoFake) Delete(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[id]; !ok {
		return false, nil
	}
	delete(f.records, id)
	return true, nil
}

func (f *fileRepoFake) SaveExtractedText(_ context.Context, id, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts[id] = text
	return nil
}

func (f *fileRepoFake) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func (f *fileRepoFake) statusOf(id string) domain.FileStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	if record, ok := f.records[id]; ok {
		return record.Status
	}
	return ""
}

func (f *fileRepoFake) updatedAtOf(id string) time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	if record, ok := f.records[id]; ok {
		return record.UpdatedAt
	}
	return time.Time{}
}

type conversationRepoFake struct {
	mu            sync.Mutex
	conversations map[string]*domain.Conversation
	created       int
}

func newConversationRepoFake() *conversationRepoFake {
	return &conversationRepoFake{conversations: make(map[string]*domain.Conversation)}
}

func (f *conversationRepoFake) Create(_ context.Context, conversation *domain.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *conversation
	f.conversations[conversation.ID] = &copied
	f.created++
	return nil
}

func (f *conversationRepoFake) GetByID(_ context.Context, id string) (*domain.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conversation, ok := f.conversations[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrConversationNotFound, "get conversation", fmt.Errorf("id %s", id))
	}
	copied := *conversation
	return &copied, nil
}

type objectStorageFake struct {
	mu         sync.Mutex
	objects    map[string][]byte
	failOnName string
}

func newObjectStorageFake() *objectStorageFake {
	return &objectStorageFake{objects: make(map[string][]byte)}
}

func (f *objectStorageFake) Upload(_ context.Context, content io.Reader, _ int64, _ string, key string) error {
	if f.failOnName != "" && strings.Contains(key, f.failOnName) {
		return domain.WrapError(domain.ErrStorage, "put object", fmt.Errorf("forced failure for %s", key))
	}
	raw, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = raw
	return nil
}

func (f *objectStorageFake) PresignedURL(context.Context, string, time.Duration) (string, error) {
	return "http://presigned.example/object", nil
}

func (f *objectStorageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.objects[key]
	if !ok {
		return nil, domain.WrapError(domain.ErrStorage, "get object", fmt.Errorf("missing key %s", key))
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (f *objectStorageFake) countObjects() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

type triggerFake struct {
	mu      sync.Mutex
	outcome domain.TriggerOutcome
	fileIDs []string
}

func (f *triggerFake) TriggerExtraction(_ context.Context, fileID, _ string) domain.TriggerOutcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fileIDs = append(f.fileIDs, fileID)
	return f.outcome
}
