package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/docucompare/backend/internal/core/domain"
	"github.com/docucompare/backend/internal/observability/metrics"
)

type ingestorFake struct {
	input  domain.BatchUploadInput
	result *domain.BatchUploadResult
	err    error
}

func (f *ingestorFake) UploadBatch(_ context.Context, input domain.BatchUploadInput) (*domain.BatchUploadResult, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type applierFake struct {
	callback domain.ExtractionCallback
	err      error
}

func (f *applierFake) Apply(_ context.Context, callback domain.ExtractionCallback) error {
	f.callback = callback
	return f.err
}

type readerFake struct {
	records []domain.FileRecord
	record  *domain.FileRecord
	err     error
}

func (f *readerFake) ListByConversation(context.Context, string) ([]domain.FileRecord, error) {
	return f.records, f.err
}

func (f *readerFake) Get(context.Context, string, string) (*domain.FileRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.record, nil
}

type deleterFake struct {
	fileID  string
	deleted bool
	err     error
}

func (f *deleterFake) Delete(_ context.Context, fileID string) (bool, error) {
	f.fileID = fileID
	return f.deleted, f.err
}

type routerFixture struct {
	ingestor *ingestorFake
	applier  *applierFake
	reader   *readerFake
	deleter  *deleterFake
	handler  http.Handler
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	f := &routerFixture{
		ingestor: &ingestorFake{result: &domain.BatchUploadResult{ConversationID: "conv-1"}},
		applier:  &applierFake{},
		reader:   &readerFake{},
		deleter:  &deleterFake{},
	}
	router := NewRouter("api-test", f.ingestor, f.applier, f.reader, f.deleter,
		metrics.NewHTTPServerMetrics("api-test"), 0, 0)
	f.handler = router.Handler()
	return f
}

func multipartUpload(t *testing.T, conversationID string, names ...string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if conversationID != "" {
		if err := writer.WriteField("conversation_id", conversationID); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for _, name := range names {
		part, err := writer.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write([]byte("content of " + name)); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &body, writer.FormDataContentType()
}

func TestBatchUploadReturnsPerFileResults(t *testing.T) {
	f := newRouterFixture(t)
	f.ingestor.result = &domain.BatchUploadResult{
		ConversationID: "conv-1",
		Results: []domain.FileUploadResult{
			{File: &domain.UploadedFile{ID: "f1", ConversationID: "conv-1", FileName: "a.txt", FileSize: 14}},
			{Err: domain.WrapError(domain.ErrStorage, "put object", context.DeadlineExceeded)},
		},
	}

	body, contentType := multipartUpload(t, "conv-1", "a.txt", "b.txt")
	req := httptest.NewRequest(http.MethodPost, "/v1/conversations/batch_upload_file", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-User-Id", "user-1")
	res := httptest.NewRecorder()
	f.handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var resp struct {
		ConversationID string           `json:"conversation_id"`
		Files          []map[string]any `json:"files"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ConversationID != "conv-1" {
		t.Fatalf("expected conv-1, got %q", resp.ConversationID)
	}
	if len(resp.Files) != 2 {
		t.Fatalf("expected 2 file entries, got %d", len(resp.Files))
	}
	if resp.Files[0]["id"] != "f1" {
		t.Fatalf("expected first entry to be the descriptor, got %v", resp.Files[0])
	}
	if resp.Files[1]["error"] == "" || resp.Files[1]["file_name"] != "b.txt" {
		t.Fatalf("expected second entry to carry the failure, got %v", resp.Files[1])
	}

	if f.ingestor.input.UserID != "user-1" || len(f.ingestor.input.Files) != 2 {
		t.Fatalf("unexpected ingestor input %+v", f.ingestor.input)
	}
}

func TestBatchUploadRequiresUserHeader(t *testing.T) {
	f := newRouterFixture(t)

	body, contentType := multipartUpload(t, "", "a.txt")
	req := httptest.NewRequest(http.MethodPost, "/v1/conversations/batch_upload_file", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	f.handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestBatchUploadRequiresFiles(t *testing.T) {
	f := newRouterFixture(t)

	body, contentType := multipartUpload(t, "conv-1")
	req := httptest.NewRequest(http.MethodPost, "/v1/conversations/batch_upload_file", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-User-Id", "user-1")
	res := httptest.NewRecorder()
	f.handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestCallbackConflictOnOutOfOrder(t *testing.T) {
	f := newRouterFixture(t)
	f.applier.err = domain.WrapError(domain.ErrOutOfOrderCallback, "apply callback", domain.ErrFileNotFound)

	body := strings.NewReader(`{"file_id":"f1","outcome":"success","extracted_text":"hello"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/extraction/callback", body)
	res := httptest.NewRecorder()
	f.handler.ServeHTTP(res, req)

	if res.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", res.Code)
	}
}

func TestCallbackApplied(t *testing.T) {
	f := newRouterFixture(t)

	body := strings.NewReader(`{"file_id":"f1","outcome":"failure"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/extraction/callback", body)
	res := httptest.NewRecorder()
	f.handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if f.applier.callback.FileID != "f1" || f.applier.callback.Outcome != domain.CallbackFailure {
		t.Fatalf("unexpected callback %+v", f.applier.callback)
	}
}

func TestListFiles(t *testing.T) {
	f := newRouterFixture(t)
	f.reader.records = []domain.FileRecord{
		{ID: "f1", ConversationID: "conv-1", FileName: "a.txt", Status: domain.StatusExtracted},
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/conversations/conv-1/files", nil)
	res := httptest.NewRecorder()
	f.handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var resp struct {
		Files []domain.FileRecord `json:"files"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Files) != 1 || resp.Files[0].ID != "f1" {
		t.Fatalf("unexpected listing %+v", resp.Files)
	}
}

func TestGetMissingFileReturns404(t *testing.T) {
	f := newRouterFixture(t)
	f.reader.err = domain.ErrFileNotFound

	req := httptest.NewRequest(http.MethodGet, "/v1/conversations/conv-1/files/missing", nil)
	res := httptest.NewRecorder()
	f.handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestDeleteMissingFileIsNoContent(t *testing.T) {
	f := newRouterFixture(t)
	f.deleter.deleted = false

	req := httptest.NewRequest(http.MethodDelete, "/v1/conversations/conv-1/files/missing", nil)
	res := httptest.NewRecorder()
	f.handler.ServeHTTP(res, req)

	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Code)
	}
	if f.deleter.fileID != "missing" {
		t.Fatalf("expected delete call for 'missing', got %q", f.deleter.fileID)
	}
}

func TestRateLimitMiddlewareReturns429(t *testing.T) {
	f := &routerFixture{
		ingestor: &ingestorFake{},
		applier:  &applierFake{},
		reader:   &readerFake{},
		deleter:  &deleterFake{},
	}
	router := NewRouter("api-test", f.ingestor, f.applier, f.reader, f.deleter,
		metrics.NewHTTPServerMetrics("api-test"), 1, 1)
	handler := router.Handler()

	req1 := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res1 := httptest.NewRecorder()
	handler.ServeHTTP(res1, req1)
	if res1.Code != http.StatusOK {
		t.Fatalf("first request expected 200, got %d", res1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res2 := httptest.NewRecorder()
	handler.ServeHTTP(res2, req2)
	if res2.Code != http.StatusTooManyRequests {
		t.Fatalf("second request expected 429, got %d", res2.Code)
	}
	if res2.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header for 429 response")
	}
}

func TestBackpressureMiddlewareReturns503WhenSaturated(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan int, 1)

	base := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		started <- struct{}{}
		<-release
		w.WriteHeader(http.StatusNoContent)
	})
	handler := backpressureMiddleware(base, 1, 20*time.Millisecond)

	go func() {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		done <- res.Code
	}()

	<-started

	req2 := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res2 := httptest.NewRecorder()
	handler.ServeHTTP(res2, req2)
	if res2.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for saturated gate, got %d", res2.Code)
	}

	close(release)

	select {
	case code := <-done:
		if code != http.StatusNoContent {
			t.Fatalf("first request expected 204, got %d", code)
		}
	case <-time.After(1 * time.Second):
		t.Fatalf("timed out waiting for first request completion")
	}
}
