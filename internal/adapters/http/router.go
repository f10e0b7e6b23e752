// Package httpadapter exposes the ingestion pipeline over HTTP.
package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/docucompare/backend/internal/core/domain"
	"github.com/docucompare/backend/internal/core/ports"
	"github.com/docucompare/backend/internal/observability/metrics"
)

const (
	maxMultipartMemory = 32 << 20

	uploadMaxInFlight = 16
	uploadMaxWait     = 100 * time.Millisecond
)

type Router struct {
	service  string
	ingestor ports.FileIngestor
	applier  ports.CallbackApplier
	reader   ports.FileReader
	deleter  ports.FileDeleter
	metrics  *metrics.HTTPServerMetrics

	rateLimitRPS   float64
	rateLimitBurst int
}

func NewRouter(
	service string,
	ingestor ports.FileIngestor,
	applier ports.CallbackApplier,
	reader ports.FileReader,
	deleter ports.FileDeleter,
	m *metrics.HTTPServerMetrics,
	rateLimitRPS float64,
	rateLimitBurst int,
) *Router {
	return &Router{
		service:        service,
		ingestor:       ingestor,
		applier:        applier,
		reader:         reader,
		deleter:        deleter,
		metrics:        m,
		rateLimitRPS:   rateLimitRPS,
		rateLimitBurst: rateLimitBurst,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.Handle("/metrics", rt.metrics.Handler())
	mux.Handle("/v1/conversations/batch_upload_file",
		backpressureMiddleware(http.HandlerFunc(rt.batchUpload), uploadMaxInFlight, uploadMaxWait))
	mux.HandleFunc("/v1/conversations/", rt.conversationFiles)
	mux.HandleFunc("/api/extraction/callback", rt.extractionCallback)

	handler := rt.metrics.Middleware(rt.service, mux)
	handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) batchUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "X-User-Id header is required"})
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart form is required"})
		return
	}
	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'files' is required"})
		return
	}

	uploads := make([]domain.FileUpload, 0, len(fileHeaders))
	for _, header := range fileHeaders {
		file, err := header.Open()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable multipart file " + header.Filename})
			return
		}
		defer file.Close()

		uploads = append(uploads, domain.FileUpload{
			FileName:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Content:     file,
		})
	}

	result, err := rt.ingestor.UploadBatch(r.Context(), domain.BatchUploadInput{
		UserID:         userID,
		ConversationID: strings.TrimSpace(r.FormValue("conversation_id")),
		Files:          uploads,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	rt.metrics.RecordBatch(rt.service, len(uploads))
	files := make([]any, 0, len(result.Results))
	for i, res := range result.Results {
		if res.Err != nil {
			rt.metrics.RecordUpload(rt.service, "failed", uploads[i].Size)
			files = append(files, map[string]string{
				"file_name": uploads[i].FileName,
				"error":     res.Err.Error(),
			})
			continue
		}
		rt.metrics.RecordUpload(rt.service, "accepted", res.File.FileSize)
		files = append(files, res.File)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"conversation_id": result.ConversationID,
		"files":           files,
	})
}

// conversationFiles serves the read and delete surface:
//
//	GET    /v1/conversations/{conversation_id}/files
//	GET    /v1/conversations/{conversation_id}/files/{file_id}
//	DELETE /v1/conversations/{conversation_id}/files/{file_id}
func (rt *Router) conversationFiles(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/conversations/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")

	switch {
	case len(parts) == 2 && parts[1] == "files":
		rt.listFiles(w, r, parts[0])
	case len(parts) == 3 && parts[1] == "files":
		rt.fileByID(w, r, parts[0], parts[2])
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	}
}

func (rt *Router) listFiles(w http.ResponseWriter, r *http.Request, conversationID string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	records, err := rt.reader.ListByConversation(r.Context(), conversationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": records})
}

func (rt *Router) fileByID(w http.ResponseWriter, r *http.Request, conversationID, fileID string) {
	switch r.Method {
	case http.MethodGet:
		record, err := rt.reader.Get(r.Context(), conversationID, fileID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, record)
	case http.MethodDelete:
		// Deleting an absent record is a success; the outcome is the same.
		if _, err := rt.deleter.Delete(r.Context(), fileID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) extractionCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var callback domain.ExtractionCallback
	if err := json.NewDecoder(r.Body).Decode(&callback); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	if err := rt.applier.Apply(r.Context(), callback); err != nil {
		rt.metrics.RecordCallback(rt.service, string(callback.Outcome), "rejected")
		writeError(w, err)
		return
	}

	rt.metrics.RecordCallback(rt.service, string(callback.Outcome), "applied")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
