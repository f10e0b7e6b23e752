package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/docucompare/backend/internal/core/domain"
	"github.com/docucompare/backend/internal/core/ports"
)

// ExtractorRouter is the extractor service's inbound surface. Accepted
// jobs are queued and worked on asynchronously; the result travels back
// over the job's callback URL, never over this response.
type ExtractorRouter struct {
	queue ports.ExtractionQueue
}

func NewExtractorRouter(queue ports.ExtractionQueue) *ExtractorRouter {
	return &ExtractorRouter{queue: queue}
}

func (rt *ExtractorRouter) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/api/extract", rt.extract)

	handler := accessLogMiddleware(mux)
	return requestIDMiddleware(handler)
}

func (rt *ExtractorRouter) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *ExtractorRouter) extract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var job domain.ExtractionJob
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(job.FileID) == "" || strings.TrimSpace(job.BlobPath) == "" || strings.TrimSpace(job.CallbackURL) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file_id, blob_path and callback_url are required"})
		return
	}

	if err := rt.queue.PublishExtractionJob(r.Context(), job); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}
