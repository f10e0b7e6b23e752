// Package extraction holds the outbound trigger client for the external
// extraction service.
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/docucompare/backend/internal/core/domain"
)

// triggerTimeout bounds every trigger call. A timeout is handled exactly
// like an unreachable service.
const triggerTimeout = 5 * time.Second

type Client struct {
	serviceURL  string
	callbackURL string
	mockMode    bool
	httpClient  *http.Client
}

// NewClient builds a trigger client. In mock mode (unconfigured
// deployments) every trigger short-circuits to Accepted without any
// network call, so the pipeline works fully offline.
func NewClient(serviceURL, callbackURL string, mockMode bool) *Client {
	return &Client{
		serviceURL:  strings.TrimSpace(serviceURL),
		callbackURL: strings.TrimSpace(callbackURL),
		mockMode:    mockMode,
		httpClient:  &http.Client{Timeout: triggerTimeout},
	}
}

// TriggerExtraction hands a stored file to the extraction service. The
// outcome tells the caller which status to write; this client never
// touches the repository, never retries and carries no breaker. A failed
// trigger is user-visible in file status and safe to re-attempt.
func (c *Client) TriggerExtraction(ctx context.Context, fileID, blobPath string) domain.TriggerOutcome {
	if c.mockMode {
		slog.Info("mocking extraction trigger", "file_id", fileID)
		return domain.TriggerAccepted
	}

	payload := domain.ExtractionJob{
		FileID:      fileID,
		BlobPath:    blobPath,
		CallbackURL: c.callbackURL,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal trigger payload", "file_id", fileID, "error", err)
		return domain.TriggerRejected
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serviceURL, bytes.NewReader(body))
	if err != nil {
		slog.Error("build trigger request", "file_id", fileID, "error", err)
		return domain.TriggerRejected
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("extraction service unreachable", "file_id", fileID, "error", err)
		return domain.TriggerUnreachable
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return domain.TriggerAccepted
	}

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	slog.Warn("extraction trigger rejected",
		"file_id", fileID, "status", resp.StatusCode, "detail", strings.TrimSpace(string(detail)))
	return domain.TriggerRejected
}
