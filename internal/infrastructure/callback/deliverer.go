// Package callback posts extraction results back to the ingestion API.
package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/docucompare/backend/internal/core/domain"
	"github.com/docucompare/backend/internal/infrastructure/resilience"
)

const deliverTimeout = 10 * time.Second

type Deliverer struct {
	httpClient *http.Client
	executor   *resilience.Executor
}

func NewDeliverer(executor *resilience.Executor) *Deliverer {
	return &Deliverer{
		httpClient: &http.Client{Timeout: deliverTimeout},
		executor:   executor,
	}
}

// Deliver posts the callback to callbackURL. Transient failures are
// retried under the executor; a 4xx answer means the receiver will never
// accept this payload and stops delivery immediately. The receiving
// handler is idempotent, so redelivery after a lost response is safe.
func (d *Deliverer) Deliver(ctx context.Context, callbackURL string, cb domain.ExtractionCallback) error {
	body, err := json.Marshal(cb)
	if err != nil {
		return fmt.Errorf("marshal callback: %w", err)
	}

	return d.executor.Run(ctx, callbackURL, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, callbackURL, bytes.NewReader(body))
		if err != nil {
			return resilience.Permanent(fmt.Errorf("build callback request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := d.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("post callback: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}

		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		statusErr := fmt.Errorf("callback rejected with status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return resilience.Permanent(statusErr)
		}
		return statusErr
	})
}
