// Package nats carries extraction jobs between the extractor's HTTP
// front and its worker loop.
package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/docucompare/backend/internal/core/domain"
)

const workerGroup = "extractors"

type Queue struct {
	conn    *nats.Conn
	subject string
}

type Options struct {
	ConnectTimeout time.Duration
	ReconnectWait  time.Duration
	MaxReconnects  int
}

func New(url, subject string) (*Queue, error) {
	return NewWithOptions(url, subject, Options{})
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}

	conn, err := nats.Connect(
		url,
		nats.Name("docucompare-extractor"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(true),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{conn: conn, subject: subject}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishExtractionJob(_ context.Context, job domain.ExtractionJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode extraction job: %w", err)
	}
	if err := q.conn.Publish(q.subject, data); err != nil {
		return domain.WrapError(domain.ErrTemporary, "publish extraction job", err)
	}
	return nil
}

// SubscribeExtractionJobs consumes jobs in the shared worker group until
// ctx is canceled, then drains the subscription. Malformed messages are
// logged and dropped; a handler error is logged but never requeues the
// job, the ingestion side surfaces stuck files through status instead.
func (q *Queue) SubscribeExtractionJobs(ctx context.Context, handler func(context.Context, domain.ExtractionJob) error) error {
	sub, err := q.conn.QueueSubscribe(q.subject, workerGroup, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		var job domain.ExtractionJob
		if err := json.Unmarshal(msg.Data, &job); err != nil {
			slog.Error("drop malformed extraction job", "error", err)
			return
		}

		jobCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(jobCtx, job); err != nil {
			slog.Error("extraction job failed", "file_id", job.FileID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}
