// Package miniostore implements the object store gateway on a MinIO
// (S3-compatible) backend. Keys are caller-supplied; an existing key is
// silently overwritten, so callers must guarantee uniqueness.
package miniostore

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/docucompare/backend/internal/core/domain"
)

type Config struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	BucketName string
	UseSSL     bool
}

type Storage struct {
	client *minio.Client
	bucket string
}

// New connects to the backend and makes sure the bucket exists. Bucket
// creation is best-effort: a failure leaves the gateway degraded but
// running, matching deployments where the bucket is provisioned externally.
func New(ctx context.Context, cfg Config) (*Storage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrStorage, "connect object store", err)
	}

	s := &Storage{client: client, bucket: cfg.BucketName}
	s.ensureBucket(ctx)
	return s, nil
}

func (s *Storage) ensureBucket(ctx context.Context) {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		slog.Warn("bucket existence check failed, starting degraded",
			"bucket", s.bucket, "error", err)
		return
	}
	if exists {
		return
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		slog.Warn("bucket creation failed, starting degraded",
			"bucket", s.bucket, "error", err)
		return
	}
	slog.Info("created bucket", "bucket", s.bucket)
}

// Upload writes the content under key. No retries; retry policy belongs to
// the caller.
func (s *Storage) Upload(ctx context.Context, content io.Reader, size int64, contentType, key string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, content, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return domain.WrapError(domain.ErrStorage, "put object "+key, err)
	}
	return nil
}

// PresignedURL builds a time-limited direct-access URL for client-side
// retrieval. Server-side reads go through Open instead.
func (s *Storage) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", domain.WrapError(domain.ErrStorage, "presign object "+key, err)
	}
	return u.String(), nil
}

// Open returns a readable stream over the stored bytes. The object is
// stat-ed up front so a missing key fails here rather than on first read.
func (s *Storage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	object, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, domain.WrapError(domain.ErrStorage, "get object "+key, err)
	}
	if _, err := object.Stat(); err != nil {
		_ = object.Close()
		return nil, domain.WrapError(domain.ErrStorage, "stat object "+key, err)
	}
	return object, nil
}
