package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrNotConfigured is returned when blob storage is not configured.
var ErrNotConfigured = errors.New("media storage not configured")

// BlobStore stores and removes media bytes. Remove failures are
// treated as best-effort by callers: the pointer row delete proceeds
// regardless.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (url string, err error)
	Remove(ctx context.Context, key string) error
}

// Config holds the S3-compatible storage settings.
type Config struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	Region        string
	UseSSL        bool
	PublicBaseURL string
}

// S3Store stores media in S3-compatible object storage.
type S3Store struct {
	client        *minio.Client
	bucket        string
	publicBaseURL string
}

// NewStore creates the appropriate BlobStore from configuration;
// an empty bucket selects the noop store (local development without
// object storage).
func NewStore(cfg Config) (BlobStore, error) {
	if cfg.Bucket == "" {
		return &NoopStore{}, nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create media storage client: %w", err)
	}

	base := strings.TrimSuffix(cfg.PublicBaseURL, "/")
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}

	return &S3Store{client: client, bucket: cfg.Bucket, publicBaseURL: base}, nil
}

func (s *S3Store) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("store media object: %w", err)
	}
	return s.publicBaseURL + "/" + key, nil
}

func (s *S3Store) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove media object: %w", err)
	}
	return nil
}

// NoopStore is used when object storage is not configured. Put fails
// so uploads surface a clear error; Remove is a silent no-op so row
// deletes are never blocked.
type NoopStore struct{}

func (s *NoopStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	return "", ErrNotConfigured
}

func (s *NoopStore) Remove(ctx context.Context, key string) error {
	return nil
}
