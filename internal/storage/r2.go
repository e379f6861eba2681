package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore is the contract the generation pipeline and the URL cache
// consume. Implementations persist image bytes and mint time-limited read
// URLs.
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	Sign(ctx context.Context, key string, expiresIn time.Duration) (string, error)
}

// R2Options configures the S3-compatible object storage client.
type R2Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// R2Store persists assets in Cloudflare R2 (or any S3-compatible store)
// through the MinIO client.
type R2Store struct {
	client *minio.Client
	bucket string
}

// NewR2Store initializes the storage client. All options are required.
func NewR2Store(opts R2Options) (*R2Store, error) {
	if strings.TrimSpace(opts.Endpoint) == "" {
		return nil, errors.New("storage: endpoint is required")
	}
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, errors.New("storage: bucket is required")
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: "auto",
	})
	if err != nil {
		return nil, fmt.Errorf("storage: create client: %w", err)
	}
	return &R2Store{client: client, bucket: opts.Bucket}, nil
}

// EnsureBucket creates the configured bucket when it does not exist yet.
func (s *R2Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("storage: check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("storage: create bucket: %w", err)
	}
	return nil
}

// Upload persists the bytes under the given key and returns the key.
func (s *R2Store) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	_, err = s.client.PutObject(ctx, s.bucket, cleanKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("storage: upload %s: %w", cleanKey, err)
	}
	return cleanKey, nil
}

// Delete removes the object at the given key.
func (s *R2Store) Delete(ctx context.Context, key string) error {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, cleanKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("storage: delete %s: %w", cleanKey, err)
	}
	return nil
}

// Sign mints a pre-signed read URL valid for expiresIn.
func (s *R2Store) Sign(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	signed, err := s.client.PresignedGetObject(ctx, s.bucket, cleanKey, expiresIn, nil)
	if err != nil {
		return "", fmt.Errorf("storage: sign %s: %w", cleanKey, err)
	}
	return signed.String(), nil
}

var _ ObjectStore = (*R2Store)(nil)
