// Package storage provides MinIO-backed object storage for applicant
// resumes.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"recruitflow_backend/internal/applicants/ports"
	"recruitflow_backend/platform/config"
	"recruitflow_backend/platform/logger"
)

const presignExpiry = 15 * time.Minute

// ResumeStore stores resumes in a MinIO bucket.
type ResumeStore struct {
	client *minio.Client
	bucket string
	log    *logger.Logger
}

// New connects to MinIO and ensures the resume bucket exists. Returns nil
// when storage is not configured; resume endpoints then fail with a clear
// error instead of the whole API refusing to start.
func New(ctx context.Context, cfg config.StorageConfig, log *logger.Logger) (*ResumeStore, error) {
	if !cfg.IsStorageEnabled() {
		return nil, nil
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	store := &ResumeStore{
		client: client,
		bucket: cfg.GetResumeBucket(),
		log:    log,
	}
	if err := store.ensureBucket(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *ResumeStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check resume bucket: %w", err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create resume bucket: %w", err)
	}
	s.log.Info("resume bucket created", "bucket", s.bucket)
	return nil
}

// Store uploads the resume under the given object key.
func (s *ResumeStore) Store(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error {
	if s == nil {
		return fmt.Errorf("resume storage is not configured")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, s.bucket, objectKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put resume object: %w", err)
	}

	return nil
}

// PresignedURL returns a time-limited download link for the object.
func (s *ResumeStore) PresignedURL(ctx context.Context, objectKey string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("resume storage is not configured")
	}

	url, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, presignExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign resume object: %w", err)
	}

	return url.String(), nil
}

// Compile-time check that ResumeStore implements ports.ResumeStorage.
var _ ports.ResumeStorage = (*ResumeStore)(nil)
