package ports

import (
	"context"
	"io"
)

// ResumeStorage persists resume files in object storage and hands back
// time-limited download links.
type ResumeStorage interface {
	Store(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error
	PresignedURL(ctx context.Context, objectKey string) (string, error)
}
