// Package ports declares the interfaces the applicants module requires from
// other bounded contexts. Concrete adapters are wired in the composition root.
package ports

import (
	"context"

	"github.com/google/uuid"

	"recruitflow_backend/internal/applicants/domain"
)

// BucketReader exposes a job's pipeline buckets to the stage-transition
// engine without coupling it to the jobs module's repository types.
type BucketReader interface {
	ListBuckets(ctx context.Context, organizationID, jobID uuid.UUID) ([]domain.Bucket, error)
}
