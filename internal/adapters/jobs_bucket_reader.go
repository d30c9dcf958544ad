// Package adapters bridges bounded contexts without letting their packages
// import each other.
package adapters

import (
	"context"

	"github.com/google/uuid"

	"recruitflow_backend/internal/applicants/domain"
	"recruitflow_backend/internal/applicants/ports"
	jobsrepo "recruitflow_backend/internal/jobs/repository"
)

// JobsBucketReader exposes the jobs module's pipeline buckets to the
// applicants module as classifier-ready values.
type JobsBucketReader struct {
	repo *jobsrepo.Repo
}

// NewJobsBucketReader creates the adapter over the jobs repository.
func NewJobsBucketReader(repo *jobsrepo.Repo) *JobsBucketReader {
	return &JobsBucketReader{repo: repo}
}

// ListBuckets returns the job's buckets in pipeline order.
func (a *JobsBucketReader) ListBuckets(ctx context.Context, organizationID, jobID uuid.UUID) ([]domain.Bucket, error) {
	buckets, err := a.repo.ListBuckets(ctx, organizationID, jobID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Bucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, domain.Bucket{
			ID:   b.ID.String(),
			Name: b.Name,
		})
	}
	return out, nil
}

// Compile-time check that JobsBucketReader implements ports.BucketReader.
var _ ports.BucketReader = (*JobsBucketReader)(nil)
