package repository

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence contract for applicants and their
// bucket memberships. Defined as an interface so the stage-transition
// service can be exercised against fakes.
type Repository interface {
	GetByID(ctx context.Context, organizationID, id uuid.UUID) (Applicant, error)
	// GetInJob resolves the applicant through their membership in the given
	// job's pipeline, so the attached bucket is that pipeline's and never a
	// sibling's.
	GetInJob(ctx context.Context, organizationID, jobID, id uuid.UUID) (Applicant, error)
	ListByJob(ctx context.Context, organizationID, jobID uuid.UUID) ([]Applicant, error)
	Create(ctx context.Context, params CreateParams) (Applicant, error)
	// MoveMembership atomically repoints the applicant's membership row for
	// the job to the new bucket. Last write wins; there is no version check.
	MoveMembership(ctx context.Context, organizationID, jobID, applicantID, bucketID uuid.UUID) error
	SetResumeKey(ctx context.Context, organizationID, applicantID uuid.UUID, resumeKey string) error
}
