// Package service implements applicant intake and the stage-transition engine.
package service

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"

	"recruitflow_backend/internal/applicants/domain"
	"recruitflow_backend/internal/applicants/ports"
	"recruitflow_backend/internal/applicants/repository"
	"recruitflow_backend/internal/events"
	"recruitflow_backend/platform/apperr"
	"recruitflow_backend/platform/logger"
	"recruitflow_backend/platform/phone"
)

// MoveResult reports the bucket an applicant was committed to.
type MoveResult struct {
	ApplicantID uuid.UUID
	BucketID    uuid.UUID
	BucketName  string
	Stage       domain.Stage
}

// Service owns applicant intake and stage moves. Stage moves run through a
// tracked transition: the move is registered as pending before the store is
// touched, committed on success and reverted on any failure, so a caller
// holding an optimistic view always learns the stage to restore.
type Service struct {
	repo    repository.Repository
	buckets ports.BucketReader
	storage ports.ResumeStorage
	tracker *domain.TransitionTracker
	bus     events.Bus
	log     *logger.Logger
}

// New creates a new applicants service.
func New(repo repository.Repository, buckets ports.BucketReader, storage ports.ResumeStorage, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:    repo,
		buckets: buckets,
		storage: storage,
		tracker: domain.NewTransitionTracker(),
		bus:     bus,
		log:     log,
	}
}

// CreateParams are the service-level fields for applicant intake.
type CreateParams struct {
	OrganizationID uuid.UUID
	JobID          uuid.UUID
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	Location       string
	Tags           []string
}

// Create intakes an applicant into the job's pipeline. New applicants land in
// the first bucket that classifies as applied, or the pipeline's first bucket
// when no such bucket exists.
func (s *Service) Create(ctx context.Context, params CreateParams) (repository.Applicant, error) {
	buckets, err := s.buckets.ListBuckets(ctx, params.OrganizationID, params.JobID)
	if err != nil {
		return repository.Applicant{}, fmt.Errorf("list buckets for intake: %w", err)
	}
	if len(buckets) == 0 {
		return repository.Applicant{}, apperr.Validation("job has no pipeline buckets")
	}

	target := buckets[0]
	for _, b := range buckets {
		if domain.Classify(b.Name) == domain.StageApplied {
			target = b
			break
		}
	}

	bucketID, err := uuid.Parse(target.ID)
	if err != nil {
		return repository.Applicant{}, fmt.Errorf("parse intake bucket id: %w", err)
	}

	normalizedPhone := phone.NormalizeE164(params.Phone)

	applicant, err := s.repo.Create(ctx, repository.CreateParams{
		OrganizationID: params.OrganizationID,
		JobID:          params.JobID,
		BucketID:       bucketID,
		FirstName:      params.FirstName,
		LastName:       params.LastName,
		Email:          params.Email,
		Phone:          normalizedPhone,
		Location:       params.Location,
		Tags:           params.Tags,
	})
	if err != nil {
		return repository.Applicant{}, err
	}
	applicant.BucketName = target.Name

	return withStage(applicant), nil
}

// GetByID retrieves an applicant scoped to the organization.
func (s *Service) GetByID(ctx context.Context, organizationID, id uuid.UUID) (repository.Applicant, error) {
	applicant, err := s.repo.GetByID(ctx, organizationID, id)
	if err != nil {
		return repository.Applicant{}, err
	}
	return withStage(applicant), nil
}

// ListByJob retrieves the applicants in a job's pipeline, each carrying the
// coarse stage classified from its bucket.
func (s *Service) ListByJob(ctx context.Context, organizationID, jobID uuid.UUID) ([]repository.Applicant, error) {
	applicants, err := s.repo.ListByJob(ctx, organizationID, jobID)
	if err != nil {
		return nil, err
	}
	for i := range applicants {
		applicants[i] = withStage(applicants[i])
	}
	return applicants, nil
}

func withStage(a repository.Applicant) repository.Applicant {
	a.Stage = string(domain.Classify(a.BucketName))
	return a
}

// MoveStage moves an applicant to the bucket resolved from the target stage
// identifier. The sequence is fixed: register the pending transition, resolve
// the target against the job's buckets, persist the membership move, then
// commit. Any failure after registration reverts the transition and returns
// the prior stage alongside the error so optimistic views can roll back.
//
// A move requested while another move for the same applicant is still pending
// is rejected with a conflict, not queued.
func (s *Service) MoveStage(ctx context.Context, organizationID, jobID, applicantID uuid.UUID, target string) (MoveResult, error) {
	// Resolve through this job's membership; the prior stage must come from
	// the pipeline being moved, not whichever one a plain lookup lands on.
	applicant, err := s.repo.GetInJob(ctx, organizationID, jobID, applicantID)
	if err != nil {
		return MoveResult{}, err
	}

	prior := domain.Classify(applicant.BucketName)

	_, ok := s.tracker.Begin(applicantID, prior, domain.Stage(target))
	if !ok {
		return MoveResult{}, apperr.Conflict("a stage move is already in progress for this applicant")
	}

	buckets, err := s.buckets.ListBuckets(ctx, organizationID, jobID)
	if err != nil {
		restored := s.tracker.Revert(applicantID)
		s.log.Error("stage move reverted",
			"applicant_id", applicantID.String(),
			"restored_stage", string(restored),
			"error", err.Error(),
		)
		return MoveResult{}, fmt.Errorf("list buckets for move: %w", err)
	}

	bucket, found := domain.ResolveBucket(target, buckets)
	if !found {
		restored := s.tracker.Revert(applicantID)
		s.log.Warn("stage move rejected, no matching bucket",
			"applicant_id", applicantID.String(),
			"target", target,
			"restored_stage", string(restored),
		)
		return MoveResult{}, apperr.NotFound(fmt.Sprintf("no pipeline bucket matches stage %q", target))
	}

	bucketID, err := uuid.Parse(bucket.ID)
	if err != nil {
		s.tracker.Revert(applicantID)
		return MoveResult{}, fmt.Errorf("parse bucket id: %w", err)
	}

	if err := s.repo.MoveMembership(ctx, organizationID, jobID, applicantID, bucketID); err != nil {
		restored := s.tracker.Revert(applicantID)
		s.log.Error("stage move reverted",
			"applicant_id", applicantID.String(),
			"restored_stage", string(restored),
			"error", err.Error(),
		)
		return MoveResult{}, err
	}

	s.tracker.Commit(applicantID)

	stage := domain.Classify(bucket.Name)
	s.bus.Publish(ctx, events.ApplicantStageChanged{
		BaseEvent:      events.NewBaseEvent(),
		OrganizationID: organizationID,
		JobID:          jobID,
		ApplicantID:    applicantID,
		BucketID:       bucketID,
		Stage:          string(stage),
	})

	return MoveResult{
		ApplicantID: applicantID,
		BucketID:    bucketID,
		BucketName:  bucket.Name,
		Stage:       stage,
	}, nil
}

// MovePending reports whether a stage move is in flight for the applicant.
func (s *Service) MovePending(applicantID uuid.UUID) bool {
	return s.tracker.Pending(applicantID)
}

// UploadResume stores the resume file and records its object key on the
// applicant. The key is namespaced by organization so presigned links cannot
// cross tenants.
func (s *Service) UploadResume(ctx context.Context, organizationID, applicantID uuid.UUID, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	if _, err := s.repo.GetByID(ctx, organizationID, applicantID); err != nil {
		return "", err
	}

	objectKey := fmt.Sprintf("%s/%s/%s", organizationID, applicantID, path.Base(filename))
	if err := s.storage.Store(ctx, objectKey, reader, size, contentType); err != nil {
		return "", fmt.Errorf("store resume: %w", err)
	}

	if err := s.repo.SetResumeKey(ctx, organizationID, applicantID, objectKey); err != nil {
		return "", err
	}

	return objectKey, nil
}

// ResumeURL returns a time-limited download link for the applicant's resume.
func (s *Service) ResumeURL(ctx context.Context, organizationID, applicantID uuid.UUID) (string, error) {
	applicant, err := s.repo.GetByID(ctx, organizationID, applicantID)
	if err != nil {
		return "", err
	}
	if applicant.ResumeKey == "" {
		return "", apperr.NotFound("applicant has no resume on file")
	}

	url, err := s.storage.PresignedURL(ctx, applicant.ResumeKey)
	if err != nil {
		return "", fmt.Errorf("presign resume: %w", err)
	}

	return url, nil
}
