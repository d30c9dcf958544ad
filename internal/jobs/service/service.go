package service

import (
	"context"

	"github.com/google/uuid"

	"recruitflow_backend/internal/applicants/domain"
	"recruitflow_backend/internal/jobs/repository"
	"recruitflow_backend/internal/jobs/transport"
	"recruitflow_backend/platform/logger"
)

// defaultBucketNames seeds a new job's pipeline. Free text on purpose: the
// classifier gives them meaning, staff may rename or extend them later.
var defaultBucketNames = []string{"Applied", "Interview", "Offer", "Rejected"}

// Service contains job and pipeline business logic.
type Service struct {
	repo *repository.Repo
	log  *logger.Logger
}

// New creates a new jobs service.
func New(repo *repository.Repo, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// List returns all jobs for the organization.
func (s *Service) List(ctx context.Context, organizationID uuid.UUID) ([]repository.Job, error) {
	return s.repo.List(ctx, organizationID)
}

// GetByID returns one job.
func (s *Service) GetByID(ctx context.Context, organizationID, id uuid.UUID) (repository.Job, error) {
	return s.repo.GetByID(ctx, organizationID, id)
}

// Create creates a job with the default pipeline.
func (s *Service) Create(ctx context.Context, organizationID uuid.UUID, req transport.CreateJobRequest) (repository.Job, error) {
	job, err := s.repo.Create(ctx, organizationID, req.Title, req.Location, defaultBucketNames)
	if err != nil {
		return repository.Job{}, err
	}
	s.log.Info("job created", "jobId", job.ID, "title", job.Title)
	return job, nil
}

// ListBuckets returns the job's pipeline buckets in order, each annotated
// with its coarse stage classification.
func (s *Service) ListBuckets(ctx context.Context, organizationID, jobID uuid.UUID) ([]transport.BucketResponse, error) {
	buckets, err := s.repo.ListBuckets(ctx, organizationID, jobID)
	if err != nil {
		return nil, err
	}

	result := make([]transport.BucketResponse, len(buckets))
	for i, b := range buckets {
		result[i] = transport.BucketResponse{
			ID:       b.ID,
			JobID:    b.JobID,
			Name:     b.Name,
			Position: b.Position,
			Stage:    string(domain.Classify(b.Name)),
		}
	}
	return result, nil
}

// AddBucket appends a named bucket to the job's pipeline.
func (s *Service) AddBucket(ctx context.Context, organizationID, jobID uuid.UUID, name string) (transport.BucketResponse, error) {
	b, err := s.repo.AddBucket(ctx, organizationID, jobID, name)
	if err != nil {
		return transport.BucketResponse{}, err
	}
	return transport.BucketResponse{
		ID:       b.ID,
		JobID:    b.JobID,
		Name:     b.Name,
		Position: b.Position,
		Stage:    string(domain.Classify(b.Name)),
	}, nil
}

// StageMetrics aggregates applicant counts per coarse stage for the
// dashboard: bucket counts from the store, classification applied here.
func (s *Service) StageMetrics(ctx context.Context, organizationID, jobID uuid.UUID) (transport.StageMetricsResponse, error) {
	counts, err := s.repo.BucketCounts(ctx, organizationID, jobID)
	if err != nil {
		return transport.StageMetricsResponse{}, err
	}

	metrics := transport.StageMetricsResponse{JobID: jobID}
	for _, bc := range counts {
		switch domain.Classify(bc.Name) {
		case domain.StageQualified:
			metrics.Qualified += bc.ApplicantCount
		case domain.StageNotQualified:
			metrics.NotQualified += bc.ApplicantCount
		default:
			metrics.Applied += bc.ApplicantCount
		}
		metrics.Total += bc.ApplicantCount
	}
	return metrics, nil
}
