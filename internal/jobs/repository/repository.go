package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"recruitflow_backend/platform/apperr"
)

const jobNotFoundMessage = "job not found"

// Job is a job posting owning an ordered pipeline of status buckets.
type Job struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organizationId"`
	Title          string    `json:"title"`
	Location       string    `json:"location"`
	IsOpen         bool      `json:"isOpen"`
	CreatedAt      string    `json:"createdAt"`
	UpdatedAt      string    `json:"updatedAt"`
}

// Bucket is a named stage within a job's pipeline. Names are free text;
// semantic meaning comes from classification, not from this row.
type Bucket struct {
	ID       uuid.UUID `json:"id"`
	JobID    uuid.UUID `json:"jobId"`
	Name     string    `json:"name"`
	Position int       `json:"position"`
}

// BucketCount pairs a bucket with the number of applicants currently in it.
type BucketCount struct {
	Bucket
	ApplicantCount int `json:"applicantCount"`
}

// Repo implements job and pipeline persistence with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new jobs repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// GetByID retrieves a job by its ID.
func (r *Repo) GetByID(ctx context.Context, organizationID, id uuid.UUID) (Job, error) {
	query := `
		SELECT id, organization_id, title, location, is_open, created_at, updated_at
		FROM jobs
		WHERE id = $1 AND organization_id = $2`

	var j Job
	var createdAt, updatedAt time.Time

	err := r.pool.QueryRow(ctx, query, id, organizationID).Scan(
		&j.ID, &j.OrganizationID, &j.Title, &j.Location, &j.IsOpen, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Job{}, apperr.NotFound(jobNotFoundMessage)
		}
		return Job{}, fmt.Errorf("get job by id: %w", err)
	}

	j.CreatedAt = createdAt.Format(time.RFC3339)
	j.UpdatedAt = updatedAt.Format(time.RFC3339)

	return j, nil
}

// List retrieves all jobs for an organization, newest first.
func (r *Repo) List(ctx context.Context, organizationID uuid.UUID) ([]Job, error) {
	query := `
		SELECT id, organization_id, title, location, is_open, created_at, updated_at
		FROM jobs
		WHERE organization_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var results []Job
	for rows.Next() {
		var j Job
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&j.ID, &j.OrganizationID, &j.Title, &j.Location, &j.IsOpen, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		j.CreatedAt = createdAt.Format(time.RFC3339)
		j.UpdatedAt = updatedAt.Format(time.RFC3339)
		results = append(results, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}

	return results, nil
}

// Create creates a job with the default pipeline buckets.
func (r *Repo) Create(ctx context.Context, organizationID uuid.UUID, title, location string, bucketNames []string) (Job, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Job{}, fmt.Errorf("begin create job: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	query := `
		INSERT INTO jobs (organization_id, title, location)
		VALUES ($1, $2, $3)
		RETURNING id, organization_id, title, location, is_open, created_at, updated_at`

	var j Job
	var createdAt, updatedAt time.Time
	err = tx.QueryRow(ctx, query, organizationID, title, location).Scan(
		&j.ID, &j.OrganizationID, &j.Title, &j.Location, &j.IsOpen, &createdAt, &updatedAt,
	)
	if err != nil {
		return Job{}, fmt.Errorf("create job: %w", err)
	}

	for i, name := range bucketNames {
		_, err = tx.Exec(ctx,
			`INSERT INTO status_buckets (job_id, name, position) VALUES ($1, $2, $3)`,
			j.ID, name, i,
		)
		if err != nil {
			return Job{}, fmt.Errorf("create bucket %q: %w", name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Job{}, fmt.Errorf("commit create job: %w", err)
	}

	j.CreatedAt = createdAt.Format(time.RFC3339)
	j.UpdatedAt = updatedAt.Format(time.RFC3339)

	return j, nil
}

// ListBuckets retrieves the job's buckets in pipeline order.
func (r *Repo) ListBuckets(ctx context.Context, organizationID, jobID uuid.UUID) ([]Bucket, error) {
	query := `
		SELECT b.id, b.job_id, b.name, b.position
		FROM status_buckets b
		JOIN jobs j ON j.id = b.job_id
		WHERE b.job_id = $1 AND j.organization_id = $2
		ORDER BY b.position ASC`

	rows, err := r.pool.Query(ctx, query, jobID, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}
	defer rows.Close()

	var results []Bucket
	for rows.Next() {
		var b Bucket
		if err := rows.Scan(&b.ID, &b.JobID, &b.Name, &b.Position); err != nil {
			return nil, fmt.Errorf("scan bucket: %w", err)
		}
		results = append(results, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate buckets: %w", err)
	}

	return results, nil
}

// AddBucket appends a bucket to the end of the job's pipeline.
func (r *Repo) AddBucket(ctx context.Context, organizationID, jobID uuid.UUID, name string) (Bucket, error) {
	query := `
		INSERT INTO status_buckets (job_id, name, position)
		SELECT $1, $2, COALESCE(MAX(position) + 1, 0)
		FROM status_buckets WHERE job_id = $1
		RETURNING id, job_id, name, position`

	// Ownership check first so a foreign job id yields not-found, not a FK error.
	if _, err := r.GetByID(ctx, organizationID, jobID); err != nil {
		return Bucket{}, err
	}

	var b Bucket
	if err := r.pool.QueryRow(ctx, query, jobID, name).Scan(&b.ID, &b.JobID, &b.Name, &b.Position); err != nil {
		return Bucket{}, fmt.Errorf("add bucket: %w", err)
	}

	return b, nil
}

// BucketCounts returns each bucket of the job together with the number of
// active memberships pointing at it. Classification into coarse stages
// happens in the service layer, over these rows.
func (r *Repo) BucketCounts(ctx context.Context, organizationID, jobID uuid.UUID) ([]BucketCount, error) {
	query := `
		SELECT b.id, b.job_id, b.name, b.position, COUNT(m.applicant_id)
		FROM status_buckets b
		JOIN jobs j ON j.id = b.job_id
		LEFT JOIN bucket_memberships m ON m.bucket_id = b.id
		WHERE b.job_id = $1 AND j.organization_id = $2
		GROUP BY b.id, b.job_id, b.name, b.position
		ORDER BY b.position ASC`

	rows, err := r.pool.Query(ctx, query, jobID, organizationID)
	if err != nil {
		return nil, fmt.Errorf("bucket counts: %w", err)
	}
	defer rows.Close()

	var results []BucketCount
	for rows.Next() {
		var bc BucketCount
		if err := rows.Scan(&bc.ID, &bc.JobID, &bc.Name, &bc.Position, &bc.ApplicantCount); err != nil {
			return nil, fmt.Errorf("scan bucket count: %w", err)
		}
		results = append(results, bc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bucket counts: %w", err)
	}

	return results, nil
}
