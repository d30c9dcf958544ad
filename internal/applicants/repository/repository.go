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

const applicantNotFoundMessage = "applicant not found"

// Applicant is a candidate identity record. Applicants are created on
// application intake and never hard-deleted; stage moves update the
// membership row, not this record.
type Applicant struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organizationId"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Location       string    `json:"location"`
	Tags           []string  `json:"tags"`
	ResumeKey      string    `json:"resumeKey,omitempty"`
	BucketID       uuid.UUID `json:"bucketId,omitempty"`
	BucketName     string    `json:"bucketName,omitempty"`
	// Stage is the coarse classification of BucketName. Derived in the
	// service layer, never stored.
	Stage     string `json:"stage,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// CreateParams are the fields required to intake a new applicant.
type CreateParams struct {
	OrganizationID uuid.UUID
	JobID          uuid.UUID
	BucketID       uuid.UUID
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	Location       string
	Tags           []string
}

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new applicants repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetByID retrieves an applicant with their current bucket, if any. An
// applicant can hold memberships in several pipelines; the most recently
// touched one is attached.
func (r *Repo) GetByID(ctx context.Context, organizationID, id uuid.UUID) (Applicant, error) {
	query := `
		SELECT a.id, a.organization_id, a.first_name, a.last_name, a.email, a.phone,
		       a.location, a.tags, COALESCE(a.resume_key, ''),
		       COALESCE(m.bucket_id, '00000000-0000-0000-0000-000000000000'::uuid),
		       COALESCE(b.name, ''), a.created_at
		FROM applicants a
		LEFT JOIN bucket_memberships m ON m.applicant_id = a.id
		LEFT JOIN status_buckets b ON b.id = m.bucket_id
		WHERE a.id = $1 AND a.organization_id = $2
		ORDER BY m.updated_at DESC NULLS LAST
		LIMIT 1`

	var ap Applicant
	var createdAt time.Time

	err := r.pool.QueryRow(ctx, query, id, organizationID).Scan(
		&ap.ID, &ap.OrganizationID, &ap.FirstName, &ap.LastName, &ap.Email, &ap.Phone,
		&ap.Location, &ap.Tags, &ap.ResumeKey, &ap.BucketID, &ap.BucketName, &createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Applicant{}, apperr.NotFound(applicantNotFoundMessage)
		}
		return Applicant{}, fmt.Errorf("get applicant by id: %w", err)
	}

	ap.CreatedAt = createdAt.Format(time.RFC3339)

	return ap, nil
}

// GetInJob retrieves an applicant with the bucket of their membership in the
// given job's pipeline. An applicant without a membership there is not found,
// even when the record itself exists.
func (r *Repo) GetInJob(ctx context.Context, organizationID, jobID, id uuid.UUID) (Applicant, error) {
	query := `
		SELECT a.id, a.organization_id, a.first_name, a.last_name, a.email, a.phone,
		       a.location, a.tags, COALESCE(a.resume_key, ''),
		       m.bucket_id, b.name, a.created_at
		FROM applicants a
		JOIN bucket_memberships m ON m.applicant_id = a.id AND m.job_id = $3
		JOIN status_buckets b ON b.id = m.bucket_id
		WHERE a.id = $1 AND a.organization_id = $2`

	var ap Applicant
	var createdAt time.Time

	err := r.pool.QueryRow(ctx, query, id, organizationID, jobID).Scan(
		&ap.ID, &ap.OrganizationID, &ap.FirstName, &ap.LastName, &ap.Email, &ap.Phone,
		&ap.Location, &ap.Tags, &ap.ResumeKey, &ap.BucketID, &ap.BucketName, &createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Applicant{}, apperr.NotFound(applicantNotFoundMessage)
		}
		return Applicant{}, fmt.Errorf("get applicant in job: %w", err)
	}

	ap.CreatedAt = createdAt.Format(time.RFC3339)

	return ap, nil
}

// ListByJob retrieves all applicants with a membership in the given job's
// pipeline, newest first, with their current bucket attached.
func (r *Repo) ListByJob(ctx context.Context, organizationID, jobID uuid.UUID) ([]Applicant, error) {
	query := `
		SELECT a.id, a.organization_id, a.first_name, a.last_name, a.email, a.phone,
		       a.location, a.tags, COALESCE(a.resume_key, ''),
		       m.bucket_id, b.name, a.created_at
		FROM applicants a
		JOIN bucket_memberships m ON m.applicant_id = a.id AND m.job_id = $1
		JOIN status_buckets b ON b.id = m.bucket_id
		WHERE a.organization_id = $2
		ORDER BY a.created_at DESC`

	rows, err := r.pool.Query(ctx, query, jobID, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list applicants: %w", err)
	}
	defer rows.Close()

	var results []Applicant
	for rows.Next() {
		var ap Applicant
		var createdAt time.Time
		err := rows.Scan(
			&ap.ID, &ap.OrganizationID, &ap.FirstName, &ap.LastName, &ap.Email, &ap.Phone,
			&ap.Location, &ap.Tags, &ap.ResumeKey, &ap.BucketID, &ap.BucketName, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan applicant: %w", err)
		}
		ap.CreatedAt = createdAt.Format(time.RFC3339)
		results = append(results, ap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applicants: %w", err)
	}

	return results, nil
}

// Create intakes an applicant and places them into the given bucket in one
// transaction.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Applicant, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Applicant{}, fmt.Errorf("begin create applicant: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	query := `
		INSERT INTO applicants (organization_id, first_name, last_name, email, phone, location, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	var ap Applicant
	var createdAt time.Time
	tags := params.Tags
	if tags == nil {
		tags = []string{}
	}

	err = tx.QueryRow(ctx, query,
		params.OrganizationID, params.FirstName, params.LastName, params.Email,
		params.Phone, params.Location, tags,
	).Scan(&ap.ID, &createdAt)
	if err != nil {
		return Applicant{}, fmt.Errorf("create applicant: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO bucket_memberships (applicant_id, job_id, bucket_id) VALUES ($1, $2, $3)`,
		ap.ID, params.JobID, params.BucketID,
	)
	if err != nil {
		return Applicant{}, fmt.Errorf("create membership: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Applicant{}, fmt.Errorf("commit create applicant: %w", err)
	}

	ap.OrganizationID = params.OrganizationID
	ap.FirstName = params.FirstName
	ap.LastName = params.LastName
	ap.Email = params.Email
	ap.Phone = params.Phone
	ap.Location = params.Location
	ap.Tags = tags
	ap.BucketID = params.BucketID
	ap.CreatedAt = createdAt.Format(time.RFC3339)

	return ap, nil
}

// MoveMembership repoints the applicant's membership row for the job to the
// new bucket. A single atomic update; the unique constraint on
// (applicant_id, job_id) guarantees at most one active membership per
// pipeline, and concurrent moves resolve last-write-wins.
func (r *Repo) MoveMembership(ctx context.Context, organizationID, jobID, applicantID, bucketID uuid.UUID) error {
	query := `
		UPDATE bucket_memberships m
		SET bucket_id = $4, updated_at = now()
		FROM applicants a
		WHERE m.applicant_id = $3 AND m.job_id = $2
		  AND a.id = m.applicant_id AND a.organization_id = $1`

	result, err := r.pool.Exec(ctx, query, organizationID, jobID, applicantID, bucketID)
	if err != nil {
		return fmt.Errorf("move membership: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound(applicantNotFoundMessage)
	}

	return nil
}

// SetResumeKey records the storage object key of the applicant's resume.
func (r *Repo) SetResumeKey(ctx context.Context, organizationID, applicantID uuid.UUID, resumeKey string) error {
	query := `UPDATE applicants SET resume_key = $3 WHERE id = $2 AND organization_id = $1`

	result, err := r.pool.Exec(ctx, query, organizationID, applicantID, resumeKey)
	if err != nil {
		return fmt.Errorf("set resume key: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound(applicantNotFoundMessage)
	}

	return nil
}
