// Package transport defines the request/response shapes for the applicants module.
package transport

import "github.com/google/uuid"

// CreateApplicantRequest intakes a new applicant into a job's pipeline.
type CreateApplicantRequest struct {
	JobID     uuid.UUID `json:"jobId" validate:"required"`
	FirstName string    `json:"firstName" validate:"required,min=1,max=100"`
	LastName  string    `json:"lastName" validate:"max=100"`
	Email     string    `json:"email" validate:"omitempty,email"`
	Phone     string    `json:"phone" validate:"max=30"`
	Location  string    `json:"location" validate:"max=200"`
	Tags      []string  `json:"tags" validate:"max=20,dive,max=50"`
}

// MoveStageRequest asks the engine to move an applicant to a target coarse
// stage within a job's pipeline.
type MoveStageRequest struct {
	Stage string `json:"stage" validate:"required,min=1,max=100"`
}

// MoveStageResponse reports the committed move.
type MoveStageResponse struct {
	ApplicantID uuid.UUID `json:"applicantId"`
	BucketID    uuid.UUID `json:"bucketId"`
	BucketName  string    `json:"bucketName"`
	Stage       string    `json:"stage"`
}

// ResumeUploadResponse reports where the uploaded resume landed.
type ResumeUploadResponse struct {
	ApplicantID uuid.UUID `json:"applicantId"`
	ResumeKey   string    `json:"resumeKey"`
}
