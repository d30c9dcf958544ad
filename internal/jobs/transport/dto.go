// Package transport defines the request/response shapes for the jobs module.
package transport

import "github.com/google/uuid"

// CreateJobRequest creates a job posting with the default pipeline.
type CreateJobRequest struct {
	Title    string `json:"title" validate:"required,min=1,max=200"`
	Location string `json:"location" validate:"max=200"`
}

// AddBucketRequest appends a named bucket to a job's pipeline.
type AddBucketRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// BucketResponse is a pipeline bucket with its coarse stage classification.
type BucketResponse struct {
	ID       uuid.UUID `json:"id"`
	JobID    uuid.UUID `json:"jobId"`
	Name     string    `json:"name"`
	Position int       `json:"position"`
	Stage    string    `json:"stage"`
}

// StageMetricsResponse aggregates applicant counts per coarse stage.
type StageMetricsResponse struct {
	JobID        uuid.UUID `json:"jobId"`
	Applied      int       `json:"applied"`
	Qualified    int       `json:"qualified"`
	NotQualified int       `json:"notQualified"`
	Total        int       `json:"total"`
}
