package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"recruitflow_backend/internal/jobs/service"
	"recruitflow_backend/internal/jobs/transport"
	"recruitflow_backend/platform/httpkit"
	"recruitflow_backend/platform/validator"
)

// Handler handles HTTP requests for jobs and pipelines.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidJobID     = "invalid job ID"
)

// New creates a new jobs handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// List retrieves all jobs for the company.
// GET /api/v1/jobs
func (h *Handler) List(c *gin.Context) {
	orgID, ok := mustGetOrgID(c)
	if !ok {
		return
	}

	result, err := h.svc.List(c.Request.Context(), orgID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetByID retrieves a job by ID.
// GET /api/v1/jobs/:jobId
func (h *Handler) GetByID(c *gin.Context) {
	jobID, ok := parseJobID(c)
	if !ok {
		return
	}
	orgID, ok := mustGetOrgID(c)
	if !ok {
		return
	}

	result, err := h.svc.GetByID(c.Request.Context(), orgID, jobID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Create creates a new job posting with the default pipeline.
// POST /api/v1/jobs
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	orgID, ok := mustGetOrgID(c)
	if !ok {
		return
	}

	result, err := h.svc.Create(c.Request.Context(), orgID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// ListBuckets retrieves the job's pipeline buckets with classifications.
// GET /api/v1/jobs/:jobId/buckets
func (h *Handler) ListBuckets(c *gin.Context) {
	jobID, ok := parseJobID(c)
	if !ok {
		return
	}
	orgID, ok := mustGetOrgID(c)
	if !ok {
		return
	}

	result, err := h.svc.ListBuckets(c.Request.Context(), orgID, jobID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// AddBucket appends a bucket to the job's pipeline.
// POST /api/v1/jobs/:jobId/buckets
func (h *Handler) AddBucket(c *gin.Context) {
	jobID, ok := parseJobID(c)
	if !ok {
		return
	}

	var req transport.AddBucketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	orgID, ok := mustGetOrgID(c)
	if !ok {
		return
	}

	result, err := h.svc.AddBucket(c.Request.Context(), orgID, jobID, req.Name)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// StageMetrics retrieves applicant counts per coarse stage.
// GET /api/v1/jobs/:jobId/stage-metrics
func (h *Handler) StageMetrics(c *gin.Context) {
	jobID, ok := parseJobID(c)
	if !ok {
		return
	}
	orgID, ok := mustGetOrgID(c)
	if !ok {
		return
	}

	result, err := h.svc.StageMetrics(c.Request.Context(), orgID, jobID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func parseJobID(c *gin.Context) (uuid.UUID, bool) {
	jobID, err := uuid.Parse(c.Param("jobId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidJobID, nil)
		return uuid.UUID{}, false
	}
	return jobID, true
}

func mustGetOrgID(c *gin.Context) (uuid.UUID, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return uuid.UUID{}, false
	}
	orgID := identity.OrgID()
	if orgID == nil {
		httpkit.Error(c, http.StatusForbidden, "no company context", nil)
		return uuid.UUID{}, false
	}
	return *orgID, true
}
