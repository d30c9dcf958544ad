package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"recruitflow_backend/internal/applicants/service"
	"recruitflow_backend/internal/applicants/transport"
	"recruitflow_backend/platform/httpkit"
	"recruitflow_backend/platform/validator"
)

// Handler handles HTTP requests for applicants and stage moves.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest     = "invalid request"
	msgValidationFailed   = "validation failed"
	msgInvalidApplicantID = "invalid applicant ID"
	msgInvalidJobID       = "invalid job ID"

	maxResumeBytes = 10 << 20
)

// New creates a new applicants handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// ListByJob retrieves the applicants in a job's pipeline.
// GET /api/v1/jobs/:jobId/applicants
func (h *Handler) ListByJob(c *gin.Context) {
	jobID, ok := parseUUIDParam(c, "jobId", msgInvalidJobID)
	if !ok {
		return
	}
	orgID, ok := mustGetOrgID(c)
	if !ok {
		return
	}

	result, err := h.svc.ListByJob(c.Request.Context(), orgID, jobID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetByID retrieves an applicant by ID.
// GET /api/v1/applicants/:applicantId
func (h *Handler) GetByID(c *gin.Context) {
	applicantID, ok := parseUUIDParam(c, "applicantId", msgInvalidApplicantID)
	if !ok {
		return
	}
	orgID, ok := mustGetOrgID(c)
	if !ok {
		return
	}

	result, err := h.svc.GetByID(c.Request.Context(), orgID, applicantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Create intakes a new applicant into a job's pipeline.
// POST /api/v1/applicants
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateApplicantRequest
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

	result, err := h.svc.Create(c.Request.Context(), service.CreateParams{
		OrganizationID: orgID,
		JobID:          req.JobID,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Phone:          req.Phone,
		Location:       req.Location,
		Tags:           req.Tags,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// MoveStage moves an applicant to the pipeline bucket matching the target
// stage. Returns 404 when no bucket matches and 409 when a move for the same
// applicant is still in flight.
// POST /api/v1/jobs/:jobId/applicants/:applicantId/stage
func (h *Handler) MoveStage(c *gin.Context) {
	jobID, ok := parseUUIDParam(c, "jobId", msgInvalidJobID)
	if !ok {
		return
	}
	applicantID, ok := parseUUIDParam(c, "applicantId", msgInvalidApplicantID)
	if !ok {
		return
	}

	var req transport.MoveStageRequest
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

	result, err := h.svc.MoveStage(c.Request.Context(), orgID, jobID, applicantID, req.Stage)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.MoveStageResponse{
		ApplicantID: result.ApplicantID,
		BucketID:    result.BucketID,
		BucketName:  result.BucketName,
		Stage:       string(result.Stage),
	})
}

// UploadResume stores a resume file for the applicant.
// POST /api/v1/applicants/:applicantId/resume
func (h *Handler) UploadResume(c *gin.Context) {
	applicantID, ok := parseUUIDParam(c, "applicantId", msgInvalidApplicantID)
	if !ok {
		return
	}
	orgID, ok := mustGetOrgID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("resume")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "resume file is required", nil)
		return
	}
	if fileHeader.Size > maxResumeBytes {
		httpkit.Error(c, http.StatusBadRequest, "resume exceeds the 10MB limit", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	key, err := h.svc.UploadResume(c.Request.Context(), orgID, applicantID,
		fileHeader.Filename, file, fileHeader.Size, contentType)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ResumeUploadResponse{
		ApplicantID: applicantID,
		ResumeKey:   key,
	})
}

// ResumeURL returns a time-limited download link for the applicant's resume.
// GET /api/v1/applicants/:applicantId/resume
func (h *Handler) ResumeURL(c *gin.Context) {
	applicantID, ok := parseUUIDParam(c, "applicantId", msgInvalidApplicantID)
	if !ok {
		return
	}
	orgID, ok := mustGetOrgID(c)
	if !ok {
		return
	}

	url, err := h.svc.ResumeURL(c.Request.Context(), orgID, applicantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"url": url})
}

func parseUUIDParam(c *gin.Context, name, message string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, message, nil)
		return uuid.UUID{}, false
	}
	return id, true
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
