// Package applicants provides the applicant bounded context: intake, pipeline
// stage moves, and resume storage.
package applicants

import (
	"recruitflow_backend/internal/applicants/handler"
	"recruitflow_backend/internal/applicants/ports"
	"recruitflow_backend/internal/applicants/repository"
	"recruitflow_backend/internal/applicants/service"
	"recruitflow_backend/internal/events"
	apphttp "recruitflow_backend/internal/http"
	"recruitflow_backend/platform/logger"
	"recruitflow_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the applicants bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repo
}

// NewModule creates and initializes the applicants module. The bucket reader
// and resume storage cross module boundaries, so they come in as ports.
func NewModule(pool *pgxpool.Pool, buckets ports.BucketReader, storage ports.ResumeStorage, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, buckets, storage, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "applicants"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts applicant routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/applicants")
	group.POST("", m.handler.Create)
	group.GET("/:applicantId", m.handler.GetByID)
	group.POST("/:applicantId/resume", m.handler.UploadResume)
	group.GET("/:applicantId/resume", m.handler.ResumeURL)

	ctx.Protected.GET("/jobs/:jobId/applicants", m.handler.ListByJob)
	ctx.Protected.POST("/jobs/:jobId/applicants/:applicantId/stage", m.handler.MoveStage)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
