// Package jobs provides the job postings bounded context: postings and the
// ordered status-bucket pipelines they own.
package jobs

import (
	apphttp "recruitflow_backend/internal/http"
	"recruitflow_backend/internal/jobs/handler"
	"recruitflow_backend/internal/jobs/repository"
	"recruitflow_backend/internal/jobs/service"
	"recruitflow_backend/platform/logger"
	"recruitflow_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the jobs bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repo
}

// NewModule creates and initializes the jobs module with all its dependencies.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "jobs"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for cross-module adapters.
func (m *Module) Repository() *repository.Repo {
	return m.repo
}

// RegisterRoutes mounts job routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/jobs")
	group.GET("", m.handler.List)
	group.POST("", m.handler.Create)
	group.GET("/:jobId", m.handler.GetByID)
	group.GET("/:jobId/buckets", m.handler.ListBuckets)
	group.POST("/:jobId/buckets", m.handler.AddBucket)
	group.GET("/:jobId/stage-metrics", m.handler.StageMetrics)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
