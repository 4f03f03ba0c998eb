package service

import (
	"context"
	"io"
	"net/http"

	"github.com/activity-reports-api/internal/config"
	"github.com/activity-reports-api/internal/models"
	"github.com/activity-reports-api/internal/query"
	"github.com/activity-reports-api/internal/repository"
	"github.com/rs/zerolog"
)

// UserService defines the interface for user management
type UserService interface {
	Create(ctx context.Context, in *models.CreateUserInput) (*models.User, error)
	Update(ctx context.Context, id string, in *models.UpdateUserInput) (*models.User, error)
	Delete(ctx context.Context, id string) error
	ToggleStatus(ctx context.Context, id string) (*models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Refresh(ctx context.Context) error
	Dashboard(ctx context.Context, f UserFilter) (query.Page[models.User], error)
}

// RoleService defines the interface for role lookups
type RoleService interface {
	List(ctx context.Context, manageableOnly bool) ([]models.Role, error)
}

// ImportService defines the interface for bulk user imports
type ImportService interface {
	ImportUsers(ctx context.Context, req *ImportRequest) (*models.ImportOutcome, error)
	GetRun(ctx context.Context, id string, failureLimit int) (*models.ImportRunResponse, error)
	GetRunFailures(ctx context.Context, id string) ([]models.ImportFailure, error)
}

// ReportService defines the interface for the reports dashboard
type ReportService interface {
	Dashboard(ctx context.Context, f ReportFilter) (query.Page[models.Report], error)
	Periods(ctx context.Context) ([]models.Period, error)
}

// ExportService defines the interface for export operations
type ExportService interface {
	StreamUsers(ctx context.Context, w http.ResponseWriter, format string) error
	StreamReports(ctx context.Context, w http.ResponseWriter, format string) error
	StreamFailures(ctx context.Context, w io.Writer, failures []models.ImportFailure) error
	GetCount(ctx context.Context, resource string) (int, error)
}

// Services holds all service interfaces
type Services struct {
	User   UserService
	Role   RoleService
	Import ImportService
	Report ReportService
	Export ExportService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, cfg *config.Config, log zerolog.Logger) *Services {
	userSvc := newUserService(repos, cfg, log)
	importSvc := newImportService(repos, userSvc, log)

	return &Services{
		User:   userSvc,
		Role:   newRoleService(repos, log),
		Import: importSvc,
		Report: newReportService(repos, cfg, log),
		Export: newExportService(repos, log),
	}
}
