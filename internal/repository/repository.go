package repository

import (
	"context"

	"github.com/activity-reports-api/internal/database"
	"github.com/activity-reports-api/internal/models"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	ToggleStatus(ctx context.Context, id string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Count(ctx context.Context) (int, error)
	StreamAll(ctx context.Context, callback func(*models.User) error) error
}

// RoleRepository defines the interface for role lookups
type RoleRepository interface {
	List(ctx context.Context) ([]models.Role, error)
	Exists(ctx context.Context, id int) (bool, error)
}

// ReportRepository defines the interface for activity report reads
type ReportRepository interface {
	List(ctx context.Context) ([]models.Report, error)
	ListPeriods(ctx context.Context) ([]models.Period, error)
	Count(ctx context.Context) (int, error)
	StreamAll(ctx context.Context, callback func(*models.Report) error) error
}

// ImportRunRepository defines the interface for bulk import history
type ImportRunRepository interface {
	Create(ctx context.Context, run *models.ImportRun, failures []models.ImportFailure) error
	GetByID(ctx context.Context, id string) (*models.ImportRun, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*models.ImportRun, error)
	GetFailures(ctx context.Context, runID string, limit int) ([]models.ImportFailure, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	User      UserRepository
	Role      RoleRepository
	Report    ReportRepository
	ImportRun ImportRunRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		User:      NewUserRepo(db),
		Role:      NewRoleRepo(db),
		Report:    NewReportRepo(db),
		ImportRun: NewImportRunRepo(db),
	}
}
