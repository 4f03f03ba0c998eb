package mocks

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/activity-reports-api/internal/models"
	"github.com/activity-reports-api/internal/repository"
)

// Verify interface compliance
var (
	_ repository.UserRepository      = (*MockUserRepository)(nil)
	_ repository.RoleRepository      = (*MockRoleRepository)(nil)
	_ repository.ReportRepository    = (*MockReportRepository)(nil)
	_ repository.ImportRunRepository = (*MockImportRunRepository)(nil)
)

// MockUserRepository is an in-memory UserRepository that enforces the same
// constraints as the schema: case-insensitive unique email, role reference,
// and restricted delete of referenced users.
type MockUserRepository struct {
	mu          sync.Mutex
	Users       map[string]*models.User
	RoleIDs     map[int]bool
	Referenced  map[string]bool
	CreateError error
	CreateFunc  func(ctx context.Context, user *models.User) error
	CreateCalls int
	ListCalls   int
	// OnList runs after List has read the table, with the 1-based call number
	OnList func(call int)
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users: make(map[string]*models.User),
		RoleIDs: map[int]bool{
			models.RoleAdministrator: true,
			models.RoleCoordinator:   true,
			models.RoleInstructor:    true,
		},
		Referenced: make(map[string]bool),
	}
}

func (m *MockUserRepository) emailTaken(email, exceptID string) bool {
	for id, u := range m.Users {
		if id != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateCalls++
	if m.CreateFunc != nil {
		if err := m.CreateFunc(ctx, user); err != nil {
			return err
		}
	}
	if m.CreateError != nil {
		return m.CreateError
	}
	if m.emailTaken(user.Email, "") {
		return repository.ErrDuplicateEmail
	}
	if !m.RoleIDs[user.RoleID] {
		return repository.ErrInvalidRole
	}

	stored := *user
	m.Users[user.ID] = &stored
	return nil
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	if m.emailTaken(user.Email, user.ID) {
		return repository.ErrDuplicateEmail
	}
	if !m.RoleIDs[user.RoleID] {
		return repository.ErrInvalidRole
	}

	stored := *user
	m.Users[user.ID] = &stored
	return nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Users[id]; !ok {
		return repository.ErrNotFound
	}
	if m.Referenced[id] {
		return repository.ErrReferenced
	}
	delete(m.Users, id)
	return nil
}

func (m *MockUserRepository) ToggleStatus(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.Users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u.Active = !u.Active
	u.UpdatedAt = time.Now()
	out := *u
	return &out, nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.Users[id]
	if !ok {
		return nil, nil
	}
	out := *u
	return &out, nil
}

// List returns users ordered by creation time, then id
func (m *MockUserRepository) List(ctx context.Context) ([]models.User, error) {
	m.mu.Lock()
	m.ListCalls++
	call, onList := m.ListCalls, m.OnList
	m.mu.Unlock()

	users := []models.User{}
	err := m.StreamAll(ctx, func(u *models.User) error {
		users = append(users, *u)
		return nil
	})
	if onList != nil {
		onList(call)
	}
	return users, err
}

func (m *MockUserRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Users), nil
}

func (m *MockUserRepository) StreamAll(ctx context.Context, callback func(*models.User) error) error {
	m.mu.Lock()
	users := make([]models.User, 0, len(m.Users))
	for _, u := range m.Users {
		users = append(users, *u)
	}
	m.mu.Unlock()

	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.Before(users[j].CreatedAt)
		}
		return users[i].ID < users[j].ID
	})

	for i := range users {
		if err := callback(&users[i]); err != nil {
			return err
		}
	}
	return nil
}

// MockRoleRepository is a mock implementation of RoleRepository
type MockRoleRepository struct {
	Roles []models.Role
}

func NewMockRoleRepository() *MockRoleRepository {
	return &MockRoleRepository{
		Roles: []models.Role{
			{ID: models.RoleAdministrator, Name: "administrador", Active: true},
			{ID: models.RoleCoordinator, Name: "coordinador", Active: true},
			{ID: models.RoleInstructor, Name: "docente", Active: true},
		},
	}
}

func (m *MockRoleRepository) List(ctx context.Context) ([]models.Role, error) {
	return append([]models.Role(nil), m.Roles...), nil
}

func (m *MockRoleRepository) Exists(ctx context.Context, id int) (bool, error) {
	for _, r := range m.Roles {
		if r.ID == id && r.Active {
			return true, nil
		}
	}
	return false, nil
}

// MockReportRepository is a mock implementation of ReportRepository
type MockReportRepository struct {
	Reports []models.Report
	Periods []models.Period
}

func NewMockReportRepository() *MockReportRepository {
	return &MockReportRepository{}
}

func (m *MockReportRepository) List(ctx context.Context) ([]models.Report, error) {
	return append([]models.Report{}, m.Reports...), nil
}

func (m *MockReportRepository) ListPeriods(ctx context.Context) ([]models.Period, error) {
	return append([]models.Period(nil), m.Periods...), nil
}

func (m *MockReportRepository) Count(ctx context.Context) (int, error) {
	return len(m.Reports), nil
}

func (m *MockReportRepository) StreamAll(ctx context.Context, callback func(*models.Report) error) error {
	for i := range m.Reports {
		r := m.Reports[i]
		if err := callback(&r); err != nil {
			return err
		}
	}
	return nil
}

// MockImportRunRepository is a mock implementation of ImportRunRepository
type MockImportRunRepository struct {
	mu          sync.Mutex
	Runs        map[string]*models.ImportRun
	Failures    map[string][]models.ImportFailure
	CreateError error
}

func NewMockImportRunRepository() *MockImportRunRepository {
	return &MockImportRunRepository{
		Runs:     make(map[string]*models.ImportRun),
		Failures: make(map[string][]models.ImportFailure),
	}
}

func (m *MockImportRunRepository) Create(ctx context.Context, run *models.ImportRun, failures []models.ImportFailure) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateError != nil {
		return m.CreateError
	}
	stored := *run
	m.Runs[run.ID] = &stored
	m.Failures[run.ID] = append([]models.ImportFailure(nil), failures...)
	return nil
}

func (m *MockImportRunRepository) GetByID(ctx context.Context, id string) (*models.ImportRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.Runs[id]
	if !ok {
		return nil, nil
	}
	out := *run
	return &out, nil
}

func (m *MockImportRunRepository) GetByIdempotencyKey(ctx context.Context, key string) (*models.ImportRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, run := range m.Runs {
		if key != "" && run.IdempotencyKey == key {
			out := *run
			return &out, nil
		}
	}
	return nil, nil
}

func (m *MockImportRunRepository) GetFailures(ctx context.Context, runID string, limit int) ([]models.ImportFailure, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	failures := m.Failures[runID]
	if limit > 0 && len(failures) > limit {
		failures = failures[:limit]
	}
	return append([]models.ImportFailure{}, failures...), nil
}

// MockDatabase stands in for the connection pool behind /health and /metrics
type MockDatabase struct {
	PingError error
	Pool      sql.DBStats
}

func (m *MockDatabase) HealthCheck(ctx context.Context) error {
	return m.PingError
}

func (m *MockDatabase) Stats() sql.DBStats {
	return m.Pool
}
