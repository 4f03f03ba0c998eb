package mocks

import (
	"context"
	"encoding/csv"
	"io"
	"net/http"
	"strconv"

	"github.com/activity-reports-api/internal/models"
	"github.com/activity-reports-api/internal/query"
	"github.com/activity-reports-api/internal/repository"
	"github.com/activity-reports-api/internal/service"
)

// Verify interface compliance
var (
	_ service.UserService   = (*MockUserService)(nil)
	_ service.RoleService   = (*MockRoleService)(nil)
	_ service.ImportService = (*MockImportService)(nil)
	_ service.ReportService = (*MockReportService)(nil)
	_ service.ExportService = (*MockExportService)(nil)
)

// MockUserService is a mock implementation of UserService
type MockUserService struct {
	Users         map[string]*models.User
	CreateFunc    func(ctx context.Context, in *models.CreateUserInput) (*models.User, error)
	UpdateFunc    func(ctx context.Context, id string, in *models.UpdateUserInput) (*models.User, error)
	DeleteFunc    func(ctx context.Context, id string) error
	DashboardFunc func(ctx context.Context, f service.UserFilter) (query.Page[models.User], error)
	LastFilter    service.UserFilter
	Refreshes     int
}

func NewMockUserService() *MockUserService {
	return &MockUserService{
		Users: make(map[string]*models.User),
	}
}

func (m *MockUserService) Create(ctx context.Context, in *models.CreateUserInput) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, in)
	}
	user := &models.User{
		ID:       "user-" + strconv.Itoa(len(m.Users)+1),
		Name:     in.Name,
		Surname:  in.Surname,
		Email:    models.NormalizeEmail(in.Email),
		IDNumber: in.IDNumber,
		Phone:    in.Phone,
		RoleID:   in.RoleID,
		Active:   true,
	}
	m.Users[user.ID] = user
	return user, nil
}

func (m *MockUserService) Update(ctx context.Context, id string, in *models.UpdateUserInput) (*models.User, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, in)
	}
	user, ok := m.Users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Email != nil {
		user.Email = models.NormalizeEmail(*in.Email)
	}
	return user, nil
}

func (m *MockUserService) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	if _, ok := m.Users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.Users, id)
	return nil
}

func (m *MockUserService) ToggleStatus(ctx context.Context, id string) (*models.User, error) {
	user, ok := m.Users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	user.Active = !user.Active
	return user, nil
}

func (m *MockUserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, ok := m.Users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func (m *MockUserService) List(ctx context.Context) ([]models.User, error) {
	users := make([]models.User, 0, len(m.Users))
	for _, u := range m.Users {
		users = append(users, *u)
	}
	return users, nil
}

func (m *MockUserService) Refresh(ctx context.Context) error {
	m.Refreshes++
	return nil
}

func (m *MockUserService) Dashboard(ctx context.Context, f service.UserFilter) (query.Page[models.User], error) {
	m.LastFilter = f
	if m.DashboardFunc != nil {
		return m.DashboardFunc(ctx, f)
	}
	users, _ := m.List(ctx)
	return query.Paginate(users, f.Page, f.PageSize), nil
}

// MockRoleService is a mock implementation of RoleService
type MockRoleService struct {
	Roles []models.Role
}

func NewMockRoleService() *MockRoleService {
	return &MockRoleService{Roles: NewMockRoleRepository().Roles}
}

func (m *MockRoleService) List(ctx context.Context, manageableOnly bool) ([]models.Role, error) {
	if manageableOnly {
		return models.ManageableRoles(m.Roles), nil
	}
	return m.Roles, nil
}

// MockImportService is a mock implementation of ImportService
type MockImportService struct {
	ImportFunc func(ctx context.Context, req *service.ImportRequest) (*models.ImportOutcome, error)
	Runs       map[string]*models.ImportRunResponse
	Failures   map[string][]models.ImportFailure
	Requests   []*service.ImportRequest
	Contents   []string
}

func NewMockImportService() *MockImportService {
	return &MockImportService{
		Runs:     make(map[string]*models.ImportRunResponse),
		Failures: make(map[string][]models.ImportFailure),
	}
}

func (m *MockImportService) ImportUsers(ctx context.Context, req *service.ImportRequest) (*models.ImportOutcome, error) {
	content, err := io.ReadAll(req.Content)
	if err != nil {
		return nil, err
	}
	m.Requests = append(m.Requests, req)
	m.Contents = append(m.Contents, string(content))

	if m.ImportFunc != nil {
		return m.ImportFunc(ctx, req)
	}
	return &models.ImportOutcome{
		RunID:    "test-run-id",
		Failures: []models.ImportFailure{},
		Reasons:  []string{},
	}, nil
}

func (m *MockImportService) GetRun(ctx context.Context, id string, failureLimit int) (*models.ImportRunResponse, error) {
	run, ok := m.Runs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return run, nil
}

func (m *MockImportService) GetRunFailures(ctx context.Context, id string) ([]models.ImportFailure, error) {
	failures, ok := m.Failures[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return failures, nil
}

// MockReportService is a mock implementation of ReportService
type MockReportService struct {
	Reports    []models.Report
	PeriodList []models.Period
	LastFilter service.ReportFilter
}

func NewMockReportService() *MockReportService {
	return &MockReportService{}
}

func (m *MockReportService) Dashboard(ctx context.Context, f service.ReportFilter) (query.Page[models.Report], error) {
	m.LastFilter = f
	return query.Paginate(m.Reports, f.Page, f.PageSize), nil
}

func (m *MockReportService) Periods(ctx context.Context) ([]models.Period, error) {
	return m.PeriodList, nil
}

// MockExportService is a mock implementation of ExportService
type MockExportService struct {
	StreamUsersFunc   func(ctx context.Context, w http.ResponseWriter, format string) error
	StreamReportsFunc func(ctx context.Context, w http.ResponseWriter, format string) error
	Counts            map[string]int
	CountErrors       map[string]error
}

func NewMockExportService() *MockExportService {
	return &MockExportService{
		Counts: map[string]int{
			"users":   0,
			"reports": 0,
		},
	}
}

func (m *MockExportService) StreamUsers(ctx context.Context, w http.ResponseWriter, format string) error {
	if m.StreamUsersFunc != nil {
		return m.StreamUsersFunc(ctx, w, format)
	}
	return nil
}

func (m *MockExportService) StreamReports(ctx context.Context, w http.ResponseWriter, format string) error {
	if m.StreamReportsFunc != nil {
		return m.StreamReportsFunc(ctx, w, format)
	}
	return nil
}

func (m *MockExportService) StreamFailures(ctx context.Context, w io.Writer, failures []models.ImportFailure) error {
	writer := csv.NewWriter(w)
	writer.Write([]string{"line", "email", "message"})
	for _, f := range failures {
		writer.Write([]string{strconv.Itoa(f.Line), f.Email, f.Message})
	}
	writer.Flush()
	return writer.Error()
}

func (m *MockExportService) GetCount(ctx context.Context, resource string) (int, error) {
	if err := m.CountErrors[resource]; err != nil {
		return 0, err
	}
	return m.Counts[resource], nil
}
