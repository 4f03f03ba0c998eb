package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/activity-reports-api/internal/api"
	"github.com/activity-reports-api/internal/config"
	"github.com/activity-reports-api/internal/importer"
	"github.com/activity-reports-api/internal/mocks"
	"github.com/activity-reports-api/internal/models"
	"github.com/activity-reports-api/internal/repository"
	"github.com/activity-reports-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type testServices struct {
	user   *mocks.MockUserService
	role   *mocks.MockRoleService
	imp    *mocks.MockImportService
	report *mocks.MockReportService
	export *mocks.MockExportService
	db     *mocks.MockDatabase
}

func setupTestRouter() (*gin.Engine, *testServices) {
	return setupTestRouterWithLog(zerolog.Nop())
}

func setupTestRouterWithLog(log zerolog.Logger) (*gin.Engine, *testServices) {
	gin.SetMode(gin.TestMode)

	m := &testServices{
		user:   mocks.NewMockUserService(),
		role:   mocks.NewMockRoleService(),
		imp:    mocks.NewMockImportService(),
		report: mocks.NewMockReportService(),
		export: mocks.NewMockExportService(),
		db:     &mocks.MockDatabase{},
	}

	services := &service.Services{
		User:   m.user,
		Role:   m.role,
		Import: m.imp,
		Report: m.report,
		Export: m.export,
	}

	cfg := &config.Config{
		Server: config.ServerConfig{Port: "8080"},
		Import: config.ImportConfig{
			MaxUploadSize:     1024 * 1024,
			AllowedExtensions: []string{".csv"},
		},
		Dashboard: config.DashboardConfig{DefaultPageSize: 10, MaxPageSize: 100},
	}

	router := api.NewRouter(services, m.db, cfg, log)
	gin.SetMode(gin.TestMode)
	return router, m
}

func doRequest(router *gin.Engine, method, url, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func uploadRequest(filename, content string) *http.Request {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, _ := writer.CreateFormFile("file", filename)
	part.Write([]byte(content))
	writer.Close()

	req := httptest.NewRequest("POST", "/v1/users/bulk", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := setupTestRouter()

	w := doRequest(router, "GET", "/health", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)

	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", response["status"])
	}
	if response["service"] != "activity-reports-api" {
		t.Errorf("Expected service name, got %v", response["service"])
	}
}

func TestHealthEndpoint_DatabaseDown(t *testing.T) {
	router, m := setupTestRouter()
	m.db.PingError = errors.New("connection refused")

	w := doRequest(router, "GET", "/health", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "unhealthy") {
		t.Errorf("Expected unhealthy status, got %s", w.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router, m := setupTestRouter()
	m.db.Pool.OpenConnections = 3
	m.export.Counts["users"] = 42
	m.export.Counts["reports"] = 7

	w := doRequest(router, "GET", "/metrics", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)

	db := response["database"].(map[string]interface{})
	if db["users"].(float64) != 42 || db["reports"].(float64) != 7 {
		t.Errorf("Unexpected counts: %v", db)
	}
	pool := response["pool"].(map[string]interface{})
	if pool["open"].(float64) != 3 {
		t.Errorf("Expected 3 open connections, got %v", pool["open"])
	}
}

func TestMetricsEndpoint_CountFailureLogged(t *testing.T) {
	var logs bytes.Buffer
	router, m := setupTestRouterWithLog(zerolog.New(&logs))
	m.export.Counts["users"] = 42
	m.export.CountErrors = map[string]error{"reports": errors.New("relation does not exist")}

	w := doRequest(router, "GET", "/metrics", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(logs.String(), "Failed to count records") || !strings.Contains(logs.String(), `"resource":"reports"`) {
		t.Errorf("Expected count failure to be logged, got: %s", logs.String())
	}
}

func TestCreateUser(t *testing.T) {
	router, m := setupTestRouter()

	body := `{"nombre":"Ana","apellido":"Lopez","email":"Ana@x.com","password":"Secret123","cedula":"111","rolId":3}`
	w := doRequest(router, "POST", "/v1/users", body)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var user map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &user)
	if user["email"] != "ana@x.com" {
		t.Errorf("Expected normalized email, got %v", user["email"])
	}
	if _, ok := user["password"]; ok {
		t.Error("Response must not contain password")
	}
	if len(m.user.Users) != 1 {
		t.Errorf("Expected 1 user created, got %d", len(m.user.Users))
	}
}

func TestCreateUser_Errors(t *testing.T) {
	valid := `{"nombre":"Ana","apellido":"Lopez","email":"ana@x.com","password":"Secret123","cedula":"111","rolId":3}`

	tests := []struct {
		name           string
		body           string
		serviceErr     error
		expectedStatus int
		expectedError  string
	}{
		{"malformed json", `{"nombre":`, nil, http.StatusBadRequest, "invalid request body"},
		{"missing required field", `{"nombre":"Ana"}`, nil, http.StatusBadRequest, "invalid request body"},
		{"duplicate email", valid, repository.ErrDuplicateEmail, http.StatusConflict, "email already registered"},
		{"invalid role", valid, repository.ErrInvalidRole, http.StatusUnprocessableEntity, "invalid role"},
		{"unexpected failure", valid, errors.New("connection reset"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, m := setupTestRouter()
			m.user.CreateFunc = func(_ context.Context, _ *models.CreateUserInput) (*models.User, error) {
				return nil, tt.serviceErr
			}

			w := doRequest(router, "POST", "/v1/users", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if !strings.Contains(w.Body.String(), tt.expectedError) {
				t.Errorf("Expected error '%s' in response, got: %s", tt.expectedError, w.Body.String())
			}
		})
	}
}

func TestUpdateUser(t *testing.T) {
	router, m := setupTestRouter()
	m.user.Users["u1"] = &models.User{ID: "u1", Name: "Ana", Email: "ana@x.com", RoleID: 3}

	w := doRequest(router, "PUT", "/v1/users/u1", `{"nombre":"María"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if m.user.Users["u1"].Name != "María" {
		t.Errorf("Expected name updated, got %s", m.user.Users["u1"].Name)
	}

	w = doRequest(router, "PUT", "/v1/users/missing", `{"nombre":"María"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestDeleteUser(t *testing.T) {
	router, m := setupTestRouter()
	m.user.Users["u1"] = &models.User{ID: "u1"}

	if w := doRequest(router, "DELETE", "/v1/users/u1", ""); w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	if w := doRequest(router, "DELETE", "/v1/users/u1", ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}

	m.user.DeleteFunc = func(_ context.Context, _ string) error { return repository.ErrReferenced }
	w := doRequest(router, "DELETE", "/v1/users/u2", "")
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 for referenced user, got %d", w.Code)
	}
}

func TestToggleStatus(t *testing.T) {
	router, m := setupTestRouter()
	m.user.Users["u1"] = &models.User{ID: "u1", Active: true}

	w := doRequest(router, "PATCH", "/v1/users/u1/toggle-status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var user models.User
	json.Unmarshal(w.Body.Bytes(), &user)
	if user.Active {
		t.Error("Expected user to be inactive")
	}
}

func TestListPeriods(t *testing.T) {
	router, m := setupTestRouter()
	m.report.PeriodList = []models.Period{{ID: 1, Name: "2024-1"}, {ID: 2, Name: "2024-2"}}

	w := doRequest(router, "GET", "/v1/periods", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var periods []models.Period
	json.Unmarshal(w.Body.Bytes(), &periods)
	if len(periods) != 2 || periods[1].Name != "2024-2" {
		t.Errorf("Unexpected periods: %+v", periods)
	}
}

func TestListRoles(t *testing.T) {
	router, _ := setupTestRouter()

	tests := []struct {
		url  string
		want int
	}{
		{"/v1/roles", 3},
		{"/v1/roles?manageable=true", 2},
	}

	for _, tt := range tests {
		w := doRequest(router, "GET", tt.url, "")
		var roles []models.Role
		json.Unmarshal(w.Body.Bytes(), &roles)
		if len(roles) != tt.want {
			t.Errorf("%s: expected %d roles, got %d", tt.url, tt.want, len(roles))
		}
		for _, r := range roles {
			if tt.want == 2 && r.ID == models.RoleCoordinator {
				t.Error("Coordinator must not be listed as manageable")
			}
		}
	}
}

func TestBulkImport(t *testing.T) {
	router, m := setupTestRouter()
	m.imp.ImportFunc = func(_ context.Context, req *service.ImportRequest) (*models.ImportOutcome, error) {
		return &models.ImportOutcome{
			RunID:    "run-1",
			Accepted: 0,
			Rejected: 1,
			Failures: []models.ImportFailure{{Line: 2, Email: "ana@x.com", Message: "duplicate"}},
			Reasons:  []string{"ana@x.com: duplicate"},
		}, nil
	}

	content := "nombre,apellido,email,cedula,telefono,rolId,password\nAna,Lopez,ana@x.com,111,,3,Secret123"
	req := uploadRequest("users.CSV", content)
	req.Header.Set("Idempotency-Key", "key-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var outcome models.ImportOutcome
	json.Unmarshal(w.Body.Bytes(), &outcome)
	if outcome.Accepted != 0 || outcome.Rejected != 1 || outcome.Reasons[0] != "ana@x.com: duplicate" {
		t.Errorf("Unexpected outcome: %+v", outcome)
	}

	if len(m.imp.Requests) != 1 {
		t.Fatalf("Expected 1 import request, got %d", len(m.imp.Requests))
	}
	if m.imp.Requests[0].IdempotencyKey != "key-1" || m.imp.Requests[0].FileName != "users.CSV" {
		t.Errorf("Unexpected request: %+v", m.imp.Requests[0])
	}
	if m.imp.Contents[0] != content {
		t.Errorf("File content not passed through, got %q", m.imp.Contents[0])
	}
}

func TestBulkImport_Rejected(t *testing.T) {
	tests := []struct {
		name           string
		filename       string
		serviceErr     error
		expectedStatus int
		expectedError  string
	}{
		{"wrong extension", "users.xlsx", nil, http.StatusBadRequest, "unsupported file type"},
		{"empty file", "users.csv", importer.ErrEmptyInput, http.StatusBadRequest, "no data rows"},
		{"missing columns", "users.csv", importer.ErrMissingColumns, http.StatusBadRequest, "missing required columns"},
		{"invalid encoding", "users.csv", importer.ErrInvalidEncoding, http.StatusBadRequest, "not valid UTF-8"},
		{"import in progress", "users.csv", service.ErrImportInProgress, http.StatusConflict, "already in progress"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, m := setupTestRouter()
			m.imp.ImportFunc = func(_ context.Context, _ *service.ImportRequest) (*models.ImportOutcome, error) {
				return nil, tt.serviceErr
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, uploadRequest(tt.filename, "x"))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d. Body: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), tt.expectedError) {
				t.Errorf("Expected error '%s' in response, got: %s", tt.expectedError, w.Body.String())
			}
		})
	}
}

func TestBulkImport_MissingFile(t *testing.T) {
	router, m := setupTestRouter()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	writer.WriteField("other", "value")
	writer.Close()

	req := httptest.NewRequest("POST", "/v1/users/bulk", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	if len(m.imp.Requests) != 0 {
		t.Error("Import must not run without a file")
	}
}

func TestGetImport(t *testing.T) {
	router, m := setupTestRouter()
	m.imp.Runs["run-1"] = &models.ImportRunResponse{
		ImportRun: models.ImportRun{
			ID:            "run-1",
			Status:        models.ImportRunCompleted,
			AcceptedCount: 9,
			RejectedCount: 1,
		},
		ErrorReport: "/v1/imports/run-1/errors",
	}

	w := doRequest(router, "GET", "/v1/imports/run-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var run models.ImportRunResponse
	json.Unmarshal(w.Body.Bytes(), &run)
	if run.ID != "run-1" || run.AcceptedCount != 9 || run.ErrorReport == "" {
		t.Errorf("Unexpected run: %+v", run)
	}

	if w := doRequest(router, "GET", "/v1/imports/nope", ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestGetImportErrors(t *testing.T) {
	router, m := setupTestRouter()
	m.imp.Failures["run-1"] = []models.ImportFailure{
		{Line: 2, Email: "ana@x.com", Message: "duplicate"},
		{Line: 5, Email: "luis@x.com", Message: "invalid role"},
	}

	w := doRequest(router, "GET", "/v1/imports/run-1/errors", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	if response["errorCount"].(float64) != 2 {
		t.Errorf("Expected 2 errors, got %v", response["errorCount"])
	}

	w = doRequest(router, "GET", "/v1/imports/run-1/errors?format=csv", "")
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Expected text/csv, got %s", ct)
	}
	if !strings.HasPrefix(w.Body.String(), "line,email,message\n") {
		t.Errorf("CSV should start with header row, got: %s", w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "5,luis@x.com,invalid role") {
		t.Errorf("CSV should contain failure rows, got: %s", w.Body.String())
	}
}

func TestDashboardUsers(t *testing.T) {
	router, m := setupTestRouter()

	w := doRequest(router, "GET", "/v1/dashboard/users?search=gonz&rolId=3&from=2024-02-01&to=2024-02-28&page=2&pageSize=5", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	f := m.user.LastFilter
	if f.Search != "gonz" || f.RoleID != "3" || f.Page != 2 || f.PageSize != 5 {
		t.Errorf("Unexpected filter: %+v", f)
	}
	if f.From == nil || f.From.Format("2006-01-02") != "2024-02-01" || f.To == nil || f.To.Day() != 28 {
		t.Errorf("Unexpected date range: %v - %v", f.From, f.To)
	}

	var page map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &page)
	for _, key := range []string{"items", "page", "pageSize", "totalItems", "totalPages"} {
		if _, ok := page[key]; !ok {
			t.Errorf("Expected key %q in page response", key)
		}
	}
}

func TestDashboard_InvalidParams(t *testing.T) {
	router, _ := setupTestRouter()

	tests := []struct {
		name string
		url  string
	}{
		{"bad from date", "/v1/dashboard/users?from=01-02-2024"},
		{"bad to date", "/v1/dashboard/reports?to=tomorrow"},
		{"non numeric page", "/v1/dashboard/users?page=two"},
		{"unknown status", "/v1/dashboard/reports?status=archived"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, "GET", tt.url, "")
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestDashboardReports(t *testing.T) {
	router, m := setupTestRouter()
	m.report.Reports = []models.Report{{ID: "r1"}, {ID: "r2"}}

	w := doRequest(router, "GET", "/v1/dashboard/reports?status=all&periodId=1&category=docencia", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	f := m.report.LastFilter
	if f.Status != "all" || f.PeriodID != "1" || f.Category != "docencia" {
		t.Errorf("Unexpected filter: %+v", f)
	}
}

func TestExportStream_ValidationErrors(t *testing.T) {
	router, _ := setupTestRouter()

	tests := []struct {
		name           string
		url            string
		expectedStatus int
		expectedError  string
	}{
		{"missing resource", "/v1/exports", http.StatusBadRequest, "resource parameter is required"},
		{"invalid resource", "/v1/exports?resource=articles", http.StatusBadRequest, "resource must be one of"},
		{"invalid format", "/v1/exports?resource=users&format=xml", http.StatusBadRequest, "format must be one of"},
		{"csv not supported for reports", "/v1/exports?resource=reports&format=csv", http.StatusBadRequest, "CSV format only supported for users"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, "GET", tt.url, "")
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if !strings.Contains(w.Body.String(), tt.expectedError) {
				t.Errorf("Expected error '%s' in response, got: %s", tt.expectedError, w.Body.String())
			}
		})
	}
}

func TestExportStream_DefaultsToNDJSON(t *testing.T) {
	router, m := setupTestRouter()
	var gotFormat string
	m.export.StreamReportsFunc = func(_ context.Context, w http.ResponseWriter, format string) error {
		gotFormat = format
		return nil
	}

	doRequest(router, "GET", "/v1/exports?resource=reports", "")
	if gotFormat != "ndjson" {
		t.Errorf("Expected default format ndjson, got %q", gotFormat)
	}
}

func TestCORSHeaders(t *testing.T) {
	router, _ := setupTestRouter()

	w := doRequest(router, "OPTIONS", "/v1/users", "")
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204 for OPTIONS, got %d", w.Code)
	}
	if origin := w.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("Expected Access-Control-Allow-Origin '*', got '%s'", origin)
	}
	if methods := w.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(methods, "PATCH") {
		t.Errorf("Expected PATCH in allowed methods, got '%s'", methods)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	router, m := setupTestRouter()
	m.user.CreateFunc = func(_ context.Context, _ *models.CreateUserInput) (*models.User, error) {
		panic("boom")
	}

	body := `{"nombre":"Ana","apellido":"Lopez","email":"ana@x.com","password":"Secret123","cedula":"111","rolId":3}`
	w := doRequest(router, "POST", "/v1/users", body)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500 after panic, got %d", w.Code)
	}
}
