package service

import (
	"context"
	"strconv"
	"time"

	"github.com/activity-reports-api/internal/config"
	"github.com/activity-reports-api/internal/models"
	"github.com/activity-reports-api/internal/query"
	"github.com/activity-reports-api/internal/repository"
	"github.com/rs/zerolog"
)

// ReportFilter is the dashboard filter state for activity reports
type ReportFilter struct {
	Search   string
	PeriodID string
	Status   string
	Category string
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// reportService is the concrete implementation of ReportService
type reportService struct {
	repos *repository.Repositories
	cfg   *config.Config
	log   zerolog.Logger
}

// newReportService creates a new ReportService
func newReportService(repos *repository.Repositories, cfg *config.Config, log zerolog.Logger) *reportService {
	return &reportService{
		repos: repos,
		cfg:   cfg,
		log:   log.With().Str("service", "report").Logger(),
	}
}

// Dashboard filters reports by text, period, status, category and
// submission date, then returns the requested page.
func (s *reportService) Dashboard(ctx context.Context, f ReportFilter) (query.Page[models.Report], error) {
	reports, err := s.repos.Report.List(ctx)
	if err != nil {
		return query.Page[models.Report]{}, err
	}

	criteria := query.Criteria[models.Report]{
		Search:       f.Search,
		SearchFields: reportSearchFields,
		Categories: []query.Category[models.Report]{
			{Value: f.PeriodID, Field: func(r models.Report) string { return strconv.Itoa(r.PeriodID) }},
			{Value: f.Status, Field: func(r models.Report) string { return string(r.Status) }},
			{Value: f.Category, Field: func(r models.Report) string { return r.Category }},
		},
		DateField: func(r models.Report) time.Time { return r.SubmittedAt },
		From:      f.From,
		To:        f.To,
	}

	page := query.Run(reports, criteria, pageState(s.cfg, f.Page, f.PageSize))
	s.log.Debug().
		Int("matches", page.TotalItems).
		Int("page", page.Page).
		Msg("Report dashboard query")
	return page, nil
}

func reportSearchFields(r models.Report) []string {
	return []string{r.Title, r.TeacherName, r.Category, r.PeriodName}
}

// Periods lists academic periods for the period filter
func (s *reportService) Periods(ctx context.Context) ([]models.Period, error) {
	return s.repos.Report.ListPeriods(ctx)
}
