package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/activity-reports-api/internal/models"
	"github.com/activity-reports-api/internal/query"
	"github.com/activity-reports-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const dateLayout = "2006-01-02"

// pageParams are the query parameters shared by dashboard endpoints
type pageParams struct {
	Search   string `form:"search"`
	From     string `form:"from"`
	To       string `form:"to"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

type userDashboardParams struct {
	pageParams
	RoleID string `form:"rolId"`
}

type reportDashboardParams struct {
	pageParams
	PeriodID string `form:"periodId"`
	Status   string `form:"status"`
	Category string `form:"category"`
}

// DashboardHandler handles the filtered dashboard views
type DashboardHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(services *service.Services, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		services: services,
		log:      log.With().Str("handler", "dashboard").Logger(),
	}
}

// Users handles GET /v1/dashboard/users
func (h *DashboardHandler) Users(c *gin.Context) {
	var p userDashboardParams
	if err := c.ShouldBindQuery(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}
	from, to, ok := parseRange(c, p.pageParams)
	if !ok {
		return
	}

	page, err := h.services.User.Dashboard(c.Request.Context(), service.UserFilter{
		Search:   p.Search,
		RoleID:   p.RoleID,
		From:     from,
		To:       to,
		Page:     p.Page,
		PageSize: p.PageSize,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Reports handles GET /v1/dashboard/reports
func (h *DashboardHandler) Reports(c *gin.Context) {
	var p reportDashboardParams
	if err := c.ShouldBindQuery(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}
	if !validStatusFilter(p.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status: " + p.Status})
		return
	}
	from, to, ok := parseRange(c, p.pageParams)
	if !ok {
		return
	}

	page, err := h.services.Report.Dashboard(c.Request.Context(), service.ReportFilter{
		Search:   p.Search,
		PeriodID: p.PeriodID,
		Status:   p.Status,
		Category: p.Category,
		From:     from,
		To:       to,
		Page:     p.Page,
		PageSize: p.PageSize,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Periods handles GET /v1/periods
func (h *DashboardHandler) Periods(c *gin.Context) {
	periods, err := h.services.Report.Periods(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, periods)
}

// parseRange reads the from/to dates, writing a 400 response on bad input
func parseRange(c *gin.Context, p pageParams) (from, to *time.Time, ok bool) {
	var err error
	if from, err = parseDate(p.From); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be a date in YYYY-MM-DD format"})
		return nil, nil, false
	}
	if to, err = parseDate(p.To); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must be a date in YYYY-MM-DD format"})
		return nil, nil, false
	}
	return from, to, true
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func validStatusFilter(status string) bool {
	status = strings.TrimSpace(status)
	if status == "" || strings.EqualFold(status, query.All) {
		return true
	}
	return models.ValidReportStatuses[models.ReportStatus(status)]
}
