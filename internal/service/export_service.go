package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/activity-reports-api/internal/models"
	"github.com/activity-reports-api/internal/repository"
	"github.com/rs/zerolog"
)

// flushEvery is how many NDJSON records are written between flushes
const flushEvery = 100

var (
	userCSVHeader    = []string{"id", "nombre", "apellido", "email", "cedula", "telefono", "rolId", "activo", "createdAt"}
	failureCSVHeader = []string{"line", "email", "message"}
)

// exportService is the concrete implementation of ExportService
type exportService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

// newExportService creates a new ExportService
func newExportService(repos *repository.Repositories, log zerolog.Logger) *exportService {
	return &exportService{
		repos: repos,
		log:   log.With().Str("service", "export").Logger(),
	}
}

// StreamUsers streams users in the specified format
func (s *exportService) StreamUsers(ctx context.Context, w http.ResponseWriter, format string) error {
	s.log.Info().Str("format", format).Msg("Starting users export")

	stream := func(fn func(*models.User) error) error {
		return s.repos.User.StreamAll(ctx, fn)
	}

	var (
		count int
		err   error
	)
	switch format {
	case "ndjson":
		setAttachment(w, "application/x-ndjson", "users.ndjson")
		count, err = streamNDJSON(w, stream)
	case "json":
		setAttachment(w, "application/json", "users.json")
		count, err = streamJSONArray(w, stream)
	case "csv":
		setAttachment(w, "text/csv", "users.csv")
		count, err = s.streamUsersCSV(w, stream)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}

	s.log.Info().Int("count", count).Msg("Users export completed")
	return err
}

// StreamReports streams activity reports in the specified format
func (s *exportService) StreamReports(ctx context.Context, w http.ResponseWriter, format string) error {
	s.log.Info().Str("format", format).Msg("Starting reports export")

	stream := func(fn func(*models.Report) error) error {
		return s.repos.Report.StreamAll(ctx, fn)
	}

	var (
		count int
		err   error
	)
	switch format {
	case "ndjson":
		setAttachment(w, "application/x-ndjson", "reports.ndjson")
		count, err = streamNDJSON(w, stream)
	case "json":
		setAttachment(w, "application/json", "reports.json")
		count, err = streamJSONArray(w, stream)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}

	s.log.Info().Int("count", count).Msg("Reports export completed")
	return err
}

func (s *exportService) streamUsersCSV(w io.Writer, stream func(func(*models.User) error) error) (int, error) {
	writer := csv.NewWriter(w)
	if err := writer.Write(userCSVHeader); err != nil {
		return 0, err
	}

	count := 0
	err := stream(func(u *models.User) error {
		count++
		return writer.Write([]string{
			u.ID,
			u.Name,
			u.Surname,
			u.Email,
			u.IDNumber,
			u.Phone,
			strconv.Itoa(u.RoleID),
			strconv.FormatBool(u.Active),
			u.CreatedAt.UTC().Format(time.RFC3339),
		})
	})

	writer.Flush()
	if err == nil {
		err = writer.Error()
	}
	return count, err
}

// StreamFailures writes import failures as CSV
func (s *exportService) StreamFailures(ctx context.Context, w io.Writer, failures []models.ImportFailure) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(failureCSVHeader); err != nil {
		return err
	}
	for _, f := range failures {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writer.Write([]string{strconv.Itoa(f.Line), f.Email, f.Message}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// GetCount returns count for a resource
func (s *exportService) GetCount(ctx context.Context, resource string) (int, error) {
	switch resource {
	case "users":
		return s.repos.User.Count(ctx)
	case "reports":
		return s.repos.Report.Count(ctx)
	default:
		return 0, fmt.Errorf("unknown resource: %s", resource)
	}
}

func setAttachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
}

// streamNDJSON writes one JSON document per line, flushing periodically
func streamNDJSON[T any](w io.Writer, stream func(func(*T) error) error) (int, error) {
	flusher, _ := w.(http.Flusher)
	count := 0

	err := stream(func(item *T) error {
		data, err := json.Marshal(item)
		if err != nil {
			return err
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return err
		}
		count++

		if count%flushEvery == 0 && flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	return count, err
}

// streamJSONArray writes a single JSON array without buffering the records
func streamJSONArray[T any](w io.Writer, stream func(func(*T) error) error) (int, error) {
	if _, err := io.WriteString(w, "["); err != nil {
		return 0, err
	}

	count := 0
	err := stream(func(item *T) error {
		if count > 0 {
			if _, err := io.WriteString(w, ","); err != nil {
				return err
			}
		}
		data, err := json.Marshal(item)
		if err != nil {
			return err
		}
		count++
		_, err = w.Write(data)
		return err
	})

	if _, werr := io.WriteString(w, "]"); err == nil {
		err = werr
	}
	return count, err
}
