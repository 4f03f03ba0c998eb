package repository

import (
	"context"

	"github.com/activity-reports-api/internal/database"
	"github.com/activity-reports-api/internal/models"
)

type reportRepo struct {
	db *database.DB
}

// NewReportRepo creates a new report repository
func NewReportRepo(db *database.DB) ReportRepository {
	return &reportRepo{db: db}
}

// List returns every report with teacher and period names resolved
func (r *reportRepo) List(ctx context.Context) ([]models.Report, error) {
	reports := make([]models.Report, 0)
	err := r.StreamAll(ctx, func(rep *models.Report) error {
		reports = append(reports, *rep)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reports, nil
}

// ListPeriods returns academic periods, newest first
func (r *reportRepo) ListPeriods(ctx context.Context) ([]models.Period, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, nombre, fecha_inicio, fecha_fin, activo FROM periods ORDER BY fecha_inicio DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []models.Period
	for rows.Next() {
		var p models.Period
		if err := rows.Scan(&p.ID, &p.Name, &p.StartDate, &p.EndDate, &p.Active); err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

// Count returns the total number of reports
func (r *reportRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reports").Scan(&count)
	return count, err
}

// StreamAll streams all reports ordered by submission date
func (r *reportRepo) StreamAll(ctx context.Context, callback func(*models.Report) error) error {
	query := `
		SELECT rp.id, rp.docente_id, u.nombre || ' ' || u.apellido, rp.periodo_id, p.nombre,
			rp.categoria, rp.titulo, rp.estado, rp.fecha_envio, rp.created_at
		FROM reports rp
		JOIN users u ON u.id = rp.docente_id
		JOIN periods p ON p.id = rp.periodo_id
		ORDER BY rp.fecha_envio DESC, rp.id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var rep models.Report
		err := rows.Scan(
			&rep.ID, &rep.TeacherID, &rep.TeacherName, &rep.PeriodID, &rep.PeriodName,
			&rep.Category, &rep.Title, &rep.Status, &rep.SubmittedAt, &rep.CreatedAt,
		)
		if err != nil {
			return err
		}
		if err := callback(&rep); err != nil {
			return err
		}
	}

	return rows.Err()
}
