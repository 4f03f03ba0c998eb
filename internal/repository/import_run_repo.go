package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/activity-reports-api/internal/database"
	"github.com/activity-reports-api/internal/models"
	"github.com/lib/pq"
)

const importRunSelect = `
	SELECT id, idempotency_key, file_name, status, accepted_count, rejected_count,
		skipped_count, duration_ms, started_at, completed_at
	FROM import_runs
`

// importRunRepo is the concrete implementation of ImportRunRepository
type importRunRepo struct {
	db *database.DB
}

// NewImportRunRepo creates a new import run repository
func NewImportRunRepo(db *database.DB) ImportRunRepository {
	return &importRunRepo{db: db}
}

// Create stores a finished run and its failures in one transaction.
// Failures go through COPY since a bad file can reject every row.
func (r *importRunRepo) Create(ctx context.Context, run *models.ImportRun, failures []models.ImportFailure) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO import_runs (id, idempotency_key, file_name, status, accepted_count,
			rejected_count, skipped_count, duration_ms, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = tx.ExecContext(ctx, query,
		run.ID, nullString(run.IdempotencyKey), run.FileName, run.Status, run.AcceptedCount,
		run.RejectedCount, run.SkippedCount, run.DurationMs, run.StartedAt, run.CompletedAt,
	)
	if err != nil {
		return err
	}

	if len(failures) > 0 {
		stmt, err := tx.PrepareContext(ctx, pq.CopyIn("import_run_failures",
			"run_id", "line_number", "email", "message",
		))
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, f := range failures {
			if _, err := stmt.ExecContext(ctx, run.ID, f.Line, f.Email, f.Message); err != nil {
				return err
			}
		}

		// Flush the COPY buffer
		if _, err := stmt.ExecContext(ctx); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetByID retrieves a run by ID; nil when absent
func (r *importRunRepo) GetByID(ctx context.Context, id string) (*models.ImportRun, error) {
	return r.getOne(ctx, importRunSelect+" WHERE id = $1", id)
}

// GetByIdempotencyKey retrieves a run by idempotency key; nil when absent
func (r *importRunRepo) GetByIdempotencyKey(ctx context.Context, key string) (*models.ImportRun, error) {
	return r.getOne(ctx, importRunSelect+" WHERE idempotency_key = $1", key)
}

func (r *importRunRepo) getOne(ctx context.Context, query string, arg string) (*models.ImportRun, error) {
	var run models.ImportRun
	var idempotencyKey sql.NullString

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&run.ID, &idempotencyKey, &run.FileName, &run.Status, &run.AcceptedCount,
		&run.RejectedCount, &run.SkippedCount, &run.DurationMs, &run.StartedAt, &run.CompletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	run.IdempotencyKey = idempotencyKey.String
	return &run, nil
}

// GetFailures returns the failures of a run in line order; limit <= 0 means all
func (r *importRunRepo) GetFailures(ctx context.Context, runID string, limit int) ([]models.ImportFailure, error) {
	query := `SELECT line_number, email, message FROM import_run_failures WHERE run_id = $1 ORDER BY line_number, id`

	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = r.db.QueryContext(ctx, query+" LIMIT $2", runID, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, query, runID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	failures := make([]models.ImportFailure, 0)
	for rows.Next() {
		var f models.ImportFailure
		if err := rows.Scan(&f.Line, &f.Email, &f.Message); err != nil {
			return nil, err
		}
		failures = append(failures, f)
	}

	return failures, rows.Err()
}

// helper to convert empty string to NULL
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
