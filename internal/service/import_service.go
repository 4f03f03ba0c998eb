package service

import (
	"context"
	"errors"
	"io"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/activity-reports-api/internal/importer"
	"github.com/activity-reports-api/internal/models"
	"github.com/activity-reports-api/internal/repository"
	"github.com/activity-reports-api/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrImportInProgress is returned when a bulk import is requested while
// another one is still running.
var ErrImportInProgress = errors.New("an import is already in progress")

// ImportRequest is one uploaded bulk import file
type ImportRequest struct {
	FileName       string
	IdempotencyKey string
	Content        io.Reader
}

// importService is the concrete implementation of ImportService
type importService struct {
	repos   *repository.Repositories
	users   *userService
	log     zerolog.Logger
	running atomic.Bool
}

// newImportService creates a new ImportService
func newImportService(repos *repository.Repositories, users *userService, log zerolog.Logger) *importService {
	return &importService{
		repos: repos,
		users: users,
		log:   log.With().Str("service", "import").Logger(),
	}
}

// ImportUsers parses the uploaded file and creates one user per valid row,
// strictly in file order. A row the store rejects is recorded and the loop
// moves on. Cancelling ctx stops the loop between rows; the partial outcome
// is returned together with the context error.
func (s *importService) ImportUsers(ctx context.Context, req *ImportRequest) (*models.ImportOutcome, error) {
	if req.IdempotencyKey != "" {
		outcome, err := s.replay(ctx, req.IdempotencyKey)
		if err != nil || outcome != nil {
			return outcome, err
		}
	}

	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrImportInProgress
	}
	defer s.running.Store(false)

	batch, err := importer.Parse(req.Content, models.RequiredImportColumns)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	outcome := &models.ImportOutcome{
		Skipped:  batch.Skipped(),
		Failures: []models.ImportFailure{},
		Reasons:  []string{},
	}

	s.log.Info().
		Str("file", req.FileName).
		Int("rows", batch.ValidCount()).
		Int("skipped", outcome.Skipped).
		Msg("Starting user import")

	var stopErr error
	for row := range batch.Valid() {
		if err := ctx.Err(); err != nil {
			stopErr = err
			break
		}

		if err := s.importRow(ctx, row); err != nil {
			failure := models.ImportFailure{
				Line:    row.Line,
				Email:   row.Get(models.ColEmail),
				Message: failureMessage(err),
			}
			outcome.RecordFailure(failure)
			s.log.Warn().
				Err(err).
				Int("line", failure.Line).
				Str("email", failure.Email).
				Msg("Import row rejected")
			continue
		}
		outcome.Accepted++
	}

	// the request may already be cancelled; the writes below still run
	bg := context.WithoutCancel(ctx)
	s.users.refreshAfter(bg, "import")

	run := &models.ImportRun{
		ID:             uuid.New().String(),
		IdempotencyKey: req.IdempotencyKey,
		FileName:       req.FileName,
		Status:         models.ImportRunCompleted,
		AcceptedCount:  outcome.Accepted,
		RejectedCount:  outcome.Rejected,
		SkippedCount:   outcome.Skipped,
		DurationMs:     time.Since(startTime).Milliseconds(),
		StartedAt:      startTime.UTC(),
		CompletedAt:    time.Now().UTC(),
	}
	if stopErr != nil {
		run.Status = models.ImportRunCancelled
	}
	if err := s.repos.ImportRun.Create(bg, run, outcome.Failures); err != nil {
		s.log.Error().Err(err).Msg("Failed to record import run")
	} else {
		outcome.RunID = run.ID
	}

	s.log.Info().
		Str("run_id", outcome.RunID).
		Str("status", string(run.Status)).
		Int("accepted", outcome.Accepted).
		Int("rejected", outcome.Rejected).
		Int("skipped", outcome.Skipped).
		Int64("duration_ms", run.DurationMs).
		Msg("User import finished")

	return outcome, stopErr
}

// replay returns the recorded outcome for a previously seen idempotency key,
// or nil when the key is new.
func (s *importService) replay(ctx context.Context, key string) (*models.ImportOutcome, error) {
	run, err := s.repos.ImportRun.GetByIdempotencyKey(ctx, key)
	if err != nil || run == nil {
		return nil, err
	}

	failures, err := s.repos.ImportRun.GetFailures(ctx, run.ID, 0)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("run_id", run.ID).Str("idempotency_key", key).Msg("Replaying recorded import")
	return run.Outcome(failures), nil
}

func (s *importService) importRow(ctx context.Context, row models.ImportRow) error {
	roleID, err := strconv.Atoi(row.Get(models.ColRoleID))
	if err != nil {
		return repository.ErrInvalidRole
	}

	_, err = s.users.create(ctx, &models.CreateUserInput{
		Name:     row.Get(models.ColName),
		Surname:  row.Get(models.ColSurname),
		Email:    row.Get(models.ColEmail),
		Password: row.Raw(models.ColPassword),
		IDNumber: row.Get(models.ColIDNumber),
		Phone:    row.Get(models.ColPhone),
		RoleID:   roleID,
	})
	return err
}

// failureMessage is the short message shown next to a rejected row's email
func failureMessage(err error) string {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		return verrs.Error()
	case errors.Is(err, repository.ErrDuplicateEmail):
		return "duplicate"
	case errors.Is(err, repository.ErrInvalidRole):
		return "invalid role"
	default:
		return err.Error()
	}
}

// GetRun returns a recorded import run with its first failures
func (s *importService) GetRun(ctx context.Context, id string, failureLimit int) (*models.ImportRunResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}
	run, err := s.repos.ImportRun.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, repository.ErrNotFound
	}

	failures, err := s.repos.ImportRun.GetFailures(ctx, id, failureLimit)
	if err != nil {
		s.log.Error().Err(err).Str("run_id", id).Msg("Failed to get import failures")
	}

	response := &models.ImportRunResponse{
		ImportRun: *run,
		Failures:  failures,
	}
	if run.RejectedCount > 0 {
		response.ErrorReport = "/v1/imports/" + run.ID + "/errors"
	}
	return response, nil
}

// GetRunFailures returns every failure of a recorded run
func (s *importService) GetRunFailures(ctx context.Context, id string) ([]models.ImportFailure, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}
	run, err := s.repos.ImportRun.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, repository.ErrNotFound
	}
	return s.repos.ImportRun.GetFailures(ctx, id, 0)
}
