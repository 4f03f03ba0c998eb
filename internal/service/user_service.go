package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/activity-reports-api/internal/config"
	"github.com/activity-reports-api/internal/models"
	"github.com/activity-reports-api/internal/query"
	"github.com/activity-reports-api/internal/repository"
	"github.com/activity-reports-api/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// UserFilter is the dashboard filter state for users
type UserFilter struct {
	Search   string
	RoleID   string
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// userService is the concrete implementation of UserService.
// It keeps a snapshot of the user table that is re-fetched after every
// mutation; List and Dashboard read from the snapshot.
type userService struct {
	repos *repository.Repositories
	cfg   *config.Config
	log   zerolog.Logger

	// refreshMu orders whole refreshes so an older read never replaces a newer one
	refreshMu sync.Mutex

	mu     sync.RWMutex
	users  []models.User
	loaded bool
}

// newUserService creates a new UserService
func newUserService(repos *repository.Repositories, cfg *config.Config, log zerolog.Logger) *userService {
	return &userService{
		repos: repos,
		cfg:   cfg,
		log:   log.With().Str("service", "user").Logger(),
	}
}

// Create validates and stores a new user
func (s *userService) Create(ctx context.Context, in *models.CreateUserInput) (*models.User, error) {
	user, err := s.create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.refreshAfter(ctx, "create")
	return user, nil
}

// create stores a user without refreshing the snapshot
func (s *userService) create(ctx context.Context, in *models.CreateUserInput) (*models.User, error) {
	if err := validation.ValidateCreateUser(in).Err(); err != nil {
		return nil, err
	}
	if err := s.checkRole(ctx, in.RoleID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(in.Name),
		Surname:   strings.TrimSpace(in.Surname),
		Email:     models.NormalizeEmail(in.Email),
		IDNumber:  strings.TrimSpace(in.IDNumber),
		Phone:     strings.TrimSpace(in.Phone),
		RoleID:    in.RoleID,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := user.SetPassword(in.Password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if err := s.repos.User.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Int("rol_id", user.RoleID).Msg("User created")
	return user, nil
}

// checkRole rejects role ids with no active role before any hashing or write
func (s *userService) checkRole(ctx context.Context, roleID int) error {
	ok, err := s.repos.Role.Exists(ctx, roleID)
	if err != nil {
		return fmt.Errorf("check role: %w", err)
	}
	if !ok {
		return repository.ErrInvalidRole
	}
	return nil
}

// Update applies a partial update. Fields left nil keep their stored value,
// including the password hash.
func (s *userService) Update(ctx context.Context, id string, in *models.UpdateUserInput) (*models.User, error) {
	if err := validation.ValidateUpdateUser(in).Err(); err != nil {
		return nil, err
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Surname != nil {
		user.Surname = strings.TrimSpace(*in.Surname)
	}
	if in.Email != nil {
		user.Email = models.NormalizeEmail(*in.Email)
	}
	if in.IDNumber != nil {
		user.IDNumber = strings.TrimSpace(*in.IDNumber)
	}
	if in.Phone != nil {
		user.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.RoleID != nil {
		if err := s.checkRole(ctx, *in.RoleID); err != nil {
			return nil, err
		}
		user.RoleID = *in.RoleID
	}
	if in.Password != nil {
		if err := user.SetPassword(*in.Password); err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.repos.User.Update(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", id).Msg("User updated")
	s.refreshAfter(ctx, "update")
	return s.Get(ctx, id)
}

// Delete removes a user; users referenced by reports cannot be deleted
func (s *userService) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return repository.ErrNotFound
	}
	if err := s.repos.User.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Info().Str("user_id", id).Msg("User deleted")
	s.refreshAfter(ctx, "delete")
	return nil
}

// ToggleStatus flips the active flag
func (s *userService) ToggleStatus(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}
	user, err := s.repos.User.ToggleStatus(ctx, id)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", id).Bool("activo", user.Active).Msg("User status toggled")
	s.refreshAfter(ctx, "toggle")
	return user, nil
}

// Get returns one user by id
func (s *userService) Get(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}
	user, err := s.repos.User.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

// List returns the current snapshot, loading it on first use
func (s *userService) List(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()

	if !loaded {
		if err := s.Refresh(ctx); err != nil {
			return nil, err
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.User{}, s.users...), nil
}

// Refresh re-fetches the whole user collection into the snapshot
func (s *userService) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	users, err := s.repos.User.List(ctx)
	if err != nil {
		return fmt.Errorf("refresh users: %w", err)
	}

	s.mu.Lock()
	s.users = users
	s.loaded = true
	s.mu.Unlock()

	s.log.Debug().Int("count", len(users)).Msg("User snapshot refreshed")
	return nil
}

// refreshAfter refreshes the snapshot after a successful mutation. The
// mutation has already committed, so a failed refresh is only logged.
func (s *userService) refreshAfter(ctx context.Context, op string) {
	if err := s.Refresh(context.WithoutCancel(ctx)); err != nil {
		s.log.Warn().Err(err).Str("op", op).Msg("User snapshot refresh failed")
	}
}

// Dashboard filters and paginates the snapshot. Coordinators never
// appear on the user-management dashboard.
func (s *userService) Dashboard(ctx context.Context, f UserFilter) (query.Page[models.User], error) {
	users, err := s.List(ctx)
	if err != nil {
		return query.Page[models.User]{}, err
	}

	manageable := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.RoleID != models.RoleCoordinator {
			manageable = append(manageable, u)
		}
	}

	criteria := query.Criteria[models.User]{
		Search:       f.Search,
		SearchFields: userSearchFields,
		Categories: []query.Category[models.User]{
			{Value: f.RoleID, Field: func(u models.User) string { return strconv.Itoa(u.RoleID) }},
		},
		DateField: func(u models.User) time.Time { return u.CreatedAt },
		From:      f.From,
		To:        f.To,
	}
	return query.Run(manageable, criteria, pageState(s.cfg, f.Page, f.PageSize)), nil
}

func userSearchFields(u models.User) []string {
	return []string{u.Name, u.Surname, u.Email, u.IDNumber}
}

// pageState applies the configured page size default and ceiling
func pageState(cfg *config.Config, page, size int) query.State {
	if size <= 0 {
		size = cfg.Dashboard.DefaultPageSize
	}
	if size > cfg.Dashboard.MaxPageSize {
		size = cfg.Dashboard.MaxPageSize
	}
	return query.State{Page: page, PageSize: size}
}
