package service

import (
	"context"

	"github.com/activity-reports-api/internal/models"
	"github.com/activity-reports-api/internal/repository"
	"github.com/rs/zerolog"
)

type roleService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

func newRoleService(repos *repository.Repositories, log zerolog.Logger) *roleService {
	return &roleService{
		repos: repos,
		log:   log.With().Str("service", "role").Logger(),
	}
}

// List returns all roles, or only those shown on user management
func (s *roleService) List(ctx context.Context, manageableOnly bool) ([]models.Role, error) {
	roles, err := s.repos.Role.List(ctx)
	if err != nil {
		return nil, err
	}
	if manageableOnly {
		return models.ManageableRoles(roles), nil
	}
	return roles, nil
}
