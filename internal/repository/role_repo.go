package repository

import (
	"context"

	"github.com/activity-reports-api/internal/database"
	"github.com/activity-reports-api/internal/models"
)

type roleRepo struct {
	db *database.DB
}

// NewRoleRepo creates a new role repository
func NewRoleRepo(db *database.DB) RoleRepository {
	return &roleRepo{db: db}
}

// List returns all roles ordered by id
func (r *roleRepo) List(ctx context.Context) ([]models.Role, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, nombre, descripcion, activo FROM roles ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := make([]models.Role, 0, 3)
	for rows.Next() {
		var role models.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.Active); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// Exists checks if an active role with the given id exists
func (r *roleRepo) Exists(ctx context.Context, id int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM roles WHERE id = $1 AND activo)", id).Scan(&exists)
	return exists, err
}
