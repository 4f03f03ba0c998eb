package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/activity-reports-api/internal/database"
	"github.com/activity-reports-api/internal/models"
)

const userSelect = `
	SELECT u.id, u.nombre, u.apellido, u.email, u.password_hash, u.cedula, u.telefono,
		u.rol_id, r.nombre, u.activo, u.created_at, u.updated_at, u.last_login
	FROM users u
	JOIN roles r ON r.id = u.rol_id
`

// userRepo is the concrete implementation of UserRepository
type userRepo struct {
	db *database.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *database.DB) UserRepository {
	return &userRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	var phone sql.NullString
	var lastLogin sql.NullTime

	err := row.Scan(
		&user.ID, &user.Name, &user.Surname, &user.Email, &user.PasswordHash, &user.IDNumber, &phone,
		&user.RoleID, &user.RoleName, &user.Active, &user.CreatedAt, &user.UpdatedAt, &lastLogin,
	)
	if err != nil {
		return nil, err
	}

	user.Phone = phone.String
	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}
	return &user, nil
}

// Create inserts a new user. A duplicate email fails on the unique index.
func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, nombre, apellido, email, password_hash, cedula, telefono,
			rol_id, activo, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Surname, user.Email, user.PasswordHash, user.IDNumber,
		nullString(user.Phone), user.RoleID, user.Active, user.CreatedAt, user.UpdatedAt,
	)
	return mapUserError(err)
}

// Update writes every mutable column of user
func (r *userRepo) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users SET
			nombre = $2, apellido = $3, email = $4, password_hash = $5, cedula = $6,
			telefono = $7, rol_id = $8, updated_at = $9
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Surname, user.Email, user.PasswordHash, user.IDNumber,
		nullString(user.Phone), user.RoleID, user.UpdatedAt,
	)
	if err != nil {
		return mapUserError(err)
	}
	return requireAffected(result)
}

// Delete removes a user; rows referencing it block the delete
func (r *userRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return mapUserError(err)
	}
	return requireAffected(result)
}

// ToggleStatus flips the active flag and returns the updated user
func (r *userRepo) ToggleStatus(ctx context.Context, id string) (*models.User, error) {
	query := `UPDATE users SET activo = NOT activo, updated_at = $2 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return nil, err
	}
	if err := requireAffected(result); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// GetByID retrieves a user by ID; nil when absent
func (r *userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, userSelect+" WHERE u.id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// List returns every user ordered by creation
func (r *userRepo) List(ctx context.Context) ([]models.User, error) {
	users := make([]models.User, 0)
	err := r.StreamAll(ctx, func(u *models.User) error {
		users = append(users, *u)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// Count returns the total number of users
func (r *userRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// StreamAll streams all users without buffering the table
func (r *userRepo) StreamAll(ctx context.Context, callback func(*models.User) error) error {
	rows, err := r.db.QueryContext(ctx, userSelect+" ORDER BY u.created_at, u.id")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return err
		}
		if err := callback(user); err != nil {
			return err
		}
	}

	return rows.Err()
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
