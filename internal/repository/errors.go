package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when the addressed record does not exist
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned when the unique email index rejects a write
	ErrDuplicateEmail = errors.New("duplicate")
	// ErrInvalidRole is returned when rol_id references no role
	ErrInvalidRole = errors.New("invalid role")
	// ErrReferenced is returned when a delete is restricted by dependent rows
	ErrReferenced = errors.New("referenced by other records")
)

// Postgres error codes
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

const (
	usersEmailIndex = "users_email_lower_key"
	usersRoleFKey   = "users_rol_id_fkey"
)

// mapUserError translates constraint violations on the users table into
// repository errors. Anything else is returned unchanged.
func mapUserError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch pqErr.Code {
	case pqUniqueViolation:
		if pqErr.Constraint == usersEmailIndex {
			return ErrDuplicateEmail
		}
	case pqForeignKeyViolation:
		if pqErr.Constraint == usersRoleFKey {
			return ErrInvalidRole
		}
		// any other FK hit on users is a dependent row blocking a delete
		return ErrReferenced
	}
	return err
}
