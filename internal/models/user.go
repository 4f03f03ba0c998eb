package models

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User represents an account of the reporting application
type User struct {
	ID           string     `json:"id" db:"id"`
	Name         string     `json:"nombre" db:"nombre"`
	Surname      string     `json:"apellido" db:"apellido"`
	Email        string     `json:"email" db:"email"`
	PasswordHash []byte     `json:"-" db:"password_hash"`
	IDNumber     string     `json:"cedula" db:"cedula"`
	Phone        string     `json:"telefono,omitempty" db:"telefono"`
	RoleID       int        `json:"rolId" db:"rol_id"`
	RoleName     string     `json:"rol,omitempty" db:"-"`
	Active       bool       `json:"activo" db:"activo"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`
	LastLogin    *time.Time `json:"lastLogin,omitempty" db:"last_login"`
}

// FullName returns "name surname"
func (u *User) FullName() string {
	return strings.TrimSpace(u.Name + " " + u.Surname)
}

// SetPassword stores a bcrypt hash of pwd; the plaintext is not retained.
func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

// CheckPassword reports whether pwd matches the stored hash
func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// CreateUserInput is the payload for creating a user
type CreateUserInput struct {
	Name     string `json:"nombre" binding:"required"`
	Surname  string `json:"apellido" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	IDNumber string `json:"cedula" binding:"required"`
	Phone    string `json:"telefono"`
	RoleID   int    `json:"rolId" binding:"required"`
}

// UpdateUserInput is a partial update; nil fields are left unchanged
type UpdateUserInput struct {
	Name     *string `json:"nombre"`
	Surname  *string `json:"apellido"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	IDNumber *string `json:"cedula"`
	Phone    *string `json:"telefono"`
	RoleID   *int    `json:"rolId"`
}

// IsEmpty reports whether the update carries no fields
func (in *UpdateUserInput) IsEmpty() bool {
	return in.Name == nil && in.Surname == nil && in.Email == nil && in.Password == nil &&
		in.IDNumber == nil && in.Phone == nil && in.RoleID == nil
}

// NormalizeEmail trims and lower-cases an address for storage and comparison
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
