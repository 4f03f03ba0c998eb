package validation

import (
	"regexp"
	"strings"

	"github.com/activity-reports-api/internal/models"
)

// Password length bounds. The upper one is bcrypt's input limit in bytes.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	idNumberRegex = regexp.MustCompile(`^[0-9]{1,20}$`)
	phoneRegex    = regexp.MustCompile(`^\+?[0-9][0-9 -]{5,19}$`)
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Errors is a set of field errors usable as an error value
type Errors []ValidationError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Message
	}
	return strings.Join(msgs, "; ")
}

// Err returns e as an error, or nil when empty
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// ValidateCreateUser validates a create payload
func ValidateCreateUser(in *models.CreateUserInput) Errors {
	var errors Errors

	if strings.TrimSpace(in.Name) == "" {
		errors = append(errors, ValidationError{Field: "nombre", Message: "nombre is required"})
	}
	if strings.TrimSpace(in.Surname) == "" {
		errors = append(errors, ValidationError{Field: "apellido", Message: "apellido is required"})
	}
	errors = append(errors, validateEmail(in.Email)...)
	errors = append(errors, validatePassword(in.Password)...)
	errors = append(errors, validateIDNumber(in.IDNumber)...)
	errors = append(errors, validatePhone(in.Phone)...)
	if in.RoleID <= 0 {
		errors = append(errors, ValidationError{Field: "rolId", Message: "rolId is required", Value: in.RoleID})
	}

	return errors
}

// ValidateUpdateUser validates only the fields present in a partial update
func ValidateUpdateUser(in *models.UpdateUserInput) Errors {
	var errors Errors

	if in.IsEmpty() {
		return Errors{{Field: "body", Message: "at least one field is required"}}
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		errors = append(errors, ValidationError{Field: "nombre", Message: "nombre must not be empty"})
	}
	if in.Surname != nil && strings.TrimSpace(*in.Surname) == "" {
		errors = append(errors, ValidationError{Field: "apellido", Message: "apellido must not be empty"})
	}
	if in.Email != nil {
		errors = append(errors, validateEmail(*in.Email)...)
	}
	if in.Password != nil {
		errors = append(errors, validatePassword(*in.Password)...)
	}
	if in.IDNumber != nil {
		errors = append(errors, validateIDNumber(*in.IDNumber)...)
	}
	if in.Phone != nil {
		errors = append(errors, validatePhone(*in.Phone)...)
	}
	if in.RoleID != nil && *in.RoleID <= 0 {
		errors = append(errors, ValidationError{Field: "rolId", Message: "invalid rolId", Value: *in.RoleID})
	}

	return errors
}

func validateEmail(email string) Errors {
	email = strings.TrimSpace(email)
	if email == "" {
		return Errors{{Field: "email", Message: "email is required"}}
	}
	if !emailRegex.MatchString(email) {
		return Errors{{Field: "email", Message: "invalid email format", Value: email}}
	}
	return nil
}

func validatePassword(pwd string) Errors {
	if pwd == "" {
		return Errors{{Field: "password", Message: "password is required"}}
	}
	if len(pwd) < MinPasswordLength {
		return Errors{{Field: "password", Message: "password must be at least 8 characters"}}
	}
	if len(pwd) > MaxPasswordLength {
		return Errors{{Field: "password", Message: "password must be at most 72 bytes"}}
	}
	return nil
}

func validateIDNumber(id string) Errors {
	id = strings.TrimSpace(id)
	if id == "" {
		return Errors{{Field: "cedula", Message: "cedula is required"}}
	}
	if !idNumberRegex.MatchString(id) {
		return Errors{{Field: "cedula", Message: "cedula must contain only digits", Value: id}}
	}
	return nil
}

// phone is optional; empty passes
func validatePhone(phone string) Errors {
	phone = strings.TrimSpace(phone)
	if phone != "" && !phoneRegex.MatchString(phone) {
		return Errors{{Field: "telefono", Message: "invalid phone number", Value: phone}}
	}
	return nil
}
