package models

// Seeded role ids (see migrations)
const (
	RoleAdministrator = 1
	RoleCoordinator   = 2
	RoleInstructor    = 3
)

// Role is a user role
type Role struct {
	ID          int    `json:"id" db:"id"`
	Name        string `json:"nombre" db:"nombre"`
	Description string `json:"descripcion" db:"descripcion"`
	Active      bool   `json:"activo" db:"activo"`
}

// Manageable reports whether users of this role appear on user-management
// surfaces. Coordinators are kept off them by policy.
func (r Role) Manageable() bool {
	return r.ID != RoleCoordinator
}

// ManageableRoles filters roles down to the ones shown on user management
func ManageableRoles(roles []Role) []Role {
	out := make([]Role, 0, len(roles))
	for _, r := range roles {
		if r.Manageable() {
			out = append(out, r)
		}
	}
	return out
}
