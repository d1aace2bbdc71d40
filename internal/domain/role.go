package domain

import "fmt"

// Role enumerates the principal kinds that can hold a session.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleProfessional Role = "professional"
)

// ParseRole converts wire input into a Role, rejecting anything outside the enumeration.
func ParseRole(raw string) (Role, error) {
	role := Role(raw)
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return role, nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleProfessional:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}
