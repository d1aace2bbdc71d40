package domain

import "time"

// Principal is an authenticatable identity, either an admin or a professional.
type Principal struct {
	ID    string
	Email string
	Name  string
	Role  Role
}

// Admin models an operator provisioned out-of-band.
type Admin struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

// Principal returns the session identity of the admin.
func (a *Admin) Principal() Principal {
	return Principal{ID: a.ID, Email: a.Email, Name: a.Name, Role: RoleAdmin}
}
