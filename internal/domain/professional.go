package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Profile holds the mutable, publicly visible fields of a professional.
type Profile struct {
	Name        string
	Phone       string
	Whatsapp    string
	Specialty   string
	Description string
	City        string
	State       string
	Photo       string
}

// ProfileUpdate lists the fields a profile update may touch. Nil means unchanged.
type ProfileUpdate struct {
	Name        *string
	Phone       *string
	Whatsapp    *string
	Specialty   *string
	Description *string
	City        *string
	State       *string
	Photo       *string
}

// Empty reports whether the update carries no changes.
func (u ProfileUpdate) Empty() bool {
	return u.Name == nil && u.Phone == nil && u.Whatsapp == nil && u.Specialty == nil &&
		u.Description == nil && u.City == nil && u.State == nil && u.Photo == nil
}

// Apply returns a copy of p with the update's fields replaced.
func (u ProfileUpdate) Apply(p Profile) Profile {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.Name, u.Name)
	set(&p.Phone, u.Phone)
	set(&p.Whatsapp, u.Whatsapp)
	set(&p.Specialty, u.Specialty)
	set(&p.Description, u.Description)
	set(&p.City, u.City)
	set(&p.State, u.State)
	set(&p.Photo, u.Photo)
	return p
}

// Professional is a registered referrer. CommissionBalance always equals the
// sum of CommissionValue over the professional's ledger entries.
type Professional struct {
	ID                string
	Email             string
	PasswordHash      string
	ReferralCode      string
	Profile           Profile
	Active            bool
	CommissionBalance decimal.Decimal
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Principal returns the session identity of the professional.
func (p *Professional) Principal() Principal {
	return Principal{ID: p.ID, Email: p.Email, Name: p.Profile.Name, Role: RoleProfessional}
}

// Redacted returns a copy safe to hand outside the credential layer.
func (p Professional) Redacted() Professional {
	p.PasswordHash = ""
	return p
}
