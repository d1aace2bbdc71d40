package dto

import (
	"time"

	"github.com/fgtintas/referral-service/internal/domain"
)

// LoginRequest payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=admin professional"`
}

// RegisterRequest payload for professional self-registration.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,min=6,max=72"`
	Name        string `json:"name" validate:"required,max=120"`
	Phone       string `json:"phone" validate:"max=30"`
	Whatsapp    string `json:"whatsapp" validate:"max=30"`
	Specialty   string `json:"specialty" validate:"max=120"`
	Description string `json:"description" validate:"max=2000"`
	City        string `json:"city" validate:"max=120"`
	State       string `json:"state" validate:"omitempty,len=2"`
	Photo       string `json:"photo" validate:"omitempty,url,max=500"`
}

// Profile extracts the profile fields.
func (r RegisterRequest) Profile() domain.Profile {
	return domain.Profile{
		Name:        r.Name,
		Phone:       r.Phone,
		Whatsapp:    r.Whatsapp,
		Specialty:   r.Specialty,
		Description: r.Description,
		City:        r.City,
		State:       r.State,
		Photo:       r.Photo,
	}
}

// ChangePasswordRequest payload for POST /auth/password/change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=72"`
}

// UserResponse is the public shape of an authenticated principal.
type UserResponse struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// NewUserResponse maps a principal.
func NewUserResponse(p domain.Principal) UserResponse {
	return UserResponse{ID: p.ID, Name: p.Name, Email: p.Email, Role: p.Role}
}

// AuthResponse is returned by login.
type AuthResponse struct {
	User      UserResponse `json:"user"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// RegisterResponse is returned by registration.
type RegisterResponse struct {
	User         UserResponse `json:"user"`
	ReferralCode string       `json:"referralCode"`
	ExpiresAt    time.Time    `json:"expiresAt"`
}

// MeResponse reports the current session.
type MeResponse struct {
	Authenticated bool          `json:"authenticated"`
	User          *UserResponse `json:"user,omitempty"`
}
