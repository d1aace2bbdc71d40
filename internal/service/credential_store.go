package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/fgtintas/referral-service/internal/auth"
	"github.com/fgtintas/referral-service/internal/domain"
	"github.com/fgtintas/referral-service/internal/repository"
	apperrors "github.com/fgtintas/referral-service/pkg/util/errorutil"
)

// MinPasswordLength is the shortest password accepted at registration or change.
const MinPasswordLength = 6

// CredentialStore verifies principals and owns password hashing.
type CredentialStore struct {
	admins     repository.AdminRepository
	pros       repository.ProfessionalRepository
	bcryptCost int

	dummyOnce sync.Once
	dummyHash string
}

// NewCredentialStore builds the store.
func NewCredentialStore(admins repository.AdminRepository, pros repository.ProfessionalRepository, bcryptCost int) *CredentialStore {
	return &CredentialStore{admins: admins, pros: pros, bcryptCost: bcryptCost}
}

// NormalizeEmail is the canonical form used as the principal key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Verify returns the principal for email within role when password matches.
// Unknown emails, inactive professionals and wrong passwords are all
// InvalidCredentials, and each path runs one bcrypt comparison.
func (s *CredentialStore) Verify(ctx context.Context, email string, role domain.Role, password string) (domain.Principal, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return domain.Principal{}, apperrors.NewValidationError("email and password are required", nil)
	}

	var (
		principal domain.Principal
		hash      string
		enabled   = true
		err       error
	)
	switch role {
	case domain.RoleAdmin:
		var admin *domain.Admin
		admin, err = s.admins.GetByEmail(ctx, email)
		if err == nil {
			principal, hash = admin.Principal(), admin.PasswordHash
		}
	case domain.RoleProfessional:
		var pro *domain.Professional
		pro, err = s.pros.GetByEmail(ctx, email)
		if err == nil {
			principal, hash, enabled = pro.Principal(), pro.PasswordHash, pro.Active
		}
	default:
		return domain.Principal{}, apperrors.NewValidationError("unknown role", map[string]any{"role": role.String()})
	}

	if errors.Is(err, repository.ErrNotFound) {
		_ = auth.ComparePassword(s.dummy(), password)
		return domain.Principal{}, apperrors.NewInvalidCredentials()
	}
	if err != nil {
		return domain.Principal{}, apperrors.NewInternalError(fmt.Errorf("load %s credentials: %w", role, err))
	}
	if err := auth.ComparePassword(hash, password); err != nil || !enabled {
		return domain.Principal{}, apperrors.NewInvalidCredentials()
	}
	return principal, nil
}

// Hash validates and hashes a new password.
func (s *CredentialStore) Hash(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", apperrors.NewValidationError(
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength),
			map[string]any{"field": "password"},
		)
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	return hash, nil
}

// ProvisionAdmin creates the admin for email, or replaces the name and
// password of the existing one. Every field a session token carries must be
// present, otherwise the admin could never sign in.
func (s *CredentialStore) ProvisionAdmin(ctx context.Context, email, name, password string) (*domain.Admin, error) {
	email = NormalizeEmail(email)
	name = strings.TrimSpace(name)
	details := map[string]any{}
	if email == "" || !strings.Contains(email, "@") {
		details["email"] = "a valid email is required"
	}
	if name == "" {
		details["name"] = "name is required"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid admin", details)
	}
	hash, err := s.Hash(password)
	if err != nil {
		return nil, err
	}

	admin := &domain.Admin{ID: uuid.NewString(), Email: email, Name: name, PasswordHash: hash}
	if err := s.admins.Upsert(ctx, admin); err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("upsert admin: %w", err))
	}
	return admin, nil
}

// ChangePassword replaces the hash of principal after re-verifying current.
func (s *CredentialStore) ChangePassword(ctx context.Context, principal domain.Principal, current, next string) error {
	if _, err := s.Verify(ctx, principal.Email, principal.Role, current); err != nil {
		return err
	}
	hash, err := s.Hash(next)
	if err != nil {
		return err
	}

	switch principal.Role {
	case domain.RoleAdmin:
		err = s.admins.UpdatePassword(ctx, principal.ID, hash)
	case domain.RoleProfessional:
		err = s.pros.UpdatePassword(ctx, principal.ID, hash)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(principal.Role.String(), nil)
	}
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

func (s *CredentialStore) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = auth.HashPassword("referral-service-dummy-password", s.bcryptCost)
	})
	return s.dummyHash
}
