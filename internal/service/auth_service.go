package service

import (
	"context"

	"github.com/fgtintas/referral-service/internal/auth"
	"github.com/fgtintas/referral-service/internal/domain"
	"github.com/fgtintas/referral-service/internal/observability"
	apperrors "github.com/fgtintas/referral-service/pkg/util/errorutil"
)

// AuthService coordinates login, registration and password changes, issuing
// a session for each successful authentication.
type AuthService struct {
	credentials *CredentialStore
	directory   *DirectoryService
	tokenMgr    *auth.TokenManager
	metrics     *observability.Metrics
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	Credentials *CredentialStore
	Directory   *DirectoryService
	Tokens      *auth.TokenManager
	Metrics     *observability.Metrics
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	return &AuthService{
		credentials: deps.Credentials,
		directory:   deps.Directory,
		tokenMgr:    deps.Tokens,
		metrics:     deps.Metrics,
	}
}

// Login authenticates email within role.
func (s *AuthService) Login(ctx context.Context, email, password string, role domain.Role) (domain.Principal, auth.Session, error) {
	principal, err := s.credentials.Verify(ctx, email, role, password)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeInvalidCredentials) {
			s.metrics.RecordLogin(role.String(), false)
		}
		return domain.Principal{}, auth.Session{}, err
	}
	s.metrics.RecordLogin(role.String(), true)

	session, err := s.issue(principal)
	if err != nil {
		return domain.Principal{}, auth.Session{}, err
	}
	return principal, session, nil
}

// Register creates a professional and signs them in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.Professional, auth.Session, error) {
	pro, err := s.directory.Register(ctx, in)
	if err != nil {
		return nil, auth.Session{}, err
	}
	session, err := s.issue(pro.Principal())
	if err != nil {
		return nil, auth.Session{}, err
	}
	return pro, session, nil
}

// ChangePassword verifies the current password and stores the new one.
func (s *AuthService) ChangePassword(ctx context.Context, claims *auth.Claims, current, next string) error {
	if claims == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	return s.credentials.ChangePassword(ctx, claims.Principal(), current, next)
}

func (s *AuthService) issue(p domain.Principal) (auth.Session, error) {
	session, err := s.tokenMgr.Issue(p)
	if err != nil {
		return auth.Session{}, apperrors.NewInternalError(err)
	}
	return session, nil
}
