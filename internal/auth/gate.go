package auth

import (
	"github.com/fgtintas/referral-service/internal/domain"
	apperrors "github.com/fgtintas/referral-service/pkg/util/errorutil"
)

// Gate decides whether a presented token satisfies a role requirement.
type Gate struct {
	tokens *TokenManager
}

// NewGate constructs a gate backed by the token manager.
func NewGate(tokens *TokenManager) *Gate {
	return &Gate{tokens: tokens}
}

// Authorize verifies token and, when required is non-nil, the caller's role.
// Missing and invalid tokens are both Unauthorized; a valid token with the
// wrong role is Forbidden.
func (g *Gate) Authorize(token string, required *domain.Role) (*Claims, error) {
	if token == "" {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	claims, err := g.tokens.Verify(token)
	if err != nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if required != nil && claims.Role != *required {
		return nil, apperrors.NewForbidden("insufficient role")
	}
	return claims, nil
}

// Identify returns the claims of a valid token or nil, never an error.
func (g *Gate) Identify(token string) *Claims {
	if token == "" {
		return nil
	}
	claims, err := g.tokens.Verify(token)
	if err != nil {
		return nil
	}
	return claims
}

// CanManageProfessional applies the self-or-admin rule for professional records.
func CanManageProfessional(claims *Claims, professionalID string) error {
	if claims == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	switch claims.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleProfessional:
		if claims.PrincipalID == professionalID {
			return nil
		}
		return apperrors.NewForbidden("cannot modify another professional")
	default:
		return apperrors.NewForbidden("unknown role")
	}
}
