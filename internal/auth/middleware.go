package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fgtintas/referral-service/internal/domain"
)

const claimsKey = "auth_claims"

// AuthMiddleware classifies every request and enforces the session requirement.
type AuthMiddleware struct {
	gate    *Gate
	policy  *RoutePolicy
	cookies SessionCookie
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(gate *Gate, policy *RoutePolicy, cookies SessionCookie) *AuthMiddleware {
	return &AuthMiddleware{gate: gate, policy: policy, cookies: cookies}
}

// Handle lets public routes through, attaching claims when a valid token is
// present, and demands a valid token (and role) everywhere else.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token := m.cookies.Extract(c)
	requirement := m.policy.Classify(c.Method(), c.Path())

	if requirement == RequirePublic {
		if claims := m.gate.Identify(token); claims != nil {
			c.Locals(claimsKey, claims)
		}
		return c.Next()
	}

	claims, err := m.gate.Authorize(token, requiredRole(requirement))
	if err != nil {
		return err
	}
	c.Locals(claimsKey, claims)
	return c.Next()
}

// ClaimsFromContext retrieves the authenticated caller, if any.
func ClaimsFromContext(c *fiber.Ctx) (*Claims, bool) {
	val := c.Locals(claimsKey)
	if val == nil {
		return nil, false
	}
	claims, ok := val.(*Claims)
	return claims, ok && claims != nil
}

func requiredRole(r Requirement) *domain.Role {
	role, ok := r.Role()
	if !ok {
		return nil
	}
	return &role
}
