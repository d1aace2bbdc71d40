package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fgtintas/referral-service/internal/domain"
	apperrors "github.com/fgtintas/referral-service/pkg/util/errorutil"
)

// RequireRole ensures the authenticated caller holds role.
func RequireRole(role domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if claims.Role != role {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures caller is authenticated with any role.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := ClaimsFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
