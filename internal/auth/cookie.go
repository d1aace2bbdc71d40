package auth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// SessionCookie carries session tokens between browser and server.
type SessionCookie struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// Set attaches the session token to the response.
func (s SessionCookie) Set(c *fiber.Ctx, session Session) {
	c.Cookie(&fiber.Cookie{
		Name:     s.Name,
		Value:    session.Token,
		Path:     "/",
		MaxAge:   int(s.MaxAge / time.Second),
		Expires:  session.ExpiresAt,
		Secure:   s.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// Clear instructs the client to drop the session cookie.
func (s SessionCookie) Clear(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     s.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   s.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// Extract reads the token from the Cookie header, falling back to a bearer
// Authorization header for non-browser clients.
func (s SessionCookie) Extract(c *fiber.Ctx) string {
	if token := c.Cookies(s.Name); token != "" {
		return token
	}
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
