package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/fgtintas/referral-service/internal/api/dto"
	"github.com/fgtintas/referral-service/internal/auth"
	"github.com/fgtintas/referral-service/internal/domain"
	"github.com/fgtintas/referral-service/internal/service"
	apperrors "github.com/fgtintas/referral-service/pkg/util/errorutil"
)

// AuthHandler exposes session endpoints for admins and professionals.
type AuthHandler struct {
	auth    *service.AuthService
	cookies auth.SessionCookie
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, cookies auth.SessionCookie) *AuthHandler {
	return &AuthHandler{auth: authService, cookies: cookies}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return apperrors.NewValidationError("invalid role", map[string]any{"role": req.Role})
	}

	principal, session, err := h.auth.Login(c.UserContext(), req.Email, req.Password, role)
	if err != nil {
		return err
	}

	h.cookies.Set(c, session)
	return c.JSON(dto.AuthResponse{User: dto.NewUserResponse(principal), ExpiresAt: session.ExpiresAt})
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	pro, session, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Profile:  req.Profile(),
	})
	if err != nil {
		return err
	}

	h.cookies.Set(c, session)
	return c.Status(http.StatusCreated).JSON(dto.RegisterResponse{
		User:         dto.NewUserResponse(pro.Principal()),
		ReferralCode: pro.ReferralCode,
		ExpiresAt:    session.ExpiresAt,
	})
}

// Logout handles POST /auth/logout. Tokens are stateless; only the cookie is cleared.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.cookies.Clear(c)
	return c.JSON(fiber.Map{"success": true})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
			"authenticated": false,
			"error": fiber.Map{
				"code":    apperrors.CodeUnauthorized,
				"message": "not authenticated",
			},
		})
	}
	user := dto.NewUserResponse(claims.Principal())
	return c.JSON(dto.MeResponse{Authenticated: true, User: &user})
}

// ChangePassword handles POST /auth/password/change.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var req dto.ChangePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	claims, _ := auth.ClaimsFromContext(c)
	if err := h.auth.ChangePassword(c.UserContext(), claims, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
