package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/fgtintas/referral-service/internal/api/dto"
	"github.com/fgtintas/referral-service/internal/auth"
	"github.com/fgtintas/referral-service/internal/repository"
	"github.com/fgtintas/referral-service/internal/service"
	apperrors "github.com/fgtintas/referral-service/pkg/util/errorutil"
)

// AdminHandler serves the admin console endpoints.
type AdminHandler struct {
	directory *service.DirectoryService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(directory *service.DirectoryService) *AdminHandler {
	return &AdminHandler{directory: directory}
}

const maxAdminPageSize = 200

// ListProfessionals handles GET /admin/professionals?active=&limit=&offset=.
func (h *AdminHandler) ListProfessionals(c *fiber.Ctx) error {
	var filter repository.ProfessionalFilter
	if raw := c.Query("active"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return apperrors.NewValidationError("invalid active filter", map[string]any{"active": raw})
		}
		filter.Active = &parsed
	}
	filter.Limit = c.QueryInt("limit", 0)
	filter.Offset = c.QueryInt("offset", 0)
	if filter.Limit < 0 || filter.Offset < 0 || filter.Limit > maxAdminPageSize {
		return apperrors.NewValidationError("invalid pagination", map[string]any{
			"limit":  c.Query("limit"),
			"offset": c.Query("offset"),
		})
	}

	pros, err := h.directory.ListAll(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"professionals": dto.NewAdminProfessionalList(pros)})
}

// SetStatus handles PATCH /admin/professionals/:id/status.
func (h *AdminHandler) SetStatus(c *fiber.Ctx) error {
	var req dto.SetStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	claims, _ := auth.ClaimsFromContext(c)

	pro, err := h.directory.SetActive(c.UserContext(), c.Params("id"), *req.Active, claims)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"professional": dto.NewProfessionalResponse(*pro)})
}
