package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fgtintas/referral-service/internal/api/dto"
	"github.com/fgtintas/referral-service/internal/auth"
	"github.com/fgtintas/referral-service/internal/service"
	apperrors "github.com/fgtintas/referral-service/pkg/util/errorutil"
)

// DashboardHandler serves the professional's own area.
type DashboardHandler struct {
	directory *service.DirectoryService
	ledger    *service.LedgerService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(directory *service.DirectoryService, ledger *service.LedgerService) *DashboardHandler {
	return &DashboardHandler{directory: directory, ledger: ledger}
}

// Show handles GET /professional/dashboard.
func (h *DashboardHandler) Show(c *fiber.Ctx) error {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	view, err := h.directory.Get(c.UserContext(), claims.PrincipalID, claims)
	if err != nil {
		return err
	}
	return c.JSON(dto.DashboardResponse{
		ProfessionalDetailResponse: dto.NewProfessionalDetailResponse(view.Professional, view.History),
		CommissionRate:             dto.FormatMoney(h.ledger.RatePercent()),
		EntryCount:                 len(view.History),
	})
}
