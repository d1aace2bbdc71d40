package handlers

import (
	"bytes"
	"image/png"
	"net/http"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/gofiber/fiber/v2"

	"github.com/fgtintas/referral-service/internal/api/dto"
	"github.com/fgtintas/referral-service/internal/auth"
	"github.com/fgtintas/referral-service/internal/service"
	apperrors "github.com/fgtintas/referral-service/pkg/util/errorutil"
)

const (
	defaultQRSize = 256
	minQRSize     = 128
	maxQRSize     = 1024
)

// ProfessionalsHandler serves the directory and the commission ledger.
type ProfessionalsHandler struct {
	directory *service.DirectoryService
	ledger    *service.LedgerService
}

// NewProfessionalsHandler constructs handler.
func NewProfessionalsHandler(directory *service.DirectoryService, ledger *service.LedgerService) *ProfessionalsHandler {
	return &ProfessionalsHandler{directory: directory, ledger: ledger}
}

// List handles GET /professionals.
func (h *ProfessionalsHandler) List(c *fiber.Ctx) error {
	pros, err := h.directory.ListActive(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"professionals": dto.NewProfessionalList(pros)})
}

// Get handles GET /professionals/:id. The owner and admins also see the ledger.
func (h *ProfessionalsHandler) Get(c *fiber.Ctx) error {
	claims, _ := auth.ClaimsFromContext(c)
	view, err := h.directory.Get(c.UserContext(), c.Params("id"), claims)
	if err != nil {
		return err
	}
	if view.IncludeLedger {
		return c.JSON(fiber.Map{"professional": dto.NewProfessionalDetailResponse(view.Professional, view.History)})
	}
	return c.JSON(fiber.Map{"professional": dto.NewProfessionalResponse(view.Professional)})
}

// GetByCode handles GET /professionals/by-code/:code.
func (h *ProfessionalsHandler) GetByCode(c *fiber.Ctx) error {
	pro, err := h.directory.GetByReferralCode(c.UserContext(), c.Params("code"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"professional": dto.NewProfessionalResponse(*pro)})
}

// Update handles PUT /professionals/:id.
func (h *ProfessionalsHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateProfessionalRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	claims, _ := auth.ClaimsFromContext(c)

	pro, err := h.directory.Update(c.UserContext(), c.Params("id"), req.ProfileUpdate(), claims)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"professional": dto.NewProfessionalResponse(*pro)})
}

// RecordCommission handles POST /professionals/:id/commission.
func (h *ProfessionalsHandler) RecordCommission(c *fiber.Ctx) error {
	var req dto.RecordCommissionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	date, err := req.EntryDate()
	if err != nil {
		return apperrors.NewValidationError("invalid date", map[string]any{"date": req.Date})
	}
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	ctx := c.UserContext()
	entry, _, err := h.ledger.RecordEntry(ctx, service.RecordEntryInput{
		ProfessionalID: c.Params("id"),
		ClientName:     req.ClientName,
		PurchaseValue:  req.PurchaseValue,
		Date:           date,
	}, claims.Principal())
	if err != nil {
		return err
	}

	pro, history, err := h.ledger.Statement(ctx, entry.ProfessionalID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.RecordCommissionResponse{
		Professional: dto.NewProfessionalDetailResponse(*pro, history),
		Entry:        dto.NewCommissionEntryResponse(*entry),
	})
}

// ReferralQR handles GET /professionals/:id/referral-qr and renders the
// referral code as a PNG QR image.
func (h *ProfessionalsHandler) ReferralQR(c *fiber.Ctx) error {
	size := c.QueryInt("size", defaultQRSize)
	if size < minQRSize || size > maxQRSize {
		return apperrors.NewValidationError("invalid size", map[string]any{"min": minQRSize, "max": maxQRSize})
	}

	view, err := h.directory.Get(c.UserContext(), c.Params("id"), nil)
	if err != nil {
		return err
	}

	code, err := qr.Encode(view.Professional.ReferralCode, qr.M, qr.Auto)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	code, err = barcode.Scale(code, size, size)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, code); err != nil {
		return apperrors.NewInternalError(err)
	}
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
	c.Type("png")
	return c.Send(buf.Bytes())
}
