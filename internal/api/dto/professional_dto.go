package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fgtintas/referral-service/internal/domain"
)

const dateLayout = "2006-01-02"

// UpdateProfessionalRequest lists the editable profile fields. Fields not
// declared here (email, referralCode, balance, history) are ignored.
type UpdateProfessionalRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=120"`
	Phone       *string `json:"phone" validate:"omitempty,max=30"`
	Whatsapp    *string `json:"whatsapp" validate:"omitempty,max=30"`
	Specialty   *string `json:"specialty" validate:"omitempty,max=120"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	City        *string `json:"city" validate:"omitempty,max=120"`
	State       *string `json:"state" validate:"omitempty,max=2"`
	Photo       *string `json:"photo" validate:"omitempty,max=500"`
}

// ProfileUpdate converts the request.
func (r UpdateProfessionalRequest) ProfileUpdate() domain.ProfileUpdate {
	return domain.ProfileUpdate{
		Name:        r.Name,
		Phone:       r.Phone,
		Whatsapp:    r.Whatsapp,
		Specialty:   r.Specialty,
		Description: r.Description,
		City:        r.City,
		State:       r.State,
		Photo:       r.Photo,
	}
}

// RecordCommissionRequest payload for POST /professionals/:id/commission.
type RecordCommissionRequest struct {
	ClientName    string          `json:"clientName" validate:"required,max=200"`
	PurchaseValue decimal.Decimal `json:"purchaseValue" validate:"required"`
	Date          string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// EntryDate parses Date, nil when absent.
func (r RecordCommissionRequest) EntryDate() (*time.Time, error) {
	if r.Date == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, r.Date)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// SetStatusRequest payload for PATCH /admin/professionals/:id/status.
type SetStatusRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// ProfessionalResponse is the public directory shape.
type ProfessionalResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Whatsapp     string    `json:"whatsapp"`
	Specialty    string    `json:"specialty"`
	Description  string    `json:"description"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	Photo        string    `json:"photo"`
	ReferralCode string    `json:"referralCode"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ProfessionalDetailResponse adds the ledger for the owner and admins.
type ProfessionalDetailResponse struct {
	ProfessionalResponse
	CommissionBalance string                    `json:"commissionBalance"`
	CommissionHistory []CommissionEntryResponse `json:"commissionHistory"`
}

// AdminProfessionalResponse is a listing row for the admin console.
type AdminProfessionalResponse struct {
	ProfessionalResponse
	CommissionBalance string    `json:"commissionBalance"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// CommissionEntryResponse renders one ledger entry.
type CommissionEntryResponse struct {
	ID              string    `json:"id"`
	ProfessionalID  string    `json:"professionalId"`
	Date            string    `json:"date"`
	ClientName      string    `json:"clientName"`
	PurchaseValue   string    `json:"purchaseValue"`
	CommissionRate  string    `json:"commissionRate"`
	CommissionValue string    `json:"commissionValue"`
	AddedBy         string    `json:"addedBy"`
	CreatedAt       time.Time `json:"createdAt"`
}

// RecordCommissionResponse is returned after an entry is recorded.
type RecordCommissionResponse struct {
	Professional ProfessionalDetailResponse `json:"professional"`
	Entry        CommissionEntryResponse    `json:"entry"`
}

// DashboardResponse is the professional's own summary.
type DashboardResponse struct {
	ProfessionalDetailResponse
	CommissionRate string `json:"commissionRate"`
	EntryCount     int    `json:"entryCount"`
}

// FormatMoney renders an amount with exactly two fraction digits.
func FormatMoney(v decimal.Decimal) string {
	return v.StringFixedBank(domain.MoneyPlaces)
}

// NewProfessionalResponse maps the public fields.
func NewProfessionalResponse(p domain.Professional) ProfessionalResponse {
	return ProfessionalResponse{
		ID:           p.ID,
		Name:         p.Profile.Name,
		Email:        p.Email,
		Phone:        p.Profile.Phone,
		Whatsapp:     p.Profile.Whatsapp,
		Specialty:    p.Profile.Specialty,
		Description:  p.Profile.Description,
		City:         p.Profile.City,
		State:        p.Profile.State,
		Photo:        p.Profile.Photo,
		ReferralCode: p.ReferralCode,
		Active:       p.Active,
		CreatedAt:    p.CreatedAt,
	}
}

// NewProfessionalList maps a listing.
func NewProfessionalList(pros []domain.Professional) []ProfessionalResponse {
	out := make([]ProfessionalResponse, 0, len(pros))
	for _, p := range pros {
		out = append(out, NewProfessionalResponse(p))
	}
	return out
}

// NewAdminProfessionalList maps the admin listing.
func NewAdminProfessionalList(pros []domain.Professional) []AdminProfessionalResponse {
	out := make([]AdminProfessionalResponse, 0, len(pros))
	for _, p := range pros {
		out = append(out, AdminProfessionalResponse{
			ProfessionalResponse: NewProfessionalResponse(p),
			CommissionBalance:    FormatMoney(p.CommissionBalance),
			UpdatedAt:            p.UpdatedAt,
		})
	}
	return out
}

// NewProfessionalDetailResponse maps a professional with its ledger.
func NewProfessionalDetailResponse(p domain.Professional, history []domain.CommissionEntry) ProfessionalDetailResponse {
	entries := make([]CommissionEntryResponse, 0, len(history))
	for _, e := range history {
		entries = append(entries, NewCommissionEntryResponse(e))
	}
	return ProfessionalDetailResponse{
		ProfessionalResponse: NewProfessionalResponse(p),
		CommissionBalance:    FormatMoney(p.CommissionBalance),
		CommissionHistory:    entries,
	}
}

// NewCommissionEntryResponse maps a ledger entry.
func NewCommissionEntryResponse(e domain.CommissionEntry) CommissionEntryResponse {
	return CommissionEntryResponse{
		ID:              e.ID,
		ProfessionalID:  e.ProfessionalID,
		Date:            e.Date.Format(dateLayout),
		ClientName:      e.ClientName,
		PurchaseValue:   FormatMoney(e.PurchaseValue),
		CommissionRate:  FormatMoney(e.CommissionRate),
		CommissionValue: FormatMoney(e.CommissionValue),
		AddedBy:         e.AddedBy,
		CreatedAt:       e.CreatedAt,
	}
}
