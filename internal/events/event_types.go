package events

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fgtintas/referral-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventProfessionalRegistered    EventType = "professional_registered"
	EventProfessionalUpdated       EventType = "professional_updated"
	EventProfessionalStatusChanged EventType = "professional_status_changed"
	EventCommissionRecorded        EventType = "commission_recorded"
)

// AllEventTypes lists every event the directory and ledger publish.
var AllEventTypes = []EventType{
	EventProfessionalRegistered,
	EventProfessionalUpdated,
	EventProfessionalStatusChanged,
	EventCommissionRecorded,
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID    string      `json:"id,omitempty"`
	Email string      `json:"email,omitempty"`
	Role  domain.Role `json:"role,omitempty"`
}

// ActorFromPrincipal builds the actor block for an authenticated caller.
func ActorFromPrincipal(p domain.Principal) Actor {
	return Actor{ID: p.ID, Email: p.Email, Role: p.Role}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID             string    `json:"id"`
	Type           EventType `json:"type"`
	ProfessionalID string    `json:"professional_id"`
	Actor          Actor     `json:"actor"`
	Timestamp      time.Time `json:"timestamp"`
	Payload        any       `json:"payload,omitempty"`
}

// ProfessionalRegisteredPayload payload.
type ProfessionalRegisteredPayload struct {
	ReferralCode string `json:"referral_code"`
	Email        string `json:"email"`
}

// ProfessionalUpdatedPayload lists the profile fields that were submitted.
type ProfessionalUpdatedPayload struct {
	Fields []string `json:"fields"`
}

// ProfessionalStatusChangedPayload payload.
type ProfessionalStatusChangedPayload struct {
	OldActive bool `json:"old_active"`
	NewActive bool `json:"new_active"`
}

// CommissionRecordedPayload payload.
type CommissionRecordedPayload struct {
	EntryID         string          `json:"entry_id"`
	PurchaseValue   decimal.Decimal `json:"purchase_value"`
	CommissionValue decimal.Decimal `json:"commission_value"`
	Balance         decimal.Decimal `json:"balance"`
}
