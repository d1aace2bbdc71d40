package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fgtintas/referral-service/internal/domain"
	"github.com/fgtintas/referral-service/internal/events"
	"github.com/fgtintas/referral-service/internal/observability"
	"github.com/fgtintas/referral-service/internal/repository"
	apperrors "github.com/fgtintas/referral-service/pkg/util/errorutil"
)

// RecordEntryInput describes one attributed purchase.
type RecordEntryInput struct {
	ProfessionalID string
	ClientName     string
	PurchaseValue  decimal.Decimal
	// Date defaults to the current UTC day.
	Date *time.Time
}

// LedgerService records commission entries and reads the ledger.
type LedgerService struct {
	pros        repository.ProfessionalRepository
	commissions repository.CommissionRepository
	ratePercent decimal.Decimal
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// LedgerDependencies wires LedgerService.
type LedgerDependencies struct {
	Professionals repository.ProfessionalRepository
	Commissions   repository.CommissionRepository
	RatePercent   decimal.Decimal
	Dispatcher    events.Dispatcher
	Metrics       *observability.Metrics
	Logger        *zap.Logger
}

// NewLedgerService builds the service.
func NewLedgerService(deps LedgerDependencies) *LedgerService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		pros:        deps.Professionals,
		commissions: deps.Commissions,
		ratePercent: deps.RatePercent,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      logger,
		now:         time.Now,
	}
}

// RatePercent is the commission rate applied to new entries.
func (s *LedgerService) RatePercent() decimal.Decimal {
	return s.ratePercent
}

// RecordEntry appends an entry for the professional and increments the
// balance in the same store transaction. Only admins may record entries.
func (s *LedgerService) RecordEntry(ctx context.Context, in RecordEntryInput, actor domain.Principal) (*domain.CommissionEntry, *domain.Professional, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, nil, apperrors.NewForbidden("admin role required")
	}

	clientName := strings.TrimSpace(in.ClientName)
	details := map[string]any{}
	if clientName == "" {
		details["clientName"] = "client name is required"
	}
	if !in.PurchaseValue.IsPositive() {
		details["purchaseValue"] = "purchase value must be positive"
	} else if !domain.IsMoney(in.PurchaseValue) {
		details["purchaseValue"] = "purchase value must have at most two decimal places"
	} else if in.PurchaseValue.GreaterThan(domain.MaxMoney) {
		details["purchaseValue"] = "purchase value exceeds the supported range"
	}
	if len(details) > 0 {
		return nil, nil, apperrors.NewValidationError("invalid commission entry", details)
	}
	if !validID(in.ProfessionalID) {
		return nil, nil, professionalNotFound(in.ProfessionalID)
	}

	now := s.now().UTC()
	date := now
	if in.Date != nil {
		date = in.Date.UTC()
	}

	entry := &domain.CommissionEntry{
		ID:              ulid.Make().String(),
		ProfessionalID:  in.ProfessionalID,
		Date:            time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		ClientName:      clientName,
		PurchaseValue:   in.PurchaseValue.Round(domain.MoneyPlaces),
		CommissionRate:  s.ratePercent,
		CommissionValue: domain.ComputeCommission(in.PurchaseValue, s.ratePercent),
		AddedBy:         actor.Email,
	}

	pro, err := s.commissions.Append(ctx, entry)
	if err != nil {
		return nil, nil, mapRepoError(err, "professional", in.ProfessionalID)
	}

	s.metrics.RecordCommission(entry.CommissionValue)
	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		ID:             uuid.NewString(),
		Type:           events.EventCommissionRecorded,
		ProfessionalID: pro.ID,
		Actor:          events.ActorFromPrincipal(actor),
		Timestamp:      now,
		Payload: events.CommissionRecordedPayload{
			EntryID:         entry.ID,
			PurchaseValue:   entry.PurchaseValue,
			CommissionValue: entry.CommissionValue,
			Balance:         pro.CommissionBalance,
		},
	})

	redacted := pro.Redacted()
	return entry, &redacted, nil
}

// History returns the professional's entries, most recent first.
func (s *LedgerService) History(ctx context.Context, professionalID string) ([]domain.CommissionEntry, error) {
	_, entries, err := s.Statement(ctx, professionalID)
	return entries, err
}

// Statement returns the professional and their entries from one snapshot, so
// the balance always equals the sum of the returned entries.
func (s *LedgerService) Statement(ctx context.Context, professionalID string) (*domain.Professional, []domain.CommissionEntry, error) {
	if !validID(professionalID) {
		return nil, nil, professionalNotFound(professionalID)
	}
	pro, entries, err := s.commissions.Statement(ctx, professionalID)
	if err != nil {
		return nil, nil, mapRepoError(err, "professional", professionalID)
	}
	redacted := pro.Redacted()
	return &redacted, entries, nil
}

// Balance returns the stored running balance.
func (s *LedgerService) Balance(ctx context.Context, professionalID string) (decimal.Decimal, error) {
	if !validID(professionalID) {
		return decimal.Zero, professionalNotFound(professionalID)
	}
	pro, err := s.pros.GetByID(ctx, professionalID)
	if err != nil {
		return decimal.Zero, mapRepoError(err, "professional", professionalID)
	}
	return pro.CommissionBalance, nil
}
