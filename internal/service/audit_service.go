package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/fgtintas/referral-service/internal/events"
)

// AuditService writes a structured log line for every directory and ledger event.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventProfessionalRegistered, a.handleRegistered)
	a.dispatcher.Subscribe(events.EventProfessionalUpdated, a.handleGeneric)
	a.dispatcher.Subscribe(events.EventProfessionalStatusChanged, a.handleGeneric)
	a.dispatcher.Subscribe(events.EventCommissionRecorded, a.handleCommissionRecorded)
}

func (a *AuditService) handleRegistered(_ context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.ProfessionalRegisteredPayload)
	a.logger.Info("ProfessionalRegistered",
		zap.String("professional_id", event.ProfessionalID),
		zap.String("referral_code", payload.ReferralCode))
	return nil
}

func (a *AuditService) handleCommissionRecorded(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CommissionRecordedPayload)
	if !ok {
		return a.handleGeneric(context.Background(), event)
	}
	a.logger.Info("CommissionRecorded",
		zap.String("professional_id", event.ProfessionalID),
		zap.String("entry_id", payload.EntryID),
		zap.String("added_by", event.Actor.Email),
		zap.String("purchase_value", payload.PurchaseValue.StringFixed(2)),
		zap.String("commission_value", payload.CommissionValue.StringFixed(2)),
		zap.String("balance", payload.Balance.StringFixed(2)))
	return nil
}

func (a *AuditService) handleGeneric(_ context.Context, event events.Event) error {
	a.logger.Info(string(event.Type),
		zap.String("professional_id", event.ProfessionalID),
		zap.String("actor_id", event.Actor.ID),
		zap.String("actor_role", event.Actor.Role.String()),
		zap.Any("payload", event.Payload))
	return nil
}
