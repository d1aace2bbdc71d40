package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fgtintas/referral-service/internal/auth"
	"github.com/fgtintas/referral-service/internal/cache"
	"github.com/fgtintas/referral-service/internal/domain"
	"github.com/fgtintas/referral-service/internal/events"
	"github.com/fgtintas/referral-service/internal/observability"
	"github.com/fgtintas/referral-service/internal/referral"
	"github.com/fgtintas/referral-service/internal/repository"
	apperrors "github.com/fgtintas/referral-service/pkg/util/errorutil"
)

// RegisterInput is a professional self-registration.
type RegisterInput struct {
	Email    string
	Password string
	Profile  domain.Profile
}

// ProfessionalView is a professional as seen by a particular caller. History
// is only populated when IncludeLedger is true.
type ProfessionalView struct {
	Professional  domain.Professional
	History       []domain.CommissionEntry
	IncludeLedger bool
}

// DirectoryService manages professional profiles and registration.
type DirectoryService struct {
	pros        repository.ProfessionalRepository
	commissions repository.CommissionRepository
	credentials *CredentialStore
	codes       *referral.Generator
	cache       cache.DirectoryCache
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// DirectoryDependencies wires DirectoryService.
type DirectoryDependencies struct {
	Professionals repository.ProfessionalRepository
	Commissions   repository.CommissionRepository
	Credentials   *CredentialStore
	Codes         *referral.Generator
	Cache         cache.DirectoryCache
	Dispatcher    events.Dispatcher
	Metrics       *observability.Metrics
	Logger        *zap.Logger
}

// NewDirectoryService builds the service.
func NewDirectoryService(deps DirectoryDependencies) *DirectoryService {
	c := deps.Cache
	if c == nil {
		c = cache.Noop{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryService{
		pros:        deps.Professionals,
		commissions: deps.Commissions,
		credentials: deps.Credentials,
		codes:       deps.Codes,
		cache:       c,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      logger,
		now:         time.Now,
	}
}

// Register creates the credential and attaches a fresh referral code in one
// insert. A referral code collision at insert time draws a new code.
func (s *DirectoryService) Register(ctx context.Context, in RegisterInput) (*domain.Professional, error) {
	email := NormalizeEmail(in.Email)
	profile := trimProfile(in.Profile)
	if err := validateRegistration(email, profile); err != nil {
		return nil, err
	}
	hash, err := s.credentials.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < s.codes.MaxAttempts(); attempt++ {
		code, err := s.codes.Generate(ctx)
		if err != nil {
			return nil, apperrors.NewInternalError(fmt.Errorf("generate referral code: %w", err))
		}

		pro := &domain.Professional{
			ID:           uuid.NewString(),
			Email:        email,
			PasswordHash: hash,
			ReferralCode: code,
			Profile:      profile,
			Active:       true,
		}
		err = s.pros.Create(ctx, pro)
		switch {
		case err == nil:
			s.metrics.RecordRegistration()
			s.publish(ctx, events.EventProfessionalRegistered, pro.ID, events.ActorFromPrincipal(pro.Principal()),
				events.ProfessionalRegisteredPayload{ReferralCode: pro.ReferralCode, Email: pro.Email})
			redacted := pro.Redacted()
			return &redacted, nil
		case errors.Is(err, repository.ErrDuplicateReferralCode):
			continue
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, apperrors.NewDuplicateEmail()
		default:
			return nil, apperrors.NewInternalError(fmt.Errorf("create professional: %w", err))
		}
	}
	return nil, apperrors.NewInternalError(referral.ErrExhausted)
}

// Get returns the professional by id. Inactive professionals are hidden from
// everyone but themselves and admins, who also get balance and history.
func (s *DirectoryService) Get(ctx context.Context, id string, viewer *auth.Claims) (*ProfessionalView, error) {
	if !validID(id) {
		return nil, professionalNotFound(id)
	}
	if auth.CanManageProfessional(viewer, id) == nil {
		pro, history, err := s.commissions.Statement(ctx, id)
		if err != nil {
			return nil, mapRepoError(err, "professional", id)
		}
		return &ProfessionalView{Professional: pro.Redacted(), History: history, IncludeLedger: true}, nil
	}

	pro, err := s.pros.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "professional", id)
	}
	if !pro.Active {
		return nil, professionalNotFound(id)
	}
	return &ProfessionalView{Professional: pro.Redacted()}, nil
}

// GetByReferralCode resolves an attribution handle to an active professional.
func (s *DirectoryService) GetByReferralCode(ctx context.Context, code string) (*domain.Professional, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !s.codes.Valid(code) {
		return nil, apperrors.NewNotFound("professional", map[string]any{"referralCode": code})
	}
	pro, err := s.pros.GetByReferralCode(ctx, code)
	if err != nil {
		return nil, mapRepoError(err, "professional", code)
	}
	if !pro.Active {
		return nil, apperrors.NewNotFound("professional", map[string]any{"referralCode": code})
	}
	redacted := pro.Redacted()
	return &redacted, nil
}

// Update applies allow-listed profile fields. Professionals may only update
// themselves; admins may update anyone.
func (s *DirectoryService) Update(ctx context.Context, id string, update domain.ProfileUpdate, caller *auth.Claims) (*domain.Professional, error) {
	if err := auth.CanManageProfessional(caller, id); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, professionalNotFound(id)
	}
	update = trimUpdate(update)
	if err := validateUpdate(update); err != nil {
		return nil, err
	}

	if update.Empty() {
		pro, err := s.pros.GetByID(ctx, id)
		if err != nil {
			return nil, mapRepoError(err, "professional", id)
		}
		redacted := pro.Redacted()
		return &redacted, nil
	}

	pro, err := s.pros.UpdateProfile(ctx, id, update)
	if err != nil {
		return nil, mapRepoError(err, "professional", id)
	}
	s.publish(ctx, events.EventProfessionalUpdated, id, events.ActorFromPrincipal(caller.Principal()),
		events.ProfessionalUpdatedPayload{Fields: updatedFields(update)})
	redacted := pro.Redacted()
	return &redacted, nil
}

// SetActive soft-deletes or reactivates a professional. Admin only.
func (s *DirectoryService) SetActive(ctx context.Context, id string, active bool, caller *auth.Claims) (*domain.Professional, error) {
	if caller == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if caller.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("admin role required")
	}
	if !validID(id) {
		return nil, professionalNotFound(id)
	}

	current, err := s.pros.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "professional", id)
	}
	if current.Active == active {
		redacted := current.Redacted()
		return &redacted, nil
	}

	pro, err := s.pros.SetActive(ctx, id, active)
	if err != nil {
		return nil, mapRepoError(err, "professional", id)
	}
	s.publish(ctx, events.EventProfessionalStatusChanged, id, events.ActorFromPrincipal(caller.Principal()),
		events.ProfessionalStatusChangedPayload{OldActive: current.Active, NewActive: active})
	redacted := pro.Redacted()
	return &redacted, nil
}

// ListActive returns the public directory, served from cache when possible.
func (s *DirectoryService) ListActive(ctx context.Context) ([]domain.Professional, error) {
	if cached, ok, err := s.cache.Get(ctx); err != nil {
		s.logger.Debug("directory cache read failed", zap.Error(err))
	} else if ok {
		return cached, nil
	}

	generation, genErr := s.cache.Generation(ctx)
	active := true
	pros, err := s.list(ctx, repository.ProfessionalFilter{Active: &active})
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		s.logger.Debug("directory cache generation read failed", zap.Error(genErr))
		return pros, nil
	}
	if err := s.cache.Set(ctx, generation, pros); err != nil && !errors.Is(err, cache.ErrStale) {
		s.logger.Debug("directory cache write failed", zap.Error(err))
	}
	return pros, nil
}

// ListAll returns professionals for the admin console. The filter may narrow
// by active flag and page through the result.
func (s *DirectoryService) ListAll(ctx context.Context, filter repository.ProfessionalFilter) ([]domain.Professional, error) {
	return s.list(ctx, filter)
}

func (s *DirectoryService) list(ctx context.Context, filter repository.ProfessionalFilter) ([]domain.Professional, error) {
	pros, err := s.pros.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("list professionals: %w", err))
	}
	for i := range pros {
		pros[i] = pros[i].Redacted()
	}
	return pros, nil
}

func (s *DirectoryService) publish(ctx context.Context, t events.EventType, professionalID string, actor events.Actor, payload any) {
	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		ID:             uuid.NewString(),
		Type:           t,
		ProfessionalID: professionalID,
		Actor:          actor,
		Timestamp:      s.now().UTC(),
		Payload:        payload,
	})
}

func validateRegistration(email string, profile domain.Profile) error {
	details := map[string]any{}
	if email == "" || !strings.Contains(email, "@") {
		details["email"] = "a valid email is required"
	}
	if profile.Name == "" {
		details["name"] = "name is required"
	}
	if len(profile.State) > 2 {
		details["state"] = "state must be a two letter code"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid registration", details)
	}
	return nil
}

func validateUpdate(u domain.ProfileUpdate) error {
	details := map[string]any{}
	if u.Name != nil && *u.Name == "" {
		details["name"] = "name cannot be empty"
	}
	if u.State != nil && len(*u.State) > 2 {
		details["state"] = "state must be a two letter code"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid profile update", details)
	}
	return nil
}

func trimProfile(p domain.Profile) domain.Profile {
	p.Name = strings.TrimSpace(p.Name)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Whatsapp = strings.TrimSpace(p.Whatsapp)
	p.Specialty = strings.TrimSpace(p.Specialty)
	p.Description = strings.TrimSpace(p.Description)
	p.City = strings.TrimSpace(p.City)
	p.State = strings.ToUpper(strings.TrimSpace(p.State))
	p.Photo = strings.TrimSpace(p.Photo)
	return p
}

func trimUpdate(u domain.ProfileUpdate) domain.ProfileUpdate {
	trim := func(v *string) *string {
		if v == nil {
			return nil
		}
		t := strings.TrimSpace(*v)
		return &t
	}
	u.Name = trim(u.Name)
	u.Phone = trim(u.Phone)
	u.Whatsapp = trim(u.Whatsapp)
	u.Specialty = trim(u.Specialty)
	u.Description = trim(u.Description)
	u.City = trim(u.City)
	u.Photo = trim(u.Photo)
	if u.State != nil {
		state := strings.ToUpper(strings.TrimSpace(*u.State))
		u.State = &state
	}
	return u
}

func updatedFields(u domain.ProfileUpdate) []string {
	var fields []string
	add := func(name string, v *string) {
		if v != nil {
			fields = append(fields, name)
		}
	}
	add("name", u.Name)
	add("phone", u.Phone)
	add("whatsapp", u.Whatsapp)
	add("specialty", u.Specialty)
	add("description", u.Description)
	add("city", u.City)
	add("state", u.State)
	add("photo", u.Photo)
	return fields
}

// validID reports whether id can name a principal. Ids are uuids, so any
// other string is an unknown professional.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func professionalNotFound(id string) error {
	return apperrors.NewNotFound("professional", map[string]any{"id": id})
}

func mapRepoError(err error, resource, key string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, map[string]any{"id": key})
	case errors.Is(err, repository.ErrValueOutOfRange):
		return apperrors.NewValidationError("amount exceeds the supported range", map[string]any{"id": key})
	}
	return apperrors.NewInternalError(fmt.Errorf("%s %s: %w", resource, key, err))
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
