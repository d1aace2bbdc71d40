package service

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fgtintas/referral-service/internal/auth"
	"github.com/fgtintas/referral-service/internal/cache"
	"github.com/fgtintas/referral-service/internal/domain"
	"github.com/fgtintas/referral-service/internal/events"
	"github.com/fgtintas/referral-service/internal/repository"
	apperrors "github.com/fgtintas/referral-service/pkg/util/errorutil"
)

var referralPattern = regexp.MustCompile(`^FG-[A-Z0-9]{6}$`)

func TestRegisterIssuesReferralCode(t *testing.T) {
	env := newTestEnv(t)
	pro := env.register(t, "  Carlos@Email.com ", "Carlos Silva")

	assert.Regexp(t, referralPattern, pro.ReferralCode)
	assert.Equal(t, "carlos@email.com", pro.Email)
	assert.Equal(t, "PR", pro.Profile.State)
	assert.True(t, pro.Active)
	assert.True(t, pro.CommissionBalance.IsZero())
	assert.Empty(t, pro.PasswordHash)
}

func TestConcurrentRegisterSameEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]*domain.Professional, 2)
	errs := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = env.directory.Register(ctx, RegisterInput{
				Email:    "same@email.com",
				Password: "secret123",
				Profile:  domain.Profile{Name: "Same"},
			})
		}(i)
	}
	wg.Wait()

	var ok, dup int
	for i, err := range errs {
		switch {
		case err == nil:
			ok++
			assert.Regexp(t, referralPattern, results[i].ReferralCode)
		case apperrors.HasCode(err, apperrors.CodeDuplicateEmail):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, dup)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.directory.Register(ctx, RegisterInput{Email: "bad", Password: "secret123", Profile: domain.Profile{Name: "X"}})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = env.directory.Register(ctx, RegisterInput{Email: "a@b.com", Password: "123", Profile: domain.Profile{Name: "X"}})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = env.directory.Register(ctx, RegisterInput{Email: "a@b.com", Password: "secret123"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestUpdateSelfOrAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	carlos := env.register(t, "carlos@email.com", "Carlos Silva")
	ana := env.register(t, "ana@email.com", "Ana Lima")

	specialty := "Pintura residencial"
	updated, err := env.directory.Update(ctx, carlos.ID, domain.ProfileUpdate{Specialty: &specialty}, claimsFor(carlos.Principal()))
	require.NoError(t, err)
	assert.Equal(t, specialty, updated.Profile.Specialty)
	assert.Equal(t, carlos.ReferralCode, updated.ReferralCode)

	_, err = env.directory.Update(ctx, ana.ID, domain.ProfileUpdate{Specialty: &specialty}, claimsFor(carlos.Principal()))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	city := "Londrina"
	updated, err = env.directory.Update(ctx, ana.ID, domain.ProfileUpdate{City: &city}, claimsFor(env.admin))
	require.NoError(t, err)
	assert.Equal(t, "Londrina", updated.Profile.City)

	_, err = env.directory.Update(ctx, "missing", domain.ProfileUpdate{City: &city}, claimsFor(env.admin))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = env.directory.Update(ctx, ana.ID, domain.ProfileUpdate{City: &city}, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}

func TestUpdateRejectsEmptyName(t *testing.T) {
	env := newTestEnv(t)
	carlos := env.register(t, "carlos@email.com", "Carlos Silva")
	blank := "  "

	_, err := env.directory.Update(context.Background(), carlos.ID, domain.ProfileUpdate{Name: &blank}, claimsFor(carlos.Principal()))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestGetIncludesLedgerOnlyForOwnerAndAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	carlos := env.register(t, "carlos@email.com", "Carlos Silva")
	ana := env.register(t, "ana@email.com", "Ana Lima")
	_, _, err := env.ledger.RecordEntry(ctx, RecordEntryInput{ProfessionalID: carlos.ID, ClientName: "Maria", PurchaseValue: money("100.00")}, env.admin)
	require.NoError(t, err)

	view, err := env.directory.Get(ctx, carlos.ID, nil)
	require.NoError(t, err)
	assert.False(t, view.IncludeLedger)
	assert.Empty(t, view.History)

	view, err = env.directory.Get(ctx, carlos.ID, claimsFor(ana.Principal()))
	require.NoError(t, err)
	assert.False(t, view.IncludeLedger)

	view, err = env.directory.Get(ctx, carlos.ID, claimsFor(carlos.Principal()))
	require.NoError(t, err)
	assert.True(t, view.IncludeLedger)
	assert.Len(t, view.History, 1)
	assert.Equal(t, "1.00", view.Professional.CommissionBalance.StringFixed(2))

	view, err = env.directory.Get(ctx, carlos.ID, claimsFor(env.admin))
	require.NoError(t, err)
	assert.True(t, view.IncludeLedger)

	_, err = env.directory.Get(ctx, "missing", nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestDeactivateHidesFromPublicButKeepsHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	carlos := env.register(t, "carlos@email.com", "Carlos Silva")
	env.register(t, "ana@email.com", "Ana Lima")
	_, _, err := env.ledger.RecordEntry(ctx, RecordEntryInput{ProfessionalID: carlos.ID, ClientName: "Maria", PurchaseValue: money("100.00")}, env.admin)
	require.NoError(t, err)

	_, err = env.directory.SetActive(ctx, carlos.ID, false, claimsFor(carlos.Principal()))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	pro, err := env.directory.SetActive(ctx, carlos.ID, false, claimsFor(env.admin))
	require.NoError(t, err)
	assert.False(t, pro.Active)

	listed, err := env.directory.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "ana@email.com", listed[0].Email)

	_, err = env.directory.Get(ctx, carlos.ID, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	_, err = env.directory.GetByReferralCode(ctx, carlos.ReferralCode)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	history, err := env.ledger.History(ctx, carlos.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	inactive := false
	all, err := env.directory.ListAll(ctx, repository.ProfessionalFilter{Active: &inactive})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, carlos.ID, all[0].ID)
}

func TestGetByReferralCode(t *testing.T) {
	env := newTestEnv(t)
	carlos := env.register(t, "carlos@email.com", "Carlos Silva")

	got, err := env.directory.GetByReferralCode(context.Background(), " "+carlos.ReferralCode+" ")
	require.NoError(t, err)
	assert.Equal(t, carlos.ID, got.ID)

	_, err = env.directory.GetByReferralCode(context.Background(), "nonsense")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestDirectoryPublishesEvents(t *testing.T) {
	env := newTestEnv(t)
	var seen []events.EventType
	events.SubscribeAll(env.dispatcher, events.AllEventTypes, func(_ context.Context, e events.Event) error {
		seen = append(seen, e.Type)
		return nil
	})

	carlos := env.register(t, "carlos@email.com", "Carlos Silva")
	city := "Maringá"
	_, err := env.directory.Update(context.Background(), carlos.ID, domain.ProfileUpdate{City: &city}, claimsFor(carlos.Principal()))
	require.NoError(t, err)

	assert.Equal(t, []events.EventType{events.EventProfessionalRegistered, events.EventProfessionalUpdated}, seen)
}

// unreachableProfessionals fails every lookup, so a NotFound result proves the
// service rejected the id without querying the store.
type unreachableProfessionals struct {
	repository.ProfessionalRepository
}

var errStoreQueried = errors.New("store queried")

func (unreachableProfessionals) GetByID(context.Context, string) (*domain.Professional, error) {
	return nil, errStoreQueried
}

func (unreachableProfessionals) UpdateProfile(context.Context, string, domain.ProfileUpdate) (*domain.Professional, error) {
	return nil, errStoreQueried
}

func (unreachableProfessionals) SetActive(context.Context, string, bool) (*domain.Professional, error) {
	return nil, errStoreQueried
}

func TestMalformedIDIsNotFoundWithoutQuery(t *testing.T) {
	env := newTestEnv(t)
	directory := NewDirectoryService(DirectoryDependencies{
		Professionals: unreachableProfessionals{},
		Commissions:   env.store.Commissions(),
		Credentials:   env.credentials,
	})
	ctx := context.Background()
	admin := claimsFor(env.admin)
	city := "Londrina"

	_, err := directory.Get(ctx, "abc", nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound), err.Error())
	_, err = directory.Update(ctx, "abc", domain.ProfileUpdate{City: &city}, admin)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound), err.Error())
	_, err = directory.SetActive(ctx, "abc", false, admin)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound), err.Error())

	other := &auth.Claims{PrincipalID: "4f1c2d8e-0000-4000-8000-000000000001", Email: "ana@email.com", Name: "Ana", Role: domain.RoleProfessional}
	_, err = directory.Update(ctx, "abc", domain.ProfileUpdate{City: &city}, other)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden), "ownership is checked before the id")
}

// racingProfessionals runs interleave after the listing query returns and
// before the caller sees it, like a write landing mid-read.
type racingProfessionals struct {
	repository.ProfessionalRepository
	interleave func()
}

func (r *racingProfessionals) List(ctx context.Context, filter repository.ProfessionalFilter) ([]domain.Professional, error) {
	pros, err := r.ProfessionalRepository.List(ctx, filter)
	if r.interleave != nil {
		r.interleave()
		r.interleave = nil
	}
	return pros, err
}

func TestListActiveDoesNotCacheListingOverlappingAWrite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	carlos := env.register(t, "carlos@email.com", "Carlos Silva")
	env.register(t, "ana@email.com", "Ana Lima")

	directoryCache := cache.NewMemoryDirectoryCache(time.Minute)
	dispatcher := events.NewInMemoryDispatcher()
	cache.RegisterInvalidation(dispatcher, directoryCache, nil)
	racing := &racingProfessionals{ProfessionalRepository: env.store.Professionals()}
	directory := NewDirectoryService(DirectoryDependencies{
		Professionals: racing,
		Commissions:   env.store.Commissions(),
		Credentials:   env.credentials,
		Cache:         directoryCache,
		Dispatcher:    dispatcher,
	})
	racing.interleave = func() {
		_, err := directory.SetActive(ctx, carlos.ID, false, claimsFor(env.admin))
		require.NoError(t, err)
	}

	stale, err := directory.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, stale, 2, "the overlapping read still answers its own caller")

	listed, err := directory.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1, "deactivated professional is not served from cache")
	assert.Equal(t, "ana@email.com", listed[0].Email)

	cached, ok, err := directoryCache.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, cached, 1)
}
