package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fgtintas/referral-service/internal/auth"
	"github.com/fgtintas/referral-service/internal/domain"
	"github.com/fgtintas/referral-service/internal/events"
	"github.com/fgtintas/referral-service/internal/referral"
	"github.com/fgtintas/referral-service/internal/repository/memory"
)

const testSecret = "test_jwt_secret_32_chars_minimum!"

type testEnv struct {
	store       *memory.Store
	credentials *CredentialStore
	directory   *DirectoryService
	ledger      *LedgerService
	auth        *AuthService
	tokens      *auth.TokenManager
	dispatcher  events.Dispatcher
	admin       domain.Principal
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	dispatcher := events.NewInMemoryDispatcher()
	credentials := NewCredentialStore(store.Admins(), store.Professionals(), bcrypt.MinCost)

	directory := NewDirectoryService(DirectoryDependencies{
		Professionals: store.Professionals(),
		Commissions:   store.Commissions(),
		Credentials:   credentials,
		Codes:         referral.NewGenerator(referral.Options{}, store.Professionals()),
		Dispatcher:    dispatcher,
	})
	ledger := NewLedgerService(LedgerDependencies{
		Professionals: store.Professionals(),
		Commissions:   store.Commissions(),
		RatePercent:   decimal.NewFromInt(1),
		Dispatcher:    dispatcher,
	})
	tokens, err := auth.NewTokenManager(testSecret, 7*24*time.Hour)
	require.NoError(t, err)

	hash, err := auth.HashPassword("admin123", bcrypt.MinCost)
	require.NoError(t, err)
	admin := &domain.Admin{ID: uuid.NewString(), Email: "admin@fgtintas.com.br", Name: "Administrador", PasswordHash: hash}
	require.NoError(t, store.Admins().Upsert(context.Background(), admin))

	return &testEnv{
		store:       store,
		credentials: credentials,
		directory:   directory,
		ledger:      ledger,
		auth:        NewAuthService(AuthDependencies{Credentials: credentials, Directory: directory, Tokens: tokens}),
		tokens:      tokens,
		dispatcher:  dispatcher,
		admin:       admin.Principal(),
	}
}

func (e *testEnv) register(t *testing.T, email, name string) *domain.Professional {
	t.Helper()
	pro, err := e.directory.Register(context.Background(), RegisterInput{
		Email:    email,
		Password: "secret123",
		Profile:  domain.Profile{Name: name, City: "Curitiba", State: "pr"},
	})
	require.NoError(t, err)
	return pro
}

func claimsFor(p domain.Principal) *auth.Claims {
	return &auth.Claims{PrincipalID: p.ID, Email: p.Email, Role: p.Role, Name: p.Name}
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
