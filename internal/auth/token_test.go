package auth

import (
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fgtintas/referral-service/internal/domain"
)

const testSecret = "test_jwt_secret_32_chars_minimum!"

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }

func newTestTokenManager(t *testing.T) (*TokenManager, *fakeClock) {
	t.Helper()
	tm, err := NewTokenManager(testSecret, 7*24*time.Hour)
	require.NoError(t, err)
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	tm.now = clock.Now
	return tm, clock
}

var carlos = domain.Principal{ID: "pro-1", Email: "carlos@email.com", Name: "Carlos Silva", Role: domain.RoleProfessional}

func TestNewTokenManagerRejectsShortSecret(t *testing.T) {
	_, err := NewTokenManager(strings.Repeat("x", MinSecretBytes-1), time.Hour)
	require.Error(t, err)

	_, err = NewTokenManager(strings.Repeat("x", MinSecretBytes), time.Hour)
	require.NoError(t, err)
}

func TestIssueThenVerify(t *testing.T) {
	tm, clock := newTestTokenManager(t)

	session, err := tm.Issue(carlos)
	require.NoError(t, err)
	assert.Equal(t, clock.t, session.IssuedAt)
	assert.Equal(t, clock.t.Add(7*24*time.Hour), session.ExpiresAt)

	claims, err := tm.Verify(session.Token)
	require.NoError(t, err)
	assert.Equal(t, carlos, claims.Principal())
	assert.Equal(t, "pro-1", claims.Subject)
}

func TestVerifyFailsAfterExpiry(t *testing.T) {
	tm, clock := newTestTokenManager(t)
	session, err := tm.Issue(carlos)
	require.NoError(t, err)

	clock.t = session.ExpiresAt.Add(-time.Second)
	_, err = tm.Verify(session.Token)
	require.NoError(t, err)

	clock.t = session.ExpiresAt.Add(time.Second)
	_, err = tm.Verify(session.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyCollapsesFailures(t *testing.T) {
	tm, clock := newTestTokenManager(t)
	session, err := tm.Issue(carlos)
	require.NoError(t, err)

	other, err := NewTokenManager(strings.Repeat("o", MinSecretBytes), time.Hour)
	require.NoError(t, err)
	other.now = clock.Now
	foreign, err := other.Issue(carlos)
	require.NoError(t, err)

	tampered := session.Token + "A"

	for name, token := range map[string]string{
		"empty":       "",
		"malformed":   "not-a-jwt",
		"bad sig":     foreign.Token,
		"tampered":    tampered,
		"three parts": "a.b.c",
	} {
		_, err := tm.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken, name)
	}
}

func TestVerifyRejectsMissingClaims(t *testing.T) {
	tm, clock := newTestTokenManager(t)

	sign := func(claims jwt.Claims) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return token
	}
	registered := jwt.RegisteredClaims{
		Subject:   "pro-1",
		IssuedAt:  jwt.NewNumericDate(clock.t),
		ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour)),
	}

	noRole := sign(&Claims{PrincipalID: "pro-1", Email: "a@b.c", Name: "A", RegisteredClaims: registered})
	badRole := sign(&Claims{PrincipalID: "pro-1", Email: "a@b.c", Name: "A", Role: "root", RegisteredClaims: registered})
	noExp := sign(&Claims{PrincipalID: "pro-1", Email: "a@b.c", Name: "A", Role: domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "pro-1", IssuedAt: jwt.NewNumericDate(clock.t)}})
	noEmail := sign(&Claims{PrincipalID: "pro-1", Name: "A", Role: domain.RoleAdmin, RegisteredClaims: registered})

	for name, token := range map[string]string{"no role": noRole, "bad role": badRole, "no exp": noExp, "no email": noEmail} {
		_, err := tm.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken, name)
	}
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	tm, clock := newTestTokenManager(t)
	claims := &Claims{
		PrincipalID: "pro-1", Email: "a@b.c", Name: "A", Role: domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "pro-1",
			IssuedAt:  jwt.NewNumericDate(clock.t),
			ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = tm.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssueRejectsUnknownRole(t *testing.T) {
	tm, _ := newTestTokenManager(t)
	_, err := tm.Issue(domain.Principal{ID: "x", Email: "x@y.z", Name: "X", Role: "guest"})
	assert.Error(t, err)
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret!", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)
	assert.NoError(t, ComparePassword(hash, "s3cret!"))
	assert.Error(t, ComparePassword(hash, "wrong"))
}
