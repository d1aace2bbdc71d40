package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/fgtintas/referral-service/internal/domain"
)

// MinSecretBytes is the shortest HMAC secret NewTokenManager accepts.
const MinSecretBytes = 32

// ErrInvalidToken is returned for every verification failure: malformed,
// badly signed, expired or missing a required claim.
var ErrInvalidToken = errors.New("invalid token")

// Claims describes the JWT payload. All fields are required.
type Claims struct {
	PrincipalID string      `json:"uid"`
	Email       string      `json:"email"`
	Role        domain.Role `json:"role"`
	Name        string      `json:"name"`
	jwt.RegisteredClaims
}

// Principal returns the identity asserted by the claims.
func (c *Claims) Principal() domain.Principal {
	return domain.Principal{ID: c.PrincipalID, Email: c.Email, Name: c.Name, Role: c.Role}
}

func (c *Claims) complete() bool {
	return c.PrincipalID != "" &&
		c.Subject == c.PrincipalID &&
		c.Email != "" &&
		c.Name != "" &&
		c.Role.Valid() &&
		c.IssuedAt != nil &&
		c.ExpiresAt != nil
}

// Session is a freshly issued token and its validity window.
type Session struct {
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager builds a new manager. It refuses secrets shorter than MinSecretBytes.
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if len(secret) < MinSecretBytes {
		return nil, fmt.Errorf("token secret must be at least %d bytes", MinSecretBytes)
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL returns the lifetime of issued tokens.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Issue builds and signs a token for the principal.
func (tm *TokenManager) Issue(p domain.Principal) (Session, error) {
	if !p.Role.Valid() {
		return Session{}, fmt.Errorf("issue token: unknown role %q", p.Role)
	}
	issuedAt := tm.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(tm.ttl)
	claims := &Claims{
		PrincipalID: p.ID,
		Email:       p.Email,
		Role:        p.Role,
		Name:        p.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if !claims.complete() {
		return Session{}, errors.New("issue token: principal is missing identity fields")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: tokenString, IssuedAt: issuedAt, ExpiresAt: expiresAt}, nil
}

// Verify validates signature, expiry and claim shape.
func (tm *TokenManager) Verify(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || !claims.complete() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
