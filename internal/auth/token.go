package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vaniflow/vaniflow/internal/domain"
)

// Identity is the authenticated caller attached to a request.
type Identity struct {
	ID    string
	Email string
	Role  string
}

// TokenTTL is the access token lifetime.
const TokenTTL = 7 * 24 * time.Hour

type claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 access tokens.
type TokenManager struct {
	secret []byte
	now    func() time.Time
}

// NewTokenManager creates a manager over the shared secret.
func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret), now: time.Now}
}

// Issue signs an access token for the identity.
func (m *TokenManager) Issue(identity Identity) (string, error) {
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: identity.Email,
		Role:  identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	})
	return token.SignedString(m.secret)
}

// Verify parses and validates a token, returning the caller identity.
// Any defect (bad signature, expiry, missing fields) is Unauthorized.
func (m *TokenManager) Verify(tokenString string) (*Identity, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.Unauthorizedf("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, domain.Unauthorizedf("invalid token")
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return nil, domain.Unauthorizedf("invalid token")
	}
	if c.Subject == "" || c.Email == "" || c.Role == "" {
		return nil, domain.Unauthorizedf("invalid token payload")
	}

	return &Identity{ID: c.Subject, Email: c.Email, Role: c.Role}, nil
}
