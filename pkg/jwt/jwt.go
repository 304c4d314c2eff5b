package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("missing authorization token")
)

type Claims struct {
	UserID          uuid.UUID  `json:"user_id"`
	TenantID        *uuid.UUID `json:"tenant_id,omitempty"`
	Email           string     `json:"email"`
	Name            string     `json:"name"`
	Role            string     `json:"role"`
	Permissions     []string   `json:"permissions"`
	TokenVersion    string     `json:"token_version"`
	IsImpersonation bool       `json:"is_impersonation,omitempty"`
	ReadOnly        bool       `json:"read_only,omitempty"`
	ImpersonatorID  *uuid.UUID `json:"impersonator_id,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs and verifies HS256 tokens with one secret.
type Manager struct {
	secret              []byte
	issuer              string
	expiry              time.Duration
	impersonationExpiry time.Duration
	now                 func() time.Time
}

func NewManager(secret, issuer string, expiry, impersonationExpiry time.Duration) *Manager {
	return &Manager{
		secret:              []byte(secret),
		issuer:              issuer,
		expiry:              expiry,
		impersonationExpiry: impersonationExpiry,
		now:                 time.Now,
	}
}

// Generate signs claims, filling in the registered claims. Impersonation tokens
// get the shorter impersonation expiry.
func (m *Manager) Generate(claims Claims) (string, time.Time, error) {
	now := m.now()
	ttl := m.expiry
	if claims.IsImpersonation {
		ttl = m.impersonationExpiry
	}
	expiresAt := now.Add(ttl)

	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.UserID.String(),
		Issuer:    m.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		ID:        uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (m *Manager) Validate(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == uuid.Nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
