// Package token issues and verifies stateless HS256 session tokens.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/zkvault/internal/errs"
	"github.com/and161185/zkvault/internal/model"
)

// DefaultTTL is the lifetime of an issued token.
const DefaultTTL = 7 * 24 * time.Hour

// MinKeyLen is the shortest accepted signing key.
const MinKeyLen = 32

// Verifier validates a bearer token and yields its claims.
type Verifier interface {
	Verify(tok string) (model.Claims, error)
}

// Issuer signs new tokens.
type Issuer interface {
	Issue(userID, email string) (string, time.Time, error)
}

// wireClaims is the JWT payload.
type wireClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Service implements Issuer and Verifier. Tokens cannot be revoked before expiry.
type Service struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// Option customizes Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService constructs a token service. An empty or short key is a fatal
// configuration error; there is no fallback key.
func NewService(key []byte, ttl time.Duration, opts ...Option) (*Service, error) {
	if len(key) < MinKeyLen {
		return nil, fmt.Errorf("%w: need at least %d bytes", errs.ErrMissingSigningKey, MinKeyLen)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Service{key: append([]byte(nil), key...), ttl: ttl, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Issue creates a signed token for the given identity.
func (s *Service) Issue(userID, email string) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	c := wireClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := tok.SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify checks signature, structure and expiry. Any failure is errs.ErrUnauthorized.
func (s *Service) Verify(tok string) (model.Claims, error) {
	if tok == "" {
		return model.Claims{}, fmt.Errorf("%w: empty token", errs.ErrUnauthorized)
	}
	var c wireClaims
	parsed, err := jwt.ParseWithClaims(tok, &c, func(*jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return model.Claims{}, fmt.Errorf("%w: %v", errs.ErrUnauthorized, reason(err))
	}

	if _, err := uuid.FromString(c.UserID); err != nil || c.Email == "" || c.Subject != c.UserID {
		return model.Claims{}, fmt.Errorf("%w: bad claims", errs.ErrUnauthorized)
	}
	out := model.Claims{UserID: c.UserID, Email: c.Email, ExpiresAt: c.ExpiresAt.Time}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time
	}
	return out, nil
}

func reason(err error) string {
	switch {
	case err == nil:
		return "invalid token"
	case errors.Is(err, jwt.ErrTokenExpired):
		return "token expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "bad signature"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed token"
	default:
		return "invalid token"
	}
}
