package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultTokenTTL = 24 * time.Hour
	tokenIssuer     = "imagestore"
)

var ErrUnauthorized = errors.New("unauthorized")

// AppClaims carry only the subject; there are no roles.
type AppClaims struct {
	jwt.RegisteredClaims
}

func (c *AppClaims) Username() string {
	return c.Subject
}

type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type TokenOption func(*TokenIssuer)

func WithClock(now func() time.Time) TokenOption {
	return func(t *TokenIssuer) {
		t.now = now
	}
}

// NewTokenIssuer signs and verifies HS256 tokens with secret. Rotating the
// secret invalidates every token issued before.
func NewTokenIssuer(secret string, ttl time.Duration, opts ...TokenOption) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	t := &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *TokenIssuer) Issue(subject string) (string, error) {
	if subject == "" {
		return "", errors.New("token subject is empty")
	}
	now := t.now()

	claims := &AppClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Verify returns the claims of a valid token. Every failure wraps both
// ErrUnauthorized and the underlying jwt error.
func (t *TokenIssuer) Verify(tokenString string) (*AppClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AppClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.secret, nil
	},
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(tokenIssuer),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(*AppClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, jwt.ErrTokenInvalidClaims)
	}

	return claims, nil
}
