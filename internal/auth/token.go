package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is how far ahead a session token's expiry is set.
const TokenTTL = 24 * time.Hour

// ErrMalformedToken marks a persisted token that cannot be decoded.
var ErrMalformedToken = errors.New("auth: malformed session token")

// TokenClaims is the payload carried by a session token.
type TokenClaims struct {
	jwt.RegisteredClaims
	UserID      string `json:"user_id"`
	Role        string `json:"role"`
	ExpiresAtMs int64  `json:"expires_at_ms"`
}

// Expired reports whether the token's expiry lies before now.
func (c *TokenClaims) Expired(now time.Time) bool {
	return c.ExpiresAtMs > 0 && now.UnixMilli() > c.ExpiresAtMs
}

// TokenIssuer mints session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer returns an issuer signing with secret. A zero ttl uses TokenTTL.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = TokenTTL
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue mints a token naming user, its role and an expiry ttl from now.
func (i *TokenIssuer) Issue(user *User) (string, error) {
	if err := user.validate(); err != nil {
		return "", err
	}
	now := i.now()
	expires := now.Add(i.ttl)
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		UserID:      user.ID,
		Role:        user.Role.String(),
		ExpiresAtMs: expires.UnixMilli(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign session token: %w", err)
	}
	return signed, nil
}

// DecodeToken reads the claims of a token without verifying its signature
// or expiry. It only establishes that the token is structurally sound.
func DecodeToken(raw string) (*TokenClaims, error) {
	if raw == "" {
		return nil, ErrMalformedToken
	}
	claims := &TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing user_id", ErrMalformedToken)
	}
	return claims, nil
}
