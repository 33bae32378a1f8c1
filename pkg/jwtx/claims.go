package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token lifetimes issued by the development server.
const (
	DefaultAccessTokenTTL  = time.Hour
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// SessionClaims are the claims carried by both session tokens.
type SessionClaims struct {
	jwt.RegisteredClaims

	// TokenID identifies the session both tokens belong to.
	TokenID string `json:"tid,omitempty"`

	// UserID of the authenticated account
	UserID string `json:"uid"`

	// Username of the authenticated account
	Username string `json:"usn"`

	// Vars are caller supplied session variables echoed back by the server.
	Vars map[string]string `json:"vrs,omitempty"`
}

// NewSessionClaims builds claims expiring ttl after now.
func NewSessionClaims(tokenID, userID, username string, vars map[string]string, ttl time.Duration, now time.Time) SessionClaims {
	return SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		TokenID:  tokenID,
		UserID:   userID,
		Username: username,
		Vars:     vars,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ParseUnverified decodes token claims without checking the signature. The
// client only needs the expiry and identity the server put in the token; the
// server remains the authority on whether the token is valid.
func ParseUnverified(token string) (*SessionClaims, error) {
	if token == "" {
		return nil, ErrMalformed
	}

	claims := &SessionClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return claims, nil
}

// Expiry returns the exp claim or the zero time.
func (c *SessionClaims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// ValidateExpiryAt ensures the token hasn't expired at now, allowing leeway
// for clock skew.
func (c *SessionClaims) ValidateExpiryAt(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt == nil {
		return ErrInvalidClaim
	}
	if now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}
	return nil
}

// IsExpired reports whether err is an expiry failure from this package or
// the underlying jwt library.
func IsExpired(err error) bool {
	return errors.Is(err, ErrExpired) || errors.Is(err, jwt.ErrTokenExpired)
}
