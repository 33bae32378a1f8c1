package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (*SessionClaims, error)
}

var (
	ErrMalformed    = errors.New("jwtx: malformed token")
	ErrInvalidSig   = errors.New("jwtx: invalid signature")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
	ErrShortKey     = errors.New("jwtx: signing key must be at least 32 bytes")
)

// HS256 signs and verifies session tokens with a shared secret. Access and
// refresh tokens use separate instances so one can never stand in for the
// other.
type HS256 struct {
	key    []byte
	leeway time.Duration
	now    func() time.Time
}

// NewHS256 returns an HS256 signer/verifier for key.
func NewHS256(key []byte) (*HS256, error) {
	if len(key) < 32 {
		return nil, ErrShortKey
	}
	return &HS256{key: key, now: time.Now}, nil
}

// WithLeeway returns a copy tolerating clock skew of d when verifying.
func (h *HS256) WithLeeway(d time.Duration) *HS256 {
	c := *h
	c.leeway = d
	return &c
}

// Sign produces a compact JWS for claims.
func (h *HS256) Sign(claims SessionClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(h.key)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return s, nil
}

// Verify validates the signature and expiry of tokenStr.
func (h *HS256) Verify(tokenStr string) (*SessionClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(h.leeway),
		jwt.WithTimeFunc(h.now),
	)

	token, err := parser.ParseWithClaims(tokenStr, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		return h.key, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenMalformed):
		return nil, ErrMalformed
	default:
		return nil, fmt.Errorf("jwtx: parse or verify: %w", err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaim
	}
	if claims.UserID == "" {
		return nil, ErrInvalidClaim
	}

	return claims, nil
}
