package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/aussiebroadwan/arcade/internal/devserver/domain"
	"github.com/aussiebroadwan/arcade/internal/devserver/store"
	"github.com/aussiebroadwan/arcade/pkg/cryptox"
	"github.com/aussiebroadwan/arcade/pkg/idx"
	"github.com/aussiebroadwan/arcade/pkg/jwtx"
	"github.com/aussiebroadwan/arcade/pkg/slogx"
)

// ErrSessionRevoked is returned by the session verifier for logged out
// sessions.
var ErrSessionRevoked = fmt.Errorf("%w: session revoked", jwtx.ErrInvalidClaim)

// SessionService issues and rotates session token pairs.
type SessionService struct {
	Access     *jwtx.HS256
	Refresh    *jwtx.HS256
	Store      store.Store
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Issue starts a new session for acct.
func (s *SessionService) Issue(ctx context.Context, acct domain.Account, vars map[string]string, created bool) (domain.TokenPair, error) {
	return s.issue(ctx, idx.New().String(), acct, vars, created)
}

func (s *SessionService) issue(ctx context.Context, tokenID string, acct domain.Account, vars map[string]string, created bool) (domain.TokenPair, error) {
	now := time.Now()

	access, err := s.Access.Sign(jwtx.NewSessionClaims(tokenID, acct.ID, acct.Username, vars, s.AccessTTL, now))
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, err := s.Refresh.Sign(jwtx.NewSessionClaims(tokenID, acct.ID, acct.Username, vars, s.RefreshTTL, now))
	if err != nil {
		return domain.TokenPair{}, err
	}

	slogx.FromContext(ctx).Debug("session issued",
		slog.String("user_id", acct.ID),
		slog.String("token", cryptox.FingerprintToken(access)),
	)
	return domain.TokenPair{Token: access, RefreshToken: refresh, Created: created}, nil
}

// RefreshSession exchanges a refresh token for a new pair in the same
// session. Nil vars keep the session's current vars.
func (s *SessionService) RefreshSession(ctx context.Context, refreshToken string, vars map[string]string) (domain.TokenPair, error) {
	claims, err := s.Refresh.Verify(refreshToken)
	if err != nil {
		slogx.FromContext(ctx).Info("refresh token rejected", slog.Any("err", err))
		return domain.TokenPair{}, ErrInvalidSession
	}

	revoked, err := s.Store.Revocations().IsSessionRevoked(ctx, claims.TokenID)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if revoked {
		return domain.TokenPair{}, ErrInvalidSession
	}

	acct, err := s.Store.Accounts().GetAccountByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrInvalidSession
		}
		return domain.TokenPair{}, err
	}

	if vars == nil {
		vars = maps.Clone(claims.Vars)
	}
	return s.issue(ctx, claims.TokenID, acct, vars, false)
}

// Logout revokes the session the claims belong to.
func (s *SessionService) Logout(ctx context.Context, claims *jwtx.SessionClaims) error {
	return s.Store.Revocations().RevokeSession(ctx, claims.TokenID, time.Now().Add(s.RefreshTTL))
}

// Verifier checks access tokens and rejects revoked sessions.
func (s *SessionService) Verifier() jwtx.Verifier {
	return sessionVerifier{s}
}

type sessionVerifier struct{ s *SessionService }

func (v sessionVerifier) Verify(token string) (*jwtx.SessionClaims, error) {
	claims, err := v.s.Access.Verify(token)
	if err != nil {
		return nil, err
	}

	revoked, err := v.s.Store.Revocations().IsSessionRevoked(context.Background(), claims.TokenID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrSessionRevoked
	}
	return claims, nil
}
