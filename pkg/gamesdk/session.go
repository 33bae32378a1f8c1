package gamesdk

import (
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/aussiebroadwan/arcade/pkg/cryptox"
	"github.com/aussiebroadwan/arcade/pkg/jwtx"
)

// Session holds the tokens issued to an authenticated user. A Session is an
// entity: a refresh replaces its tokens in place so every holder of the
// pointer sees the new ones. All methods are safe for concurrent use.
type Session struct {
	mu sync.RWMutex

	authToken    string
	refreshToken string
	created      bool
	createTime   time.Time

	expireTime        time.Time
	refreshExpireTime time.Time
	userID            string
	username          string
	vars              map[string]string
}

// NewSession builds a Session from the tokens returned by an authenticate
// call. created reports whether the server created the account.
func NewSession(authToken, refreshToken string, created bool) (*Session, error) {
	s := &Session{created: created, createTime: time.Now().UTC()}
	if err := s.Update(authToken, refreshToken); err != nil {
		return nil, err
	}
	return s, nil
}

// Restore rebuilds a Session from stored tokens.
func Restore(authToken, refreshToken string) (*Session, error) {
	return NewSession(authToken, refreshToken, false)
}

// Update replaces both tokens and recomputes every derived field. It is
// called after a successful refresh.
func (s *Session) Update(authToken, refreshToken string) error {
	if authToken == "" {
		return ErrEmptyAuthToken
	}

	claims, err := jwtx.ParseUnverified(authToken)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	var refreshExpire time.Time
	if refreshToken != "" {
		rc, err := jwtx.ParseUnverified(refreshToken)
		if err != nil {
			return fmt.Errorf("%w: refresh token: %w", ErrInvalidToken, err)
		}
		refreshExpire = rc.Expiry()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.authToken = authToken
	s.refreshToken = refreshToken
	s.expireTime = claims.Expiry()
	s.refreshExpireTime = refreshExpire
	s.userID = claims.UserID
	s.username = claims.Username
	s.vars = claims.Vars

	return nil
}

// AuthToken returns the current access token.
func (s *Session) AuthToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authToken
}

// RefreshToken returns the current refresh token, possibly empty.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// Created reports whether the account was created by the authenticate call
// that produced this session.
func (s *Session) Created() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.created
}

// CreateTime is when the session was constructed on this client.
func (s *Session) CreateTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.createTime
}

// ExpireTime is the access token's exp claim.
func (s *Session) ExpireTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expireTime
}

// RefreshExpireTime is the refresh token's exp claim, zero without one.
func (s *Session) RefreshExpireTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshExpireTime
}

// UserID is the account id carried in the access token.
func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// Username is the account username carried in the access token.
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// Vars returns a copy of the session variables.
func (s *Session) Vars() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.vars)
}

// HasExpired reports whether the access token is expired at t. Pass a time
// in the future to test a look-ahead window.
func (s *Session) HasExpired(t time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !t.Before(s.expireTime)
}

// HasRefreshExpired reports whether the refresh token is expired at t. A
// session without a refresh token is always refresh-expired.
func (s *Session) HasRefreshExpired(t time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.refreshToken == "" {
		return true
	}
	return !t.Before(s.refreshExpireTime)
}

// String renders the session without exposing token values.
func (s *Session) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fmt.Sprintf(
		"Session(AuthToken=%s, RefreshToken=%s, Created=%t, UserID=%q, Username=%q, ExpireTime=%s, RefreshExpireTime=%s)",
		cryptox.FingerprintToken(s.authToken),
		cryptox.FingerprintToken(s.refreshToken),
		s.created,
		s.userID,
		s.username,
		s.expireTime.Format(time.RFC3339),
		s.refreshExpireTime.Format(time.RFC3339),
	)
}

// lifetimes returns access and refresh token lifetimes measured from
// creation.
func (s *Session) lifetimes() (access, refresh time.Duration) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expireTime.Sub(s.createTime), s.refreshExpireTime.Sub(s.createTime)
}
