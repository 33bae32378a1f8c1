package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/arcade/internal/devserver/domain"
	"github.com/aussiebroadwan/arcade/internal/devserver/store"
	"github.com/aussiebroadwan/arcade/pkg/cryptox"
	"github.com/aussiebroadwan/arcade/pkg/slogx"
	"github.com/google/uuid"
)

type AccountService struct {
	Store  store.Store
	Pepper string
}

// AuthenticateDevice finds the account linked to deviceID, creating it when
// create is set. The returned bool reports whether it was created.
func (s *AccountService) AuthenticateDevice(ctx context.Context, deviceID, username string, create bool) (domain.Account, bool, error) {
	return s.findOrCreate(ctx, "device", username, create,
		func() (domain.Account, error) { return s.Store.Accounts().GetAccountByDeviceID(ctx, deviceID) },
		func(a *domain.Account) error {
			a.DeviceIDs = []string{deviceID}
			return nil
		},
	)
}

// AuthenticateCustom finds the account linked to an external identifier.
func (s *AccountService) AuthenticateCustom(ctx context.Context, customID, username string, create bool) (domain.Account, bool, error) {
	return s.findOrCreate(ctx, "custom", username, create,
		func() (domain.Account, error) { return s.Store.Accounts().GetAccountByCustomID(ctx, customID) },
		func(a *domain.Account) error {
			a.CustomID = customID
			return nil
		},
	)
}

// AuthenticateEmail checks password against an existing account, or creates
// one with it.
func (s *AccountService) AuthenticateEmail(ctx context.Context, email, password, username string, create bool) (domain.Account, bool, error) {
	email = strings.TrimSpace(email)

	acct, created, err := s.findOrCreate(ctx, "email", username, create,
		func() (domain.Account, error) { return s.Store.Accounts().GetAccountByEmail(ctx, email) },
		func(a *domain.Account) error {
			hash, err := cryptox.HashPassword(password, s.Pepper)
			if err != nil {
				return err
			}
			a.Email, a.PasswordHash = email, hash
			return nil
		},
	)
	if err != nil || created {
		return acct, created, err
	}

	if err := cryptox.VerifyPassword(password, s.Pepper, acct.PasswordHash); err != nil {
		slogx.FromContext(ctx).Info("email authentication failed", slog.String("user_id", acct.ID))
		return domain.Account{}, false, ErrInvalidCredentials
	}
	return acct, false, nil
}

func (s *AccountService) findOrCreate(
	ctx context.Context,
	kind, username string,
	create bool,
	find func() (domain.Account, error),
	link func(*domain.Account) error,
) (domain.Account, bool, error) {
	acct, err := find()
	if err == nil {
		return acct, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.Account{}, false, err
	}
	if !create {
		return domain.Account{}, false, ErrAccountNotFound
	}

	if username == "" {
		username = generateUsername()
	}
	now := time.Now().UTC()
	acct = domain.Account{
		ID:        uuid.NewString(),
		Username:  username,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := link(&acct); err != nil {
		return domain.Account{}, false, err
	}

	if err := s.Store.Accounts().CreateAccount(ctx, acct); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Account{}, false, ErrUsernameTaken
		}
		return domain.Account{}, false, err
	}

	slogx.FromContext(ctx).Info("account created",
		slog.String("user_id", acct.ID),
		slog.String("kind", kind),
	)
	return acct, true, nil
}

// GetAccount returns the account with id.
func (s *AccountService) GetAccount(ctx context.Context, id string) (domain.Account, error) {
	acct, err := s.Store.Accounts().GetAccountByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Account{}, ErrAccountNotFound
	}
	return acct, err
}

// UpdateAccount applies the non-nil fields of u to the account id.
func (s *AccountService) UpdateAccount(ctx context.Context, id string, u domain.AccountUpdate) error {
	acct, err := s.GetAccount(ctx, id)
	if err != nil {
		return err
	}

	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&acct.Username, u.Username)
	set(&acct.DisplayName, u.DisplayName)
	set(&acct.AvatarURL, u.AvatarURL)
	set(&acct.LangTag, u.LangTag)
	set(&acct.Location, u.Location)
	set(&acct.Timezone, u.Timezone)
	acct.UpdatedAt = time.Now().UTC()

	err = s.Store.Accounts().UpdateAccount(ctx, acct)
	switch {
	case errors.Is(err, store.ErrAlreadyExists):
		return ErrUsernameTaken
	case errors.Is(err, store.ErrNotFound):
		return ErrAccountNotFound
	}
	return err
}

func generateUsername() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}
