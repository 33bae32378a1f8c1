package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/arcade/internal/devserver/domain"
)

var (
	ErrNotFound        = errors.New("store: not found")
	ErrAlreadyExists   = errors.New("store: already exists")
	ErrVersionMismatch = errors.New("store: version mismatch")
	ErrPermission      = errors.New("store: permission denied")
)

// Store is the root data access interface. It exposes sub-repositories to
// keep concerns tidy and testable.
type Store interface {
	Accounts() Accounts
	Storage() Storage
	Revocations() Revocations

	// Ping verifies the store is usable.
	Ping(ctx context.Context) error

	// Close releases any underlying resources.
	Close() error
}

type Accounts interface {
	GetAccountByID(ctx context.Context, id string) (domain.Account, error)
	GetAccountByDeviceID(ctx context.Context, deviceID string) (domain.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (domain.Account, error)
	GetAccountByCustomID(ctx context.Context, customID string) (domain.Account, error)

	// CreateAccount inserts a. It fails with ErrAlreadyExists when the id,
	// username or any linked identity is taken.
	CreateAccount(ctx context.Context, a domain.Account) error

	// UpdateAccount replaces the stored profile of a.ID. It fails with
	// ErrAlreadyExists when the new username is taken.
	UpdateAccount(ctx context.Context, a domain.Account) error
}

type Storage interface {
	// GetObject returns the object stored under collection/key for userID.
	GetObject(ctx context.Context, collection, key, userID string) (domain.StorageObject, error)

	// PutObjects applies every write or none of them. A write whose
	// ExpectVersion does not match fails the batch with ErrVersionMismatch.
	// An existing object with WriteNone fails it with ErrPermission.
	PutObjects(ctx context.Context, writes []domain.StorageWrite) ([]domain.StorageObject, error)

	// DeleteObjects removes every addressed object or none. Missing
	// objects are ignored unless a version is expected.
	DeleteObjects(ctx context.Context, ids []domain.StorageObjectID) error
}

type Revocations interface {
	// RevokeSession marks every token of the session tokenID as invalid
	// until the given time.
	RevokeSession(ctx context.Context, tokenID string, until time.Time) error

	IsSessionRevoked(ctx context.Context, tokenID string) (bool, error)
}
