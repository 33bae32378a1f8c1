// Package memory is an in-process store.Store. Everything is lost on
// restart, which is what a development server wants.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/arcade/internal/devserver/domain"
	"github.com/aussiebroadwan/arcade/internal/devserver/store"
)

type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	accounts  map[string]domain.Account // by id
	devices   map[string]string         // device id -> account id
	emails    map[string]string         // lower-cased email -> account id
	customIDs map[string]string         // custom id -> account id
	usernames map[string]string         // username -> account id

	objects map[objectKey]domain.StorageObject
	revoked map[string]time.Time // token id -> revoked until
}

type objectKey struct {
	collection, key, userID string
}

var _ store.Store = (*Store)(nil)

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		now:       time.Now,
		accounts:  make(map[string]domain.Account),
		devices:   make(map[string]string),
		emails:    make(map[string]string),
		customIDs: make(map[string]string),
		usernames: make(map[string]string),
		objects:   make(map[objectKey]domain.StorageObject),
		revoked:   make(map[string]time.Time),
	}
}

func (s *Store) Accounts() store.Accounts       { return accounts{s} }
func (s *Store) Storage() store.Storage         { return storage{s} }
func (s *Store) Revocations() store.Revocations { return revocations{s} }

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

// ============================================================================
// Accounts
// ============================================================================

type accounts struct{ s *Store }

func (r accounts) GetAccountByID(_ context.Context, id string) (domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.accountLocked(id)
}

func (r accounts) GetAccountByDeviceID(_ context.Context, deviceID string) (domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.accountLocked(r.s.devices[deviceID])
}

func (r accounts) GetAccountByEmail(_ context.Context, email string) (domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.accountLocked(r.s.emails[strings.ToLower(email)])
}

func (r accounts) GetAccountByCustomID(_ context.Context, customID string) (domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.accountLocked(r.s.customIDs[customID])
}

func (r accounts) CreateAccount(_ context.Context, a domain.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.accounts[a.ID]; ok {
		return store.ErrAlreadyExists
	}
	if _, ok := r.s.usernames[a.Username]; ok {
		return store.ErrAlreadyExists
	}
	for _, d := range a.DeviceIDs {
		if _, ok := r.s.devices[d]; ok {
			return store.ErrAlreadyExists
		}
	}
	if a.Email != "" {
		if _, ok := r.s.emails[strings.ToLower(a.Email)]; ok {
			return store.ErrAlreadyExists
		}
	}
	if a.CustomID != "" {
		if _, ok := r.s.customIDs[a.CustomID]; ok {
			return store.ErrAlreadyExists
		}
	}

	a.DeviceIDs = slices.Clone(a.DeviceIDs)
	r.s.accounts[a.ID] = a
	r.s.usernames[a.Username] = a.ID
	for _, d := range a.DeviceIDs {
		r.s.devices[d] = a.ID
	}
	if a.Email != "" {
		r.s.emails[strings.ToLower(a.Email)] = a.ID
	}
	if a.CustomID != "" {
		r.s.customIDs[a.CustomID] = a.ID
	}
	return nil
}

func (r accounts) UpdateAccount(_ context.Context, a domain.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	old, ok := r.s.accounts[a.ID]
	if !ok {
		return store.ErrNotFound
	}
	if a.Username != old.Username {
		if _, taken := r.s.usernames[a.Username]; taken {
			return store.ErrAlreadyExists
		}
		delete(r.s.usernames, old.Username)
		r.s.usernames[a.Username] = a.ID
	}

	// Linked identities are not changed through a profile update.
	a.Email, a.PasswordHash, a.CustomID = old.Email, old.PasswordHash, old.CustomID
	a.DeviceIDs = old.DeviceIDs
	r.s.accounts[a.ID] = a
	return nil
}

func (s *Store) accountLocked(id string) (domain.Account, error) {
	a, ok := s.accounts[id]
	if !ok {
		return domain.Account{}, store.ErrNotFound
	}
	a.DeviceIDs = slices.Clone(a.DeviceIDs)
	return a, nil
}

// ============================================================================
// Storage
// ============================================================================

type storage struct{ s *Store }

func (r storage) GetObject(_ context.Context, collection, key, userID string) (domain.StorageObject, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	obj, ok := r.s.objects[objectKey{collection, key, userID}]
	if !ok {
		return domain.StorageObject{}, store.ErrNotFound
	}
	return obj, nil
}

func (r storage) PutObjects(_ context.Context, writes []domain.StorageWrite) ([]domain.StorageObject, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	// Validate the whole batch before touching anything.
	for _, w := range writes {
		existing, ok := r.s.objects[keyOf(w.Object)]
		if err := checkVersion(existing, ok, w.ExpectVersion); err != nil {
			return nil, err
		}
		if ok && existing.PermissionWrite == domain.WriteNone {
			return nil, store.ErrPermission
		}
	}

	now := r.s.now().UTC()
	out := make([]domain.StorageObject, 0, len(writes))
	for _, w := range writes {
		obj := w.Object
		k := keyOf(obj)
		obj.CreatedAt, obj.UpdatedAt = now, now
		if existing, ok := r.s.objects[k]; ok {
			obj.CreatedAt = existing.CreatedAt
		}
		r.s.objects[k] = obj
		out = append(out, obj)
	}
	return out, nil
}

func (r storage) DeleteObjects(_ context.Context, ids []domain.StorageObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, id := range ids {
		existing, ok := r.s.objects[objectKey{id.Collection, id.Key, id.UserID}]
		if !ok {
			if id.Version != "" {
				return store.ErrVersionMismatch
			}
			continue
		}
		if err := checkVersion(existing, ok, id.Version); err != nil {
			return err
		}
	}

	for _, id := range ids {
		delete(r.s.objects, objectKey{id.Collection, id.Key, id.UserID})
	}
	return nil
}

func keyOf(o domain.StorageObject) objectKey {
	return objectKey{o.Collection, o.Key, o.UserID}
}

func checkVersion(existing domain.StorageObject, exists bool, expect string) error {
	switch {
	case expect == "":
		return nil
	case expect == domain.VersionAbsent:
		if exists {
			return store.ErrVersionMismatch
		}
		return nil
	case !exists || existing.Version != expect:
		return store.ErrVersionMismatch
	}
	return nil
}

// ============================================================================
// Revocations
// ============================================================================

type revocations struct{ s *Store }

func (r revocations) RevokeSession(_ context.Context, tokenID string, until time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	for id, exp := range r.s.revoked {
		if now.After(exp) {
			delete(r.s.revoked, id)
		}
	}
	r.s.revoked[tokenID] = until
	return nil
}

func (r revocations) IsSessionRevoked(_ context.Context, tokenID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	until, ok := r.s.revoked[tokenID]
	return ok && !r.s.now().After(until), nil
}
