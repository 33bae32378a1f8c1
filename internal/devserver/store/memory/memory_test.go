package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/arcade/internal/devserver/domain"
	"github.com/aussiebroadwan/arcade/internal/devserver/store"
	"github.com/aussiebroadwan/arcade/internal/devserver/store/memory"
	"github.com/stretchr/testify/require"
)

func TestAccounts(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()

	acct := domain.Account{
		ID:        "acct-1",
		Username:  "alice",
		Email:     "Alice@Example.com",
		CustomID:  "steam-1",
		DeviceIDs: []string{"device-0001"},
	}
	require.NoError(t, st.Accounts().CreateAccount(ctx, acct))

	t.Run("lookups by every identity", func(t *testing.T) {
		for _, get := range []func() (domain.Account, error){
			func() (domain.Account, error) { return st.Accounts().GetAccountByID(ctx, "acct-1") },
			func() (domain.Account, error) { return st.Accounts().GetAccountByDeviceID(ctx, "device-0001") },
			func() (domain.Account, error) { return st.Accounts().GetAccountByEmail(ctx, "alice@example.com") },
			func() (domain.Account, error) { return st.Accounts().GetAccountByCustomID(ctx, "steam-1") },
		} {
			got, err := get()
			require.NoError(t, err)
			require.Equal(t, "alice", got.Username)
		}
	})

	t.Run("missing account", func(t *testing.T) {
		_, err := st.Accounts().GetAccountByDeviceID(ctx, "nope")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate identities rejected", func(t *testing.T) {
		err := st.Accounts().CreateAccount(ctx, domain.Account{ID: "acct-2", Username: "bob", DeviceIDs: []string{"device-0001"}})
		require.ErrorIs(t, err, store.ErrAlreadyExists)

		err = st.Accounts().CreateAccount(ctx, domain.Account{ID: "acct-2", Username: "alice"})
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("update username", func(t *testing.T) {
		require.NoError(t, st.Accounts().CreateAccount(ctx, domain.Account{ID: "acct-3", Username: "carol"}))

		got, err := st.Accounts().GetAccountByID(ctx, "acct-1")
		require.NoError(t, err)
		got.Username = "carol"
		require.ErrorIs(t, st.Accounts().UpdateAccount(ctx, got), store.ErrAlreadyExists)

		got.Username = "alice2"
		got.Email = "ignored@example.com"
		require.NoError(t, st.Accounts().UpdateAccount(ctx, got))

		got, err = st.Accounts().GetAccountByID(ctx, "acct-1")
		require.NoError(t, err)
		require.Equal(t, "alice2", got.Username)
		require.Equal(t, "Alice@Example.com", got.Email)
	})
}

func TestStorageVersions(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()

	obj := domain.StorageObject{
		Collection: "saves", Key: "slot1", UserID: "u1",
		Value: `{"level":1}`, Version: "v1",
		PermissionRead: domain.ReadOwner, PermissionWrite: domain.WriteOwner,
	}

	_, err := st.Storage().PutObjects(ctx, []domain.StorageWrite{{Object: obj, ExpectVersion: domain.VersionAbsent}})
	require.NoError(t, err)

	_, err = st.Storage().PutObjects(ctx, []domain.StorageWrite{{Object: obj, ExpectVersion: domain.VersionAbsent}})
	require.ErrorIs(t, err, store.ErrVersionMismatch)

	next := obj
	next.Value, next.Version = `{"level":2}`, "v2"
	_, err = st.Storage().PutObjects(ctx, []domain.StorageWrite{{Object: next, ExpectVersion: "stale"}})
	require.ErrorIs(t, err, store.ErrVersionMismatch)

	_, err = st.Storage().PutObjects(ctx, []domain.StorageWrite{{Object: next, ExpectVersion: "v1"}})
	require.NoError(t, err)

	got, err := st.Storage().GetObject(ctx, "saves", "slot1", "u1")
	require.NoError(t, err)
	require.Equal(t, "v2", got.Version)

	t.Run("batch is all or nothing", func(t *testing.T) {
		other := obj
		other.Key = "slot2"
		_, err := st.Storage().PutObjects(ctx, []domain.StorageWrite{
			{Object: other},
			{Object: next, ExpectVersion: "v1"},
		})
		require.ErrorIs(t, err, store.ErrVersionMismatch)

		_, err = st.Storage().GetObject(ctx, "saves", "slot2", "u1")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		err := st.Storage().DeleteObjects(ctx, []domain.StorageObjectID{{Collection: "saves", Key: "slot1", UserID: "u1", Version: "v1"}})
		require.ErrorIs(t, err, store.ErrVersionMismatch)

		require.NoError(t, st.Storage().DeleteObjects(ctx, []domain.StorageObjectID{
			{Collection: "saves", Key: "slot1", UserID: "u1"},
			{Collection: "saves", Key: "missing", UserID: "u1"},
		}))
		_, err = st.Storage().GetObject(ctx, "saves", "slot1", "u1")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestRevocations(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()

	revoked, err := st.Revocations().IsSessionRevoked(ctx, "tid")
	require.NoError(t, err)
	require.False(t, revoked)

	require.NoError(t, st.Revocations().RevokeSession(ctx, "tid", time.Now().Add(time.Hour)))
	revoked, err = st.Revocations().IsSessionRevoked(ctx, "tid")
	require.NoError(t, err)
	require.True(t, revoked)

	require.NoError(t, st.Revocations().RevokeSession(ctx, "old", time.Now().Add(-time.Second)))
	revoked, err = st.Revocations().IsSessionRevoked(ctx, "old")
	require.NoError(t, err)
	require.False(t, revoked)
}
