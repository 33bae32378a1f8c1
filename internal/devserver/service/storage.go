package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/aussiebroadwan/arcade/internal/devserver/domain"
	"github.com/aussiebroadwan/arcade/internal/devserver/store"
)

// StorageService stores JSON documents on behalf of users.
type StorageService struct {
	Store store.Store
}

// Write stores objects owned by userID. The batch is applied atomically.
func (s *StorageService) Write(ctx context.Context, userID string, writes []domain.StorageWrite) ([]domain.StorageObject, error) {
	owned := make([]domain.StorageWrite, len(writes))
	for i, w := range writes {
		w.Object.UserID = userID
		w.Object.Version = objectVersion(w.Object.Value)
		owned[i] = w
	}

	out, err := s.Store.Storage().PutObjects(ctx, owned)
	return out, mapStorageErr(err)
}

// Read returns the addressed objects callerID may see. Missing and hidden
// objects are left out. An empty UserID addresses the caller's own object.
func (s *StorageService) Read(ctx context.Context, callerID string, ids []domain.StorageObjectID) ([]domain.StorageObject, error) {
	out := make([]domain.StorageObject, 0, len(ids))
	for _, id := range ids {
		owner := id.UserID
		if owner == "" {
			owner = callerID
		}

		obj, err := s.Store.Storage().GetObject(ctx, id.Collection, id.Key, owner)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		visible := obj.PermissionRead == domain.ReadPublic ||
			(obj.PermissionRead == domain.ReadOwner && owner == callerID)
		if visible {
			out = append(out, obj)
		}
	}
	return out, nil
}

// Delete removes objects owned by callerID.
func (s *StorageService) Delete(ctx context.Context, callerID string, ids []domain.StorageObjectID) error {
	owned := make([]domain.StorageObjectID, len(ids))
	for i, id := range ids {
		if id.UserID != "" && id.UserID != callerID {
			return ErrPermissionDenied
		}
		id.UserID = callerID
		owned[i] = id
	}
	return mapStorageErr(s.Store.Storage().DeleteObjects(ctx, owned))
}

func objectVersion(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:16])
}

func mapStorageErr(err error) error {
	switch {
	case errors.Is(err, store.ErrVersionMismatch):
		return ErrVersionMismatch
	case errors.Is(err, store.ErrPermission):
		return ErrPermissionDenied
	}
	return err
}
