package http

import (
	"net/http"

	"github.com/aussiebroadwan/arcade/internal/devserver/domain"
	"github.com/aussiebroadwan/arcade/pkg/gamesdk"
	"github.com/aussiebroadwan/arcade/pkg/httpx"
)

type writeObjectsRequest struct {
	Objects []gamesdk.WriteStorageObject `json:"objects" validate:"required,min=1,max=100,dive"`
}

type objectIDsRequest struct {
	ObjectIDs []gamesdk.StorageObjectID `json:"object_ids" validate:"required,min=1,max=100,dive"`
}

func (rt *Router) handleWriteStorage(w http.ResponseWriter, r *http.Request) {
	var body writeObjectsRequest
	if !rt.decodeValid(w, r, &body) {
		return
	}

	writes := make([]domain.StorageWrite, len(body.Objects))
	for i, o := range body.Objects {
		writes[i] = domain.StorageWrite{
			Object: domain.StorageObject{
				Collection:      o.Collection,
				Key:             o.Key,
				Value:           o.Value,
				PermissionRead:  o.PermissionRead,
				PermissionWrite: o.PermissionWrite,
			},
			ExpectVersion: o.Version,
		}
	}

	userID, _ := httpx.UserIDFromContext(r.Context())
	stored, err := rt.StorageService.Write(r.Context(), userID, writes)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}

	acks := make([]gamesdk.StorageObjectAck, len(stored))
	for i, obj := range stored {
		acks[i] = gamesdk.StorageObjectAck{
			Collection: obj.Collection,
			Key:        obj.Key,
			Version:    obj.Version,
			UserID:     obj.UserID,
		}
	}
	rt.writeJSON(w, http.StatusOK, map[string]any{"acks": acks})
}

func (rt *Router) handleReadStorage(w http.ResponseWriter, r *http.Request) {
	var body objectIDsRequest
	if !rt.decodeValid(w, r, &body) {
		return
	}

	userID, _ := httpx.UserIDFromContext(r.Context())
	found, err := rt.StorageService.Read(r.Context(), userID, objectIDs(body.ObjectIDs))
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}

	objects := make([]gamesdk.StorageObject, len(found))
	for i, obj := range found {
		objects[i] = gamesdk.StorageObject{
			Collection:      obj.Collection,
			Key:             obj.Key,
			UserID:          obj.UserID,
			Value:           obj.Value,
			Version:         obj.Version,
			PermissionRead:  obj.PermissionRead,
			PermissionWrite: obj.PermissionWrite,
			CreateTime:      obj.CreatedAt,
			UpdateTime:      obj.UpdatedAt,
		}
	}
	rt.writeJSON(w, http.StatusOK, map[string]any{"objects": objects})
}

func (rt *Router) handleDeleteStorage(w http.ResponseWriter, r *http.Request) {
	var body objectIDsRequest
	if !rt.decodeValid(w, r, &body) {
		return
	}

	userID, _ := httpx.UserIDFromContext(r.Context())
	if err := rt.StorageService.Delete(r.Context(), userID, objectIDs(body.ObjectIDs)); err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, struct{}{})
}

func objectIDs(in []gamesdk.StorageObjectID) []domain.StorageObjectID {
	out := make([]domain.StorageObjectID, len(in))
	for i, id := range in {
		out[i] = domain.StorageObjectID(id)
	}
	return out
}
