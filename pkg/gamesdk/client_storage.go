package gamesdk

import (
	"context"
	"net/http"
)

// WriteStorageObjects stores objects owned by the session's user.
//
// Writes are retried like any other call. Pass a Version on each object to
// make a repeated write conditional and therefore safe to retry.
func (c *Client) WriteStorageObjects(
	ctx context.Context,
	session *Session,
	objects []WriteStorageObject,
	opts ...CallOption,
) ([]StorageObjectAck, error) {
	body := writeStorageObjectsRequest{Objects: objects}
	if err := validate.Struct(body); err != nil {
		return nil, newValidationError("WriteStorageObjects", err)
	}

	resp, err := call(ctx, c, session, "WriteStorageObjects", opts, func(ctx context.Context, token string) (*storageObjectAcks, error) {
		return sendJSON[storageObjectAcks](ctx, c, request{
			method: http.MethodPut,
			path:   "/v2/storage",
			auth:   bearer(token),
			body:   body,
		})
	})
	if err != nil {
		return nil, err
	}
	return resp.Acks, nil
}

// ReadStorageObjects fetches objects by id. Missing objects are omitted.
func (c *Client) ReadStorageObjects(
	ctx context.Context,
	session *Session,
	ids []StorageObjectID,
	opts ...CallOption,
) ([]StorageObject, error) {
	body := storageObjectIDsRequest{ObjectIDs: ids}
	if err := validate.Struct(body); err != nil {
		return nil, newValidationError("ReadStorageObjects", err)
	}

	resp, err := call(ctx, c, session, "ReadStorageObjects", opts, func(ctx context.Context, token string) (*storageObjects, error) {
		return sendJSON[storageObjects](ctx, c, request{
			method: http.MethodPost,
			path:   "/v2/storage",
			auth:   bearer(token),
			body:   body,
		})
	})
	if err != nil {
		return nil, err
	}
	return resp.Objects, nil
}

// DeleteStorageObjects removes objects owned by the session's user.
func (c *Client) DeleteStorageObjects(
	ctx context.Context,
	session *Session,
	ids []StorageObjectID,
	opts ...CallOption,
) error {
	body := storageObjectIDsRequest{ObjectIDs: ids}
	if err := validate.Struct(body); err != nil {
		return newValidationError("DeleteStorageObjects", err)
	}

	_, err := call(ctx, c, session, "DeleteStorageObjects", opts, func(ctx context.Context, token string) (struct{}, error) {
		return struct{}{}, c.send(ctx, request{
			method: http.MethodPut,
			path:   "/v2/storage/delete",
			auth:   bearer(token),
			body:   body,
		}, nil)
	})
	return err
}
