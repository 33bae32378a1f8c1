package gamesdk

import (
	"context"
	"errors"
	"net/http"
	"net/url"
)

var errEmptyRPCID = errors.New("gamesdk: rpc id must not be empty")

// RPC calls the server function id with payload as the session's user.
// The payload is sent as a JSON string; an empty payload sends no body.
func (c *Client) RPC(ctx context.Context, session *Session, id, payload string, opts ...CallOption) (*RPCResult, error) {
	if id == "" {
		return nil, errEmptyRPCID
	}

	return call(ctx, c, session, "RPC", opts, func(ctx context.Context, token string) (*RPCResult, error) {
		return sendJSON[RPCResult](ctx, c, rpcRequest(id, payload, bearer(token), nil))
	})
}

// RPCWithHTTPKey calls the server function id authenticating with the
// server's HTTP key instead of a session.
func (c *Client) RPCWithHTTPKey(ctx context.Context, httpKey, id, payload string, opts ...CallOption) (*RPCResult, error) {
	if id == "" {
		return nil, errEmptyRPCID
	}

	query := url.Values{}
	query.Set("http_key", httpKey)

	return invoke(ctx, c, "RPCWithHTTPKey", opts, func(ctx context.Context) (*RPCResult, error) {
		return sendJSON[RPCResult](ctx, c, rpcRequest(id, payload, "", query))
	})
}

func rpcRequest(id, payload, auth string, query url.Values) request {
	r := request{
		method: http.MethodPost,
		path:   "/v2/rpc/" + url.PathEscape(id),
		query:  query,
		auth:   auth,
	}
	if payload != "" {
		r.body = payload
	}
	return r
}
