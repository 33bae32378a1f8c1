package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aussiebroadwan/arcade/pkg/slogx"
)

// RPCFunc is a server function. userID is empty for calls authenticated
// with the HTTP key.
type RPCFunc func(ctx context.Context, userID, payload string) (string, error)

// RPCRegistry holds the server functions reachable through /v2/rpc.
type RPCRegistry struct {
	mu    sync.RWMutex
	funcs map[string]RPCFunc
}

// NewRPCRegistry returns a registry with the built-in functions:
// "echo" returns its payload and "whoami" the caller's user id.
func NewRPCRegistry() *RPCRegistry {
	r := &RPCRegistry{funcs: make(map[string]RPCFunc)}
	r.Register("echo", func(_ context.Context, _, payload string) (string, error) {
		return payload, nil
	})
	r.Register("whoami", func(_ context.Context, userID, _ string) (string, error) {
		b, err := json.Marshal(map[string]string{"user_id": userID})
		return string(b), err
	})
	return r
}

// Register adds or replaces the function id.
func (r *RPCRegistry) Register(id string, fn RPCFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[id] = fn
}

// Call runs the function id.
func (r *RPCRegistry) Call(ctx context.Context, id, userID, payload string) (string, error) {
	r.mu.RLock()
	fn, ok := r.funcs[id]
	r.mu.RUnlock()
	if !ok {
		return "", ErrRPCNotFound
	}

	slogx.FromContext(ctx).Debug("rpc", slog.String("id", id), slog.Int("payload_bytes", len(payload)))
	return fn(ctx, userID, payload)
}
