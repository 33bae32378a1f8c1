package httpx

import (
	"context"

	"github.com/aussiebroadwan/arcade/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeyUserID ctxKey = "user_id"
	CtxKeyClaims ctxKey = "claims"
)

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(CtxKeyUserID).(string)
	return v, ok && v != ""
}

// ClaimsFromContext returns the verified session claims, if any.
func ClaimsFromContext(ctx context.Context) (*jwtx.SessionClaims, bool) {
	c, ok := ctx.Value(CtxKeyClaims).(*jwtx.SessionClaims)
	return c, ok
}
