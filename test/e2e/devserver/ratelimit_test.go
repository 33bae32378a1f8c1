//go:build e2e

package devserver_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/aussiebroadwan/arcade/pkg/gamesdk"
	"github.com/stretchr/testify/require"
)

// TestRateLimit_AuthenticateIsPermanent checks that a 429 from the
// authenticate limiter is surfaced without being retried.
func TestRateLimit_AuthenticateIsPermanent(t *testing.T) {
	baseURL := setupDevserver(t, map[string]string{
		"RATELIMIT_AUTH_REQUESTS": "2",
		"RATELIMIT_AUTH_BURST":    "2",
	})
	client := newClient(t, baseURL)
	ctx := context.Background()

	var lastErr error
	for range 3 {
		_, lastErr = client.AuthenticateDevice(ctx, "e2e-device-ratelimit", "", true, nil)
	}

	apiErr, ok := gamesdk.AsAPIError(lastErr)
	require.True(t, ok)
	require.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	require.False(t, apiErr.Transient)
	require.Equal(t, 3, hits(t, baseURL, "/v2/account/authenticate/device"))
}
