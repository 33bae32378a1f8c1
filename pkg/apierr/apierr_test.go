package apierr_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/aussiebroadwan/arcade/pkg/apierr"
	"github.com/aussiebroadwan/arcade/pkg/transport"
	"github.com/stretchr/testify/require"
)

func TestIsTransientStatus(t *testing.T) {
	t.Parallel()

	transient := []int{500, 502, 503, 504}
	for _, status := range transient {
		require.True(t, apierr.IsTransientStatus(status), "status %d", status)
	}

	permanent := []int{400, 401, 403, 404, 409, 429, 501, 505, 599}
	for _, status := range permanent {
		require.False(t, apierr.IsTransientStatus(status), "status %d", status)
	}
}

func TestFromResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		body      string
		message   string
		code      int
		transient bool
	}{
		{
			name:    "structured not found",
			status:  http.StatusNotFound,
			body:    `{"message":"account not found","code":5}`,
			message: "account not found",
			code:    5,
		},
		{
			name:    "string code",
			status:  http.StatusBadRequest,
			body:    `{"message":"bad","code":"3"}`,
			message: "bad",
			code:    3,
		},
		{
			name:   "undecodable permanent body",
			status: http.StatusBadRequest,
			body:   `<html>nope</html>`,
			code:   apierr.NoCode,
		},
		{
			name:      "undecodable transient body",
			status:    http.StatusBadGateway,
			body:      `upstream connect error`,
			code:      apierr.NoCode,
			transient: true,
		},
		{
			name:      "structured transient body",
			status:    http.StatusServiceUnavailable,
			body:      `{"message":"try later","code":14}`,
			message:   "try later",
			code:      14,
			transient: true,
		},
		{
			name:   "empty body",
			status: http.StatusUnauthorized,
			code:   apierr.NoCode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := apierr.FromResponse(tt.status, []byte(tt.body), nil)
			require.Equal(t, tt.status, e.StatusCode)
			require.Equal(t, tt.message, e.Message)
			require.Equal(t, tt.code, e.Code)
			require.Equal(t, tt.transient, e.Transient)
		})
	}
}

func TestFromResponse_Details(t *testing.T) {
	t.Parallel()

	e := apierr.FromResponse(http.StatusBadRequest, []byte(`{"message":"x","error":{"field":"email"}}`), nil)
	require.Equal(t, map[string]any{"field": "email"}, e.Details)
}

func TestFromResponse_Decrypt(t *testing.T) {
	t.Parallel()

	decrypt := func(b []byte) (string, error) {
		return `{"message":"decrypted","code":7}`, nil
	}
	e := apierr.FromResponse(http.StatusForbidden, []byte{0x01, 0x02}, decrypt)
	require.Equal(t, "decrypted", e.Message)
	require.Equal(t, 7, e.Code)

	failing := func(b []byte) (string, error) { return "", errors.New("bad key") }
	e = apierr.FromResponse(http.StatusInternalServerError, []byte{0x01}, failing)
	require.Empty(t, e.Message)
	require.True(t, e.Transient)
}

func TestClassify(t *testing.T) {
	t.Parallel()

	t.Run("nil", func(t *testing.T) {
		require.NoError(t, apierr.Classify(nil, nil))
	})

	t.Run("status error", func(t *testing.T) {
		err := apierr.Classify(&transport.StatusError{StatusCode: 504}, nil)

		var apiErr *apierr.Error
		require.ErrorAs(t, err, &apiErr)
		require.True(t, apiErr.Transient)
	})

	t.Run("wrapped status error", func(t *testing.T) {
		wrapped := fmt.Errorf("rpc: %w", &transport.StatusError{StatusCode: 404})
		err := apierr.Classify(wrapped, nil)

		var apiErr *apierr.Error
		require.ErrorAs(t, err, &apiErr)
		require.False(t, apiErr.Transient)
	})

	t.Run("already classified", func(t *testing.T) {
		in := &apierr.Error{StatusCode: 500, Transient: true}
		require.Same(t, in, apierr.Classify(in, nil))
	})

	t.Run("passes through other errors", func(t *testing.T) {
		connErr := &transport.ConnError{Op: "GET", URL: "http://x", Err: errors.New("reset")}
		require.Same(t, connErr, apierr.Classify(connErr, nil))
		require.ErrorIs(t, apierr.Classify(context.Canceled, nil), context.Canceled)
	})
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"transient api error", &apierr.Error{StatusCode: 503, Transient: true}, true},
		{"permanent api error", &apierr.Error{StatusCode: 404}, false},
		{"raw 500", &transport.StatusError{StatusCode: 500}, true},
		{"raw 400", &transport.StatusError{StatusCode: 400}, false},
		{"connection failure", &transport.ConnError{Op: "GET", Err: errors.New("refused")}, true},
		{"attempt timeout", &transport.ConnError{Op: "GET", Err: context.DeadlineExceeded}, true},
		{"cancelled", context.Canceled, false},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), false},
		{"decode failure", errors.New("decode response: unexpected EOF"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, apierr.IsTransient(tt.err))
		})
	}
}

func TestError_Message(t *testing.T) {
	t.Parallel()

	require.Equal(t, "api error: HTTP 404 code=5: not found",
		(&apierr.Error{StatusCode: 404, Code: 5, Message: "not found"}).Error())
	require.Equal(t, "api error: HTTP 502",
		(&apierr.Error{StatusCode: 502, Code: apierr.NoCode}).Error())
	require.Equal(t, 502, apierr.StatusCode(&apierr.Error{StatusCode: 502}))
	require.Equal(t, 0, apierr.StatusCode(errors.New("x")))
}
