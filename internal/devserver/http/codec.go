package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/arcade/internal/devserver/service"
	"github.com/aussiebroadwan/arcade/pkg/httpx"
	"github.com/aussiebroadwan/arcade/pkg/slogx"
	"github.com/go-playground/validator/v10"
	"github.com/klauspost/compress/gzip"
)

const maxBodyBytes = 4 << 20

var (
	errEmptyBody     = errors.New("request body is empty")
	errEncryptedBody = errors.New("encrypted body but encryption is disabled")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// decode reads a JSON body into dst, decrypting it first when it was sent
// as application/octet-stream.
func (rt *Router) decode(r *http.Request, dst any) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(raw) == 0 {
		return errEmptyBody
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/octet-stream") {
		if !rt.encryption.IsEnabled() {
			return errEncryptedBody
		}
		text, err := rt.encryption.Decrypt(raw)
		if err != nil {
			return fmt.Errorf("decrypt body: %w", err)
		}
		raw = []byte(text)
	}

	return json.Unmarshal(raw, dst)
}

// decodeValid decodes and validates a body, answering 400 on failure.
func (rt *Router) decodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := rt.decode(r, dst); err != nil {
		rt.writeError(w, http.StatusBadRequest, httpx.CodeInvalidArgument, err.Error())
		return false
	}
	if err := validate.Struct(dst); err != nil {
		rt.writeError(w, http.StatusBadRequest, httpx.CodeInvalidArgument, err.Error())
		return false
	}
	return true
}

// writeJSON answers with v, sealed when encryption is enabled.
func (rt *Router) writeJSON(w http.ResponseWriter, status int, v any) {
	if !rt.encryption.IsEnabled() {
		httpx.WriteJSON(w, status, v)
		return
	}

	raw, err := json.Marshal(v)
	if err == nil {
		var sealed []byte
		if sealed, err = rt.encryption.Encrypt(string(raw)); err == nil {
			httpx.NoCache(w)
			w.Header().Set("Content-Type", "application/octet-stream")
			w.WriteHeader(status)
			_, _ = w.Write(sealed)
			return
		}
	}

	rt.logger.Error("encode response failed", "err", err)
	httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeInternal, "encode response")
}

func (rt *Router) writeError(w http.ResponseWriter, status, code int, message string) {
	rt.writeJSON(w, status, httpx.ErrorBody{
		Error:   http.StatusText(status),
		Message: message,
		Code:    code,
	})
}

// writeServiceError maps service failures onto HTTP status and error code.
func (rt *Router) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		rt.writeError(w, http.StatusUnauthorized, httpx.CodeUnauthenticated, "invalid credentials")
	case errors.Is(err, service.ErrInvalidSession):
		rt.writeError(w, http.StatusUnauthorized, httpx.CodeUnauthenticated, "refresh token invalid or expired")
	case errors.Is(err, service.ErrAccountNotFound):
		rt.writeError(w, http.StatusNotFound, httpx.CodeNotFound, "account not found")
	case errors.Is(err, service.ErrRPCNotFound):
		rt.writeError(w, http.StatusNotFound, httpx.CodeNotFound, "rpc function not found")
	case errors.Is(err, service.ErrUsernameTaken):
		rt.writeError(w, http.StatusConflict, httpx.CodeAlreadyExists, "username is already in use")
	case errors.Is(err, service.ErrVersionMismatch):
		rt.writeError(w, http.StatusConflict, httpx.CodeFailedPrecondition, "storage write rejected: version check failed")
	case errors.Is(err, service.ErrPermissionDenied):
		rt.writeError(w, http.StatusForbidden, httpx.CodePermissionDenied, "permission denied")
	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		rt.writeError(w, http.StatusInternalServerError, httpx.CodeInternal, "internal error")
	}
}

// decompress inflates gzip request bodies.
func decompress(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.EqualFold(r.Header.Get("Content-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		zr, err := gzip.NewReader(r.Body)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidArgument, "invalid gzip body")
			return
		}
		defer zr.Close()

		r.Body = zr
		r.Header.Del("Content-Encoding")
		next.ServeHTTP(w, r)
	})
}
