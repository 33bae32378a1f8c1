package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/arcade/pkg/idx"
	"github.com/klauspost/compress/gzip"
	"golang.org/x/time/rate"
)

// DefaultCompressThreshold is the minimum body size gzip is applied to.
const DefaultCompressThreshold = 1024

// HTTPTransport is the default Transport backed by net/http.
type HTTPTransport struct {
	Client *http.Client
	Logger *slog.Logger

	// Timeout bounds a single attempt. Zero disables the per-attempt limit and
	// leaves timing entirely to the caller's context.
	Timeout time.Duration

	// Compress gzips request bodies at least CompressThreshold bytes long.
	Compress          bool
	CompressThreshold int

	// Limiter, when set, throttles outbound requests client-side.
	Limiter *rate.Limiter
}

// NewHTTPTransport returns an HTTPTransport with a default http.Client.
func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		Client:            &http.Client{},
		Logger:            slog.Default(),
		Timeout:           timeout,
		CompressThreshold: DefaultCompressThreshold,
	}
}

// Send performs the request and returns the response body on 2xx.
func (t *HTTPTransport) Send(ctx context.Context, r *Request) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log := t.logger()

	if t.Limiter != nil {
		if err := t.Limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, &ConnError{Op: "throttle", URL: r.URL, Err: err}
		}
	}

	attemptCtx := ctx
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	body, encoding, err := t.encodeBody(r.Body)
	if err != nil {
		return nil, fmt.Errorf("transport: compress body: %w", err)
	}

	req, err := http.NewRequestWithContext(attemptCtx, r.Method, r.URL, body)
	if err != nil {
		return nil, fmt.Errorf("transport: build request: %w", err)
	}
	for key, value := range r.Headers {
		req.Header.Set(key, value)
	}
	if encoding != "" {
		req.Header.Set("Content-Encoding", encoding)
	}

	reqID := req.Header.Get(HeaderRequestID)
	if reqID == "" {
		reqID = idx.New().String()
		req.Header.Set(HeaderRequestID, reqID)
	}

	start := time.Now()
	resp, err := t.client().Do(req)
	if err != nil {
		// The caller's context wins over anything the attempt reports.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.Debug("transport send failed",
			"req_id", reqID,
			"method", r.Method,
			"url", r.URL,
			"err", err,
		)
		return nil, &ConnError{Op: r.Method, URL: r.URL, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &ConnError{Op: "read", URL: r.URL, Err: err}
	}

	log.Debug("transport response",
		"req_id", reqID,
		"method", r.Method,
		"url", r.URL,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: data}
	}
	return data, nil
}

func (t *HTTPTransport) encodeBody(b []byte) (io.Reader, string, error) {
	if len(b) == 0 {
		return nil, "", nil
	}

	threshold := t.CompressThreshold
	if threshold <= 0 {
		threshold = DefaultCompressThreshold
	}
	if !t.Compress || len(b) < threshold {
		return bytes.NewReader(b), "", nil
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(b); err != nil {
		return nil, "", err
	}
	if err := zw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, "gzip", nil
}

func (t *HTTPTransport) client() *http.Client {
	if t.Client == nil {
		return http.DefaultClient
	}
	return t.Client
}

func (t *HTTPTransport) logger() *slog.Logger {
	if t.Logger == nil {
		return slog.Default()
	}
	return t.Logger
}

// IsContextError reports whether err stems from context cancellation or a
// context deadline.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
