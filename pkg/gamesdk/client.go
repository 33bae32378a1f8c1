package gamesdk

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/arcade/pkg/cryptox"
	"github.com/aussiebroadwan/arcade/pkg/retry"
	"github.com/aussiebroadwan/arcade/pkg/transport"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// Client defaults.
const (
	DefaultScheme          = "http"
	DefaultHost            = "127.0.0.1"
	DefaultPort            = 7350
	DefaultServerKey       = "defaultkey"
	DefaultTimeout         = 15 * time.Second
	DefaultExpiryLookahead = 5 * time.Minute

	tracerName = "github.com/aussiebroadwan/arcade/pkg/gamesdk"
)

// validate is shared by every client; it caches struct metadata.
var validate = newValidator()

// Client talks to a game server. Exported fields may be adjusted after
// NewClient and before the first call; a Client is safe for concurrent use
// once configured.
type Client struct {
	Scheme    string
	Host      string
	Port      int
	ServerKey string

	// Timeout bounds each attempt of a call. A timed out attempt counts as a
	// connection failure and is retried. Zero disables the limit.
	Timeout time.Duration

	// AutoRefreshSession refreshes sessions about to expire before
	// dispatching a session-bound call.
	AutoRefreshSession bool

	// ExpiryLookahead is how far ahead of expiry a session is refreshed.
	ExpiryLookahead time.Duration

	// RetryConfiguration is the default policy, overridable per call with
	// WithRetry.
	RetryConfiguration retry.Configuration

	// CoalesceRefresh makes concurrent calls on one session share a single
	// refresh. When false every call refreshes independently.
	CoalesceRefresh bool

	Transport  transport.Transport
	Encryption cryptox.Encryption
	Logger     *slog.Logger
	Tracer     trace.Tracer

	refreshGroup singleflight.Group
	now          func() time.Time
	sleep        retry.SleepFunc
}

// NewClient creates a client for the server at scheme://host:port
// authenticating with serverKey.
func NewClient(scheme, host string, port int, serverKey string) *Client {
	if scheme == "" {
		scheme = DefaultScheme
	}
	if host == "" {
		host = DefaultHost
	}
	if port == 0 {
		port = DefaultPort
	}

	logger := slog.Default()
	tr := transport.NewHTTPTransport(0)
	tr.Logger = logger

	return &Client{
		Scheme:             scheme,
		Host:               host,
		Port:               port,
		ServerKey:          serverKey,
		Timeout:            DefaultTimeout,
		AutoRefreshSession: true,
		ExpiryLookahead:    DefaultExpiryLookahead,
		RetryConfiguration: retry.DefaultConfiguration(),
		Transport:          tr,
		Encryption:         cryptox.NoEncryption{},
		Logger:             logger,
		now:                time.Now,
	}
}

// NewDefaultClient creates a client for a local development server.
func NewDefaultClient() *Client {
	return NewClient(DefaultScheme, DefaultHost, DefaultPort, DefaultServerKey)
}

// NewClientFromURL parses rawURL (e.g. "https://game.example.com:7350").
func NewClientFromURL(rawURL, serverKey string) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("gamesdk: parse server url: %w", err)
	}
	if u.Scheme == "" || u.Hostname() == "" {
		return nil, fmt.Errorf("gamesdk: server url %q needs a scheme and host", rawURL)
	}

	port := 0
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("gamesdk: invalid port %q: %w", p, err)
		}
	} else if u.Scheme == "https" {
		port = 443
	}

	return NewClient(u.Scheme, u.Hostname(), port, serverKey), nil
}

// BaseURL returns scheme://host:port.
func (c *Client) BaseURL() string {
	u := url.URL{
		Scheme: c.Scheme,
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
	}
	return u.String()
}

// String renders the client configuration without the server key.
func (c *Client) String() string {
	return fmt.Sprintf(
		"Client(Host=%q, Port=%d, Scheme=%q, Timeout=%s, AutoRefreshSession=%t, Retry={%s %s %d})",
		c.Host,
		c.Port,
		c.Scheme,
		c.Timeout,
		c.AutoRefreshSession,
		c.RetryConfiguration.BaseDelay,
		c.RetryConfiguration.Jitter,
		c.RetryConfiguration.MaxRetries,
	)
}

func (c *Client) url(path string, query url.Values) string {
	u := url.URL{
		Scheme: c.Scheme,
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   path,
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

func (c *Client) tracer() trace.Tracer {
	if c.Tracer == nil {
		return otel.Tracer(tracerName)
	}
	return c.Tracer
}

func (c *Client) encryption() cryptox.Encryption {
	if c.Encryption == nil {
		return cryptox.NoEncryption{}
	}
	return c.Encryption
}

func (c *Client) clock() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report json field names so errors match the wire format.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}
