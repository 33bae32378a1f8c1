package http

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/arcade/internal/devserver/service"
	"github.com/aussiebroadwan/arcade/internal/devserver/store"
	"github.com/aussiebroadwan/arcade/pkg/cryptox"
	"github.com/aussiebroadwan/arcade/pkg/httpx"
	"github.com/aussiebroadwan/arcade/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	serverKey    string
	httpKey      string
	buildVersion string
	startTime    time.Time
	encryption   cryptox.Encryption
	logger       *slog.Logger
	faults       *faultInjector

	store          store.Store
	AccountService *service.AccountService
	SessionService *service.SessionService
	StorageService *service.StorageService
	RPC            *service.RPCRegistry

	// Rate limits; a zero config disables the limit.
	AuthLimit httpx.RateLimitConfig
	APILimit  httpx.RateLimitConfig

	// Debug exposes the /debug fault injection endpoints.
	Debug bool
}

func NewRouter(
	serverKey, httpKey, buildVersion string,
	enc cryptox.Encryption,
	st store.Store,
	logger *slog.Logger,
) *Router {
	if enc == nil {
		enc = cryptox.NoEncryption{}
	}

	r := &Router{
		Mux:          http.NewServeMux(),
		serverKey:    serverKey,
		httpKey:      httpKey,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		encryption:   enc,
		logger:       logger,
		faults:       newFaultInjector(),
		store:        st,
		AuthLimit:    httpx.AuthLimit,
		APILimit:     httpx.APILimit,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		r.faultMiddleware,
		decompress,
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuthenticate()
	r.registerSession()
	r.registerAccount()
	r.registerRPC()
	r.registerStorage()
	r.registerSystem()
	if r.Debug {
		r.registerDebug()
	}
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// requireServerKey checks basic auth carrying the server key as username.
func (r *Router) requireServerKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		user, _, ok := req.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(user), []byte(r.serverKey)) != 1 {
			w.Header().Set("WWW-Authenticate", `Basic realm="server key"`)
			r.writeError(w, http.StatusUnauthorized, httpx.CodeUnauthenticated, "server key invalid")
			return
		}
		next.ServeHTTP(w, req)
	})
}

// bearerOrHTTPKey accepts either the http_key query parameter or a session.
func (r *Router) bearerOrHTTPKey(next http.Handler) http.Handler {
	withSession := httpx.AuthnMiddleware(r.SessionService.Verifier())(next)

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		key := req.URL.Query().Get("http_key")
		if key == "" {
			withSession.ServeHTTP(w, req)
			return
		}
		if r.httpKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(r.httpKey)) != 1 {
			r.writeError(w, http.StatusUnauthorized, httpx.CodeUnauthenticated, "http key invalid")
			return
		}
		next.ServeHTTP(w, req)
	})
}

func (r *Router) registerAuthenticate() {
	limit := httpx.RateLimitMiddleware(r.AuthLimit, httpx.CompositeKeyExtractor(":",
		httpx.IPKeyExtractor,
		httpx.QueryParamKeyExtractor("username"),
	))

	for path, h := range map[string]http.HandlerFunc{
		"POST /v2/account/authenticate/device": r.handleAuthenticateDevice,
		"POST /v2/account/authenticate/email":  r.handleAuthenticateEmail,
		"POST /v2/account/authenticate/custom": r.handleAuthenticateCustom,
	} {
		r.Mux.Handle(path, httpx.Chain(h, limit, r.requireServerKey))
	}
}

func (r *Router) registerSession() {
	r.Mux.Handle("POST /v2/account/session/refresh",
		httpx.Chain(http.HandlerFunc(r.handleSessionRefresh),
			httpx.RateLimitByIP(r.AuthLimit),
			r.requireServerKey,
		),
	)

	r.Mux.Handle("POST /v2/session/logout",
		httpx.Chain(http.HandlerFunc(r.handleSessionLogout),
			httpx.AuthnMiddleware(r.SessionService.Verifier()),
		),
	)
}

func (r *Router) registerAccount() {
	authn := httpx.AuthnMiddleware(r.SessionService.Verifier())
	limit := httpx.RateLimitByUser(r.APILimit)

	r.Mux.Handle("GET /v2/account", httpx.Chain(http.HandlerFunc(r.handleGetAccount), authn, limit))
	r.Mux.Handle("PUT /v2/account", httpx.Chain(http.HandlerFunc(r.handleUpdateAccount), authn, limit))
}

func (r *Router) registerRPC() {
	r.Mux.Handle("POST /v2/rpc/{id}",
		httpx.Chain(http.HandlerFunc(r.handleRPC),
			r.bearerOrHTTPKey,
			httpx.RateLimitByUser(r.APILimit),
		),
	)
}

func (r *Router) registerStorage() {
	authn := httpx.AuthnMiddleware(r.SessionService.Verifier())
	limit := httpx.RateLimitByUser(r.APILimit)

	r.Mux.Handle("PUT /v2/storage", httpx.Chain(http.HandlerFunc(r.handleWriteStorage), authn, limit))
	r.Mux.Handle("POST /v2/storage", httpx.Chain(http.HandlerFunc(r.handleReadStorage), authn, limit))
	r.Mux.Handle("PUT /v2/storage/delete", httpx.Chain(http.HandlerFunc(r.handleDeleteStorage), authn, limit))
}

func (r *Router) registerSystem() {
	r.Mux.HandleFunc("GET /healthcheck", r.handleHealthcheck)
	r.Mux.HandleFunc("GET /livez", LivezHandler(r.startTime, r.buildVersion))
}

func (r *Router) registerDebug() {
	r.Mux.HandleFunc("POST /debug/faults", r.handleInjectFaults)
	r.Mux.HandleFunc("DELETE /debug/faults", r.handleResetFaults)
	r.Mux.HandleFunc("GET /debug/hits", r.handleHits)
}
