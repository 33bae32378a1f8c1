package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/arcade/internal/devserver/http"
	"github.com/aussiebroadwan/arcade/internal/devserver/service"
	"github.com/aussiebroadwan/arcade/internal/devserver/store"
	"github.com/aussiebroadwan/arcade/internal/devserver/store/memory"
	"github.com/aussiebroadwan/arcade/pkg/cryptox"
	"github.com/aussiebroadwan/arcade/pkg/jwtx"
	"github.com/aussiebroadwan/arcade/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application is the development game server with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     store.Store
	router *httpapi.Router
	server *http.Server
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "devserver",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		db: memory.NewStore(),
	}

	router, err := NewRouter(cfg, app.db, app.logger)
	if err != nil {
		return nil, err
	}
	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return app, nil
}

// NewRouter wires services over st and returns the routed handler. Tests
// serve it with httptest.
func NewRouter(cfg Config, st store.Store, logger *slog.Logger) (*httpapi.Router, error) {
	access, err := newSigner(cfg.TokenKey)
	if err != nil {
		return nil, fmt.Errorf("token key: %w", err)
	}
	refresh, err := newSigner(cfg.RefreshTokenKey)
	if err != nil {
		return nil, fmt.Errorf("refresh token key: %w", err)
	}

	enc, err := loadEncryption(cfg)
	if err != nil {
		return nil, err
	}

	accessTTL, refreshTTL := cfg.TokenTTL, cfg.RefreshTokenTTL
	if accessTTL <= 0 {
		accessTTL = jwtx.DefaultAccessTokenTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = jwtx.DefaultRefreshTokenTTL
	}

	router := httpapi.NewRouter(cfg.ServerKey, cfg.HTTPKey, BuildVersion, enc, st, logger)
	router.AccountService = &service.AccountService{Store: st, Pepper: cfg.Pepper}
	router.SessionService = &service.SessionService{
		Access:     access,
		Refresh:    refresh,
		Store:      st,
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
	}
	router.StorageService = &service.StorageService{Store: st}
	router.RPC = service.NewRPCRegistry()
	router.AuthLimit = cfg.AuthLimit
	router.APILimit = cfg.APILimit
	router.Debug = cfg.Debug
	router.ApplyRoutes()

	return router, nil
}

// newSigner uses key, or a random per-process key when it is empty.
func newSigner(key string) (*jwtx.HS256, error) {
	if key == "" {
		generated, err := cryptox.GenerateToken(32)
		if err != nil {
			return nil, err
		}
		key = generated
	}
	return jwtx.NewHS256([]byte(key))
}

func loadEncryption(cfg Config) (cryptox.Encryption, error) {
	if cfg.EncryptionMode == "" || cfg.EncryptionMode == cryptox.ModeNone {
		return cryptox.NoEncryption{}, nil
	}

	material, err := cryptox.LoadKeyMaterial(cfg.EncryptionKeyPath, "ENCRYPTION_KEY")
	if err != nil {
		return nil, fmt.Errorf("failed to load encryption key: %w", err)
	}
	enc, err := cryptox.New(cfg.EncryptionMode, material)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize encryption: %w", err)
	}
	return enc, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("devserver starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"encryption", app.cfg.EncryptionMode,
		"debug", app.cfg.Debug,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down devserver...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing store", "error", err)
		return err
	}

	app.logger.Info("devserver stopped")
	return nil
}
