package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/arcade/pkg/cryptox"
	"github.com/aussiebroadwan/arcade/pkg/gamesdk"
	"github.com/aussiebroadwan/arcade/pkg/slogx"
	"github.com/aussiebroadwan/arcade/pkg/transport"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"
)

var errNoSession = errors.New("no session: pass --token or set ARCADE_TOKEN")

// app holds what every command needs. It is filled in by load once flags
// have been parsed.
type app struct {
	v        *viper.Viper
	settings settings
	logger   *slog.Logger
	client   *gamesdk.Client
}

func (a *app) load(cmd *cobra.Command) error {
	s, err := loadSettings(a.v)
	if err != nil {
		return err
	}

	logger := slog.New(slogx.NewHandler(slogx.Config{
		Level:  s.LogLevel,
		Format: s.LogFormat,
		Output: cmd.ErrOrStderr(),
	}))

	client, err := newClient(s, logger)
	if err != nil {
		return err
	}

	a.settings, a.logger, a.client = s, logger, client
	return nil
}

func newClient(s settings, logger *slog.Logger) (*gamesdk.Client, error) {
	client, err := gamesdk.NewClientFromURL(s.Server, s.ServerKey)
	if err != nil {
		return nil, err
	}

	tr := transport.NewHTTPTransport(0)
	tr.Logger = logger
	tr.Compress = s.Compress
	if s.RateLimit > 0 {
		tr.Limiter = rate.NewLimiter(rate.Limit(s.RateLimit), 1)
	}

	enc, err := newEncryption(s)
	if err != nil {
		return nil, err
	}

	client.Timeout = s.Timeout
	client.AutoRefreshSession = s.AutoRefresh
	client.CoalesceRefresh = s.CoalesceRefresh
	client.ExpiryLookahead = s.ExpiryLookahead
	client.RetryConfiguration = s.retryConfiguration()
	client.Transport = tr
	client.Encryption = enc
	client.Logger = logger
	return client, nil
}

func newEncryption(s settings) (cryptox.Encryption, error) {
	if s.EncryptionMode == "" || s.EncryptionMode == cryptox.ModeNone {
		return cryptox.NoEncryption{}, nil
	}

	material := []byte(s.EncryptionKey)
	if len(material) == 0 {
		var err error
		material, err = cryptox.LoadKeyMaterial(s.EncryptionKeyFile, envPrefix+"_ENCRYPTION_KEY")
		if err != nil {
			return nil, fmt.Errorf("load encryption key: %w", err)
		}
	}
	return cryptox.New(s.EncryptionMode, material)
}

// session restores the session passed through --token and --refresh-token.
func (a *app) session() (*gamesdk.Session, error) {
	if a.settings.Token == "" {
		return nil, errNoSession
	}
	return gamesdk.Restore(a.settings.Token, a.settings.RefreshToken)
}

// noteRefresh tells the user when a call refreshed the session, since the
// tokens they passed in are now stale.
func (a *app) noteRefresh(session *gamesdk.Session) {
	if session.AuthToken() == a.settings.Token {
		return
	}
	a.logger.Warn("session was refreshed during the call; run `arcadectl refresh` to obtain the new tokens",
		"token", cryptox.FingerprintToken(session.AuthToken()),
		"expires", session.ExpireTime(),
	)
}
