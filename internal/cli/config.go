package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aussiebroadwan/arcade/pkg/gamesdk"
	"github.com/aussiebroadwan/arcade/pkg/retry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envPrefix  = "ARCADE"
	configName = "arcade"
	configType = "toml"
)

// Setting keys. Each is a persistent flag, an ARCADE_* variable and a key in
// arcade.toml.
const (
	keyConfig          = "config"
	keyServer          = "server"
	keyServerKey       = "server-key"
	keyTimeout         = "timeout"
	keyMaxRetries      = "max-retries"
	keyBaseDelay       = "base-delay"
	keyJitter          = "jitter"
	keyAutoRefresh     = "auto-refresh"
	keyCoalesceRefresh = "coalesce-refresh"
	keyLookahead       = "expiry-lookahead"
	keyEncryptionMode  = "encryption-mode"
	keyEncryptionKey   = "encryption-key"
	keyEncryptionFile  = "encryption-key-file"
	keyCompress        = "compress"
	keyRateLimit       = "rate-limit"
	keyToken           = "token"
	keyRefreshToken    = "refresh-token"
	keyLogLevel        = "log-level"
	keyLogFormat       = "log-format"
)

// settings is the resolved configuration: flags over environment over
// config file over defaults.
type settings struct {
	Server            string
	ServerKey         string
	Timeout           time.Duration
	MaxRetries        int
	BaseDelay         time.Duration
	Jitter            retry.Jitter
	AutoRefresh       bool
	CoalesceRefresh   bool
	ExpiryLookahead   time.Duration
	EncryptionMode    string
	EncryptionKey     string
	EncryptionKeyFile string
	Compress          bool
	RateLimit         float64
	Token             string
	RefreshToken      string
	LogLevel          string
	LogFormat         string
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	def := retry.DefaultConfiguration()

	f := cmd.PersistentFlags()
	f.String(keyConfig, "", "Config file (default ./arcade.toml or ~/.config/arcade/arcade.toml)")
	f.String(keyServer, "http://127.0.0.1:7350", "Game server URL")
	f.String(keyServerKey, gamesdk.DefaultServerKey, "Server key used for authenticate and refresh calls")
	f.Duration(keyTimeout, gamesdk.DefaultTimeout, "Per-attempt timeout (0 disables)")
	f.Int(keyMaxRetries, def.MaxRetries, "Retries after the first attempt")
	f.Duration(keyBaseDelay, def.BaseDelay, "Backoff base delay")
	f.String(keyJitter, def.Jitter.String(), "Backoff jitter: none, full or full:<seed>")
	f.Bool(keyAutoRefresh, true, "Refresh sessions about to expire before each call")
	f.Bool(keyCoalesceRefresh, false, "Share one refresh between concurrent calls")
	f.Duration(keyLookahead, gamesdk.DefaultExpiryLookahead, "How far ahead of expiry a session is refreshed")
	f.String(keyEncryptionMode, "none", "Body encryption: none, aes-gcm or xchacha20poly1305")
	f.String(keyEncryptionKey, "", "Encryption key material")
	f.String(keyEncryptionFile, "", "File holding the encryption key material")
	f.Bool(keyCompress, false, "Gzip large request bodies")
	f.Float64(keyRateLimit, 0, "Client-side request rate limit per second (0 disables)")
	f.String(keyToken, "", "Session access token")
	f.String(keyRefreshToken, "", "Session refresh token")
	f.String(keyLogLevel, "warn", "Log level: debug, info, warn or error")
	f.String(keyLogFormat, "text", "Log format: text or json")

	_ = v.BindPFlags(f)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// readConfigFile loads arcade.toml when present. An explicitly named file
// must exist.
func readConfigFile(v *viper.Viper) error {
	if path := v.GetString(keyConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
		return nil
	}

	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "arcade"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config file: %w", err)
		}
	}
	return nil
}

func loadSettings(v *viper.Viper) (settings, error) {
	if err := readConfigFile(v); err != nil {
		return settings{}, err
	}

	jitter, err := retry.ParseJitter(v.GetString(keyJitter))
	if err != nil {
		return settings{}, err
	}

	s := settings{
		Server:            v.GetString(keyServer),
		ServerKey:         v.GetString(keyServerKey),
		Timeout:           v.GetDuration(keyTimeout),
		MaxRetries:        v.GetInt(keyMaxRetries),
		BaseDelay:         v.GetDuration(keyBaseDelay),
		Jitter:            jitter,
		AutoRefresh:       v.GetBool(keyAutoRefresh),
		CoalesceRefresh:   v.GetBool(keyCoalesceRefresh),
		ExpiryLookahead:   v.GetDuration(keyLookahead),
		EncryptionMode:    v.GetString(keyEncryptionMode),
		EncryptionKey:     v.GetString(keyEncryptionKey),
		EncryptionKeyFile: v.GetString(keyEncryptionFile),
		Compress:          v.GetBool(keyCompress),
		RateLimit:         v.GetFloat64(keyRateLimit),
		Token:             v.GetString(keyToken),
		RefreshToken:      v.GetString(keyRefreshToken),
		LogLevel:          v.GetString(keyLogLevel),
		LogFormat:         v.GetString(keyLogFormat),
	}

	if err := s.retryConfiguration().Validate(); err != nil {
		return settings{}, err
	}
	if s.RateLimit < 0 {
		return settings{}, fmt.Errorf("rate limit must not be negative, got %v", s.RateLimit)
	}
	return s, nil
}

func (s settings) retryConfiguration() retry.Configuration {
	return retry.Configuration{
		BaseDelay:  s.BaseDelay,
		Jitter:     s.Jitter,
		MaxRetries: s.MaxRetries,
	}
}
