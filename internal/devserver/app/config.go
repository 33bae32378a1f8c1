package app

import (
	"os"
	"strconv"
	"time"

	"github.com/aussiebroadwan/arcade/pkg/httpx"
	"github.com/aussiebroadwan/arcade/pkg/jwtx"
)

type Config struct {
	ServerKey         string        // Basic auth username for authenticate and refresh (default: defaultkey)
	HTTPKey           string        // Key for server-to-server RPC calls (default: defaulthttpkey)
	TokenKey          string        // HS256 secret for access tokens, at least 32 bytes (default: random per process)
	RefreshTokenKey   string        // HS256 secret for refresh tokens (default: random per process)
	TokenTTL          time.Duration // Access token lifetime (default: 1h)
	RefreshTokenTTL   time.Duration // Refresh token lifetime (default: 7 days)
	EncryptionMode    string        // none, aes-gcm or xchacha20poly1305 (default: none)
	EncryptionKeyPath string        // File holding body encryption key material; ENCRYPTION_KEY otherwise
	Pepper            string        // Optional: pepper mixed into password hashes
	Debug             bool          // Expose /debug fault injection endpoints (default: true)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 7350)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)

	AuthLimit httpx.RateLimitConfig // RATELIMIT_AUTH_*
	APILimit  httpx.RateLimitConfig // RATELIMIT_API_*
}

func LoadConfig() Config {
	return Config{
		ServerKey:         getEnvOrDefault("SERVER_KEY", "defaultkey"),
		HTTPKey:           getEnvOrDefault("HTTP_KEY", "defaulthttpkey"),
		TokenKey:          os.Getenv("TOKEN_KEY"),
		RefreshTokenKey:   os.Getenv("REFRESH_TOKEN_KEY"),
		TokenTTL:          getEnvDurationOrDefault("TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTokenTTL:   getEnvDurationOrDefault("REFRESH_TOKEN_TTL", jwtx.DefaultRefreshTokenTTL),
		EncryptionMode:    getEnvOrDefault("ENCRYPTION_MODE", "none"),
		EncryptionKeyPath: os.Getenv("ENCRYPTION_KEY_PATH"),
		Pepper:            os.Getenv("PEPPER"),
		Debug:             getEnvBoolOrDefault("DEBUG", true),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 7350),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),

		AuthLimit: httpx.ParseRateLimitFromEnv("AUTH", httpx.AuthLimit),
		APILimit:  httpx.ParseRateLimitFromEnv("API", httpx.APILimit),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Plain integers are seconds, matching the token lifetime settings of
	// game servers.
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
