package app

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/evalua/evalua/internal/auth/service"
	"github.com/evalua/evalua/pkg/jwtx"
)

type Config struct {
	SigningSecret []byte        // Required: HS256 secret, min 32 bytes
	Issuer        string        // Issuer claim for tokens (default: evalua-auth)
	Audience      string        // Audience claim for tokens (default: evalua-api)
	AccessTTL     time.Duration // Access token lifetime (default: 15m)
	RefreshTTL    time.Duration // Refresh token lifetime (default: 168h)
	ResetTTL      time.Duration // Password reset token lifetime (default: 24h)

	CleanupInterval time.Duration         // Defunct refresh token sweep interval (default: 6h)
	RotationScope   service.RotationScope // What issuing a refresh token revokes (default: single_session)

	DatabaseFile        string        // Path to SQLite database file (default: ./auth.db)
	PepperFile          string        // Path to password-hashing pepper file (default: ./pepper)
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

// ErrMissingSigningSecret aborts startup: the service must never run with a
// missing or guessable token secret.
var ErrMissingSigningSecret = errors.New(
	"AUTH_SIGNING_SECRET is required and must be at least 32 bytes")

// LoadConfig reads configuration from the environment, overlaid with a .env
// file when one exists in the working directory.
func LoadConfig() (Config, error) {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	cfg := Config{
		SigningSecret:       []byte(os.Getenv("AUTH_SIGNING_SECRET")),
		Issuer:              getEnvOrDefault("AUTH_ISSUER", "evalua-auth"),
		Audience:            getEnvOrDefault("AUTH_AUDIENCE", "evalua-api"),
		AccessTTL:           getEnvDurationOrDefault("AUTH_ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL:          getEnvDurationOrDefault("AUTH_REFRESH_TOKEN_TTL", jwtx.DefaultRefreshTokenTTL),
		ResetTTL:            getEnvDurationOrDefault("AUTH_RESET_TOKEN_TTL", 24*time.Hour),
		CleanupInterval:     getEnvDurationOrDefault("AUTH_CLEANUP_INTERVAL", service.DefaultCleanupInterval),
		DatabaseFile:        getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		PepperFile:          getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	if len(strings.TrimSpace(string(cfg.SigningSecret))) < jwtx.MinSecretBytes {
		return Config{}, ErrMissingSigningSecret
	}

	scope, err := service.ParseRotationScope(os.Getenv("AUTH_ROTATION_SCOPE"))
	if err != nil {
		return Config{}, err
	}
	cfg.RotationScope = scope

	return cfg, nil
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

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
