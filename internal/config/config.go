package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	LogLevel    string
	HTTPAddr    string

	JWTSecret string
	TokenTTL  time.Duration

	// AuthTenant is the tenant whose store holds user accounts.
	AuthTenant string

	// TenantConfigPath points at the tenants.yml storage config.
	TenantConfigPath string

	GeocoderEnabled   bool
	GeocoderBaseURL   string
	GeocoderUserAgent string

	// RedisAddr enables the geocode result cache when set.
	RedisAddr     string
	RedisPassword string

	MaxUploadBytes int64
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:           getenv("APP_SERVICE", "claimdesk"),
		AppVersion:        getenv("APP_VERSION", "0.1.0"),
		Environment:       getenv("ENVIRONMENT", "development"),
		LogLevel:          getenv("LOG_LEVEL", "info"),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		JWTSecret:         strings.TrimSpace(getenv("JWT_SECRET", "dev_secret")),
		TokenTTL:          getenvDuration("TOKEN_TTL", 8*time.Hour),
		AuthTenant:        getenv("AUTH_TENANT", "main"),
		TenantConfigPath:  getenv("TENANT_CONFIG", "tenants.yml"),
		GeocoderEnabled:   getenvBool("GEOCODER_ENABLED", true),
		GeocoderBaseURL:   getenv("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org"),
		GeocoderUserAgent: getenv("GEOCODER_USER_AGENT", "claimdesk/0.1"),
		RedisAddr:         strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword:     getenv("REDIS_PASSWORD", ""),
		MaxUploadBytes:    getenvInt64("MAX_UPLOAD_BYTES", 16<<20),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}

// Module wires application configuration.
var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewStorageHolder),
)
