// Package config loads runtime configuration from the environment, with a
// .env file honored for local development.
package config

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime knob of the service. Only JWT_SECRET is
// mandatory; everything else has a workable default, and leaving REDIS_URL
// or DATABASE_URL empty selects the in-memory adapters.
type Config struct {
	ListenAddr  string
	Environment string

	Domain       string
	ChallengeTTL time.Duration
	AccessTTL    time.Duration
	RefreshTTL   time.Duration

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	AccessCookieName  string
	RefreshCookieName string
	CookieDomain      string
	CookiePath        string
	CookieSecure      bool
	CookieSameSite    http.SameSite
	CookiePartitioned bool

	RateLimitMax    int
	RateLimitWindow time.Duration

	RedisURL    string
	DatabaseURL string
	SentryDSN   string
}

// Load reads the environment (and .env, if present) into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret, err := mustEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}

	domain := envOrDefault("AUTH_DOMAIN", "localhost")

	cfg := &Config{
		ListenAddr:  envOrDefault("LISTEN_ADDR", ":8080"),
		Environment: envOrDefault("APP_ENV", "development"),

		Domain:       domain,
		ChallengeTTL: envSecondsOrDefault("CHALLENGE_TTL_SECONDS", 300),
		AccessTTL:    envMinutesOrDefault("ACCESS_TOKEN_TTL_MINUTES", 15),
		RefreshTTL:   envDaysOrDefault("REFRESH_TOKEN_TTL_DAYS", 14),

		JWTSecret:   jwtSecret,
		JWTIssuer:   envOrDefault("JWT_ISSUER", domain),
		JWTAudience: os.Getenv("JWT_AUDIENCE"),

		AccessCookieName:  envOrDefault("ACCESS_COOKIE_NAME", "cardpass_session"),
		RefreshCookieName: envOrDefault("REFRESH_COOKIE_NAME", "cardpass_refresh"),
		CookieDomain:      os.Getenv("COOKIE_DOMAIN"),
		CookiePath:        envOrDefault("COOKIE_PATH", "/"),
		CookieSecure:      envBoolOrDefault("COOKIE_SECURE", true),
		CookieSameSite:    parseSameSite(envOrDefault("COOKIE_SAMESITE", "none")),
		CookiePartitioned: envBoolOrDefault("COOKIE_PARTITIONED", true),

		RateLimitMax:    envIntOrDefault("RATE_LIMIT_MAX", 30),
		RateLimitWindow: envSecondsOrDefault("RATE_LIMIT_WINDOW_SECONDS", 60),

		RedisURL:    os.Getenv("REDIS_URL"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SentryDSN:   os.Getenv("SENTRY_DSN"),
	}

	return cfg, nil
}

func parseSameSite(value string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "strict":
		return http.SameSiteStrictMode
	case "lax":
		return http.SameSiteLaxMode
	default:
		return http.SameSiteNoneMode
	}
}

func mustEnv(name string) (string, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return "", fmt.Errorf("missing required env: %s", name)
	}
	return value, nil
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envIntOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envBoolOrDefault(name string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func envSecondsOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Second
}

func envMinutesOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Minute
}

func envDaysOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * 24 * time.Hour
}
