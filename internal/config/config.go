package config

import (
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the hashing work factor used when BCRYPT_COST is unset.
// Lower values trade brute-force resistance for login latency.
const DefaultBcryptCost = 10

type Config struct {
	Port string

	DBHost string
	DBPort string
	DBName string
	DBUser string
	DBPass string

	// DBMaxOpenConns is the maximum number of open connections to the database (default 25).
	DBMaxOpenConns int
	// DBMaxIdleConns is the maximum number of idle connections (default 5).
	DBMaxIdleConns int

	// MigrateOnStart applies embedded migrations before serving (default true).
	MigrateOnStart bool

	// StoreTimeout bounds every store call made on behalf of a request.
	StoreTimeout time.Duration

	// Env is "dev" (default) or "prod". When "prod", session cookies are always marked Secure.
	Env string

	// BcryptCost is the password hashing work factor, clamped to bcrypt's valid range.
	BcryptCost int

	// SessionCookie is the name of the cookie carrying the opaque session token.
	SessionCookie string
	// SessionTTL is how long a session lives without activity. Each authenticated request slides it forward.
	SessionTTL time.Duration
	// SessionCacheSize and SessionCacheTTL size the in-process cache of restored sessions.
	SessionCacheSize int
	SessionCacheTTL  time.Duration
	// SessionPurgeCron is the cron spec for deleting expired session rows.
	SessionPurgeCron string

	// AuthRatePerMinute and AuthRateBurst throttle register and login per client IP.
	AuthRatePerMinute int
	AuthRateBurst     int
	// TrustProxyHeaders keys the limiter on X-Forwarded-For / X-Real-IP. Only
	// enable it behind a proxy that overwrites those headers.
	TrustProxyHeaders bool

	// CoverURLFormat builds a cover image URL from an ISBN (one %s verb).
	CoverURLFormat string

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	// When empty, the API listens with plain HTTP.
	TLSCertFile string
	TLSKeyFile  string

	// LogFormat is "text" (default) or "json" for structured logging.
	LogFormat string

	// CORSAllowedOrigins is a list of origins allowed for CORS (e.g. https://app.example.com, http://localhost:3000).
	// Set via CORS_ALLOWED_ORIGINS (comma-separated). When empty, no CORS headers are sent (same-origin only).
	CORSAllowedOrigins []string
}

func Load() Config {
	return Config{
		Port: getEnv("PORT", "8080"),

		DBHost: getEnv("DB_HOST", "localhost"),
		DBPort: getEnv("DB_PORT", "5432"),
		DBName: getEnv("DB_NAME", "books"),
		DBUser: getEnv("DB_USER", "postgres"),
		DBPass: getEnv("DB_PASS", "postgres"),

		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", true),
		StoreTimeout:   time.Duration(getEnvInt("STORE_TIMEOUT_SECONDS", 5)) * time.Second,

		Env:        getEnv("ENV", "dev"),
		BcryptCost: clampCost(getEnvInt("BCRYPT_COST", DefaultBcryptCost)),

		SessionCookie:    getEnv("SESSION_COOKIE", "bookshelf_session"),
		SessionTTL:       time.Duration(getEnvInt("SESSION_TTL_HOURS", 24)) * time.Hour,
		SessionCacheSize: getEnvInt("SESSION_CACHE_SIZE", 1024),
		SessionCacheTTL:  time.Duration(getEnvInt("SESSION_CACHE_TTL_SECONDS", 30)) * time.Second,
		SessionPurgeCron: getEnv("SESSION_PURGE_CRON", "@every 15m"),

		AuthRatePerMinute: getEnvInt("AUTH_RATE_PER_MINUTE", 10),
		AuthRateBurst:     getEnvInt("AUTH_RATE_BURST", 5),
		TrustProxyHeaders: getEnvBool("TRUST_PROXY_HEADERS", false),

		CoverURLFormat: getEnv("COVER_URL_FORMAT", "https://covers.openlibrary.org/b/isbn/%s-M.jpg"),

		// Optional TLS configuration for HTTPS.
		TLSCertFile: getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:  getEnv("TLS_KEY_FILE", ""),

		LogFormat: getEnv("LOG_FORMAT", "text"),

		CORSAllowedOrigins: parseCORSOrigins(getEnv("CORS_ALLOWED_ORIGINS", "")),
	}
}

// TLSEnabled reports whether both certificate and key are configured.
func (c Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// SecureCookies reports whether the session cookie must carry the Secure attribute.
func (c Config) SecureCookies() bool {
	return c.TLSEnabled() || c.Env == "prod"
}

// DatabaseURL returns the postgres URL form of the connection settings, as golang-migrate expects.
func (c Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPass),
		Host:     net.JoinHostPort(c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func clampCost(cost int) int {
	if cost < bcrypt.MinCost {
		return bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		return bcrypt.MaxCost
	}
	return cost
}

// parseCORSOrigins splits a comma-separated list of origins and trims spaces. Empty strings are omitted.
func parseCORSOrigins(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if o := strings.TrimSpace(p); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
