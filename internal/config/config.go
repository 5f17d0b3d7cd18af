package config

import (
	"errors"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration derived from environment variables.
type Config struct {
	Env          string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	ServiceName  string
	// Backend API
	BackendURL     string
	BackendTimeout time.Duration
	// Session cookie
	SessionSecret string
	SessionTTL    time.Duration
	// Moderation
	RedisAddr   string
	BusyTTL     time.Duration
	BanDuration time.Duration
	SnapshotTTL time.Duration
	Timezone    string
	// Login rate limiting
	LoginRateLimitEnabled  bool
	LoginRateLimitCapacity int
	LoginRateLimitRefill   int // tokens per minute
	// Proxies whose X-Forwarded-For is believed; empty trusts none
	TrustedProxies []string
	// Logging
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	// Tracing configuration
	TracingEnabled    bool
	TempoEndpoint     string
	TracingSampleRate float64
	// MCP server
	APIToken string
}

// Load reads an optional .env file, then parses environment variables and
// returns a Config populated with defaults when variables are absent.
func Load() Config {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := Config{}

	cfg.Env = strings.ToLower(getenv("ENV", "production"))
	cfg.Port = getenv("PORT", "8080")
	cfg.ReadTimeout = envDuration("READ_TIMEOUT", 5*time.Second)
	cfg.WriteTimeout = envDuration("WRITE_TIMEOUT", 30*time.Second)
	cfg.ServiceName = getenv("SERVICE_NAME", "adminserve")

	cfg.BackendURL = backendURL()
	cfg.BackendTimeout = envDuration("BACKEND_TIMEOUT", 10*time.Second)

	cfg.SessionSecret = getenv("SESSION_SECRET", "")
	cfg.SessionTTL = envDuration("SESSION_TTL", time.Hour)

	// empty keeps busy locks in process and disables cross-instance invalidation
	cfg.RedisAddr = getenv("REDIS_ADDR", "")
	cfg.BusyTTL = envDuration("BUSY_TTL", 30*time.Second)
	cfg.BanDuration = envDuration("BAN_DURATION", 7*24*time.Hour)
	cfg.SnapshotTTL = envDuration("SNAPSHOT_TTL", 10*time.Second)
	cfg.Timezone = getenv("TIMEZONE", "UTC")

	cfg.LoginRateLimitEnabled = envBool("LOGIN_RATE_LIMIT_ENABLED", true)
	cfg.LoginRateLimitCapacity = envInt("LOGIN_RATE_LIMIT_CAPACITY", 5)
	cfg.LoginRateLimitRefill = envInt("LOGIN_RATE_LIMIT_REFILL", 1)
	cfg.TrustedProxies = envList("TRUSTED_PROXIES")

	cfg.LogFile = getenv("LOG_FILE", "")
	cfg.LogMaxSizeMB = envInt("LOG_MAX_SIZE_MB", 100)
	cfg.LogMaxBackups = envInt("LOG_MAX_BACKUPS", 5)
	cfg.LogMaxAgeDays = envInt("LOG_MAX_AGE_DAYS", 28)

	// Tracing configuration
	cfg.TracingEnabled = envBool("TRACING_ENABLED", false)
	cfg.TempoEndpoint = getenv("TEMPO_ENDPOINT", "tempo:4317")
	cfg.TracingSampleRate = envFloat("TRACING_SAMPLE_RATE", 1.0)

	cfg.APIToken = getenv("API_TOKEN", "")

	return cfg
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	var errs []error
	if c.BackendURL == "" {
		errs = append(errs, errors.New("API_BASE_URL or API_URL must be set"))
	}
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET must be set"))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, errors.New("TIMEZONE: "+err.Error()))
	}
	if _, err := c.TrustedProxyPrefixes(); err != nil {
		errs = append(errs, errors.New("TRUSTED_PROXIES: "+err.Error()))
	}
	return errors.Join(errs...)
}

// TrustedProxyPrefixes parses TrustedProxies. Entries are CIDR ranges or
// single addresses.
func (c Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, entry := range c.TrustedProxies {
		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, err
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, err
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

// Production reports whether the service runs in production, where the
// session cookie is marked Secure.
func (c Config) Production() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Location returns the configured time zone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// backendURL prefers API_BASE_URL and otherwise joins API_URL with API_PORT.
func backendURL() string {
	if v := getenv("API_BASE_URL", ""); v != "" {
		return strings.TrimRight(v, "/")
	}
	host := strings.TrimRight(getenv("API_URL", ""), "/")
	if host == "" {
		return ""
	}
	if port := getenv("API_PORT", ""); port != "" {
		return host + ":" + port
	}
	return host
}

// getenv returns the value of the environment variable if set, otherwise def.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envList splits a comma separated environment variable, dropping blanks.
func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// envDuration parses an environment variable into a time.Duration.
// The value can be a duration string (e.g. "5s") or a number of seconds.
// If the variable is unset or invalid, def is returned.
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

// envBool parses a boolean environment variable. Accepted values are those
// supported by strconv.ParseBool. When unset or invalid, def is returned.
func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return def
}

// envInt parses an integer environment variable. When unset or invalid, def is returned.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	return def
}

// envFloat parses a float64 environment variable. When unset or invalid, def is returned.
func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return def
}
