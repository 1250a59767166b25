package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	CORS      CORSConfig
	Target    TargetConfig
	Fetch     FetchConfig
	Browser   BrowserConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Metrics   MetricsConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string `env:"SHELFSCAN_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"SHELFSCAN_PORT" envDefault:"3000"`
	Mode string `env:"SHELFSCAN_MODE" envDefault:"release"` // "debug", "release", "test"
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `env:"SHELFSCAN_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://127.0.0.1:5173"`
}

// TargetConfig selects the site profile and optionally overrides where it points.
type TargetConfig struct {
	// ProfileFile is a YAML site profile. Empty means the embedded default.
	ProfileFile string `env:"SHELFSCAN_PROFILE_FILE"`

	// BaseURL overrides the profile's search base URL (e.g. a regional storefront).
	BaseURL string `env:"SHELFSCAN_TARGET_BASE_URL"`
}

// FetchConfig controls the outbound request.
type FetchConfig struct {
	// Engine is "http" or "browser".
	Engine string `env:"SHELFSCAN_FETCH_ENGINE" envDefault:"http"`

	// Timeout bounds a single search. Zero disables the deadline.
	Timeout time.Duration `env:"SHELFSCAN_FETCH_TIMEOUT" envDefault:"30s"`

	// TLSFingerprint dials HTTPS with a Chrome ClientHello.
	TLSFingerprint bool `env:"SHELFSCAN_TLS_FINGERPRINT" envDefault:"true"`

	// Proxy is an optional http(s) proxy URL for the http engine.
	Proxy string `env:"SHELFSCAN_PROXY"`
}

// BrowserConfig controls the Rod browser instance used by the browser engine.
type BrowserConfig struct {
	Headless   bool   `env:"SHELFSCAN_HEADLESS" envDefault:"true"`
	NoSandbox  bool   `env:"SHELFSCAN_NO_SANDBOX" envDefault:"false"` // needed in Docker
	BrowserBin string `env:"SHELFSCAN_BROWSER_BIN"`
	Stealth    bool   `env:"SHELFSCAN_STEALTH" envDefault:"true"`
}

// CacheConfig controls the search result cache.
type CacheConfig struct {
	// TTL is how long a keyword's results are reused. Zero disables caching.
	TTL time.Duration `env:"SHELFSCAN_CACHE_TTL" envDefault:"0s"`

	// MaxEntries is the maximum number of cached keywords.
	MaxEntries int `env:"SHELFSCAN_CACHE_MAX_ENTRIES" envDefault:"1000"`
}

// RateLimitConfig controls per-client rate limiting of the API.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per client IP. Zero disables limiting.
	RequestsPerSecond float64 `env:"SHELFSCAN_RATE_RPS" envDefault:"0"`

	// Burst is the maximum burst size per client IP.
	Burst int `env:"SHELFSCAN_RATE_BURST" envDefault:"10"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `env:"SHELFSCAN_METRICS" envDefault:"true"`
	Path    string `env:"SHELFSCAN_METRICS_PATH" envDefault:"/metrics"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `env:"SHELFSCAN_LOG_LEVEL" envDefault:"info"`
	Format string `env:"SHELFSCAN_LOG_FORMAT" envDefault:"json"` // "json" or "text"
}

// Load reads configuration from the environment (and a .env file when
// present) with sane defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("env.Parse: %w", err)
	}

	cfg.CORS.AllowedOrigins = lo.Compact(lo.Map(cfg.CORS.AllowedOrigins, func(o string, _ int) string {
		return strings.TrimSpace(o)
	}))

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) validate() error {
	switch c.Fetch.Engine {
	case "http", "browser":
	default:
		return fmt.Errorf("config: unknown fetch engine %q (want \"http\" or \"browser\")", c.Fetch.Engine)
	}
	if c.Fetch.Timeout < 0 {
		return fmt.Errorf("config: negative fetch timeout %s", c.Fetch.Timeout)
	}
	if c.RateLimit.RequestsPerSecond > 0 && c.RateLimit.Burst < 1 {
		return fmt.Errorf("config: rate limit burst must be at least 1")
	}
	return nil
}
