package app

import (
	"net"
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

const defaultAddr = "127.0.0.1:8080"

// Config holds the storefront server configuration, loadable from
// environment variables (FLAVOR_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"127.0.0.1:8080" usage:"Storefront API listen address; non-loopback needs an API key hash"`
	ImageBaseURL string `default:"" usage:"Base URL for relative product image paths" flag:"image-base-url"`
	Backend      BackendConfig
	Tokens       TokensConfig
	Security     SecurityConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// BackendConfig points at the remote storefront backend.
type BackendConfig struct {
	URL     string        `usage:"Backend base URL, e.g. https://api.example.com/api (FLAVOR_BACKEND_URL or BACKEND_URL)" flag:"backend-url"`
	Timeout time.Duration `default:"10s" usage:"Per-request backend timeout" flag:"backend-timeout"`
}

// TokensConfig selects where the verify and session tokens are kept.
type TokensConfig struct {
	Driver   string        `default:"memory" usage:"Token store driver: memory or redis" flag:"tokens-driver"`
	RedisURL string        `usage:"Redis URL for the redis driver (FLAVOR_TOKENS_REDIS_URL or REDIS_URL)" flag:"redis-url"`
	Prefix   string        `default:"flavor:" usage:"Redis key prefix"`
	TTL      time.Duration `default:"0s" usage:"Token lifetime in Redis, 0 keeps tokens until logout"`
}

// SecurityConfig enables the optional API key check on /api.
type SecurityConfig struct {
	APIKeyHash   string `usage:"Hex HMAC-SHA256 of the accepted API key; empty disables the check" flag:"api-key-hash"`
	APIKeyPepper string `usage:"HMAC pepper for API key hashing" flag:"api-key-pepper"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

const (
	TokensMemory = "memory"
	TokensRedis  = "redis"
)

// LoadConfig loads configuration from the environment and YAML files, then
// applies platform defaults and validates the result.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "FLAVOR",
		Files:     []string{"config.yaml", "/etc/flavor/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports configuration the server cannot start with.
func (c *Config) Validate() error {
	if c.Backend.URL == "" {
		return errors.New("backend URL is required: set FLAVOR_BACKEND_URL or BACKEND_URL")
	}
	switch c.Tokens.Driver {
	case TokensMemory:
	case TokensRedis:
		if c.Tokens.RedisURL == "" {
			return errors.New("redis token store needs FLAVOR_TOKENS_REDIS_URL or REDIS_URL")
		}
	default:
		return errors.Errorf("unknown token store driver %q", c.Tokens.Driver)
	}
	if c.Security.APIKeyHash != "" && c.Security.APIKeyPepper == "" {
		return errors.New("api key hash is set without a pepper")
	}
	loopback, err := isLoopbackAddr(c.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen address %q", c.Addr)
	}
	// The session is shared by every caller, so only a loopback listener may
	// run without the API key check.
	if !loopback && c.Security.APIKeyHash == "" {
		return errors.Errorf("listen address %q is not loopback: configure a security API key hash to expose the API", c.Addr)
	}
	return nil
}

// isLoopbackAddr reports whether addr binds only to a loopback interface. An
// empty or unspecified host listens on every interface.
func isLoopbackAddr(addr string) (bool, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false, err
	}
	if host == "localhost" {
		return true, nil
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback(), nil
}

// applyPlatformDefaults maps unprefixed platform variables (PORT, BACKEND_URL,
// REDIS_URL) onto the configuration when the prefixed ones are unset. PORT
// only replaces the port of the default address, the host stays loopback.
func (c *Config) applyPlatformDefaults() {
	if c.Backend.URL == "" {
		c.Backend.URL = os.Getenv("BACKEND_URL")
	}
	if c.Tokens.RedisURL == "" {
		c.Tokens.RedisURL = os.Getenv("REDIS_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		host, _, _ := net.SplitHostPort(defaultAddr)
		c.Addr = net.JoinHostPort(host, port)
	}
}
