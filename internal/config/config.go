// Package config loads server configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/jellydator/validation"
	"github.com/joho/godotenv"

	"github.com/iudanet/loginauth/internal/crypto"
	"github.com/iudanet/loginauth/internal/server/jwt"
)

// Поддерживаемые драйверы хранилища
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds server configuration
type Config struct {
	HTTPAddr         string        `env:"HTTP_ADDR" envDefault:":8080"`
	DBDriver         string        `env:"DB_DRIVER" envDefault:"sqlite"`
	DBDSN            string        `env:"DB_DSN" envDefault:"loginauth.db"`
	JWTSecret        string        `env:"JWT_SECRET"`
	JWTIssuer        string        `env:"JWT_VALID_ISSUER" envDefault:"loginauth"`
	JWTAudience      string        `env:"JWT_VALID_AUDIENCE" envDefault:"loginauth"`
	PasswordHasher   string        `env:"PASSWORD_HASHER" envDefault:"argon2id"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat        string        `env:"LOG_FORMAT" envDefault:"json"`
	MetricsNamespace string        `env:"METRICS_NAMESPACE" envDefault:"loginauth"`
	TrustedProxies   []string      `env:"TRUSTED_PROXIES" envSeparator:","`
	JWTTokenTTL      time.Duration `env:"JWT_TOKEN_TTL" envDefault:"3h"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RateLimitRPS     float64       `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst   int           `env:"RATE_LIMIT_BURST" envDefault:"10"`
	MetricsEnabled   bool          `env:"METRICS_ENABLED" envDefault:"true"`
}

// Load reads an optional .env file, then parses and validates the environment
func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadFrom parses configuration from the given variables instead of the process environment
func LoadFrom(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration values
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.HTTPAddr, validation.Required),
		validation.Field(&c.DBDriver, validation.Required,
			validation.In(DriverSQLite, DriverPostgres, DriverMemory)),
		validation.Field(&c.DBDSN, validation.When(c.DBDriver != DriverMemory, validation.Required)),
		validation.Field(&c.PasswordHasher,
			validation.In(crypto.AlgorithmArgon2id, crypto.AlgorithmBcrypt)),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.LogFormat, validation.In("json", "text")),
		validation.Field(&c.ShutdownTimeout, validation.Required),
		validation.Field(&c.RateLimitBurst, validation.Min(0)),
		validation.Field(&c.MetricsNamespace, validation.When(c.MetricsEnabled, validation.Required)),
	)
	if err != nil {
		return err
	}

	if err := c.SigningConfig().Validate(); err != nil {
		return fmt.Errorf("jwt: %w", err)
	}

	if _, err := c.TrustedProxyPrefixes(); err != nil {
		return fmt.Errorf("trusted proxies: %w", err)
	}

	return nil
}

// SigningConfig builds the token signing parameters
func (c *Config) SigningConfig() jwt.SigningConfig {
	return jwt.SigningConfig{
		SecretKey:        []byte(c.JWTSecret),
		Issuer:           c.JWTIssuer,
		Audience:         c.JWTAudience,
		ValidityDuration: c.JWTTokenTTL,
	}
}

// SlogLevel returns the slog level for LogLevel
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RateLimitEnabled reports whether the credential endpoints are rate limited
func (c *Config) RateLimitEnabled() bool {
	return c.RateLimitRPS > 0
}

// TrustedProxyPrefixes parses TrustedProxies; a bare address is treated as a single-host prefix
func (c *Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, raw := range c.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			p, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("parse %q: %w", raw, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", raw, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// loadDotEnv ищет .env от текущей директории вверх до корня
func loadDotEnv() {
	dir, err := os.Getwd()
	if err != nil {
		return
	}

	for {
		path := filepath.Join(dir, ".env")
		if _, err := os.Stat(path); err == nil {
			// Уже заданные переменные окружения не перезаписываются
			_ = godotenv.Load(path)
			return
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
