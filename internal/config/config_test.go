package config

import (
	"log/slog"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{"JWT_SECRET": testSecret})
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "loginauth.db", cfg.DBDSN)
	assert.Equal(t, "loginauth", cfg.JWTIssuer)
	assert.Equal(t, "loginauth", cfg.JWTAudience)
	assert.Equal(t, 3*time.Hour, cfg.JWTTokenTTL)
	assert.Equal(t, "argon2id", cfg.PasswordHasher)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
	assert.Equal(t, "json", cfg.LogFormat)
	assert.InDelta(t, 5.0, cfg.RateLimitRPS, 0.0001)
	assert.Equal(t, 10, cfg.RateLimitBurst)
	assert.True(t, cfg.RateLimitEnabled())
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)

	signing := cfg.SigningConfig()
	assert.Equal(t, []byte(testSecret), signing.SecretKey)
	assert.Equal(t, 3*time.Hour, signing.ValidityDuration)
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"JWT_SECRET":         testSecret,
		"HTTP_ADDR":          "127.0.0.1:9000",
		"DB_DRIVER":          "memory",
		"JWT_VALID_ISSUER":   "issuer",
		"JWT_VALID_AUDIENCE": "audience",
		"JWT_TOKEN_TTL":      "15m",
		"PASSWORD_HASHER":    "bcrypt",
		"LOG_LEVEL":          "debug",
		"LOG_FORMAT":         "text",
		"RATE_LIMIT_RPS":     "0",
		"METRICS_ENABLED":    "false",
	})
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.DBDriver)
	assert.Equal(t, 15*time.Minute, cfg.JWTTokenTTL)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.False(t, cfg.RateLimitEnabled())
	assert.False(t, cfg.MetricsEnabled)
}

func TestTrustedProxyPrefixes(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"JWT_SECRET":      testSecret,
		"TRUSTED_PROXIES": "10.1.2.3/8, 192.0.2.10,::1",
	})
	require.NoError(t, err)

	prefixes, err := cfg.TrustedProxyPrefixes()
	require.NoError(t, err)
	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("192.0.2.10/32"),
		netip.MustParsePrefix("::1/128"),
	}, prefixes)
}

func TestTrustedProxyPrefixes_EmptyByDefault(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{"JWT_SECRET": testSecret})
	require.NoError(t, err)

	prefixes, err := cfg.TrustedProxyPrefixes()
	require.NoError(t, err)
	assert.Empty(t, prefixes)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		environ map[string]string
		name    string
		wantMsg string
	}{
		{
			name:    "missing secret",
			environ: map[string]string{},
			wantMsg: "jwt",
		},
		{
			name:    "short secret",
			environ: map[string]string{"JWT_SECRET": "too-short"},
			wantMsg: "32 bytes",
		},
		{
			name:    "unknown driver",
			environ: map[string]string{"JWT_SECRET": testSecret, "DB_DRIVER": "mongo"},
			wantMsg: "DBDriver",
		},
		{
			name:    "unknown hasher",
			environ: map[string]string{"JWT_SECRET": testSecret, "PASSWORD_HASHER": "md5"},
			wantMsg: "PasswordHasher",
		},
		{
			name:    "zero ttl",
			environ: map[string]string{"JWT_SECRET": testSecret, "JWT_TOKEN_TTL": "0s"},
			wantMsg: "jwt",
		},
		{
			name:    "bad duration",
			environ: map[string]string{"JWT_SECRET": testSecret, "JWT_TOKEN_TTL": "soon"},
			wantMsg: "parse env",
		},
		{
			name:    "bad trusted proxy",
			environ: map[string]string{"JWT_SECRET": testSecret, "TRUSTED_PROXIES": "10.0.0.0/8,proxy.local"},
			wantMsg: "trusted proxies",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(tt.environ)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	content := strings.Join([]string{
		"JWT_SECRET=" + testSecret,
		"DB_DRIVER=memory",
		"LOG_LEVEL=warn",
	}, "\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600))

	t.Chdir(nested)
	// godotenv не перезаписывает существующие переменные, поэтому очищаем их
	for _, key := range []string{"JWT_SECRET", "DB_DRIVER", "LOG_LEVEL"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.DBDriver)
	assert.Equal(t, slog.LevelWarn, cfg.SlogLevel())
}
