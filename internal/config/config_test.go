package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-facture/internal/config"
)

func baseEnv() map[string]string {
	return map[string]string{
		"DATABASE_URL": "postgres://localhost:5432/facture",
		"REDIS_URL":    "redis://localhost:6379/0",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(baseEnv())
	require.NoError(t, err)
	require.Equal(t, "EUR", cfg.CurrencyCode)
	require.Equal(t, "X-Tenant-ID", cfg.TenantHeader)
	require.Equal(t, 5*time.Minute, cfg.DocumentCacheTTL)
	require.Equal(t, 30*time.Second, cfg.PreviewMemoTTL)
	require.Equal(t, time.Hour, cfg.QuoteExpiryInterval)
	require.Equal(t, 30*24*time.Hour, cfg.QuoteValidity())
	require.Equal(t, 30*24*time.Hour, cfg.PaymentTerms())
	require.Equal(t, "sliding", cfg.RateLimitBackend)
	require.Equal(t, int64(1<<20), cfg.BodyLimitBytes)
	require.True(t, cfg.RunMigrations)
	require.True(t, cfg.SecurityHeaders)
	require.Equal(t, ":8080", cfg.HTTPAddr())
}

func TestLoadOverrides(t *testing.T) {
	env := baseEnv()
	env["CURRENCY_CODE"] = "chf"
	env["QUOTE_VALIDITY_DAYS"] = "15"
	env["RATE_LIMIT_BACKEND"] = "ulule"
	env["RUN_MIGRATIONS"] = "false"
	env["CORS_ALLOWED_ORIGINS"] = "https://a.example, https://b.example"
	env["PORT"] = ":9000"

	cfg, err := config.LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, "CHF", cfg.CurrencyCode)
	require.Equal(t, 15*24*time.Hour, cfg.QuoteValidity())
	require.Equal(t, "ulule", cfg.RateLimitBackend)
	require.False(t, cfg.RunMigrations)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	require.Equal(t, ":9000", cfg.HTTPAddr())
}

func TestLoadRejectsInvalid(t *testing.T) {
	env := baseEnv()
	env["DATABASE_URL"] = ""
	_, err := config.LoadForTests(env)
	require.ErrorContains(t, err, "DATABASE_URL")

	env = baseEnv()
	env["CURRENCY_CODE"] = "EURO"
	_, err = config.LoadForTests(env)
	require.ErrorContains(t, err, "CURRENCY_CODE")

	env = baseEnv()
	env["RATE_LIMIT_BACKEND"] = "memcached"
	_, err = config.LoadForTests(env)
	require.ErrorContains(t, err, "RATE_LIMIT_BACKEND")
}
