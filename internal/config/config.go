package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string
	CurrencyCode       string

	TenantHeader     string
	TenantRootDomain string
	TenantDefault    string

	DocumentCacheTTL   time.Duration
	PreviewMemoTTL     time.Duration
	IdempotencyTTL     time.Duration
	QuoteValidityDays  int
	InvoicePaymentDays int
	ListDefaultLimit   int
	ListMaxLimit       int
	ExportMaxRows      int

	QuoteExpiryInterval time.Duration
	LockTTL             time.Duration
	LockRetryBackoff    time.Duration
	WorkerConcurrency   int

	RateLimitBackend string
	RateLimitWindow  time.Duration
	RateLimitMax     int
	BodyLimitBytes   int64
	SecurityHeaders  bool
	EnableHSTS       bool

	RunMigrations bool
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		CurrencyCode:       strings.ToUpper(valueOrDefault(k.String("CURRENCY_CODE"), "EUR")),

		TenantHeader:     valueOrDefault(k.String("TENANT_HEADER"), "X-Tenant-ID"),
		TenantRootDomain: strings.TrimSpace(k.String("TENANT_ROOT_DOMAIN")),
		TenantDefault:    strings.TrimSpace(k.String("TENANT_DEFAULT")),

		DocumentCacheTTL:   parseDuration(k.String("DOCUMENT_CACHE_TTL"), "5m"),
		PreviewMemoTTL:     parseDuration(k.String("PREVIEW_MEMO_TTL"), "30s"),
		IdempotencyTTL:     parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		QuoteValidityDays:  parseInt(k.String("QUOTE_VALIDITY_DAYS"), 30),
		InvoicePaymentDays: parseInt(k.String("INVOICE_PAYMENT_DAYS"), 30),
		ListDefaultLimit:   parseInt(k.String("LIST_DEFAULT_LIMIT"), 20),
		ListMaxLimit:       parseInt(k.String("LIST_MAX_LIMIT"), 100),
		ExportMaxRows:      parseInt(k.String("EXPORT_MAX_ROWS"), 5000),

		QuoteExpiryInterval: parseDuration(k.String("QUOTE_EXPIRY_INTERVAL"), "1h"),
		LockTTL:             parseDuration(k.String("LOCK_TTL"), "30s"),
		LockRetryBackoff:    parseDuration(k.String("LOCK_RETRY_BACKOFF"), "50ms"),
		WorkerConcurrency:   parseInt(k.String("WORKER_CONCURRENCY"), 5),

		RateLimitBackend: strings.ToLower(valueOrDefault(k.String("RATE_LIMIT_BACKEND"), "sliding")),
		RateLimitWindow:  parseDuration(k.String("RATE_LIMIT_WINDOW"), "1m"),
		RateLimitMax:     parseInt(k.String("RATE_LIMIT_MAX"), 600),
		BodyLimitBytes:   int64(parseInt(k.String("BODY_LIMIT_BYTES"), 1<<20)),
		SecurityHeaders:  parseBoolDefault(k.String("SECURITY_HEADERS"), true),
		EnableHSTS:       parseBool(k.String("SECURITY_HSTS")),

		RunMigrations: parseBoolDefault(k.String("RUN_MIGRATIONS"), true),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if len(cfg.CurrencyCode) != 3 {
		return nil, fmt.Errorf("CURRENCY_CODE must be a 3 letter code, got %q", cfg.CurrencyCode)
	}
	switch cfg.RateLimitBackend {
	case "sliding", "ulule", "off":
	default:
		return nil, fmt.Errorf("RATE_LIMIT_BACKEND must be sliding, ulule or off, got %q", cfg.RateLimitBackend)
	}

	return cfg, nil
}

// QuoteValidity is the default lifetime of a new quote.
func (c *Config) QuoteValidity() time.Duration {
	return time.Duration(c.QuoteValidityDays) * 24 * time.Hour
}

// PaymentTerms is the default delay between an invoice's issue and due dates.
func (c *Config) PaymentTerms() time.Duration {
	return time.Duration(c.InvoicePaymentDays) * 24 * time.Hour
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return fallback
	case "0", "false", "no", "off":
		return false
	default:
		return parseBool(value)
	}
}

func parseInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
