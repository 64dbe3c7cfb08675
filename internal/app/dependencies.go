package app

import (
	"context"
	"errors"
	"fmt"

	validator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-facture/internal/cache"
	"github.com/noah-isme/backend-facture/internal/config"
	"github.com/noah-isme/backend-facture/internal/db"
	"github.com/noah-isme/backend-facture/internal/document"
	"github.com/noah-isme/backend-facture/internal/events"
	"github.com/noah-isme/backend-facture/internal/obs"
	"github.com/noah-isme/backend-facture/internal/ratelimit"
)

// Dependencies holds the services shared by the api, worker and tooling binaries.
type Dependencies struct {
	DB        *pgxpool.Pool
	Redis     *redis.Client
	Validator *validator.Validate
	Events    *events.Bus
	Documents *document.Service
	Limiter   ratelimit.Limiter
}

// Options tunes Bootstrap per binary.
type Options struct {
	ApplicationName string
	RedisMetrics    bool
	Migrate         bool
}

// Bootstrap connects to Postgres and Redis, applies migrations when asked, and builds the
// document service. Callers must Close the result.
func Bootstrap(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts Options) (*Dependencies, error) {
	if opts.Migrate {
		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		if v, dirty, err := db.Version(cfg.DatabaseURL); err == nil {
			logger.Info().Uint("version", v).Bool("dirty", dirty).Msg("migrations applied")
		}
	}

	pool, err := ConnectPostgres(ctx, cfg.DatabaseURL, opts.ApplicationName)
	if err != nil {
		return nil, err
	}
	rdb, err := ConnectRedis(ctx, cfg.RedisURL, opts.RedisMetrics, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	limiter, err := NewLimiter(cfg.RateLimitBackend, rdb)
	if err != nil {
		pool.Close()
		_ = rdb.Close()
		return nil, err
	}

	eventStore := events.PGStore{DB: pool}
	bus := &events.Bus{
		Store:     eventStore,
		Notifiers: []events.Notifier{events.LogNotifier{Logger: logger}},
	}
	v := document.NewValidator()
	docs := document.NewService(document.ServiceConfig{
		Store:         document.NewPGStore(pool),
		Cache:         cache.NewJSON(rdb, cfg.DocumentCacheTTL),
		Memo:          cache.NewMemo(cfg.PreviewMemoTTL),
		Events:        bus,
		History:       eventStore,
		Validator:     v,
		Logger:        logger,
		Currency:      cfg.CurrencyCode,
		QuoteValidity: cfg.QuoteValidity(),
		PaymentTerms:  cfg.PaymentTerms(),
		DefaultLimit:  cfg.ListDefaultLimit,
		MaxLimit:      cfg.ListMaxLimit,
		ExportMaxRows: cfg.ExportMaxRows,
	})

	return &Dependencies{
		DB:        pool,
		Redis:     rdb,
		Validator: v,
		Events:    bus,
		Documents: docs,
		Limiter:   limiter,
	}, nil
}

// Close releases connections.
func (d *Dependencies) Close() error {
	if d == nil {
		return nil
	}
	var err error
	if d.Redis != nil {
		err = d.Redis.Close()
	}
	if d.DB != nil {
		d.DB.Close()
	}
	return err
}

// ConnectPostgres opens a traced pgx pool and checks it answers.
func ConnectPostgres(ctx context.Context, url, applicationName string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	if applicationName != "" {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = applicationName
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// ConnectRedis opens an instrumented Redis client and checks it answers.
func ConnectRedis(ctx context.Context, url string, metrics bool, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metrics {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewLimiter returns the rate limiter for backend: "sliding", "ulule" or "off" (nil limiter).
func NewLimiter(backend string, client *redis.Client) (ratelimit.Limiter, error) {
	switch backend {
	case "", "sliding":
		return ratelimit.SlidingWindow{Client: client, Prefix: "rl"}, nil
	case "ulule":
		l, err := ratelimit.NewUlule(client, "rl")
		if err != nil {
			return nil, err
		}
		return l, nil
	case "off":
		return nil, nil
	default:
		return nil, errors.New("unknown rate limit backend " + backend)
	}
}
