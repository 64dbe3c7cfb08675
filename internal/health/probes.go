package health

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
)

// Postgres probes the document store pool.
func Postgres(pool *pgxpool.Pool, timeout time.Duration) Probe {
	return Probe{Name: "postgres", Timeout: timeout, Check: func(ctx context.Context) error {
		if pool == nil {
			return errors.New("postgres not configured")
		}
		return pool.Ping(ctx)
	}}
}

// Redis probes the cache, rate limit and lock backend.
func Redis(client *redis.Client, timeout time.Duration) Probe {
	return Probe{Name: "redis", Timeout: timeout, Check: func(ctx context.Context) error {
		if client == nil {
			return errors.New("redis not configured")
		}
		return client.Ping(ctx).Err()
	}}
}
