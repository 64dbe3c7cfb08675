package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// Ulule adapts a ulule/limiter Redis store to the Limiter interface. Fixed windows are
// cheaper than SlidingWindow at the cost of allowing bursts at window edges.
type Ulule struct {
	store limiter.Store

	mu       sync.Mutex
	limiters map[string]*limiter.Limiter
}

// NewUlule builds a limiter that keeps its counters in Redis under prefix.
func NewUlule(client *redis.Client, prefix string) (*Ulule, error) {
	store, err := limiterredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
	if err != nil {
		return nil, fmt.Errorf("ulule store: %w", err)
	}
	return &Ulule{store: store, limiters: map[string]*limiter.Limiter{}}, nil
}

// Allow implements Limiter.
func (u *Ulule) Allow(ctx context.Context, key string, window time.Duration, max int) (bool, int, time.Time, error) {
	if u == nil || u.store == nil || max <= 0 || window <= 0 {
		return true, max, time.Now().Add(window), nil
	}
	lctx, err := u.limiter(window, max).Get(ctx, key)
	if err != nil {
		return false, 0, time.Now().Add(window), err
	}
	return !lctx.Reached, int(lctx.Remaining), time.Unix(lctx.Reset, 0), nil
}

func (u *Ulule) limiter(window time.Duration, max int) *limiter.Limiter {
	id := fmt.Sprintf("%d/%s", max, window)
	u.mu.Lock()
	defer u.mu.Unlock()
	if l, ok := u.limiters[id]; ok {
		return l
	}
	l := limiter.New(u.store, limiter.Rate{Period: window, Limit: int64(max)})
	u.limiters[id] = l
	return l
}
