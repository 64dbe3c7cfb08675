package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newSliding(t *testing.T) (SlidingWindow, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return SlidingWindow{Client: client, Prefix: "rl"}, mr
}

func TestSlidingWindowAdmitsUpToMax(t *testing.T) {
	limiter, mr := newSliding(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, remaining, reset, err := limiter.Allow(ctx, "acme:preview:203.0.113.9", time.Minute, 2)
		require.NoError(t, err)
		require.True(t, allowed)
		require.Equal(t, 1-i, remaining)
		require.WithinDuration(t, time.Now().Add(time.Minute), reset, 2*time.Second)
	}

	allowed, remaining, _, err := limiter.Allow(ctx, "acme:preview:203.0.113.9", time.Minute, 2)
	require.NoError(t, err)
	require.False(t, allowed)
	require.Zero(t, remaining)

	members, err := mr.ZMembers("rl:acme:preview:203.0.113.9")
	require.NoError(t, err)
	require.Len(t, members, 2, "rejected events are not recorded")
}

func TestSlidingWindowKeysAreIndependent(t *testing.T) {
	limiter, _ := newSliding(t)
	ctx := context.Background()

	allowed, _, _, err := limiter.Allow(ctx, "acme:preview:1", time.Minute, 1)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, _, _, err = limiter.Allow(ctx, "globex:preview:1", time.Minute, 1)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestSlidingWindowDisabled(t *testing.T) {
	allowed, remaining, _, err := SlidingWindow{}.Allow(context.Background(), "k", time.Minute, 3)
	require.NoError(t, err)
	require.True(t, allowed)
	require.Equal(t, 3, remaining)
}
