package cache_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-facture/internal/cache"
)

type payload struct {
	Number string `json:"number"`
}

func TestJSONRoundTripAndDelete(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := cache.NewJSON(client, time.Minute)
	ctx := context.Background()
	key := cache.KeyDocument("acme", uuid.New())

	var got payload
	ok, err := c.GetJSON(ctx, key, &got)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.SetJSON(ctx, key, payload{Number: "FAC-2024-0001"}))
	ok, err = c.GetJSON(ctx, key, &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "FAC-2024-0001", got.Number)

	mr.FastForward(2 * time.Minute)
	ok, err = c.GetJSON(ctx, key, &got)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.SetJSON(ctx, key, payload{Number: "x"}))
	require.NoError(t, c.Delete(ctx, key))
	require.False(t, mr.Exists(key))
}

func TestJSONNilClientIsNoop(t *testing.T) {
	c := cache.NewJSON(nil, time.Minute)
	ok, err := c.GetJSON(context.Background(), "k", &payload{})
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, c.SetJSON(context.Background(), "k", payload{}))
	require.NoError(t, c.Delete(context.Background(), "k"))
}

func TestKeyDocumentIsTenantScoped(t *testing.T) {
	id := uuid.MustParse("6f1c1a52-8a4e-4a55-9d0a-3e3f5b7c2d10")
	require.Equal(t, "acme:document:6f1c1a52-8a4e-4a55-9d0a-3e3f5b7c2d10", cache.KeyDocument("acme", id))
	require.Equal(t, "document:6f1c1a52-8a4e-4a55-9d0a-3e3f5b7c2d10", cache.KeyDocument("", id))
}

func TestMemo(t *testing.T) {
	m := cache.NewMemo(time.Minute)
	_, ok := m.Get("a")
	require.False(t, ok)
	m.Set("a", 42)
	v, ok := m.Get("a")
	require.True(t, ok)
	require.Equal(t, 42, v)
	require.Equal(t, 1, m.Len())

	disabled := cache.NewMemo(0)
	disabled.Set("a", 1)
	_, ok = disabled.Get("a")
	require.False(t, ok)
}
