package app

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-facture/internal/ratelimit"
)

func TestNewLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	l, err := NewLimiter("sliding", client)
	require.NoError(t, err)
	require.IsType(t, ratelimit.SlidingWindow{}, l)

	l, err = NewLimiter("ulule", client)
	require.NoError(t, err)
	require.IsType(t, &ratelimit.Ulule{}, l)

	l, err = NewLimiter("off", client)
	require.NoError(t, err)
	require.Nil(t, l)

	_, err = NewLimiter("token-bucket", client)
	require.Error(t, err)
}

func TestCloseToleratesNil(t *testing.T) {
	var d *Dependencies
	require.NoError(t, d.Close())
	require.NoError(t, (&Dependencies{}).Close())
}
