package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-facture/internal/health"
)

type readyBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func probe(name string, err error) health.Probe {
	return health.Probe{Name: name, Timeout: 50 * time.Millisecond, Check: func(context.Context) error { return err }}
}

func ready(t *testing.T, h health.Handler) (int, readyBody) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var body readyBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return rr.Code, body
}

func TestLive(t *testing.T) {
	rr := httptest.NewRecorder()
	health.Handler{}.Live(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", rr.Body.String())
}

func TestReadySuccess(t *testing.T) {
	code, body := ready(t, health.Handler{Probes: []health.Probe{probe("postgres", nil), probe("redis", nil)}})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ok", body.Status)
	require.Equal(t, map[string]string{"postgres": "ok", "redis": "ok"}, body.Checks)
}

func TestReadyReportsFailingProbe(t *testing.T) {
	code, body := ready(t, health.Handler{Probes: []health.Probe{probe("postgres", nil), probe("redis", errors.New("redis down"))}})
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "degraded", body.Status)
	require.Equal(t, "redis down", body.Checks["redis"])
	require.Equal(t, "ok", body.Checks["postgres"])
}

func TestReadyWithoutProbes(t *testing.T) {
	code, body := ready(t, health.Handler{})
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "unconfigured", body.Status)
}

func TestProbeTimeout(t *testing.T) {
	slow := health.Probe{Name: "postgres", Timeout: 10 * time.Millisecond, Check: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	code, body := ready(t, health.Handler{Probes: []health.Probe{slow}})
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, context.DeadlineExceeded.Error(), body.Checks["postgres"])
}

func TestRedisProbe(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	code, _ := ready(t, health.Handler{Probes: []health.Probe{health.Redis(client, time.Second)}})
	require.Equal(t, http.StatusOK, code)

	code, body := ready(t, health.Handler{Probes: []health.Probe{health.Postgres(nil, time.Second)}})
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "postgres not configured", body.Checks["postgres"])
}

func TestReadinessWhileDraining(t *testing.T) {
	h := health.Handler{Probes: []health.Probe{probe("redis", nil)}}
	health.SetReady(false)
	t.Cleanup(func() { health.SetReady(true) })

	code, body := ready(t, h)
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "draining", body.Status)

	health.SetReady(true)
	code, _ = ready(t, h)
	require.Equal(t, http.StatusOK, code)
}
