package obs_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-facture/internal/obs"
	"github.com/noah-isme/backend-facture/internal/tenant"
)

func TestLogCarriesRequestScope(t *testing.T) {
	var buf bytes.Buffer
	ctx := tenant.With(context.Background(), "acme")
	ctx = context.WithValue(ctx, middleware.RequestIDKey, "req-42")

	obs.Log(ctx, zerolog.New(&buf)).Info().Msg("document created")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "acme", entry["tenant_id"])
	require.Equal(t, "req-42", entry["request_id"])
	require.NotContains(t, entry, "trace_id")
}

func TestParseBucketsCSV(t *testing.T) {
	require.Nil(t, obs.ParseBucketsCSV("  "))
	require.Equal(t, []float64{5, 12.5, 100}, obs.ParseBucketsCSV("5, 12.5,abc,-1,0,100"))
}

func TestNewHTTPMetricsReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := obs.NewHTTPMetrics("facture", []float64{100, 10}, reg)
	second := obs.NewHTTPMetrics("facture", nil, reg)
	require.Same(t, first.ReqTotal, second.ReqTotal)
	require.Same(t, first.ReqDur, second.ReqDur)
}

func TestStartEndWithoutProvider(t *testing.T) {
	ctx, span := obs.Start(context.Background(), "totals.calculate")
	require.NotNil(t, ctx)
	obs.End(span, errors.New("boom"))
	require.False(t, span.IsRecording())
}
