package queue_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-facture/internal/lock"
	"github.com/noah-isme/backend-facture/internal/queue"
)

type fakeExpirer struct {
	calls atomic.Int32
	n     int
	err   error
	seen  time.Time
}

func (f *fakeExpirer) ExpireQuotes(_ context.Context, now time.Time) (int, error) {
	f.calls.Add(1)
	f.seen = now
	return f.n, f.err
}

func newLocker(t *testing.T) (*miniredis.Miniredis, lock.Locker) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, lock.Locker{R: client}
}

func TestExpireQuotesHandlerRunsUnderLock(t *testing.T) {
	mr, locker := newLocker(t)
	now := time.Date(2024, 3, 15, 1, 0, 0, 0, time.UTC)
	exp := &fakeExpirer{n: 3}
	h := queue.ExpireQuotesHandler{Expirer: exp, Locker: locker, LockTTL: time.Minute, Logger: zerolog.Nop(), Clock: func() time.Time { return now }}

	require.NoError(t, h.ProcessTask(context.Background(), queue.NewExpireQuotesTask(time.Hour)))
	require.EqualValues(t, 1, exp.calls.Load())
	require.Equal(t, now, exp.seen)
	require.False(t, mr.Exists("lock:"+queue.TypeExpireQuotes))
}

func TestExpireQuotesHandlerSkipsWhenLocked(t *testing.T) {
	mr, locker := newLocker(t)
	require.NoError(t, mr.Set("lock:"+queue.TypeExpireQuotes, "other-replica"))
	exp := &fakeExpirer{}
	h := queue.ExpireQuotesHandler{Expirer: exp, Locker: locker, Logger: zerolog.Nop()}

	require.NoError(t, h.ProcessTask(context.Background(), queue.NewExpireQuotesTask(time.Hour)))
	require.Zero(t, exp.calls.Load())
	got, err := mr.Get("lock:" + queue.TypeExpireQuotes)
	require.NoError(t, err)
	require.Equal(t, "other-replica", got)
}

func TestExpireQuotesHandlerPropagatesFailure(t *testing.T) {
	_, locker := newLocker(t)
	boom := errors.New("db down")
	h := queue.ExpireQuotesHandler{Expirer: &fakeExpirer{err: boom}, Locker: locker, Logger: zerolog.Nop()}
	require.ErrorIs(t, h.ProcessTask(context.Background(), queue.NewExpireQuotesTask(0)), boom)

	require.Error(t, queue.ExpireQuotesHandler{Locker: locker}.ProcessTask(context.Background(), nil))
}

func TestServeMuxCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	queue.MustRegisterMetrics("facture_test", reg)

	ok := asynq.HandlerFunc(func(context.Context, *asynq.Task) error { return nil })
	mux := queue.NewServeMux(zerolog.Nop(), ok)
	before := testutil.ToFloat64(queue.TasksProcessedTotal.WithLabelValues(queue.TypeExpireQuotes, "ok"))
	require.NoError(t, mux.ProcessTask(context.Background(), queue.NewExpireQuotesTask(time.Hour)))
	require.Equal(t, before+1, testutil.ToFloat64(queue.TasksProcessedTotal.WithLabelValues(queue.TypeExpireQuotes, "ok")))
}

func TestEverySpec(t *testing.T) {
	require.Equal(t, "@every 1h0m0s", queue.EverySpec(0))
	require.Equal(t, "@every 15m0s", queue.EverySpec(15*time.Minute))
}
