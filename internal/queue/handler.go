package queue

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-facture/internal/lock"
)

// QuoteExpirer is the document operation run by the expiry task.
type QuoteExpirer interface {
	ExpireQuotes(ctx context.Context, now time.Time) (int, error)
}

// ExpireQuotesHandler runs ExpireQuotes on one replica at a time.
type ExpireQuotesHandler struct {
	Expirer QuoteExpirer
	Locker  lock.Locker
	LockKey string
	LockTTL time.Duration
	Logger  zerolog.Logger
	Clock   func() time.Time
}

// ProcessTask implements asynq.Handler.
func (h ExpireQuotesHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	if h.Expirer == nil {
		return errors.New("queue: quote expirer not configured")
	}
	key := h.LockKey
	if key == "" {
		key = "lock:" + TypeExpireQuotes
	}
	now := time.Now().UTC()
	if h.Clock != nil {
		now = h.Clock().UTC()
	}
	err := h.Locker.TryWithLock(ctx, key, h.LockTTL, func(ctx context.Context) error {
		n, err := h.Expirer.ExpireQuotes(ctx, now)
		if err != nil {
			return err
		}
		h.Logger.Info().Int("expired", n).Time("cutoff", now).Msg("quotes expired")
		return nil
	})
	if errors.Is(err, lock.ErrNotAcquired) {
		h.Logger.Debug().Str("lock", key).Msg("quote expiry already running elsewhere")
		return nil
	}
	return err
}

// NewServeMux routes task types to handlers and wraps them with logging and metrics.
func NewServeMux(logger zerolog.Logger, expire asynq.Handler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Use(observe(logger))
	mux.Handle(TypeExpireQuotes, expire)
	return mux
}

func observe(logger zerolog.Logger) asynq.MiddlewareFunc {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
			start := time.Now()
			err := next.ProcessTask(ctx, t)
			status := "ok"
			if err != nil {
				status = "error"
				logger.Error().Err(err).Str("task", t.Type()).Msg("task failed")
			}
			if TasksProcessedTotal != nil {
				TasksProcessedTotal.WithLabelValues(t.Type(), status).Inc()
			}
			if TaskDuration != nil {
				TaskDuration.WithLabelValues(t.Type()).Observe(time.Since(start).Seconds())
			}
			return err
		})
	}
}
