package queue

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// TypeExpireQuotes is the periodic task that expires lapsed quotes.
const TypeExpireQuotes = "quotes:expire"

// NewExpireQuotesTask builds the task enqueued by the scheduler. Uniqueness lasts one interval
// so overlapping ticks collapse into one run.
func NewExpireQuotesTask(interval time.Duration) *asynq.Task {
	opts := []asynq.Option{asynq.MaxRetry(3), asynq.Timeout(5 * time.Minute)}
	if interval > 0 {
		opts = append(opts, asynq.Unique(interval))
	}
	return asynq.NewTask(TypeExpireQuotes, nil, opts...)
}

// EverySpec renders an asynq cron spec for a fixed interval.
func EverySpec(interval time.Duration) string {
	if interval <= 0 {
		interval = time.Hour
	}
	return fmt.Sprintf("@every %s", interval)
}

// RegisterPeriodic adds the periodic tasks to scheduler and returns their entry ids.
func RegisterPeriodic(scheduler *asynq.Scheduler, expiryInterval time.Duration) ([]string, error) {
	id, err := scheduler.Register(EverySpec(expiryInterval), NewExpireQuotesTask(expiryInterval))
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", TypeExpireQuotes, err)
	}
	return []string{id}, nil
}
