package queue

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// TasksProcessedTotal counts handled tasks by type and outcome.
	TasksProcessedTotal *prometheus.CounterVec
	// TaskDuration observes handler latency per task type.
	TaskDuration *prometheus.HistogramVec

	metricsOnce sync.Once
)

// MustRegisterMetrics registers queue collectors once. Re-registration reuses the existing ones.
func MustRegisterMetrics(namespace string, reg prometheus.Registerer) {
	metricsOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		processed := prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_processed_total",
			Help:      "Background tasks processed grouped by type and status",
		}, []string{"type", "status"})
		duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Background task handler latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"type"})
		TasksProcessedTotal = register(reg, processed).(*prometheus.CounterVec)
		TaskDuration = register(reg, duration).(*prometheus.HistogramVec)
	})
}

func register(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}
