package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// TotalsCalculationsTotal counts totals engine runs by document kind.
	TotalsCalculationsTotal *prometheus.CounterVec
	// DocumentMutationsTotal counts document writes by kind and action.
	DocumentMutationsTotal *prometheus.CounterVec
	// DocumentCacheTotal counts document cache lookups by result.
	DocumentCacheTotal *prometheus.CounterVec
	// QuotesExpiredTotal counts quotes moved to expired by the scheduler.
	QuotesExpiredTotal prometheus.Counter
	// DocumentExportDuration records export rendering latency in milliseconds.
	DocumentExportDuration *prometheus.HistogramVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		TotalsCalculationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "totals_calculations_total",
			Help:      "Count of totals computations by document kind.",
		}, []string{"kind"})
		DocumentMutationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_mutations_total",
			Help:      "Count of document mutations by kind and action.",
		}, []string{"kind", "action"})
		DocumentCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_cache_total",
			Help:      "Document cache lookups by result.",
		}, []string{"result"})
		QuotesExpiredTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_expired_total",
			Help:      "Number of quotes expired by the scheduler.",
		})
		DocumentExportDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_export_duration_ms",
			Help:      "Latency for rendering document exports in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}, []string{"format"})

		mustRegisterCollector(reg, TotalsCalculationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				TotalsCalculationsTotal = v
			}
		})
		mustRegisterCollector(reg, DocumentMutationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				DocumentMutationsTotal = v
			}
		})
		mustRegisterCollector(reg, DocumentCacheTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				DocumentCacheTotal = v
			}
		})
		mustRegisterCollector(reg, QuotesExpiredTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				QuotesExpiredTotal = v
			}
		})
		mustRegisterCollector(reg, DocumentExportDuration, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				DocumentExportDuration = v
			}
		})
	})
}

// IncTotalsCalculation records one totals computation when metrics are registered.
func IncTotalsCalculation(kind string) {
	if TotalsCalculationsTotal != nil {
		TotalsCalculationsTotal.WithLabelValues(kind).Inc()
	}
}

// IncDocumentMutation records one document write when metrics are registered.
func IncDocumentMutation(kind, action string) {
	if DocumentMutationsTotal != nil {
		DocumentMutationsTotal.WithLabelValues(kind, action).Inc()
	}
}

// IncDocumentCache records a cache lookup result ("hit", "miss" or "error").
func IncDocumentCache(result string) {
	if DocumentCacheTotal != nil {
		DocumentCacheTotal.WithLabelValues(result).Inc()
	}
}

// AddQuotesExpired records expired quotes.
func AddQuotesExpired(n int) {
	if QuotesExpiredTotal != nil && n > 0 {
		QuotesExpiredTotal.Add(float64(n))
	}
}

// ObserveExport records the time spent rendering an export.
func ObserveExport(format string, ms float64) {
	if DocumentExportDuration != nil {
		DocumentExportDuration.WithLabelValues(format).Observe(ms)
	}
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register metric: %w", err))
	}
}
