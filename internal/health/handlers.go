package health

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/noah-isme/backend-facture/internal/common"
)

var draining atomic.Bool

// SetReady toggles readiness; the API flips it to false while draining on shutdown.
func SetReady(v bool) {
	draining.Store(!v)
}

// IsReady reports the current readiness flag.
func IsReady() bool {
	return !draining.Load()
}

// Probe checks one dependency within Timeout.
type Probe struct {
	Name    string
	Timeout time.Duration
	Check   func(ctx context.Context) error
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Probes []Probe
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready runs every probe concurrently and answers 503 when one fails or the process is draining.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !IsReady() {
		common.JSON(w, http.StatusServiceUnavailable, map[string]any{"status": "draining"})
		return
	}
	checks := h.run(r.Context())
	status := http.StatusOK
	overall := "ok"
	for _, result := range checks {
		if result != "ok" {
			status = http.StatusServiceUnavailable
			overall = "degraded"
		}
	}
	if len(h.Probes) == 0 {
		status = http.StatusServiceUnavailable
		overall = "unconfigured"
	}
	common.JSON(w, status, map[string]any{"status": overall, "checks": checks})
}

func (h Handler) run(ctx context.Context) map[string]string {
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = make(map[string]string, len(h.Probes))
	)
	for _, p := range h.Probes {
		wg.Add(1)
		go func(p Probe) {
			defer wg.Done()
			result := "ok"
			if err := p.run(ctx); err != nil {
				result = err.Error()
			}
			mu.Lock()
			out[p.Name] = result
			mu.Unlock()
		}(p)
	}
	wg.Wait()
	return out
}

func (p Probe) run(ctx context.Context) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.Check(ctx)
}
