package ratelimit

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/noah-isme/backend-facture/internal/common"
	"github.com/noah-isme/backend-facture/internal/tenant"
)

// Limiter decides whether one more event fits in the window for key.
type Limiter interface {
	Allow(ctx context.Context, key string, window time.Duration, max int) (allowed bool, remaining int, reset time.Time, err error)
}

// Config names the bucket a request falls into and how many requests it may hold per window.
type Config struct {
	Key    func(*http.Request) string
	Window time.Duration
	Max    int
}

// Handler rejects requests over their budget with 429. Limiter failures are reported through
// OnError and the request is let through.
type Handler struct {
	Limiter Limiter
	Config  Config
	OnError func(error)
}

// Middleware applies the limit to next.
func (h Handler) Middleware(next http.Handler) http.Handler {
	if h.Limiter == nil || h.Config.Key == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, remaining, resetAt, err := h.Limiter.Allow(r.Context(), h.Config.Key(r), h.Config.Window, h.Config.Max)
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}
		h.setHeaders(w.Header(), remaining, resetAt)
		if allowed {
			next.ServeHTTP(w, r)
			return
		}

		wait := int(math.Ceil(time.Until(resetAt).Seconds()))
		if wait < 0 {
			wait = 0
		}
		w.Header().Set("Retry-After", strconv.Itoa(wait))
		common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded", map[string]any{
			"retryAfter": wait,
			"limit":      h.Config.Max,
		})
	})
}

func (h Handler) setHeaders(hdr http.Header, remaining int, resetAt time.Time) {
	hdr.Set("X-RateLimit-Limit", strconv.Itoa(max(h.Config.Max, 0)))
	hdr.Set("X-RateLimit-Remaining", strconv.Itoa(max(remaining, 0)))
	hdr.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
}

// TenantClientKey buckets requests by tenant, scope and client IP so that one tenant's clients
// cannot exhaust another's preview budget.
func TenantClientKey(scope string) func(*http.Request) string {
	return func(r *http.Request) string {
		tenantID, _ := tenant.From(r.Context())
		return tenant.PrefixKey(tenantID, scope+":"+common.ClientIP(r))
	}
}
