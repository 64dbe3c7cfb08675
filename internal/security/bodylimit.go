package security

import (
	"net/http"

	"github.com/noah-isme/backend-facture/internal/common"
)

// BodyLimit caps request payloads. Documents carry at most a few hundred lines, so anything
// beyond Max is rejected.
type BodyLimit struct {
	Max int64
}

// Middleware answers 413 up front when Content-Length already exceeds Max and otherwise wraps
// the body in http.MaxBytesReader; decoders then fail with *http.MaxBytesError, which
// common.WriteAppError renders as 413 too.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.Max <= 0 || r.Body == nil || r.Body == http.NoBody {
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength > b.Max {
			common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request entity too large", map[string]any{"maxBytes": b.Max})
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, b.Max)
		next.ServeHTTP(w, r)
	})
}
