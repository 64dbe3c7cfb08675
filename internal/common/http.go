package common

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
)

// ClientIP returns the caller address. chi's RealIP middleware has already rewritten RemoteAddr
// from X-Forwarded-For/X-Real-IP when the API runs behind a proxy.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	if addr != "" {
		return addr
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	return ""
}

// Attachment writes a binary download. Inline documents open in the browser.
func Attachment(w http.ResponseWriter, contentType, filename string, inline bool, body []byte) {
	disposition := "attachment"
	if inline {
		disposition = "inline"
	}
	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, filename))
	h.Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
