package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func serveWithHeaders(h Headers, tlsOn bool) http.Header {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	if tlsOn {
		req.TLS = &tls.ConnectionState{}
	}
	rr := httptest.NewRecorder()
	h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rr, req)
	return rr.Result().Header
}

func TestHeaders(t *testing.T) {
	cases := []struct {
		name     string
		headers  Headers
		tls      bool
		nosniff  string
		wantHSTS string
	}{
		{name: "tls with subdomains", headers: Headers{Enable: true, EnableHSTS: true, HSTSMaxAge: 600, HSTSIncludeSubdomains: true}, tls: true, nosniff: "nosniff", wantHSTS: "max-age=600; includeSubDomains"},
		{name: "default max age", headers: Headers{Enable: true, EnableHSTS: true}, tls: true, nosniff: "nosniff", wantHSTS: "max-age=31536000"},
		{name: "plain http skips hsts", headers: Headers{Enable: true, EnableHSTS: true}, nosniff: "nosniff"},
		{name: "disabled", headers: Headers{EnableHSTS: true}, tls: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hdr := serveWithHeaders(tc.headers, tc.tls)
			require.Equal(t, tc.nosniff, hdr.Get("X-Content-Type-Options"))
			require.Equal(t, tc.wantHSTS, hdr.Get("Strict-Transport-Security"))
			if tc.headers.Enable {
				require.Equal(t, "no-store", hdr.Get("Cache-Control"))
			}
		})
	}
}
