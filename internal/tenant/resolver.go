package tenant

import (
	"net"
	"net/http"
	"strings"
)

const defaultHeader = "X-Tenant-ID"

// Resolver finds the tenant of a request from a header, then from the subdomain under RootDomain,
// then falls back to DefaultTenant.
type Resolver struct {
	HeaderName    string
	RootDomain    string
	DefaultTenant string
}

// NewResolver normalises its arguments. Without a root domain the first label of any host names
// the tenant.
func NewResolver(headerName, rootDomain, defaultTenant string) *Resolver {
	if headerName == "" {
		headerName = defaultHeader
	}
	return &Resolver{
		HeaderName:    headerName,
		RootDomain:    strings.ToLower(strings.TrimSpace(rootDomain)),
		DefaultTenant: strings.TrimSpace(defaultTenant),
	}
}

// Middleware stores the resolved tenant in the request context. Requests without one pass
// through untouched so that public routes such as the totals preview keep working.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	if r == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := r.Resolve(req)
		if id == "" {
			id = r.DefaultTenant
		}
		if id != "" {
			req = req.WithContext(With(req.Context(), id))
		}
		next.ServeHTTP(w, req)
	})
}

// Resolve returns the tenant named by the request or "" when none is valid. A header carrying an
// invalid id is not overridden by the host.
func (r *Resolver) Resolve(req *http.Request) string {
	if r == nil || req == nil {
		return ""
	}
	if raw := req.Header.Get(r.HeaderName); strings.TrimSpace(raw) != "" {
		return validOrEmpty(strings.ToLower(strings.TrimSpace(raw)))
	}
	return validOrEmpty(r.subdomain(req.Host))
}

func (r *Resolver) subdomain(hostport string) string {
	host := strings.ToLower(strings.TrimSpace(hostport))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	if host == "" || net.ParseIP(host) != nil {
		return ""
	}
	if r.RootDomain != "" {
		var ok bool
		if host, ok = strings.CutSuffix(host, "."+r.RootDomain); !ok {
			return ""
		}
	}
	label, _, _ := strings.Cut(host, ".")
	return label
}

func validOrEmpty(id string) string {
	if !Valid(id) {
		return ""
	}
	return id
}
