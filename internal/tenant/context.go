// Package tenant scopes requests, cache keys and document numbering to one tenant.
package tenant

import (
	"context"
	"regexp"
	"strings"
)

// tenant ids end up inside cache keys and document numbers, so they are kept to a safe alphabet
var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,62}$`)

// Valid reports whether id is an acceptable tenant identifier.
func Valid(id string) bool {
	return idPattern.MatchString(id)
}

type ctxKey struct{}

// With returns a copy of ctx carrying tenant id.
func With(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey{}, strings.TrimSpace(id))
}

// From returns the tenant stored by With. Blank ids count as absent.
func From(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id, id != ""
}

// PrefixKey namespaces a Redis key under the tenant. An empty tenant leaves key untouched.
func PrefixKey(tenantID, key string) string {
	if tenantID == "" {
		return key
	}
	return tenantID + ":" + key
}
