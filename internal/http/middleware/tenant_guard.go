package middleware

import (
	"net/http"

	"github.com/noah-isme/backend-facture/internal/common"
	"github.com/noah-isme/backend-facture/internal/tenant"
)

// RequireTenant rejects requests whose tenant could not be resolved. Documents are always
// stored per tenant, so every /documents route sits behind it.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := tenant.From(r.Context()); !ok {
			common.JSONError(w, http.StatusBadRequest, "TENANT_REQUIRED", "tenant is required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
