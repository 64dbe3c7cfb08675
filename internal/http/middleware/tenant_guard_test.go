package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/noah-isme/backend-facture/internal/http/middleware"
	"github.com/noah-isme/backend-facture/internal/tenant"
)

func TestRequireTenantMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rec := httptest.NewRecorder()
	handler := middleware.RequireTenant(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRequireTenantPresent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req = req.WithContext(tenant.With(req.Context(), "tenant-123"))
	rec := httptest.NewRecorder()
	handler := middleware.RequireTenant(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireTenantResolvedFromHeader(t *testing.T) {
	resolver := tenant.NewResolver("", "", "")
	handler := resolver.Middleware(middleware.RequireTenant(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := tenant.From(r.Context())
		_, _ = w.Write([]byte(id))
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	req.Header.Set("X-Tenant-ID", "acme")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "acme" {
		t.Fatalf("expected tenant acme, got %d %q", rec.Code, rec.Body.String())
	}

	sub := httptest.NewRequest(http.MethodGet, "http://beta.facture.test/api/v1/documents", nil)
	rec = httptest.NewRecorder()
	tenant.NewResolver("", "facture.test", "").Middleware(middleware.RequireTenant(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := tenant.From(r.Context())
		_, _ = w.Write([]byte(id))
	}))).ServeHTTP(rec, sub)
	if rec.Body.String() != "beta" {
		t.Fatalf("expected subdomain tenant beta, got %q", rec.Body.String())
	}
}
