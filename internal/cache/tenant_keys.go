package cache

import (
	"github.com/google/uuid"

	"github.com/noah-isme/backend-facture/internal/tenant"
)

// KeyDocument returns the per-tenant key for a single document.
func KeyDocument(tenantID string, id uuid.UUID) string {
	return tenant.PrefixKey(tenantID, "document:"+id.String())
}

// KeyPreview returns the memo key for a totals preview fingerprint.
func KeyPreview(kind, fingerprint string) string {
	return "preview:" + kind + ":" + fingerprint
}
