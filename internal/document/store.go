package document

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists documents. Implementations return ErrNotFound for missing rows.
type Store interface {
	Insert(ctx context.Context, doc Document) error
	Get(ctx context.Context, tenantID string, id uuid.UUID) (Document, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, tenantID string, id uuid.UUID) (Document, error)
	List(ctx context.Context, tenantID string, f Filter) ([]Document, int, error)
	Update(ctx context.Context, doc Document) error
	Delete(ctx context.Context, tenantID string, id uuid.UUID) error
	// NextNumber returns the next sequence value for tenant, kind and year, starting at 1.
	NextNumber(ctx context.Context, tenantID string, kind Kind, year int) (int, error)
	// ListExpirable returns sent quotes whose validity ended before cutoff, across tenants.
	ListExpirable(ctx context.Context, cutoff time.Time, limit int) ([]Document, error)
	// WithTx runs fn against a transactional view of the store.
	WithTx(ctx context.Context, fn func(Store) error) error
}
