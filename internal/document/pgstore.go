package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-facture/internal/totals"
)

// DBTX is the subset of pgx shared by pools and transactions.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGStore implements Store on PostgreSQL.
type PGStore struct {
	db   DBTX
	pool *pgxpool.Pool
}

// NewPGStore builds a store backed by pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{db: pool, pool: pool}
}

const documentColumns = `id, tenant_id, kind, number, status, client_name, client_email, currency,
issue_date, due_date, valid_until, notes, lines, discount_amount, discount_type,
subtotal, total_discount, total_without_vat, total_vat, total_with_vat, vat_breakdown,
source_quote_id, created_at, updated_at`

const insertDocument = `
INSERT INTO documents (` + documentColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`

// Insert implements Store.
func (s *PGStore) Insert(ctx context.Context, doc Document) error {
	args, err := rowArgs(doc)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, insertDocument, args...); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *PGStore) Get(ctx context.Context, tenantID string, id uuid.UUID) (Document, error) {
	return s.getOne(ctx, `SELECT `+documentColumns+` FROM documents WHERE tenant_id = $1 AND id = $2`, tenantID, id)
}

// GetForUpdate implements Store.
func (s *PGStore) GetForUpdate(ctx context.Context, tenantID string, id uuid.UUID) (Document, error) {
	return s.getOne(ctx, `SELECT `+documentColumns+` FROM documents WHERE tenant_id = $1 AND id = $2 FOR UPDATE`, tenantID, id)
}

func (s *PGStore) getOne(ctx context.Context, query string, args ...any) (Document, error) {
	doc, err := scanDocument(s.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// List implements Store.
func (s *PGStore) List(ctx context.Context, tenantID string, f Filter) ([]Document, int, error) {
	where := []string{"tenant_id = $1"}
	args := []any{tenantID}
	if f.Kind != "" {
		args = append(args, string(f.Kind))
		where = append(where, fmt.Sprintf("kind = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		args = append(args, "%"+q+"%")
		where = append(where, fmt.Sprintf("(client_name ILIKE $%d OR number ILIKE $%d)", len(args), len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM documents WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	query := `SELECT ` + documentColumns + ` FROM documents WHERE ` + clause + ` ORDER BY created_at DESC, id`
	if f.PerPage > 0 {
		args = append(args, f.PerPage, f.offset())
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	docs := make([]Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

const updateDocument = `
UPDATE documents SET
	number = $4, status = $5, client_name = $6, client_email = $7, currency = $8,
	issue_date = $9, due_date = $10, valid_until = $11, notes = $12, lines = $13,
	discount_amount = $14, discount_type = $15, subtotal = $16, total_discount = $17,
	total_without_vat = $18, total_vat = $19, total_with_vat = $20, vat_breakdown = $21,
	source_quote_id = $22, updated_at = $23
WHERE id = $1 AND tenant_id = $2 AND kind = $3`

// Update implements Store. created_at is never rewritten.
func (s *PGStore) Update(ctx context.Context, doc Document) error {
	args, err := rowArgs(doc)
	if err != nil {
		return err
	}
	args = append(args[:22], doc.UpdatedAt)
	tag, err := s.db.Exec(ctx, updateDocument, args...)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete implements Store.
func (s *PGStore) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM documents WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const nextNumber = `
INSERT INTO document_counters (tenant_id, kind, year, last_value)
VALUES ($1, $2, $3, 1)
ON CONFLICT (tenant_id, kind, year)
DO UPDATE SET last_value = document_counters.last_value + 1
RETURNING last_value`

// NextNumber implements Store. The counter row lock serialises concurrent callers.
func (s *PGStore) NextNumber(ctx context.Context, tenantID string, kind Kind, year int) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, nextNumber, tenantID, string(kind), year).Scan(&n); err != nil {
		return 0, fmt.Errorf("next document number: %w", err)
	}
	return n, nil
}

// ListExpirable implements Store.
func (s *PGStore) ListExpirable(ctx context.Context, cutoff time.Time, limit int) ([]Document, error) {
	rows, err := s.db.Query(ctx, `SELECT `+documentColumns+` FROM documents
WHERE kind = 'quote' AND status = 'sent' AND valid_until < $1
ORDER BY valid_until, id LIMIT $2`, dateOnly(cutoff), limit)
	if err != nil {
		return nil, fmt.Errorf("list expirable quotes: %w", err)
	}
	defer rows.Close()
	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// WithTx implements Store. Nested calls reuse the open transaction.
func (s *PGStore) WithTx(ctx context.Context, fn func(Store) error) error {
	if s.pool == nil {
		return fn(s)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := fn(&PGStore{db: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func rowArgs(doc Document) ([]any, error) {
	lines, err := json.Marshal(doc.Lines)
	if err != nil {
		return nil, fmt.Errorf("encode lines: %w", err)
	}
	buckets := doc.Totals.VATRates
	if buckets == nil {
		buckets = []totals.VATBucket{}
	}
	breakdown, err := json.Marshal(buckets)
	if err != nil {
		return nil, fmt.Errorf("encode vat breakdown: %w", err)
	}
	var number *string
	if doc.Number != "" {
		number = &doc.Number
	}
	return []any{
		doc.ID, doc.TenantID, string(doc.Kind), number, string(doc.Status),
		doc.ClientName, doc.ClientEmail, doc.Currency,
		doc.IssueDate, doc.DueDate, doc.ValidUntil, doc.Notes, lines,
		doc.Discount.Amount, string(doc.Discount.Type),
		doc.Totals.Subtotal, doc.Totals.TotalDiscount, doc.Totals.TotalWithoutVAT,
		doc.Totals.TotalVAT, doc.Totals.TotalWithVAT, breakdown,
		doc.SourceQuoteID, doc.CreatedAt, doc.UpdatedAt,
	}, nil
}

func scanDocument(row pgx.Row) (Document, error) {
	var (
		doc                   Document
		kind, status, discTyp string
		number                *string
		lines, breakdown      []byte
		discountAmount        decimal.Decimal
	)
	err := row.Scan(
		&doc.ID, &doc.TenantID, &kind, &number, &status,
		&doc.ClientName, &doc.ClientEmail, &doc.Currency,
		&doc.IssueDate, &doc.DueDate, &doc.ValidUntil, &doc.Notes, &lines,
		&discountAmount, &discTyp,
		&doc.Totals.Subtotal, &doc.Totals.TotalDiscount, &doc.Totals.TotalWithoutVAT,
		&doc.Totals.TotalVAT, &doc.Totals.TotalWithVAT, &breakdown,
		&doc.SourceQuoteID, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return Document{}, err
	}
	doc.Kind = Kind(kind)
	doc.Status = Status(status)
	if number != nil {
		doc.Number = *number
	}
	doc.Discount = totals.Discount{Amount: discountAmount, Type: totals.ParseDiscountType(discTyp)}
	if err := json.Unmarshal(lines, &doc.Lines); err != nil {
		return Document{}, fmt.Errorf("decode lines: %w", err)
	}
	if err := json.Unmarshal(breakdown, &doc.Totals.VATRates); err != nil {
		return Document{}, fmt.Errorf("decode vat breakdown: %w", err)
	}
	return doc, nil
}
