package document

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-facture/internal/totals"
)

// Kind distinguishes invoices from quotes. Both share the same totals computation.
type Kind string

const (
	KindInvoice Kind = "invoice"
	KindQuote   Kind = "quote"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindInvoice || k == KindQuote
}

// NumberPrefix is the prefix used in document numbers, e.g. FAC-2024-0007.
func (k Kind) NumberPrefix() string {
	if k == KindQuote {
		return "DEV"
	}
	return "FAC"
}

// Status is a lifecycle state. Quotes and invoices use different subsets.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusExpired   Status = "expired"
	StatusConverted Status = "converted"
	StatusIssued    Status = "issued"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

var transitions = map[Kind]map[Status][]Status{
	KindQuote: {
		StatusDraft:    {StatusSent},
		StatusSent:     {StatusAccepted, StatusRejected, StatusExpired},
		StatusAccepted: {StatusConverted},
	},
	KindInvoice: {
		StatusDraft:  {StatusIssued, StatusCancelled},
		StatusIssued: {StatusPaid, StatusCancelled},
	},
}

// CanTransition reports whether a document of kind may move from one status to another.
func CanTransition(kind Kind, from, to Status) bool {
	return slices.Contains(transitions[kind][from], to)
}

// Statuses lists every status a kind can take.
func Statuses(kind Kind) []Status {
	var out []Status
	for from, tos := range transitions[kind] {
		out = append(out, from)
		out = append(out, tos...)
	}
	out = lo.Uniq(out)
	slices.Sort(out)
	return out
}

// Line is a persisted invoice or quote row.
type Line struct {
	Description  string              `json:"description"`
	Quantity     decimal.Decimal     `json:"quantity"`
	UnitPrice    decimal.Decimal     `json:"unitPrice"`
	VATRate      decimal.Decimal     `json:"vatRate"`
	Discount     decimal.Decimal     `json:"discount"`
	DiscountType totals.DiscountType `json:"discountType"`
}

// Item converts the row for the totals engine.
func (l Line) Item() totals.LineItem {
	return totals.NewLineItem(l.Quantity, l.UnitPrice, l.VATRate).WithDiscount(l.Discount, l.DiscountType)
}

// Document is an invoice or a quote with its computed totals.
type Document struct {
	ID            uuid.UUID       `json:"id"`
	TenantID      string          `json:"tenantId"`
	Kind          Kind            `json:"kind"`
	Number        string          `json:"number,omitempty"`
	Status        Status          `json:"status"`
	ClientName    string          `json:"clientName"`
	ClientEmail   string          `json:"clientEmail,omitempty"`
	Currency      string          `json:"currency"`
	IssueDate     time.Time       `json:"issueDate"`
	DueDate       *time.Time      `json:"dueDate,omitempty"`
	ValidUntil    *time.Time      `json:"validUntil,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	Lines         []Line          `json:"lines"`
	Discount      totals.Discount `json:"discount"`
	Totals        totals.Result   `json:"totals"`
	SourceQuoteID *uuid.UUID      `json:"sourceQuoteId,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Editable reports whether lines and header fields may still change.
func (d Document) Editable() bool {
	return d.Status == StatusDraft
}

// Recalculate refreshes Totals from the current lines and document discount.
func (d *Document) Recalculate() {
	d.Totals = totals.Calculate(lineItems(d.Lines), d.Discount)
}

func lineItems(lines []Line) []totals.LineItem {
	return lo.Map(lines, func(l Line, _ int) totals.LineItem { return l.Item() })
}

// Filter narrows List results. Zero values mean "any".
type Filter struct {
	Kind    Kind
	Status  Status
	Search  string
	Page    int
	PerPage int
}

func (f Filter) offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PerPage
}

// FormatNumber renders the human facing number, e.g. DEV-2024-0042.
func FormatNumber(kind Kind, year, seq int) string {
	return fmt.Sprintf("%s-%d-%04d", kind.NumberPrefix(), year, seq)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
