package document

import (
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-facture/internal/totals"
)

const dateLayout = "2006-01-02"

// LineInput is a row as submitted by the editor.
type LineInput struct {
	Description  string              `json:"description" validate:"required,max=500"`
	Quantity     decimal.Decimal     `json:"quantity" validate:"gte=0,lte=1000000000"`
	UnitPrice    decimal.Decimal     `json:"unitPrice" validate:"gte=0,lte=1000000000000"`
	VATRate      decimal.Decimal     `json:"vatRate" validate:"gte=0,lte=100"`
	Discount     decimal.Decimal     `json:"discount"`
	DiscountType totals.DiscountType `json:"discountType" validate:"omitempty,oneof=PERCENTAGE FIXED"`
}

// DiscountInput is the document level discount.
type DiscountInput struct {
	Amount decimal.Decimal     `json:"amount"`
	Type   totals.DiscountType `json:"type" validate:"omitempty,oneof=PERCENTAGE FIXED"`
}

// Input is the payload for creating or replacing a draft.
type Input struct {
	Kind        Kind          `json:"kind"`
	ClientName  string        `json:"clientName" validate:"required,max=200"`
	ClientEmail string        `json:"clientEmail" validate:"omitempty,email,max=254"`
	Currency    string        `json:"currency" validate:"omitempty,len=3,alpha"`
	IssueDate   string        `json:"issueDate" validate:"omitempty,datetime=2006-01-02"`
	DueDate     string        `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
	ValidUntil  string        `json:"validUntil" validate:"omitempty,datetime=2006-01-02"`
	Notes       string        `json:"notes" validate:"max=4000"`
	Lines       []LineInput   `json:"lines" validate:"required,min=1,max=500,dive"`
	Discount    DiscountInput `json:"discount"`
}

func (in LineInput) line() Line {
	return Line{
		Description:  strings.TrimSpace(in.Description),
		Quantity:     in.Quantity,
		UnitPrice:    in.UnitPrice,
		VATRate:      in.VATRate,
		Discount:     in.Discount,
		DiscountType: totals.ParseDiscountType(string(in.DiscountType)),
	}
}

func (in DiscountInput) discount() totals.Discount {
	return totals.Discount{Amount: in.Amount, Type: totals.ParseDiscountType(string(in.Type))}
}

// apply copies the editable fields onto doc and fills date defaults relative to now.
func (in Input) apply(doc *Document, defaults dateDefaults) {
	doc.ClientName = strings.TrimSpace(in.ClientName)
	doc.ClientEmail = strings.TrimSpace(in.ClientEmail)
	doc.Notes = strings.TrimSpace(in.Notes)
	if c := strings.ToUpper(strings.TrimSpace(in.Currency)); c != "" {
		doc.Currency = c
	} else if doc.Currency == "" {
		doc.Currency = defaults.currency
	}
	doc.IssueDate = parseDateOr(in.IssueDate, dateOnly(defaults.now))
	switch doc.Kind {
	case KindQuote:
		until := parseDateOr(in.ValidUntil, doc.IssueDate.Add(defaults.quoteValidity))
		doc.ValidUntil = &until
		doc.DueDate = nil
	case KindInvoice:
		due := parseDateOr(in.DueDate, doc.IssueDate.Add(defaults.paymentTerms))
		doc.DueDate = &due
		doc.ValidUntil = nil
	}
	doc.Lines = lo.Map(in.Lines, func(l LineInput, _ int) Line { return l.line() })
	doc.Discount = in.Discount.discount()
	doc.Recalculate()
}

type dateDefaults struct {
	now           time.Time
	currency      string
	quoteValidity time.Duration
	paymentTerms  time.Duration
}

// parseDateOr parses a validated YYYY-MM-DD string, falling back when empty.
func parseDateOr(raw string, fallback time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return fallback
	}
	return t
}
