package totals

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DiscountType selects how a discount amount is interpreted.
type DiscountType string

const (
	// Percentage discounts are expressed as a share of the discounted amount, 0-100.
	Percentage DiscountType = "PERCENTAGE"
	// Fixed discounts are an absolute amount in the document currency.
	Fixed DiscountType = "FIXED"
)

// ParseDiscountType normalises user input; anything other than FIXED is treated as a percentage.
func ParseDiscountType(value string) DiscountType {
	if strings.EqualFold(strings.TrimSpace(value), string(Fixed)) {
		return Fixed
	}
	return Percentage
}

// Valid reports whether t is one of the known discount types.
func (t DiscountType) Valid() bool {
	return t == Percentage || t == Fixed
}

func (t DiscountType) normalised() DiscountType {
	if t == Fixed {
		return Fixed
	}
	return Percentage
}

// LineItem is one invoice or quote row as seen by the engine. Quantity and UnitPrice are
// nullable because rows being edited may be incomplete; such rows are ignored.
type LineItem struct {
	Quantity     decimal.NullDecimal `json:"quantity"`
	UnitPrice    decimal.NullDecimal `json:"unitPrice"`
	VATRate      decimal.Decimal     `json:"vatRate"`
	Discount     decimal.Decimal     `json:"discount"`
	DiscountType DiscountType        `json:"discountType"`
}

// NewLineItem builds a complete line without discount.
func NewLineItem(quantity, unitPrice, vatRate decimal.Decimal) LineItem {
	return LineItem{
		Quantity:     decimal.NewNullDecimal(quantity),
		UnitPrice:    decimal.NewNullDecimal(unitPrice),
		VATRate:      vatRate,
		DiscountType: Percentage,
	}
}

// WithDiscount returns a copy of the line carrying the given line discount.
func (l LineItem) WithDiscount(amount decimal.Decimal, t DiscountType) LineItem {
	l.Discount = amount
	l.DiscountType = t
	return l
}

func (l LineItem) valid() bool {
	return l.Quantity.Valid && l.UnitPrice.Valid
}

// Discount is the document level discount applied after line discounts.
type Discount struct {
	Amount decimal.Decimal `json:"amount"`
	Type   DiscountType    `json:"type"`
}

// VATBucket is the taxable base and tax owed for one VAT rate.
type VATBucket struct {
	Rate       decimal.Decimal `json:"rate"`
	BaseAmount decimal.Decimal `json:"baseAmount"`
	Amount     decimal.Decimal `json:"amount"`
}

// Result is the full breakdown returned by Calculate. Values are not rounded.
type Result struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	TotalDiscount   decimal.Decimal `json:"totalDiscount"`
	TotalWithoutVAT decimal.Decimal `json:"totalWithoutVAT"`
	TotalVAT        decimal.Decimal `json:"totalVAT"`
	TotalWithVAT    decimal.Decimal `json:"totalWithVAT"`
	VATRates        []VATBucket     `json:"vatRates"`
}
