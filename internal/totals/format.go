package totals

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatAmount renders a value with two decimals followed by the currency code.
func FormatAmount(d decimal.Decimal, currency string) string {
	currency = strings.TrimSpace(currency)
	if currency == "" {
		return d.StringFixed(2)
	}
	return d.StringFixed(2) + " " + currency
}

// FormatRate renders a VAT rate such as "20%" or "5.5%".
func FormatRate(rate decimal.Decimal) string {
	return rate.String() + "%"
}
