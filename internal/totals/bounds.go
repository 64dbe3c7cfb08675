package totals

import "github.com/shopspring/decimal"

const (
	maxExponent = 30
	maxDigits   = 40
)

// InRange reports whether d is small enough to be expanded, compared and printed cheaply.
// Decimals store their exponent separately, so "1e5000000" parses instantly but turns into
// a five million digit integer as soon as it is rescaled or rendered.
func InRange(d decimal.Decimal) bool {
	e := d.Exponent()
	return e >= -maxExponent && e <= maxExponent && d.NumDigits() <= maxDigits
}
