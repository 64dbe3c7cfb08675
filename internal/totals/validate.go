package totals

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrNegativeDiscount is returned for discounts below zero.
	ErrNegativeDiscount = errors.New("discount must not be negative")
	// ErrPercentageOutOfRange is returned for percentage discounts above 100.
	ErrPercentageOutOfRange = errors.New("percentage discount must be between 0 and 100")
	// ErrUnknownDiscountType is returned for discount types other than PERCENTAGE and FIXED.
	ErrUnknownDiscountType = errors.New("discount type must be PERCENTAGE or FIXED")
)

var maxPercentage = decimal.NewFromInt(100)

// ValidateDiscount checks a discount the way input forms do. Calculate itself accepts any
// value; callers that want range checks run this first, for line and document discounts alike.
func ValidateDiscount(amount decimal.Decimal, t DiscountType) error {
	if t != "" && !t.Valid() {
		return ErrUnknownDiscountType
	}
	if amount.IsNegative() {
		return ErrNegativeDiscount
	}
	if t.normalised() == Percentage && amount.GreaterThan(maxPercentage) {
		return ErrPercentageOutOfRange
	}
	return nil
}
