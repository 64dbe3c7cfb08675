package totals

import (
	"slices"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Calculate aggregates line items into a totals breakdown.
//
// Line discounts are applied first and each discounted line feeds the bucket of its VAT
// rate. The document discount is then taken from what remains and spread over the buckets
// pro rata, so every rate keeps its share of the taxable base. Incomplete lines are skipped
// and every aggregate is clamped at zero; the function never fails.
func Calculate(items []LineItem, discount Discount) Result {
	subtotal := decimal.Zero
	totalDiscount := decimal.Zero
	buckets := make(map[string]*VATBucket)

	for _, it := range items {
		if !it.valid() {
			continue
		}
		itemTotal := it.Quantity.Decimal.Mul(it.UnitPrice.Decimal)
		subtotal = subtotal.Add(itemTotal)

		lineDiscount := discountAmount(itemTotal, it.Discount, it.DiscountType)
		totalDiscount = totalDiscount.Add(lineDiscount)

		key := it.VATRate.String()
		bucket, ok := buckets[key]
		if !ok {
			bucket = &VATBucket{Rate: it.VATRate, BaseAmount: decimal.Zero, Amount: decimal.Zero}
			buckets[key] = bucket
		}
		bucket.BaseAmount = bucket.BaseAmount.Add(nonNegative(itemTotal.Sub(lineDiscount)))
	}

	base := nonNegative(subtotal.Sub(totalDiscount))
	globalDiscount := decimal.Zero
	if discount.Amount.IsPositive() && base.IsPositive() {
		globalDiscount = discountAmount(base, discount.Amount, discount.Type)
		totalDiscount = totalDiscount.Add(globalDiscount)
	}
	if globalDiscount.IsPositive() {
		// scale by (1 - global/base); multiplying before dividing keeps exact ratios exact
		remaining := base.Sub(globalDiscount)
		for _, bucket := range buckets {
			bucket.BaseAmount = nonNegative(bucket.BaseAmount.Mul(remaining).Div(base))
		}
	}

	totalVAT := decimal.Zero
	for _, bucket := range buckets {
		bucket.Amount = nonNegative(percentOf(bucket.BaseAmount, bucket.Rate))
		totalVAT = totalVAT.Add(bucket.Amount)
	}
	rates := lo.FilterMap(lo.Values(buckets), func(b *VATBucket, _ int) (VATBucket, bool) {
		return *b, !b.BaseAmount.IsZero()
	})
	slices.SortFunc(rates, func(a, b VATBucket) int { return a.Rate.Cmp(b.Rate) })

	withoutVAT := nonNegative(subtotal.Sub(totalDiscount))
	withVAT := withoutVAT.Add(totalVAT)
	if totalVAT.IsNegative() || withVAT.LessThan(withoutVAT) {
		totalVAT = nonNegative(totalVAT)
		withVAT = withoutVAT.Add(totalVAT)
	}

	return Result{
		Subtotal:        subtotal,
		TotalDiscount:   totalDiscount,
		TotalWithoutVAT: withoutVAT,
		TotalVAT:        totalVAT,
		TotalWithVAT:    withVAT,
		VATRates:        rates,
	}
}

// CalculateTotals is Calculate with the document discount passed as plain arguments.
// An empty discount type means PERCENTAGE.
func CalculateTotals(items []LineItem, amount decimal.Decimal, discountType DiscountType) Result {
	return Calculate(items, Discount{Amount: amount, Type: discountType})
}

// discountAmount returns the discount taken from amount. Fixed discounts never exceed the
// amount they apply to; percentages are passed through unchecked.
func discountAmount(amount, discount decimal.Decimal, t DiscountType) decimal.Decimal {
	if t.normalised() == Fixed {
		return decimal.Min(amount, discount)
	}
	return percentOf(amount, discount)
}

func percentOf(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Shift(-2)
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
