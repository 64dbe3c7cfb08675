package totals_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-facture/internal/totals"
)

func TestParseLineItemsLenient(t *testing.T) {
	raw := []json.RawMessage{
		json.RawMessage(`{"quantity": 2, "unitPrice": "100", "vatRate": 20}`),
		json.RawMessage(`{"qty": "1.5", "unit_price": 10, "vat_rate": "5.5", "discount": "10", "discount_type": "fixed"}`),
		json.RawMessage(`null`),
		json.RawMessage(`"not an object"`),
		json.RawMessage(`{"quantity": 3}`),
		json.RawMessage(`{"quantity": "abc", "unitPrice": 4}`),
		json.RawMessage(`{"quantity": 1, "unitPrice": 4, "vatRate": null, "discount": "lots", "discountType": "weird"}`),
	}

	items := totals.ParseLineItems(raw)
	require.Len(t, items, len(raw))

	first := items[0]
	require.True(t, first.Quantity.Valid)
	requireDecimal(t, "2", first.Quantity.Decimal, "quantity")
	requireDecimal(t, "100", first.UnitPrice.Decimal, "unitPrice")
	requireDecimal(t, "20", first.VATRate, "vatRate")
	require.Equal(t, totals.Percentage, first.DiscountType)

	aliased := items[1]
	requireDecimal(t, "1.5", aliased.Quantity.Decimal, "qty")
	requireDecimal(t, "10", aliased.UnitPrice.Decimal, "unit_price")
	requireDecimal(t, "5.5", aliased.VATRate, "vat_rate")
	requireDecimal(t, "10", aliased.Discount, "discount")
	require.Equal(t, totals.Fixed, aliased.DiscountType)

	for _, idx := range []int{2, 3, 4, 5} {
		require.Falsef(t, items[idx].Quantity.Valid && items[idx].UnitPrice.Valid, "row %d should be incomplete", idx)
	}

	defaults := items[6]
	requireDecimal(t, "0", defaults.VATRate, "vatRate default")
	requireDecimal(t, "0", defaults.Discount, "discount default")
	require.Equal(t, totals.Percentage, defaults.DiscountType)
}

func TestParsedItemsFeedCalculate(t *testing.T) {
	raw := []json.RawMessage{
		json.RawMessage(`{"quantity": "1", "unitPrice": "100", "vatRate": "20"}`),
		json.RawMessage(`{"quantity": 1, "unitPrice": 100, "vatRate": 10}`),
		json.RawMessage(`{"unitPrice": 999, "vatRate": 10}`),
	}
	res := totals.CalculateTotals(totals.ParseLineItems(raw), d("50"), totals.Fixed)
	requireDecimal(t, "200", res.Subtotal, "subtotal")
	requireDecimal(t, "172.5", res.TotalWithVAT, "totalWithVAT")
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in    string
		valid bool
		want  string
	}{
		{in: `12`, valid: true, want: "12"},
		{in: `12.50`, valid: true, want: "12.5"},
		{in: `"7.25"`, valid: true, want: "7.25"},
		{in: `" 3 "`, valid: true, want: "3"},
		{in: `-4`, valid: true, want: "-4"},
		{in: `null`, valid: false},
		{in: `""`, valid: false},
		{in: `"x1"`, valid: false},
		{in: `true`, valid: false},
		{in: `{}`, valid: false},
		{in: ``, valid: false},
		{in: `1e30`, valid: true, want: "1e30"},
		{in: `"1e5000000"`, valid: false},
		{in: `1e-5000000`, valid: false},
		{in: `"12345678901234567890123456789012345678901"`, valid: false},
	}
	for _, tc := range cases {
		got := totals.ParseNumber(json.RawMessage(tc.in))
		require.Equalf(t, tc.valid, got.Valid, "input %q", tc.in)
		if tc.valid {
			requireDecimal(t, tc.want, got.Decimal, tc.in)
		}
	}
}

func TestParseDiscountType(t *testing.T) {
	require.Equal(t, totals.Fixed, totals.ParseDiscountType("FIXED"))
	require.Equal(t, totals.Fixed, totals.ParseDiscountType(" fixed "))
	require.Equal(t, totals.Percentage, totals.ParseDiscountType("PERCENTAGE"))
	require.Equal(t, totals.Percentage, totals.ParseDiscountType(""))
	require.Equal(t, totals.Percentage, totals.ParseDiscountType("amount"))
}

func TestParseLineItemsDropsHugeNumbers(t *testing.T) {
	items := totals.ParseLineItems([]json.RawMessage{
		json.RawMessage(`{"quantity":1,"unitPrice":1,"vatRate":"1e5000000"}`),
		json.RawMessage(`{"quantity":"1e5000000","unitPrice":1,"vatRate":20}`),
	})
	require.Len(t, items, 2)
	require.True(t, items[0].Quantity.Valid)
	requireDecimal(t, "0", items[0].VATRate, "oversized vat rate")
	require.False(t, items[1].Quantity.Valid)

	res := totals.Calculate(items, totals.Discount{})
	requireDecimal(t, "1", res.TotalWithVAT, "totalWithVAT")
	require.Len(t, res.VATRates, 1)
	requireDecimal(t, "0", res.VATRates[0].Rate, "rate")
}

func TestInRange(t *testing.T) {
	require.True(t, totals.InRange(d("123456.789")))
	require.True(t, totals.InRange(d("0")))
	require.False(t, totals.InRange(decimal.New(1, 31)))
	require.False(t, totals.InRange(decimal.New(1, -31)))
}
