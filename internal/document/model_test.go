package document

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		kind     Kind
		from, to Status
		want     bool
	}{
		{KindQuote, StatusDraft, StatusSent, true},
		{KindQuote, StatusSent, StatusAccepted, true},
		{KindQuote, StatusSent, StatusRejected, true},
		{KindQuote, StatusSent, StatusExpired, true},
		{KindQuote, StatusAccepted, StatusConverted, true},
		{KindQuote, StatusDraft, StatusAccepted, false},
		{KindQuote, StatusRejected, StatusConverted, false},
		{KindQuote, StatusDraft, StatusIssued, false},
		{KindInvoice, StatusDraft, StatusIssued, true},
		{KindInvoice, StatusIssued, StatusPaid, true},
		{KindInvoice, StatusDraft, StatusCancelled, true},
		{KindInvoice, StatusIssued, StatusCancelled, true},
		{KindInvoice, StatusPaid, StatusCancelled, false},
		{KindInvoice, StatusDraft, StatusPaid, false},
		{KindInvoice, StatusDraft, StatusSent, false},
	}
	for _, tc := range tests {
		require.Equalf(t, tc.want, CanTransition(tc.kind, tc.from, tc.to), "%s %s -> %s", tc.kind, tc.from, tc.to)
	}
}

func TestStatuses(t *testing.T) {
	require.Equal(t, []Status{StatusCancelled, StatusDraft, StatusIssued, StatusPaid}, Statuses(KindInvoice))
	require.Len(t, Statuses(KindQuote), 6)
	require.Empty(t, Statuses("receipt"))
}

func TestFormatNumber(t *testing.T) {
	require.Equal(t, "DEV-2024-0042", FormatNumber(KindQuote, 2024, 42))
	require.Equal(t, "FAC-2025-0001", FormatNumber(KindInvoice, 2025, 1))
	require.Equal(t, "FAC-2025-12345", FormatNumber(KindInvoice, 2025, 12345))
}

func TestRecalculateUsesLineAndDocumentDiscounts(t *testing.T) {
	doc := Document{
		Lines: []Line{
			{Description: "a", Quantity: d("2"), UnitPrice: d("100"), VATRate: d("20"), Discount: d("10"), DiscountType: "PERCENTAGE"},
			{Description: "b", Quantity: d("1"), UnitPrice: d("120"), VATRate: d("5.5"), Discount: d("20"), DiscountType: "FIXED"},
		},
	}
	doc.Discount.Amount = d("25")
	doc.Discount.Type = "FIXED"
	doc.Recalculate()

	requireDecimal(t, "320", doc.Totals.Subtotal)
	requireDecimal(t, "65", doc.Totals.TotalDiscount)
	requireDecimal(t, "255", doc.Totals.TotalWithoutVAT)
	require.Len(t, doc.Totals.VATRates, 2)
	requireDecimal(t, "5.5", doc.Totals.VATRates[0].Rate)
}
