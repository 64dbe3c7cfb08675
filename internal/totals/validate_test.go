package totals_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-facture/internal/totals"
)

func TestValidateDiscount(t *testing.T) {
	require.NoError(t, totals.ValidateDiscount(d("0"), totals.Percentage))
	require.NoError(t, totals.ValidateDiscount(d("100"), totals.Percentage))
	require.NoError(t, totals.ValidateDiscount(d("99.5"), ""))
	require.NoError(t, totals.ValidateDiscount(d("5000"), totals.Fixed))

	require.ErrorIs(t, totals.ValidateDiscount(d("100.01"), totals.Percentage), totals.ErrPercentageOutOfRange)
	require.ErrorIs(t, totals.ValidateDiscount(d("150"), ""), totals.ErrPercentageOutOfRange)
	require.ErrorIs(t, totals.ValidateDiscount(d("-1"), totals.Fixed), totals.ErrNegativeDiscount)
	require.ErrorIs(t, totals.ValidateDiscount(d("-1"), totals.Percentage), totals.ErrNegativeDiscount)
	require.ErrorIs(t, totals.ValidateDiscount(d("1"), totals.DiscountType("AMOUNT")), totals.ErrUnknownDiscountType)
}

func TestFormatAmount(t *testing.T) {
	require.Equal(t, "172.50 EUR", totals.FormatAmount(d("172.5"), "EUR"))
	require.Equal(t, "0.33", totals.FormatAmount(d("0.333"), ""))
	require.Equal(t, "5.5%", totals.FormatRate(d("5.50")))
}
