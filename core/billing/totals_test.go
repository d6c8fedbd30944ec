package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoice-advisor/core/types"
	apperrors "invoice-advisor/internal/errors"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeMatchesHandCalculation(t *testing.T) {
	lines := []Line{
		{Description: "Custom API Development", Hours: d("40"), HourlyRate: d("175")},
		{Description: "Frontend Development", Hours: d("12.5"), HourlyRate: d("150")},
	}

	totals, err := Compute(lines, d("5"), d("8.5"), types.CurrencyUSD)
	require.NoError(t, err)

	// 7000 + 1875 = 8875; discount 443.75; taxable 8431.25; tax 716.66 (716.65625)
	assert.Equal(t, "8875.00 USD", totals.Subtotal.String())
	assert.Equal(t, "443.75 USD", totals.DiscountAmount.String())
	assert.Equal(t, "8431.25 USD", totals.TaxableAmount.String())
	assert.Equal(t, "716.66 USD", totals.TaxAmount.String())
	assert.Equal(t, "9147.91 USD", totals.Total.String())
	assert.Equal(t, "52.5", totals.TotalHours)
}

func TestComputeEmptyAndZeroRates(t *testing.T) {
	totals, err := Compute(nil, decimal.Zero, decimal.Zero, "")
	require.NoError(t, err)
	assert.True(t, totals.Total.IsZero())
	assert.Equal(t, "USD", totals.Total.Currency())
}

func TestComputeRejectsBadInput(t *testing.T) {
	ok := []Line{{Hours: d("1"), HourlyRate: d("1")}}

	tests := []struct {
		name     string
		lines    []Line
		discount string
		tax      string
		currency types.Currency
	}{
		{"negative hours", []Line{{Hours: d("-1"), HourlyRate: d("100")}}, "0", "0", "USD"},
		{"negative rate", []Line{{Hours: d("1"), HourlyRate: d("-100")}}, "0", "0", "USD"},
		{"discount above 100", ok, "100.01", "0", "USD"},
		{"negative tax", ok, "0", "-1", "USD"},
		{"unknown currency", ok, "0", "0", "XYZ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(tt.lines, d(tt.discount), d(tt.tax), tt.currency)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.TypeValidation))
		})
	}
}

func TestPreview(t *testing.T) {
	totals, err := Preview(d("15000"), d("9"), d("8.5"), types.CurrencyEUR)
	require.NoError(t, err)
	assert.Equal(t, "15000.00 EUR", totals.Subtotal.String())
	assert.Equal(t, "1350.00 EUR", totals.DiscountAmount.String())
	assert.Equal(t, "13650.00 EUR", totals.TaxableAmount.String())
	assert.Equal(t, "1160.25 EUR", totals.TaxAmount.String())
	assert.Equal(t, "14810.25 EUR", totals.Total.String())

	_, err = Preview(d("-1"), decimal.Zero, decimal.Zero, types.CurrencyUSD)
	assert.Error(t, err)
}

func TestTotalsAddUp(t *testing.T) {
	lines := []Line{
		{Hours: d("3.33"), HourlyRate: d("133.33")},
		{Hours: d("7.77"), HourlyRate: d("99.99")},
	}
	totals, err := Compute(lines, d("12.34"), d("19"), types.CurrencyGBP)
	require.NoError(t, err)

	assert.Equal(t, 0, totals.Subtotal.Sub(totals.DiscountAmount).Cmp(totals.TaxableAmount))
	assert.Equal(t, 0, totals.TaxableAmount.Add(totals.TaxAmount).Cmp(totals.Total))
}
