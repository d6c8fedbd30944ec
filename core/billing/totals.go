// Package billing computes invoice totals with decimal arithmetic.
//
// Every intermediate amount is rounded to cents half away from zero before
// it feeds the next step, so the printed figures always add up.
package billing

import (
	"github.com/shopspring/decimal"

	"invoice-advisor/core/determinism"
	"invoice-advisor/core/types"
	apperrors "invoice-advisor/internal/errors"
)

// Line is one billable invoice line
type Line struct {
	Description string          `json:"description"`
	Hours       decimal.Decimal `json:"hours"`
	HourlyRate  decimal.Decimal `json:"hourly_rate"`
}

// Amount is hours x rate rounded to cents
func (l Line) Amount() decimal.Decimal {
	return l.Hours.Mul(l.HourlyRate).Round(2)
}

var hundred = decimal.NewFromInt(100)

// Compute totals lines after applying discountPct and then taxRate
func Compute(lines []Line, discountPct, taxRate decimal.Decimal, currency types.Currency) (*types.Totals, error) {
	if err := checkPercent("discount_pct", discountPct); err != nil {
		return nil, err
	}
	if err := checkPercent("tax_rate", taxRate); err != nil {
		return nil, err
	}
	cur, err := types.ParseCurrency(string(currency))
	if err != nil {
		return nil, err
	}

	subtotal := determinism.ZeroMoney(cur.String())
	hours := decimal.Zero
	for i, line := range lines {
		if line.Hours.IsNegative() {
			return nil, apperrors.Validationf("line %d: hours must not be negative", i+1).WithContext("field", "hours")
		}
		if line.HourlyRate.IsNegative() {
			return nil, apperrors.Validationf("line %d: hourly rate must not be negative", i+1).WithContext("field", "hourly_rate")
		}
		subtotal = subtotal.Add(determinism.MoneyOf(line.Amount(), cur.String()))
		hours = hours.Add(line.Hours)
	}

	t := fromSubtotal(subtotal, discountPct, taxRate)
	t.TotalHours = hours.String()
	return t, nil
}

// Preview totals a single amount, as used for the recommendation preview
// where only the engagement value is known.
func Preview(amount, discountPct, taxRate decimal.Decimal, currency types.Currency) (*types.Totals, error) {
	if amount.IsNegative() {
		return nil, apperrors.Validation("total amount must not be negative").WithContext("field", "total_amount")
	}
	if err := checkPercent("discount_pct", discountPct); err != nil {
		return nil, err
	}
	if err := checkPercent("tax_rate", taxRate); err != nil {
		return nil, err
	}
	cur, err := types.ParseCurrency(string(currency))
	if err != nil {
		return nil, err
	}

	t := fromSubtotal(determinism.MoneyOf(amount, cur.String()).RoundCents(), discountPct, taxRate)
	t.TotalHours = "0"
	return t, nil
}

func fromSubtotal(subtotal determinism.Money, discountPct, taxRate decimal.Decimal) *types.Totals {
	discount := subtotal.Percent(discountPct).RoundCents()
	taxable := subtotal.Sub(discount)
	tax := taxable.Percent(taxRate).RoundCents()
	return &types.Totals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TaxableAmount:  taxable,
		TaxAmount:      tax,
		Total:          taxable.Add(tax),
	}
}

func checkPercent(field string, v decimal.Decimal) error {
	if v.IsNegative() || v.GreaterThan(hundred) {
		return apperrors.Validationf("%s must be within [0,100], got %s", field, v).WithContext("field", field)
	}
	return nil
}
