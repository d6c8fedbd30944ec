// Package guards - Runtime invariant checks on pipeline outputs.
// A violation is a bug in the pipeline, never bad input, so it surfaces as
// an internal error instead of a partial answer.
package guards

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"invoice-advisor/core/types"
	apperrors "invoice-advisor/internal/errors"
)

var hundred = decimal.NewFromInt(100)

// violations collects failed assertions
type violations []string

func (v *violations) assert(ok bool, format string, args ...interface{}) {
	if !ok {
		*v = append(*v, fmt.Sprintf(format, args...))
	}
}

func (v violations) err(stage string) error {
	if len(v) == 0 {
		return nil
	}
	return apperrors.Newf(apperrors.TypeInternal, "INVARIANT VIOLATED after %s: %s", stage, strings.Join(v, "; ")).
		WithContext("violations", []string(v))
}

func inPercent(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(hundred)
}

func hasCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

// CheckBounded asserts a post-processed prediction is fully bounded
func CheckBounded(bp *types.BoundedPrediction) error {
	if bp == nil {
		return violations{"bounded prediction is nil"}.err("post-processing")
	}
	var v violations
	v.assert(inPercent(bp.DiscountPct), "discount %s outside [0,100]", bp.DiscountPct)
	v.assert(inPercent(bp.TaxRate), "tax rate %s outside [0,100]", bp.TaxRate)
	v.assert(hasCents(bp.DiscountPct), "discount %s has more than two decimals", bp.DiscountPct)
	v.assert(hasCents(bp.TaxRate), "tax rate %s has more than two decimals", bp.TaxRate)
	v.assert(bp.DocLevel.IsValid(), "unknown documentation level %q", bp.DocLevel)
	v.assert(bp.Jurisdiction != "", "jurisdiction not resolved")
	return v.err("post-processing")
}

// CheckRecommendation asserts an assembled recommendation is complete and
// its totals add up.
func CheckRecommendation(rec *types.Recommendation) error {
	if rec == nil {
		return violations{"recommendation is nil"}.err("assembly")
	}
	var v violations
	v.assert(inPercent(rec.DiscountPct), "discount %s outside [0,100]", rec.DiscountPct)
	v.assert(inPercent(rec.TaxRate), "tax rate %s outside [0,100]", rec.TaxRate)
	v.assert(rec.DocLevel.IsValid(), "unknown documentation level %q", rec.DocLevel)
	v.assert(len(rec.SuggestedItems) > 0, "no suggested items")
	v.assert(rec.PaymentTerms != "", "no payment terms")
	v.assert(rec.Fingerprint != "", "no fingerprint")

	for _, item := range rec.SuggestedItems {
		v.assert(item.MinRate.LessThanOrEqual(item.HourlyRate) && item.HourlyRate.LessThanOrEqual(item.MaxRate),
			"item %q rate %s outside its range", item.Description, item.HourlyRate)
	}

	if t := rec.Totals; t != nil {
		v.assert(t.Subtotal.Sub(t.DiscountAmount).Cmp(t.TaxableAmount) == 0, "subtotal - discount != taxable")
		v.assert(t.TaxableAmount.Add(t.TaxAmount).Cmp(t.Total) == 0, "taxable + tax != total")
		v.assert(!t.Total.IsNegative(), "negative total")
	} else {
		v.assert(false, "no totals preview")
	}
	return v.err("assembly")
}
