package policy

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"invoice-advisor/core/types"
	apperrors "invoice-advisor/internal/errors"
)

var hundred = decimal.NewFromInt(100)

// discountBounds clamps the discount to [0, industry cap]
type discountBounds struct{}

func (discountBounds) Name() string { return "discount_bounds" }

func (discountBounds) Description() string {
	return "Clamp the discount to [0, min(global maximum, client industry maximum)]"
}

func (r discountBounds) Apply(w *Working) error {
	limit := w.Table.discountCap(w.Context.ClientIndustry)
	d := w.Discount.Round(2)
	from := rawString(w.RawDiscount, d)

	switch {
	case math.IsInf(w.RawDiscount, -1) || d.IsNegative():
		w.adjust(r.Name(), "discount_pct", from, "0.00", "discount cannot be negative")
		d = decimal.Zero
	case math.IsInf(w.RawDiscount, 1) || d.GreaterThan(limit):
		w.adjust(r.Name(), "discount_pct", from, limit.StringFixed(2),
			fmt.Sprintf("discount above the %s cap of %s%%", w.Context.ClientIndustry, limit.StringFixed(2)))
		d = limit
	}
	w.Discount = d
	return nil
}

// minimumPrice keeps the discounted amount at or above the category floor
type minimumPrice struct{}

func (minimumPrice) Name() string { return "minimum_price" }

func (minimumPrice) Description() string {
	return "Lower the discount so the discounted amount stays at or above the category minimum price"
}

func (r minimumPrice) Apply(w *Working) error {
	floor := w.Table.Categories[w.Context.ServiceCategory].MinimumPrice
	if !floor.IsPositive() || w.Discount.IsZero() {
		return nil
	}

	amount := w.Context.TotalAmount
	allowed := decimal.Zero
	if amount.GreaterThan(floor) {
		allowed = decimal.NewFromInt(1).Sub(floor.Div(amount)).Mul(hundred).Truncate(2)
	}
	if w.Discount.LessThanOrEqual(allowed) {
		return nil
	}
	w.adjust(r.Name(), "discount_pct", w.Discount.StringFixed(2), allowed.StringFixed(2),
		fmt.Sprintf("%s work has a minimum price of %s", w.Context.ServiceCategory, floor.StringFixed(2)))
	w.Discount = allowed
	return nil
}

// jurisdictionTax resolves the jurisdiction and its tax rate
type jurisdictionTax struct{}

func (jurisdictionTax) Name() string { return "jurisdiction_tax" }

func (jurisdictionTax) Description() string {
	return "Use the configured jurisdiction rate over the model, or clamp the model rate into the jurisdiction bounds"
}

func (r jurisdictionTax) Apply(w *Working) error {
	code := types.NormalizeJurisdiction(w.Context.Jurisdiction)
	if code == "" {
		code = w.Table.DefaultJurisdiction
	}
	if code == "" {
		return apperrors.PolicyViolation(r.Name(), "no jurisdiction given and no default jurisdiction configured")
	}

	rule, ok := w.Table.Jurisdictions[code]
	if !ok {
		fallback, known := w.Table.Jurisdictions[w.Table.DefaultJurisdiction]
		if w.Table.DefaultJurisdiction == "" || !known {
			return apperrors.PolicyViolation(r.Name(),
				fmt.Sprintf("unknown jurisdiction %q and no default jurisdiction configured", code)).
				WithContext("jurisdiction", code)
		}
		w.adjust(r.Name(), "jurisdiction", code, w.Table.DefaultJurisdiction,
			fmt.Sprintf("no tax rules for %q, using the default jurisdiction", code))
		code = w.Table.DefaultJurisdiction
		rule = fallback
	}
	w.Jurisdiction = code

	modelOK := isFinite(w.RawTaxRate)
	model := w.TaxRate.Round(2)
	from := rawString(w.RawTaxRate, model)

	if rule.Rate != nil {
		rate := rule.Rate.Round(2)
		if !modelOK || !model.Equal(rate) {
			w.adjust(r.Name(), "tax_rate", from, rate.StringFixed(2),
				fmt.Sprintf("configured %s rate wins over the model", code))
		}
		w.TaxRate = rate
		return nil
	}

	if math.IsNaN(w.RawTaxRate) {
		return apperrors.PolicyViolation(r.Name(),
			fmt.Sprintf("model returned a non-numeric tax rate and %s has no configured rate", code)).
			WithContext("jurisdiction", code)
	}

	lo := rule.MinRate
	hi := w.Table.MaxTaxRate
	if rule.MaxRate != nil {
		hi = decimal.Min(hi, *rule.MaxRate)
	}
	switch {
	case math.IsInf(w.RawTaxRate, -1) || model.LessThan(lo):
		w.adjust(r.Name(), "tax_rate", from, lo.StringFixed(2),
			fmt.Sprintf("tax rate below the %s minimum", code))
		model = lo
	case math.IsInf(w.RawTaxRate, 1) || model.GreaterThan(hi):
		w.adjust(r.Name(), "tax_rate", from, hi.StringFixed(2),
			fmt.Sprintf("tax rate above the %s maximum", code))
		model = hi
	}
	w.TaxRate = model
	return nil
}

// docLevelFloor raises the documentation level to the category minimum
type docLevelFloor struct{}

func (docLevelFloor) Name() string { return "doc_level_floor" }

func (docLevelFloor) Description() string {
	return "Raise the documentation level to the category minimum"
}

func (r docLevelFloor) Apply(w *Working) error {
	if !w.DocLevel.IsValid() {
		return apperrors.PolicyViolation(r.Name(), fmt.Sprintf("unknown documentation level %q", w.DocLevel))
	}
	floor := w.Table.Categories[w.Context.ServiceCategory].MinDocLevel
	if floor == "" || w.DocLevel.Rank() >= floor.Rank() {
		return nil
	}
	w.adjust(r.Name(), "doc_level", string(w.DocLevel), string(floor),
		fmt.Sprintf("%s work requires %s documentation", w.Context.ServiceCategory, floor))
	w.DocLevel = floor
	return nil
}
