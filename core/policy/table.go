package policy

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"invoice-advisor/core/determinism"
	"invoice-advisor/core/types"
	apperrors "invoice-advisor/internal/errors"
)

// Table holds the business bounds applied to raw predictions
type Table struct {
	// DefaultJurisdiction is used when the context names none, or names one
	// the table does not know. Empty disables the fallback.
	DefaultJurisdiction string

	// MaxDiscount caps every discount (never above 100)
	MaxDiscount decimal.Decimal

	// MaxTaxRate caps every tax rate
	MaxTaxRate decimal.Decimal

	Industries    map[types.ClientIndustry]IndustryRule
	Jurisdictions map[string]JurisdictionRule
	Categories    map[types.ServiceCategory]CategoryRule
}

// IndustryRule bounds the discount offered to one client industry
type IndustryRule struct {
	MaxDiscount decimal.Decimal
}

// JurisdictionRule fixes or bounds the tax rate of one jurisdiction. A
// configured Rate always wins over the model.
type JurisdictionRule struct {
	Rate    *decimal.Decimal
	MinRate decimal.Decimal
	MaxRate *decimal.Decimal
}

// CategoryRule holds per-service-category floors
type CategoryRule struct {
	// MinimumPrice is the lowest discounted amount accepted (zero = none)
	MinimumPrice decimal.Decimal

	// MinDocLevel is the lowest documentation level accepted (empty = none)
	MinDocLevel types.DocLevel
}

func pct(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func pctPtr(v string) *decimal.Decimal {
	d := pct(v)
	return &d
}

// DefaultTable returns the built-in bounds
func DefaultTable() *Table {
	return &Table{
		DefaultJurisdiction: "US",
		MaxDiscount:         pct("100"),
		MaxTaxRate:          pct("25"),
		Industries: map[types.ClientIndustry]IndustryRule{
			types.IndustryEcommerce:     {MaxDiscount: pct("20")},
			types.IndustryEducation:     {MaxDiscount: pct("20")},
			types.IndustryFinance:       {MaxDiscount: pct("15")},
			types.IndustryGovernment:    {MaxDiscount: pct("10")},
			types.IndustryHealthcare:    {MaxDiscount: pct("15")},
			types.IndustryManufacturing: {MaxDiscount: pct("20")},
			types.IndustryTechnology:    {MaxDiscount: pct("20")},
		},
		Jurisdictions: map[string]JurisdictionRule{
			"US": {Rate: pctPtr("8.5")},
			"UK": {Rate: pctPtr("20")},
			"CA": {Rate: pctPtr("13")},
			"AU": {Rate: pctPtr("10")},
			"DE": {Rate: pctPtr("19")},
			"SG": {Rate: pctPtr("7")},
			"EU": {MinRate: pct("17"), MaxRate: pctPtr("25")},
		},
		Categories: map[types.ServiceCategory]CategoryRule{
			types.CategoryAIMLSolutions:     {MinimumPrice: pct("5000")},
			types.CategoryCybersecurity:     {MinimumPrice: pct("2500"), MinDocLevel: types.DocLevelHigh},
			types.CategorySystemIntegration: {MinDocLevel: types.DocLevelHigh},
			types.CategoryITConsulting:      {MinDocLevel: types.DocLevelMedium},
		},
	}
}

// Validate checks every bound is a sane percentage and every key belongs
// to its closed set.
func (t *Table) Validate() error {
	var problems []string
	add := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}
	inPercent := func(d decimal.Decimal) bool {
		return !d.IsNegative() && d.LessThanOrEqual(hundred)
	}

	if !inPercent(t.MaxDiscount) {
		add("max_discount %s is outside [0,100]", t.MaxDiscount)
	}
	if !inPercent(t.MaxTaxRate) {
		add("max_tax_rate %s is outside [0,100]", t.MaxTaxRate)
	}
	if t.DefaultJurisdiction != "" {
		if _, ok := t.Jurisdictions[t.DefaultJurisdiction]; !ok {
			add("default jurisdiction %q has no jurisdiction rule", t.DefaultJurisdiction)
		}
	}

	for _, industry := range determinism.SortedKeys(t.Industries) {
		if !industry.IsValid() {
			add("unknown industry %q", industry)
		}
		if r := t.Industries[industry]; !inPercent(r.MaxDiscount) {
			add("industry %s: max_discount %s is outside [0,100]", industry, r.MaxDiscount)
		}
	}

	for _, code := range determinism.SortedKeys(t.Jurisdictions) {
		r := t.Jurisdictions[code]
		if code == "" || code != strings.ToUpper(code) {
			add("jurisdiction code %q must be upper case", code)
		}
		if r.Rate != nil && (!inPercent(*r.Rate) || r.Rate.GreaterThan(t.MaxTaxRate)) {
			add("jurisdiction %s: rate %s is outside [0,%s]", code, r.Rate, t.MaxTaxRate)
		}
		if !inPercent(r.MinRate) {
			add("jurisdiction %s: min_rate %s is outside [0,100]", code, r.MinRate)
		}
		if r.MinRate.GreaterThan(t.MaxTaxRate) {
			add("jurisdiction %s: min_rate %s is above max_tax_rate %s", code, r.MinRate, t.MaxTaxRate)
		}
		if r.MaxRate != nil && r.MaxRate.LessThan(r.MinRate) {
			add("jurisdiction %s: max_rate %s is below min_rate %s", code, r.MaxRate, r.MinRate)
		}
	}

	for _, category := range determinism.SortedKeys(t.Categories) {
		r := t.Categories[category]
		if !category.IsValid() {
			add("unknown service category %q", category)
		}
		if r.MinimumPrice.IsNegative() {
			add("category %s: minimum_price is negative", category)
		}
		if r.MinDocLevel != "" && r.MinDocLevel.Rank() < 0 {
			add("category %s: unknown min_doc_level %q", category, r.MinDocLevel)
		}
	}

	if len(problems) > 0 {
		return apperrors.Newf(apperrors.TypeConfig, "invalid rules: %s", strings.Join(problems, "; ")).
			WithContext("problems", problems)
	}
	return nil
}

// discountCap is the effective upper bound for an industry
func (t *Table) discountCap(industry types.ClientIndustry) decimal.Decimal {
	limit := decimal.Min(t.MaxDiscount, hundred)
	if r, ok := t.Industries[industry]; ok {
		limit = decimal.Min(limit, r.MaxDiscount)
	}
	return limit
}
