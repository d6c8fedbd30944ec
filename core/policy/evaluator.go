// Package policy bounds raw model predictions with deterministic business
// rules.
//
// Rules run in a fixed order against a single working prediction. Each rule
// either leaves a value alone, replaces it and records an Adjustment, or
// fails with a policy violation when no valid bounded value exists.
package policy

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"invoice-advisor/core/types"
	apperrors "invoice-advisor/internal/errors"
)

// Rule is one bounding step
type Rule interface {
	// Name returns the rule identifier recorded in adjustments
	Name() string

	// Description returns a human-readable description
	Description() string

	// Apply bounds the working prediction in place
	Apply(w *Working) error
}

// Working is the prediction as it moves through the rules
type Working struct {
	Table   *Table
	Context *types.ServiceContext

	Discount     decimal.Decimal
	TaxRate      decimal.Decimal
	DocLevel     types.DocLevel
	Jurisdiction string

	// RawDiscount and RawTaxRate are the unrounded model outputs
	RawDiscount float64
	RawTaxRate  float64

	Adjustments []types.Adjustment
}

func (w *Working) adjust(rule, field, from, to, reason string) {
	w.Adjustments = append(w.Adjustments, types.Adjustment{
		Rule:   rule,
		Field:  field,
		From:   from,
		To:     to,
		Reason: reason,
	})
}

// Processor applies the rule chain
type Processor struct {
	table *Table
	rules []Rule
}

// NewProcessor validates table and builds the standard rule chain
func NewProcessor(table *Table) (*Processor, error) {
	if table == nil {
		table = DefaultTable()
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &Processor{
		table: table,
		rules: []Rule{
			discountBounds{},
			minimumPrice{},
			jurisdictionTax{},
			docLevelFloor{},
		},
	}, nil
}

// Rules lists the rule chain in execution order
func (p *Processor) Rules() []Rule {
	return append([]Rule(nil), p.rules...)
}

// Table returns the bounds in use
func (p *Processor) Table() *Table {
	return p.table
}

// Apply bounds raw for sc
func (p *Processor) Apply(raw *types.RawPrediction, sc *types.ServiceContext) (*types.BoundedPrediction, error) {
	if raw == nil || sc == nil {
		return nil, apperrors.Validation("prediction and service context are required")
	}
	if math.IsNaN(raw.DiscountPct) {
		return nil, apperrors.PolicyViolation(discountBounds{}.Name(), "model returned a non-numeric discount")
	}

	// Infinite values stay zero here; the rules clamp them from the raw value.
	w := &Working{
		Table:       p.table,
		Context:     sc,
		DocLevel:    raw.DocLevel,
		RawDiscount: raw.DiscountPct,
		RawTaxRate:  raw.TaxRate,
	}
	if isFinite(raw.DiscountPct) {
		w.Discount = decimal.NewFromFloat(raw.DiscountPct)
	}
	if isFinite(raw.TaxRate) {
		w.TaxRate = decimal.NewFromFloat(raw.TaxRate)
	}

	for _, rule := range p.rules {
		if err := rule.Apply(w); err != nil {
			return nil, err
		}
	}

	versions := make(map[string]string, len(raw.ModelVersions))
	for k, v := range raw.ModelVersions {
		versions[k] = v
	}
	return &types.BoundedPrediction{
		DiscountPct:   w.Discount.Round(2),
		TaxRate:       w.TaxRate.Round(2),
		DocLevel:      w.DocLevel,
		Jurisdiction:  w.Jurisdiction,
		Adjustments:   w.Adjustments,
		ModelVersions: versions,
	}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// rawString renders a model value for the adjustment trail
func rawString(v float64, rounded decimal.Decimal) string {
	if isFinite(v) {
		return rounded.StringFixed(2)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
