// Package types - Model inputs and outputs
package types

import (
	"math"

	"github.com/shopspring/decimal"
)

// FeatureVector is the ordered numeric encoding consumed by the models.
// It is never mutated after construction.
type FeatureVector []float64

// Len returns the dimensionality
func (v FeatureVector) Len() int {
	return len(v)
}

// Equal reports bit-for-bit equality
func (v FeatureVector) Equal(other FeatureVector) bool {
	if len(v) != len(other) {
		return false
	}
	for i := range v {
		if math.Float64bits(v[i]) != math.Float64bits(other[i]) {
			return false
		}
	}
	return true
}

// RawPrediction is the unbounded output of the model ensemble for one request.
type RawPrediction struct {
	DiscountPct float64  `json:"discount_pct"`
	TaxRate     float64  `json:"tax_rate"`
	DocLevel    DocLevel `json:"doc_level"`

	// ModelVersions maps model name to the artifact version that answered
	ModelVersions map[string]string `json:"model_versions,omitempty"`
}

// Adjustment records one business-rule change applied to a raw prediction
type Adjustment struct {
	// Rule is the rule identifier (e.g. "industry_discount_cap")
	Rule string `json:"rule"`

	// Field is the prediction field that changed
	Field string `json:"field"`

	// From is the value before the rule ran
	From string `json:"from"`

	// To is the value after the rule ran
	To string `json:"to"`

	// Reason is a human-readable explanation
	Reason string `json:"reason"`
}

// BoundedPrediction is a prediction after business rules were applied.
type BoundedPrediction struct {
	// DiscountPct is within [0, max discount for the client industry]
	DiscountPct decimal.Decimal `json:"discount_pct"`

	// TaxRate is the jurisdiction-resolved tax percentage
	TaxRate decimal.Decimal `json:"tax_rate"`

	// DocLevel is at least the category minimum
	DocLevel DocLevel `json:"doc_level"`

	// Jurisdiction is the jurisdiction whose rules were applied
	Jurisdiction string `json:"jurisdiction"`

	// Adjustments lists every rule that changed a value, in order
	Adjustments []Adjustment `json:"adjustments,omitempty"`

	// ModelVersions is carried over from the raw prediction
	ModelVersions map[string]string `json:"model_versions,omitempty"`
}
