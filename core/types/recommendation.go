// Package types - Recommendation returned to the UI and PDF stages
package types

import "github.com/shopspring/decimal"

// SuggestedItem is a line-item template proposed for the invoice
type SuggestedItem struct {
	Description string          `json:"description"`
	Details     string          `json:"details,omitempty"`
	HourlyRate  decimal.Decimal `json:"hourly_rate"`
	MinRate     decimal.Decimal `json:"min_rate"`
	MaxRate     decimal.Decimal `json:"max_rate"`
}

// Recommendation is the pipeline result. It is not persisted.
type Recommendation struct {
	// Fingerprint identifies the inputs deterministically
	Fingerprint string `json:"fingerprint"`

	ServiceCategory ServiceCategory `json:"service_category"`
	ClientIndustry  ClientIndustry  `json:"client_industry"`
	Jurisdiction    string          `json:"jurisdiction"`

	DiscountPct decimal.Decimal `json:"discount_pct"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	DocLevel    DocLevel        `json:"doc_level"`

	SuggestedItems []SuggestedItem `json:"suggested_items"`

	PaymentTerms string `json:"payment_terms"`
	ServiceNotes string `json:"service_notes"`

	// Totals previews the invoice arithmetic on the context's total amount
	Totals *Totals `json:"totals"`

	Adjustments   []Adjustment      `json:"adjustments,omitempty"`
	ModelVersions map[string]string `json:"model_versions,omitempty"`
}
