// Package types - Currency and invoice totals
package types

import (
	"strings"

	"invoice-advisor/core/determinism"
	apperrors "invoice-advisor/internal/errors"
)

// Currency represents a currency code
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)

// String returns the string representation
func (c Currency) String() string {
	return string(c)
}

// Totals is the invoice arithmetic for a set of lines: subtotal, discount,
// taxable base, tax and grand total.
type Totals struct {
	// Subtotal is the sum of all line amounts
	Subtotal determinism.Money `json:"subtotal"`

	// DiscountAmount is subtotal * discount%
	DiscountAmount determinism.Money `json:"discount_amount"`

	// TaxableAmount is subtotal - discount
	TaxableAmount determinism.Money `json:"taxable_amount"`

	// TaxAmount is taxable * tax%
	TaxAmount determinism.Money `json:"tax_amount"`

	// Total is taxable + tax
	Total determinism.Money `json:"total"`

	// TotalHours is the sum of line hours (zero when unknown)
	TotalHours string `json:"total_hours"`
}

// Currencies lists the supported currencies
var Currencies = []Currency{CurrencyEUR, CurrencyGBP, CurrencyUSD}

// ParseCurrency parses an ISO currency code; empty means USD
func ParseCurrency(s string) (Currency, error) {
	if strings.TrimSpace(s) == "" {
		return CurrencyUSD, nil
	}
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Currencies {
		if c == known {
			return c, nil
		}
	}
	return "", apperrors.Validationf("unsupported currency %q", s).WithContext("field", "currency")
}
