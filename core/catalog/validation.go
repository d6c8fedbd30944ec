// Package catalog - Catalog validation
// Ensures catalog integrity and enforces invariants.
package catalog

import (
	"fmt"
	"strings"

	"invoice-advisor/core/types"
)

// ValidationRule is a catalog validation rule
type ValidationRule func(*Entry) error

// DefaultValidationRules returns the standard validation rules
func DefaultValidationRules() []ValidationRule {
	return []ValidationRule{
		validateKnownCategory,
		validateHasTemplates,
		validateRateRanges,
		validateUniqueDescriptions,
	}
}

// Validate checks every entry against rules, and that every service
// category has an entry.
func (c *Catalog) Validate(rules []ValidationRule) []error {
	var errors []error

	for _, category := range types.ServiceCategories {
		if _, ok := c.entries[category]; !ok {
			errors = append(errors, fmt.Errorf("%s: no catalog entry", category))
		}
	}

	for _, category := range c.Categories() {
		entry := c.entries[category]
		for _, rule := range rules {
			if err := rule(entry); err != nil {
				errors = append(errors, fmt.Errorf("%s: %w", category, err))
			}
		}
	}

	return errors
}

func validateKnownCategory(e *Entry) error {
	if !e.Category.IsValid() {
		return fmt.Errorf("unknown service category")
	}
	return nil
}

func validateHasTemplates(e *Entry) error {
	if len(e.Templates) == 0 {
		return fmt.Errorf("at least one template is required")
	}
	return nil
}

func validateRateRanges(e *Entry) error {
	for _, t := range e.Templates {
		if strings.TrimSpace(t.Description) == "" {
			return fmt.Errorf("template description is required")
		}
		if !t.MinRate.IsPositive() {
			return fmt.Errorf("%q: minimum rate must be positive", t.Description)
		}
		if t.MaxRate.LessThan(t.MinRate) {
			return fmt.Errorf("%q: maximum rate %s is below minimum rate %s", t.Description, t.MaxRate, t.MinRate)
		}
	}
	return nil
}

func validateUniqueDescriptions(e *Entry) error {
	seen := make(map[string]bool, len(e.Templates))
	for _, t := range e.Templates {
		if seen[t.Description] {
			return fmt.Errorf("duplicate template %q", t.Description)
		}
		seen[t.Description] = true
	}
	return nil
}

// MustValidate panics if validation fails
func (c *Catalog) MustValidate() {
	errors := c.Validate(DefaultValidationRules())
	if len(errors) > 0 {
		msgs := make([]string, len(errors))
		for i, err := range errors {
			msgs[i] = err.Error()
		}
		panic(fmt.Sprintf("catalog has %d validation errors: %s", len(errors), strings.Join(msgs, "; ")))
	}
}
